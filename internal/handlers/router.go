package handlers

import (
	"net/http"

	"parkshare/internal/middleware"
	"parkshare/internal/models"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
)

// Routes bundles everything the router mounts. Metrics, MetricsHandler and
// Media are optional.
type Routes struct {
	Validator      middleware.TokenValidator
	Metrics        *middleware.Metrics
	MetricsHandler http.Handler
	Media          http.Handler
	MediaPrefix    string

	Users       *UserHandler
	Accounts    *AccountHandler
	Friends     *FriendHandler
	Parks       *ParkHandler
	Posts       *PostHandler
	Recipes     *RecipeHandler
	Tags        *AttributeHandler
	Ingredients *AttributeHandler
	Uploads     *UploadHandler
	WebSocket   *WebSocketHandler
}

// NewRouter builds the HTTP surface
func NewRouter(rt Routes) http.Handler {
	r := chi.NewRouter()

	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(corsMiddleware)
	if rt.Metrics != nil {
		r.Use(rt.Metrics.Handler)
	}

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if rt.MetricsHandler != nil {
		r.Handle("/metrics", rt.MetricsHandler)
	}
	if rt.Media != nil {
		r.Handle(rt.MediaPrefix+"/*", http.StripPrefix(rt.MediaPrefix+"/", rt.Media))
	}

	r.Route("/api/v1", func(r chi.Router) {
		// Public routes
		r.Post("/users", rt.Users.CreateUser)
		r.Post("/token", rt.Users.CreateToken)

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(middleware.AuthMiddleware(rt.Validator))

			r.Get("/users/me", rt.Users.GetMe)
			r.Put("/users/me/push-token", rt.Users.UpdatePushToken)

			r.Route("/accounts", func(r chi.Router) {
				r.Get("/", rt.Accounts.ListAccounts)
				r.Post("/", rt.Accounts.CreateAccount)
				r.Get("/{id}", rt.Accounts.GetAccount)
				r.Put("/{id}", rt.Accounts.UpdateAccount)
				r.Patch("/{id}", rt.Accounts.UpdateAccount)
				r.Delete("/{id}", rt.Accounts.DeleteAccount)
				r.Post("/{id}/update-friends", rt.Accounts.UpdateFriends)
				r.Post("/{id}/upload-image", rt.Uploads.UploadImage(models.ImageAccount))
			})

			r.Route("/friends", func(r chi.Router) {
				r.Get("/", rt.Friends.ListFriends)
				r.Get("/{id}", rt.Friends.GetFriend)
				r.Put("/{id}", rt.Friends.UpdateFriend)
				r.Patch("/{id}", rt.Friends.UpdateFriend)
				r.Delete("/{id}", rt.Friends.RemoveFriend)
			})

			r.Route("/friend-requests", func(r chi.Router) {
				r.Get("/", rt.Friends.ListFriendRequests)
				r.Post("/", rt.Friends.SendFriendRequest)
				r.Post("/{id}/accept", rt.Friends.AcceptFriendRequest)
				r.Delete("/{id}", rt.Friends.DeleteFriendRequest)
			})

			r.Route("/parks", func(r chi.Router) {
				r.Get("/", rt.Parks.ListParks)
				r.Post("/", rt.Parks.CreatePark)
				r.Get("/{id}", rt.Parks.GetPark)
				r.Put("/{id}", rt.Parks.UpdatePark)
				r.Patch("/{id}", rt.Parks.UpdatePark)
				r.Delete("/{id}", rt.Parks.DeletePark)
				r.Post("/{id}/upload-image", rt.Uploads.UploadImage(models.ImagePark))
			})

			r.Route("/posts", func(r chi.Router) {
				r.Get("/", rt.Posts.ListPosts)
				r.Post("/", rt.Posts.CreatePost)
				r.Get("/{id}", rt.Posts.GetPost)
				r.Put("/{id}", rt.Posts.UpdatePost)
				r.Patch("/{id}", rt.Posts.UpdatePost)
				r.Delete("/{id}", rt.Posts.DeletePost)
				r.Get("/{id}/comments", rt.Posts.ListComments)
				r.Post("/{id}/comments", rt.Posts.AddComment)
				r.Post("/{id}/upload-image", rt.Uploads.UploadImage(models.ImagePost))
			})
			r.Delete("/comments/{id}", rt.Posts.DeleteComment)

			r.Route("/recipes", func(r chi.Router) {
				r.Get("/", rt.Recipes.ListRecipes)
				r.Post("/", rt.Recipes.CreateRecipe)
				r.Get("/{id}", rt.Recipes.GetRecipe)
				r.Put("/{id}", rt.Recipes.UpdateRecipe)
				r.Patch("/{id}", rt.Recipes.UpdateRecipe)
				r.Delete("/{id}", rt.Recipes.DeleteRecipe)
				r.Post("/{id}/upload-image", rt.Uploads.UploadImage(models.ImageRecipe))
			})

			mountAttributes(r, "/tags", rt.Tags)
			mountAttributes(r, "/ingredients", rt.Ingredients)
		})
	})

	if rt.WebSocket != nil {
		r.Get("/ws", rt.WebSocket.HandleWebSocket)
	}

	return r
}

func mountAttributes(r chi.Router, prefix string, h *AttributeHandler) {
	r.Route(prefix, func(r chi.Router) {
		r.Get("/", h.List)
		r.Get("/{id}", h.Get)
		r.Put("/{id}", h.Rename)
		r.Patch("/{id}", h.Rename)
		r.Delete("/{id}", h.Delete)
	})
}

// corsMiddleware handles CORS
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Authorization, Content-Type")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
