package cmd

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"parkshare/internal/config"
	"parkshare/internal/database"
	"parkshare/internal/handlers"
	"parkshare/internal/middleware"
	"parkshare/internal/models"
	"parkshare/internal/notify"
	"parkshare/internal/repository"
	"parkshare/internal/services"
	"parkshare/internal/storage"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func Run() {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config.yaml"
	}

	// Load configuration
	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", configPath).Msg("Failed to load configuration")
	}

	// Setup logger
	setupLogger(cfg.Log.Level)

	ctx := context.Background()

	// Connect to database
	db, err := database.Connect(ctx, cfg.Database.DSN())
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer db.Close()
	log.Info().Msg("Database connection established")

	if cfg.Database.Migrate {
		if err := database.Migrate(ctx, db); err != nil {
			log.Fatal().Err(err).Msg("Failed to migrate database")
		}
	}

	store := repository.NewPgStore(db)

	images, media, err := setupStorage(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Str("driver", cfg.Storage.Driver).Msg("Failed to set up image storage")
	}

	// Notifications
	hub := notify.NewHub()
	var pusher notify.Pusher
	if cfg.APNs.Enabled() {
		apns, err := notify.NewAPNsPusher(cfg.APNs)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create APNs client")
		}
		pusher = apns
		log.Info().Bool("production", cfg.APNs.Production).Msg("Push notifications enabled")
	}
	dispatcher := notify.NewDispatcher(hub, pusher, store.Users())

	// Initialize services
	userService := services.NewUserService(store, cfg.JWT.Secret, cfg.JWT.TTL)
	accountService := services.NewAccountService(store, images)
	friendService := services.NewFriendService(store, cfg.Friends, dispatcher)
	parkService := services.NewParkService(store, images)
	postService := services.NewPostService(store, images)
	recipeService := services.NewRecipeService(store, images)
	commentService := services.NewCommentService(store, postService)
	uploadService := services.NewUploadService(store, images, cfg.Storage.MaxUploadBytes())

	// Metrics
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	router := handlers.NewRouter(handlers.Routes{
		Validator:      userService,
		Metrics:        middleware.NewMetrics(registry),
		MetricsHandler: promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		Media:          media,
		MediaPrefix:    mediaPrefix(cfg.Storage.BaseURL),

		Users:       handlers.NewUserHandler(userService),
		Accounts:    handlers.NewAccountHandler(accountService, friendService, images.URL),
		Friends:     handlers.NewFriendHandler(friendService),
		Parks:       handlers.NewParkHandler(parkService, images.URL),
		Posts:       handlers.NewPostHandler(postService, commentService, images.URL),
		Recipes:     handlers.NewRecipeHandler(recipeService, images.URL),
		Tags:        handlers.NewAttributeHandler(services.NewAttributeService(store, models.AttributeTags)),
		Ingredients: handlers.NewAttributeHandler(services.NewAttributeService(store, models.AttributeIngredients)),
		Uploads:     handlers.NewUploadHandler(uploadService, cfg.Storage.MaxUploadBytes()),
		WebSocket:   handlers.NewWebSocketHandler(hub, userService),
	})

	// Create HTTP server
	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Info().
			Str("host", cfg.Server.Host).
			Int("port", cfg.Server.Port).
			Msg("Starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed to start")
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited")
}

// setupStorage builds the configured image store. The returned handler
// serves local media and is nil for s3.
func setupStorage(ctx context.Context, cfg *config.Config) (storage.ImageStore, http.Handler, error) {
	switch cfg.Storage.Driver {
	case "s3":
		s3Store, err := storage.NewS3Store(ctx, storage.S3Options{
			Region:    cfg.AWS.Region,
			Bucket:    cfg.AWS.S3Bucket,
			AccessKey: cfg.AWS.AccessKey,
			SecretKey: cfg.AWS.SecretKey,
			Endpoint:  cfg.AWS.Endpoint,
			PublicURL: cfg.AWS.PublicURL,
		})
		if err != nil {
			return nil, nil, err
		}
		log.Info().Str("bucket", cfg.AWS.S3Bucket).Msg("Using S3 image storage")
		return s3Store, nil, nil
	default:
		local, err := storage.NewLocalStore(cfg.Storage.LocalDir, cfg.Storage.BaseURL)
		if err != nil {
			return nil, nil, err
		}
		log.Info().Str("dir", local.Root()).Msg("Using local image storage")
		return local, local.Handler(), nil
	}
}

// mediaPrefix is the path part of the local media base URL
func mediaPrefix(baseURL string) string {
	u, err := url.Parse(baseURL)
	if err != nil || u.Path == "" {
		return "/media"
	}
	return strings.TrimSuffix(u.Path, "/")
}

// setupLogger configures zerolog logger
func setupLogger(level string) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	switch level {
	case "debug":
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case "info":
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	case "warn":
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	case "error":
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	default:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
}
