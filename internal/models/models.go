package models

import "time"

// User represents an authentication identity
type User struct {
	ID           int64     `json:"id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	PasswordHash string    `json:"-"`
	IsActive     bool      `json:"is_active"`
	IsStaff      bool      `json:"is_staff"`
	PushToken    *string   `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// Account is the profile owned by exactly one user
type Account struct {
	ID       int64
	UserID   int64
	Name     string
	Pronouns string
	Bio      string
	Avatar   *string
	Friends  []Friend
}

// Friend is one endpoint of a friendship. An account's friends set holds
// Friend rows, never other accounts directly.
type Friend struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user"`
	CreatedAt time.Time `json:"created_at"`
}

// FriendRequest is a directional request between two users
type FriendRequest struct {
	ID         int64     `json:"id"`
	FromUserID int64     `json:"from_user"`
	ToUserID   int64     `json:"to_user"`
	CreatedAt  time.Time `json:"created_at"`
}

// Park represents a skate park location
type Park struct {
	ID           int64
	UserID       int64
	Name         string
	StreetNumber *int
	StreetName   string
	StreetSuffix string
	City         string
	State        string
	PostalCode   *int
	Country      string
	Description  string
	Image        *string
}

// DefaultCountry is used for parks created without a country
const DefaultCountry = "United States"

// Post is user content optionally tied to a park
type Post struct {
	ID          int64
	UserID      int64
	AccountID   *int64
	ParkID      *int64
	Title       string
	Description string
	Image       *string
	Tags        []Attribute
}

// AttributeKind selects one of the per-user name tables
type AttributeKind string

const (
	AttributeTags        AttributeKind = "tags"
	AttributeIngredients AttributeKind = "ingredients"
)

// Valid reports whether k names a known attribute table
func (k AttributeKind) Valid() bool {
	return k == AttributeTags || k == AttributeIngredients
}

// Attribute is a tag or an ingredient. Names are unique per user only.
type Attribute struct {
	ID     int64  `json:"id"`
	UserID int64  `json:"-"`
	Name   string `json:"name"`
}

// Recipe is a user recipe with tags and ingredients
type Recipe struct {
	ID          int64
	UserID      int64
	Title       string
	Description string
	TimeMinutes int
	Price       string
	Link        string
	Image       *string
	Tags        []Attribute
	Ingredients []Attribute
}

// Comment is a comment left on a post
type Comment struct {
	ID        int64     `json:"id"`
	PostID    int64     `json:"post"`
	UserID    int64     `json:"user"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// ImageKind names an entity type that owns one image slot
type ImageKind string

const (
	ImageAccount ImageKind = "account"
	ImagePark    ImageKind = "park"
	ImagePost    ImageKind = "post"
	ImageRecipe  ImageKind = "recipe"
)

// ImageKinds lists every entity type with an image slot
var ImageKinds = []ImageKind{ImageAccount, ImagePark, ImagePost, ImageRecipe}

// Namespace is the storage prefix for uploads of this kind
func (k ImageKind) Namespace() string {
	return "uploads/" + string(k)
}

// ImageField is the JSON field name of the image slot
func (k ImageKind) ImageField() string {
	if k == ImageAccount {
		return "avatar"
	}
	return "image"
}

// OwnerScoped reports whether entities of this kind are invisible to other users
func (k ImageKind) OwnerScoped() bool {
	return k == ImagePost || k == ImageRecipe
}

// ImageSlot is the current state of one entity's image
type ImageSlot struct {
	Kind    ImageKind
	ID      int64
	OwnerID int64
	Key     *string
}
