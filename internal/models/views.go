package models

import (
	"bytes"
	"encoding/json"
)

// URLFunc turns a stored image key into a public URL
type URLFunc func(key string) string

func imageURL(key *string, resolve URLFunc) *string {
	if key == nil || *key == "" {
		return nil
	}
	if resolve == nil {
		return key
	}
	u := resolve(*key)
	return &u
}

// AccountView is the list projection of an account
type AccountView struct {
	ID       int64   `json:"id"`
	User     int64   `json:"user"`
	Name     string  `json:"name"`
	Pronouns string  `json:"pronouns"`
	Avatar   *string `json:"avatar"`
	Bio      string  `json:"bio"`
}

// AccountDetailView adds the friends set to AccountView
type AccountDetailView struct {
	AccountView
	Friends []Friend `json:"friends"`
}

// ListView projects an account for list responses
func (a *Account) ListView(resolve URLFunc) AccountView {
	return AccountView{
		ID:       a.ID,
		User:     a.UserID,
		Name:     a.Name,
		Pronouns: a.Pronouns,
		Avatar:   imageURL(a.Avatar, resolve),
		Bio:      a.Bio,
	}
}

// DetailView projects an account for detail responses
func (a *Account) DetailView(resolve URLFunc) AccountDetailView {
	friends := a.Friends
	if friends == nil {
		friends = []Friend{}
	}
	return AccountDetailView{AccountView: a.ListView(resolve), Friends: friends}
}

// ParkView is the list projection of a park
type ParkView struct {
	ID           int64  `json:"id"`
	Name         string `json:"name"`
	StreetNumber *int   `json:"street_number"`
	StreetName   string `json:"street_name"`
	StreetSuffix string `json:"street_suffix"`
	City         string `json:"city"`
	State        string `json:"state"`
	PostalCode   *int   `json:"postal_code"`
	Country      string `json:"country"`
}

// ParkDetailView adds description, owner and image to ParkView
type ParkDetailView struct {
	ParkView
	User        int64   `json:"user"`
	Description string  `json:"description"`
	Image       *string `json:"image"`
}

// ListView projects a park for list responses
func (p *Park) ListView() ParkView {
	return ParkView{
		ID:           p.ID,
		Name:         p.Name,
		StreetNumber: p.StreetNumber,
		StreetName:   p.StreetName,
		StreetSuffix: p.StreetSuffix,
		City:         p.City,
		State:        p.State,
		PostalCode:   p.PostalCode,
		Country:      p.Country,
	}
}

// DetailView projects a park for detail responses
func (p *Park) DetailView(resolve URLFunc) ParkDetailView {
	return ParkDetailView{
		ParkView:    p.ListView(),
		User:        p.UserID,
		Description: p.Description,
		Image:       imageURL(p.Image, resolve),
	}
}

// PostView is the list projection of a post
type PostView struct {
	ID    int64       `json:"id"`
	User  int64       `json:"user"`
	Title string      `json:"title"`
	Park  *int64      `json:"park"`
	Tags  []Attribute `json:"tags"`
}

// PostDetailView adds account, description and image to PostView
type PostDetailView struct {
	PostView
	Account     *int64  `json:"account"`
	Description string  `json:"description"`
	Image       *string `json:"image"`
}

// ListView projects a post for list responses
func (p *Post) ListView() PostView {
	tags := p.Tags
	if tags == nil {
		tags = []Attribute{}
	}
	return PostView{ID: p.ID, User: p.UserID, Title: p.Title, Park: p.ParkID, Tags: tags}
}

// DetailView projects a post for detail responses
func (p *Post) DetailView(resolve URLFunc) PostDetailView {
	return PostDetailView{
		PostView:    p.ListView(),
		Account:     p.AccountID,
		Description: p.Description,
		Image:       imageURL(p.Image, resolve),
	}
}

// RecipeView is the list projection of a recipe
type RecipeView struct {
	ID          int64       `json:"id"`
	Title       string      `json:"title"`
	TimeMinutes int         `json:"time_minutes"`
	Price       string      `json:"price"`
	Link        string      `json:"link"`
	Tags        []Attribute `json:"tags"`
	Ingredients []Attribute `json:"ingredients"`
}

// RecipeDetailView adds description and image to RecipeView
type RecipeDetailView struct {
	RecipeView
	Description string  `json:"description"`
	Image       *string `json:"image"`
}

// ListView projects a recipe for list responses
func (r *Recipe) ListView() RecipeView {
	tags, ingredients := r.Tags, r.Ingredients
	if tags == nil {
		tags = []Attribute{}
	}
	if ingredients == nil {
		ingredients = []Attribute{}
	}
	return RecipeView{
		ID:          r.ID,
		Title:       r.Title,
		TimeMinutes: r.TimeMinutes,
		Price:       r.Price,
		Link:        r.Link,
		Tags:        tags,
		Ingredients: ingredients,
	}
}

// DetailView projects a recipe for detail responses
func (r *Recipe) DetailView(resolve URLFunc) RecipeDetailView {
	return RecipeDetailView{
		RecipeView:  r.ListView(),
		Description: r.Description,
		Image:       imageURL(r.Image, resolve),
	}
}

// ImageView is the image-only projection returned by uploads. The image
// field is named after the kind's slot ("avatar" for accounts).
type ImageView struct {
	ID    int64
	Field string
	Image *string
}

// View projects an image slot
func (s *ImageSlot) View(resolve URLFunc) ImageView {
	return ImageView{ID: s.ID, Field: s.Kind.ImageField(), Image: imageURL(s.Key, resolve)}
}

// MarshalJSON renders {"id": ..., "<field>": ...}
func (v ImageView) MarshalJSON() ([]byte, error) {
	field := v.Field
	if field == "" {
		field = "image"
	}
	var buf bytes.Buffer
	id, err := json.Marshal(v.ID)
	if err != nil {
		return nil, err
	}
	name, err := json.Marshal(field)
	if err != nil {
		return nil, err
	}
	img, err := json.Marshal(v.Image)
	if err != nil {
		return nil, err
	}
	buf.WriteString(`{"id":`)
	buf.Write(id)
	buf.WriteByte(',')
	buf.Write(name)
	buf.WriteByte(':')
	buf.Write(img)
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
