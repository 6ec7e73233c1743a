package models

// FriendSpec names the user whose Friend row should join a friends set.
// A zero UserID means the requesting user.
type FriendSpec struct {
	UserID int64 `json:"user"`
}

// AccountPatch holds the optional fields of an account update. A nil Friends
// leaves the friends set untouched; a non-nil one replaces it.
type AccountPatch struct {
	Name     *string       `json:"name" validate:"omitempty,max=255"`
	Pronouns *string       `json:"pronouns" validate:"omitempty,max=30"`
	Bio      *string       `json:"bio" validate:"omitempty,max=255"`
	Friends  *[]FriendSpec `json:"friends"`
}

// Apply copies the set scalar fields onto a
func (p *AccountPatch) Apply(a *Account) {
	if p.Name != nil {
		a.Name = *p.Name
	}
	if p.Pronouns != nil {
		a.Pronouns = *p.Pronouns
	}
	if p.Bio != nil {
		a.Bio = *p.Bio
	}
}

// FriendPatch re-points a friends set membership at another user
type FriendPatch struct {
	UserID *int64 `json:"user"`
}

// ParkPatch holds the optional fields of a park update
type ParkPatch struct {
	Name         *string `json:"name" validate:"omitempty,min=1,max=255"`
	StreetNumber *int    `json:"street_number"`
	StreetName   *string `json:"street_name" validate:"omitempty,max=255"`
	StreetSuffix *string `json:"street_suffix" validate:"omitempty,max=255"`
	City         *string `json:"city" validate:"omitempty,max=255"`
	State        *string `json:"state" validate:"omitempty,max=255"`
	PostalCode   *int    `json:"postal_code"`
	Country      *string `json:"country" validate:"omitempty,max=255"`
	Description  *string `json:"description"`
}

// Apply copies the set fields onto p
func (pp *ParkPatch) Apply(p *Park) {
	if pp.Name != nil {
		p.Name = *pp.Name
	}
	if pp.StreetNumber != nil {
		p.StreetNumber = pp.StreetNumber
	}
	if pp.StreetName != nil {
		p.StreetName = *pp.StreetName
	}
	if pp.StreetSuffix != nil {
		p.StreetSuffix = *pp.StreetSuffix
	}
	if pp.City != nil {
		p.City = *pp.City
	}
	if pp.State != nil {
		p.State = *pp.State
	}
	if pp.PostalCode != nil {
		p.PostalCode = pp.PostalCode
	}
	if pp.Country != nil {
		p.Country = *pp.Country
	}
	if pp.Description != nil {
		p.Description = *pp.Description
	}
}

// TagSpec names a tag or ingredient to get-or-create
type TagSpec struct {
	Name string `json:"name" validate:"required,max=255"`
}

// PostPatch holds the optional fields of a post update. Tags follows the
// same nil/explicit contract as AccountPatch.Friends.
type PostPatch struct {
	Title       *string    `json:"title" validate:"omitempty,min=1,max=255"`
	Description *string    `json:"description"`
	ParkID      *int64     `json:"park"`
	ClearPark   bool       `json:"-"`
	Tags        *[]TagSpec `json:"tags" validate:"omitempty,dive"`
}

// Apply copies the set scalar fields onto p
func (pp *PostPatch) Apply(p *Post) {
	if pp.Title != nil {
		p.Title = *pp.Title
	}
	if pp.Description != nil {
		p.Description = *pp.Description
	}
	if pp.ClearPark {
		p.ParkID = nil
	} else if pp.ParkID != nil {
		p.ParkID = pp.ParkID
	}
}

// RecipePatch holds the optional fields of a recipe update
type RecipePatch struct {
	Title       *string    `json:"title" validate:"omitempty,min=1,max=255"`
	Description *string    `json:"description"`
	TimeMinutes *int       `json:"time_minutes" validate:"omitempty,min=0"`
	Price       *string    `json:"price" validate:"omitempty,numeric"`
	Link        *string    `json:"link" validate:"omitempty,max=255"`
	Tags        *[]TagSpec `json:"tags" validate:"omitempty,dive"`
	Ingredients *[]TagSpec `json:"ingredients" validate:"omitempty,dive"`
}

// Apply copies the set scalar fields onto r
func (rp *RecipePatch) Apply(r *Recipe) {
	if rp.Title != nil {
		r.Title = *rp.Title
	}
	if rp.Description != nil {
		r.Description = *rp.Description
	}
	if rp.TimeMinutes != nil {
		r.TimeMinutes = *rp.TimeMinutes
	}
	if rp.Price != nil {
		r.Price = *rp.Price
	}
	if rp.Link != nil {
		r.Link = *rp.Link
	}
}
