package entities

import "time"

// CreditRole marks whether a byline entry is an author or an affiliation.
type CreditRole string

const (
	RoleAuthor      CreditRole = "author"
	RoleAffiliation CreditRole = "affiliation"
)

// Production is a creative work that carries a byline.
type Production struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at"`
}

// Byline is the persisted credit list of a production: ordered author nicks
// followed by ordered affiliation nicks.
type Byline struct {
	Authors      []Nick `json:"authors"`
	Affiliations []Nick `json:"affiliations,omitempty"`
}

// IsEmpty reports whether the byline credits nobody.
func (b *Byline) IsEmpty() bool {
	return len(b.Authors) == 0 && len(b.Affiliations) == 0
}
