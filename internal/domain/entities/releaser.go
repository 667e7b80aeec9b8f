package entities

import "time"

// Kind distinguishes the two sorts of releaser.
type Kind string

const (
	KindPerson Kind = "person"
	KindGroup  Kind = "group"
)

// ParseKind converts a user-supplied string to a Kind.
func ParseKind(s string) (Kind, bool) {
	switch s {
	case "person", "scener":
		return KindPerson, true
	case "group":
		return KindGroup, true
	default:
		return "", false
	}
}

// Releaser is a person or group that can be credited for a production.
// Name always equals the Name of exactly one of its nicks (the primary nick).
type Releaser struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	IsGroup     bool      `json:"is_group"`
	CountryCode string    `json:"country_code,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// Kind returns whether the releaser is a person or a group.
func (r *Releaser) Kind() Kind {
	if r.IsGroup {
		return KindGroup
	}
	return KindPerson
}

// Nick is one name a releaser is known by.
type Nick struct {
	ID             int64  `json:"id"`
	ReleaserID     int64  `json:"releaser_id"`
	Name           string `json:"name"`
	Abbreviation   string `json:"abbreviation,omitempty"`
	Differentiator string `json:"differentiator,omitempty"`
}

// NickVariant is an alternate spelling of a nick, indexed for lookup.
type NickVariant struct {
	ID        int64  `json:"id"`
	NickID    int64  `json:"nick_id"`
	Name      string `json:"name"`
	MatchKey  string `json:"match_key"`
	SearchKey string `json:"search_key"`
}

// NewNickVariant builds a variant with its derived keys filled in.
func NewNickVariant(nickID int64, name string) *NickVariant {
	return &NickVariant{
		NickID:    nickID,
		Name:      name,
		MatchKey:  MatchKey(name),
		SearchKey: SearchKey(name),
	}
}

// Membership is a directed edge from a member releaser to a group.
type Membership struct {
	ID        int64 `json:"id"`
	MemberID  int64 `json:"member_id"`
	GroupID   int64 `json:"group_id"`
	IsCurrent bool  `json:"is_current"`
}

// KindFilter restricts a lookup to persons, groups or either.
type KindFilter int

const (
	AnyKind KindFilter = iota
	PersonsOnly
	GroupsOnly
)

// Allows reports whether a releaser of the given kind passes the filter.
func (f KindFilter) Allows(isGroup bool) bool {
	switch f {
	case PersonsOnly:
		return !isGroup
	case GroupsOnly:
		return isGroup
	default:
		return true
	}
}

// AllowsKind is Allows for a Kind value.
func (f KindFilter) AllowsKind(k Kind) bool {
	return f.Allows(k == KindGroup)
}

// String returns the filter name used in logs and metrics.
func (f KindFilter) String() string {
	switch f {
	case PersonsOnly:
		return "persons"
	case GroupsOnly:
		return "groups"
	default:
		return "any"
	}
}
