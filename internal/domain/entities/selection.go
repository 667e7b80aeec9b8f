package entities

import (
	"encoding/json"
	"fmt"
	"strings"
)

// SelectionState tells which variant a Selection holds.
type SelectionState int

const (
	// SelectionNone is the zero value: nothing chosen yet.
	SelectionNone SelectionState = iota
	// SelectionExisting refers to a nick already in the database.
	SelectionExisting
	// SelectionPending asks for a new releaser to be created on commit.
	SelectionPending
)

// Selection is the provisional choice made for one name field: either an
// existing nick or a releaser still to be created. It is a plain value;
// committing a Pending selection yields a new Existing value rather than
// changing the original.
type Selection struct {
	state      SelectionState
	nickID     int64
	releaserID int64
	name       string
	kind       Kind
}

// Existing returns a selection referring to the given nick.
func Existing(nickID, releaserID int64, name string) Selection {
	return Selection{state: SelectionExisting, nickID: nickID, releaserID: releaserID, name: name}
}

// ExistingNick returns a selection referring to n.
func ExistingNick(n *Nick) Selection {
	return Existing(n.ID, n.ReleaserID, n.Name)
}

// Pending returns a selection that will create a new releaser named name.
func Pending(name string, kind Kind) Selection {
	return Selection{state: SelectionPending, name: strings.TrimSpace(name), kind: kind}
}

// State returns which variant the selection holds.
func (s Selection) State() SelectionState { return s.state }

// IsZero reports whether nothing has been selected.
func (s Selection) IsZero() bool { return s.state == SelectionNone }

// IsExisting reports whether the selection refers to an existing nick.
func (s Selection) IsExisting() bool { return s.state == SelectionExisting }

// IsPending reports whether the selection still needs to be created.
func (s Selection) IsPending() bool { return s.state == SelectionPending }

// NickID returns the selected nick id, or 0 for pending selections.
func (s Selection) NickID() int64 { return s.nickID }

// ReleaserID returns the owning releaser id when known.
func (s Selection) ReleaserID() int64 { return s.releaserID }

// Name returns the display name (existing) or proposed name (pending).
func (s Selection) Name() string { return s.name }

// Kind returns the kind of releaser a pending selection will create.
func (s Selection) Kind() Kind { return s.kind }

// Equal reports whether two selections denote the same choice. Existing
// selections compare by nick id, pending ones by (name, kind).
func (s Selection) Equal(other Selection) bool {
	if s.state != other.state {
		return false
	}
	switch s.state {
	case SelectionExisting:
		return s.nickID == other.nickID
	case SelectionPending:
		return s.name == other.name && s.kind == other.kind
	default:
		return true
	}
}

// String renders the selection for logs and CLI output.
func (s Selection) String() string {
	switch s.state {
	case SelectionExisting:
		return fmt.Sprintf("existing(%d, %q)", s.nickID, s.name)
	case SelectionPending:
		return fmt.Sprintf("pending(%q, %s)", s.name, s.kind)
	default:
		return "none"
	}
}

type selectionJSON struct {
	State      string `json:"state"`
	NickID     int64  `json:"nick_id,omitempty"`
	ReleaserID int64  `json:"releaser_id,omitempty"`
	Name       string `json:"name,omitempty"`
	Kind       Kind   `json:"kind,omitempty"`
}

// MarshalJSON implements json.Marshaler.
func (s Selection) MarshalJSON() ([]byte, error) {
	out := selectionJSON{NickID: s.nickID, ReleaserID: s.releaserID, Name: s.name, Kind: s.kind}
	switch s.state {
	case SelectionExisting:
		out.State = "existing"
	case SelectionPending:
		out.State = "pending"
	default:
		out.State = "none"
	}
	return json.Marshal(out)
}
