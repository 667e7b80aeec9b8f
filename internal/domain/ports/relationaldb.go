// Package ports defines interfaces for external service communication.
package ports

import (
	"context"

	"github.com/ersonp/scenecredits/internal/domain/entities"
)

// VariantQuery selects nick variants by their text.
type VariantQuery struct {
	// Text is compared case-insensitively against the variant's match key.
	Text string
	// Exact requires the whole variant to equal Text; otherwise Text is a prefix.
	Exact bool
	// Kind restricts results by the owning releaser's kind.
	Kind entities.KindFilter
}

// VariantRow is a nick variant joined to its nick and releaser.
type VariantRow struct {
	Variant  entities.NickVariant
	Nick     entities.Nick
	Releaser entities.Releaser
}

// IsPrimaryVariant reports whether the variant text equals the nick's own name.
func (r *VariantRow) IsPrimaryVariant() bool {
	return r.Variant.Name == r.Nick.Name
}

// RelationalDB defines the storage operations the name-resolution
// subsystem needs. Lookups return (nil, nil) when a row does not exist.
type RelationalDB interface {
	// EnsureSchema creates the database schema if it doesn't exist.
	EnsureSchema(ctx context.Context) error

	// Close closes the database connection.
	Close() error

	// WithinTx runs fn against a store bound to a single transaction.
	// The transaction commits if fn returns nil and rolls back otherwise.
	// Nested calls join the enclosing transaction.
	WithinTx(ctx context.Context, fn func(tx RelationalDB) error) error

	// Releaser operations

	// CreateReleaser inserts r together with its primary nick and that
	// nick's self-variant, sets r.ID and returns the primary nick.
	CreateReleaser(ctx context.Context, r *entities.Releaser) (*entities.Nick, error)

	// FindReleaserByID finds a releaser by its ID.
	FindReleaserByID(ctx context.Context, id int64) (*entities.Releaser, error)

	// ListReleasers lists releasers ordered by name.
	ListReleasers(ctx context.Context, limit, offset int) ([]*entities.Releaser, error)

	// CountReleasers returns the total number of releasers.
	CountReleasers(ctx context.Context) (int, error)

	// DeleteReleaser deletes a releaser with its nicks, variants and memberships.
	DeleteReleaser(ctx context.Context, id int64) error

	// Nick operations

	// SaveNick inserts a new nick and its self-variant and sets n.ID.
	SaveNick(ctx context.Context, n *entities.Nick) error

	// FindNickByID finds a nick by its ID.
	FindNickByID(ctx context.Context, id int64) (*entities.Nick, error)

	// FindNicksByReleaser lists all nicks of a releaser.
	FindNicksByReleaser(ctx context.Context, releaserID int64) ([]entities.Nick, error)

	// RenameNick renames a nick and its self-variant. When the nick is the
	// releaser's primary nick the releaser is renamed too.
	RenameNick(ctx context.Context, nickID int64, name string) error

	// SaveNickVariant inserts an additional variant and sets v.ID.
	SaveNickVariant(ctx context.Context, v *entities.NickVariant) error

	// FindVariantsByNick lists all variants of a nick.
	FindVariantsByNick(ctx context.Context, nickID int64) ([]entities.NickVariant, error)

	// Lookup operations

	// FindVariants returns every variant matching q, unordered.
	FindVariants(ctx context.Context, q VariantQuery) ([]VariantRow, error)

	// CountAffiliations returns, per candidate releaser, the number of
	// membership edges joining it to any releaser in contextIDs (in either
	// direction). Candidates without edges are absent from the map.
	CountAffiliations(ctx context.Context, candidateIDs, contextIDs []int64) (map[int64]int, error)

	// FindCurrentGroups returns the current groups of each releaser, ordered by name.
	FindCurrentGroups(ctx context.Context, releaserIDs []int64) (map[int64][]entities.Releaser, error)

	// Membership operations

	// SaveMembership inserts a membership edge and sets m.ID.
	SaveMembership(ctx context.Context, m *entities.Membership) error

	// Production operations

	// SaveProduction saves or updates a production.
	SaveProduction(ctx context.Context, p *entities.Production) error

	// FindProduction finds a production by its ID.
	FindProduction(ctx context.Context, id string) (*entities.Production, error)

	// SaveByline replaces the credits of a production.
	SaveByline(ctx context.Context, productionID string, authorNickIDs, affiliationNickIDs []int64) error

	// FindByline returns the ordered credits of a production.
	FindByline(ctx context.Context, productionID string) (*entities.Byline, error)
}
