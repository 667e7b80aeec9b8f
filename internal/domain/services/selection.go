package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/ersonp/scenecredits/internal/domain/entities"
	"github.com/ersonp/scenecredits/internal/domain/ports"
	"github.com/ersonp/scenecredits/internal/observability"
)

// ErrNoSelection is returned when committing a zero Selection.
var ErrNoSelection = errors.New("no selection to commit")

// SelectionCommitter materializes selections. It is the only point at which
// resolving a name writes to the store.
type SelectionCommitter struct {
	relationalDB ports.RelationalDB
	releasers    *ReleaserService
	metrics      *observability.Metrics
}

// NewSelectionCommitter creates a new SelectionCommitter.
func NewSelectionCommitter(relationalDB ports.RelationalDB, metrics *observability.Metrics) *SelectionCommitter {
	return &SelectionCommitter{
		relationalDB: relationalDB,
		releasers:    NewReleaserService(relationalDB),
		metrics:      metrics,
	}
}

// Commit returns an Existing selection for sel. A Pending selection creates
// its releaser and primary nick; an Existing one is checked to still exist
// and refreshed. Committing the returned value again never creates anything.
func (c *SelectionCommitter) Commit(ctx context.Context, sel entities.Selection) (entities.Selection, error) {
	switch sel.State() {
	case entities.SelectionExisting:
		nick, err := c.relationalDB.FindNickByID(ctx, sel.NickID())
		if err != nil {
			c.metrics.RecordCommit(observability.CommitFailed)
			return sel, fmt.Errorf("finding nick %d: %w", sel.NickID(), err)
		}
		if nick == nil {
			c.metrics.RecordCommit(observability.CommitFailed)
			zerolog.Ctx(ctx).Warn().
				Int64("nick_id", sel.NickID()).
				Str("name", sel.Name()).
				Msg("selected nick no longer exists")
			return sel, &entities.ResolutionError{NickID: sel.NickID(), Name: sel.Name()}
		}
		c.metrics.RecordCommit(observability.CommitExisting)
		return entities.ExistingNick(nick), nil

	case entities.SelectionPending:
		_, nick, err := c.releasers.CreateReleaser(ctx, sel.Name(), sel.Kind(), "")
		if err != nil {
			c.metrics.RecordCommit(observability.CommitFailed)
			return sel, err
		}
		c.metrics.RecordCommit(observability.CommitCreated)
		return entities.ExistingNick(nick), nil

	default:
		return sel, ErrNoSelection
	}
}

// CommitAll commits each selection in order, stopping at the first error.
func (c *SelectionCommitter) CommitAll(ctx context.Context, sels []entities.Selection) ([]entities.Selection, error) {
	out := make([]entities.Selection, len(sels))
	for i, sel := range sels {
		committed, err := c.Commit(ctx, sel)
		if err != nil {
			return nil, err
		}
		out[i] = committed
	}
	return out, nil
}
