package handlers

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/rs/zerolog"

	"github.com/ersonp/scenecredits/internal/domain/entities"
	"github.com/ersonp/scenecredits/internal/domain/ports"
	"github.com/ersonp/scenecredits/internal/domain/services"
	"github.com/ersonp/scenecredits/internal/infrastructure/parsers"
	"github.com/ersonp/scenecredits/internal/observability"
)

// errDryRun rolls back a row that was imported only for validation.
var errDryRun = errors.New("dry run")

// ImportHandler handles importing releasers from files.
type ImportHandler struct {
	relationalDB ports.RelationalDB
	metrics      *observability.Metrics
}

// NewImportHandler creates a new import handler.
func NewImportHandler(relationalDB ports.RelationalDB, metrics *observability.Metrics) *ImportHandler {
	return &ImportHandler{
		relationalDB: relationalDB,
		metrics:      metrics,
	}
}

// ImportOptions controls import behavior.
type ImportOptions struct {
	Format string // "json", "csv", or "auto"
	DryRun bool   // Validate without saving
}

// ImportError describes a row that could not be imported.
type ImportError struct {
	Line    int    `json:"line"`
	Name    string `json:"name"`
	Message string `json:"message"`
}

// ImportResult contains the result of an import operation.
type ImportResult struct {
	Imported      int           `json:"imported"`
	Skipped       int           `json:"skipped"`
	GroupsCreated int           `json:"groups_created"`
	Errors        []ImportError `json:"errors,omitempty"`
}

// Handle imports releasers from a file. Each row is written in its own
// transaction; a failing row is reported and the rest continue.
func (h *ImportHandler) Handle(ctx context.Context, filePath string, opts ImportOptions) (*ImportResult, error) {
	var parser parsers.Parser
	if opts.Format == "" || opts.Format == "auto" {
		parser = parsers.ForFile(filePath)
	} else {
		parser = parsers.ForFormat(opts.Format)
	}

	if parser == nil {
		return nil, fmt.Errorf("unsupported format for file: %s", filePath)
	}

	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("opening file: %w", err)
	}
	defer file.Close()

	rows, err := parser.Parse(file)
	if err != nil {
		return nil, fmt.Errorf("parsing file: %w", err)
	}

	result := &ImportResult{}
	for _, row := range rows {
		if err := h.importRow(ctx, row, opts.DryRun, result); err != nil {
			result.Errors = append(result.Errors, ImportError{
				Line:    row.LineNum,
				Name:    row.Name,
				Message: err.Error(),
			})
		}
	}

	zerolog.Ctx(ctx).Info().
		Str("file", filePath).
		Bool("dry_run", opts.DryRun).
		Int("imported", result.Imported).
		Int("skipped", result.Skipped).
		Int("groups_created", result.GroupsCreated).
		Int("errors", len(result.Errors)).
		Msg("import finished")

	return result, nil
}

// importRow creates one releaser with its aliases and memberships. A row
// naming an existing releaser of the same kind is skipped.
func (h *ImportHandler) importRow(ctx context.Context, row parsers.RawReleaser, dryRun bool, result *ImportResult) error {
	kind, ok := entities.ParseKind(row.Kind)
	if !ok {
		return fmt.Errorf("unknown kind %q (want person or group)", row.Kind)
	}

	var imported, groupsCreated int
	skipped := false

	err := h.relationalDB.WithinTx(ctx, func(tx ports.RelationalDB) error {
		svc := newServiceSet(tx, h.metrics)

		filter := entities.PersonsOnly
		if kind == entities.KindGroup {
			filter = entities.GroupsOnly
		}
		existing, err := svc.index.Search(ctx, row.Name, services.SearchOptions{Exact: true, Kind: filter})
		if err != nil {
			return err
		}
		for _, m := range existing {
			if m.IsPrimaryVariant && m.Nick.Name == m.Releaser.Name {
				skipped = true
				return nil
			}
		}

		r, nick, err := svc.releasers.CreateReleaser(ctx, row.Name, kind, row.Country)
		if err != nil {
			return err
		}
		for _, alias := range row.Aliases {
			if _, err := svc.releasers.AddVariant(ctx, nick.ID, alias); err != nil {
				return err
			}
		}

		for _, name := range row.Groups {
			group, created, err := h.resolveGroup(ctx, svc, name)
			if err != nil {
				return err
			}
			if created {
				groupsCreated++
			}
			if _, err := svc.releasers.AddMembership(ctx, r.ID, group.ReleaserID(), true); err != nil {
				return err
			}
		}

		imported = 1
		if dryRun {
			return errDryRun
		}
		return nil
	})
	if err != nil && !errors.Is(err, errDryRun) {
		return err
	}

	if skipped {
		result.Skipped++
		return nil
	}
	result.Imported += imported
	result.GroupsCreated += groupsCreated
	return nil
}

// resolveGroup finds the group called name, creating it when no group has
// that name. Several groups with the name is an error.
func (h *ImportHandler) resolveGroup(ctx context.Context, svc *serviceSet, name string) (entities.Selection, bool, error) {
	nr, err := svc.resolver.Resolve(ctx, name, services.ResolverOptions{Kind: entities.GroupsOnly})
	if err != nil {
		return entities.Selection{}, false, err
	}

	sel := nr.Selection
	if sel.IsZero() {
		if len(nr.Candidates()) > 0 {
			return sel, false, fmt.Errorf("group %q is ambiguous (%d matches)", name, len(nr.Candidates()))
		}
		sel = entities.Pending(name, entities.KindGroup)
	}

	committed, err := svc.committer.Commit(ctx, sel)
	if err != nil {
		return sel, false, fmt.Errorf("group %q: %w", name, err)
	}
	return committed, sel.IsPending(), nil
}
