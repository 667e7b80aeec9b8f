package handlers

import (
	"context"

	"github.com/ersonp/scenecredits/internal/domain/entities"
	"github.com/ersonp/scenecredits/internal/domain/ports"
	"github.com/ersonp/scenecredits/internal/domain/services"
	"github.com/ersonp/scenecredits/internal/infrastructure/parsers"
)

// ReleaserHandler handles releaser maintenance at the application layer.
type ReleaserHandler struct {
	releaserService *services.ReleaserService
}

// NewReleaserHandler creates a new ReleaserHandler.
func NewReleaserHandler(relationalDB ports.RelationalDB) *ReleaserHandler {
	return &ReleaserHandler{
		releaserService: services.NewReleaserService(relationalDB),
	}
}

// ReleaserListResult contains the result of listing releasers.
type ReleaserListResult struct {
	Releasers []*entities.Releaser `json:"releasers"`
	Total     int                  `json:"total"`
}

// HandleAdd creates a releaser with its primary nick.
func (h *ReleaserHandler) HandleAdd(ctx context.Context, name string, kind entities.Kind, countryCode string) (*services.ReleaserDetail, error) {
	r, _, err := h.releaserService.CreateReleaser(ctx, name, kind, countryCode)
	if err != nil {
		return nil, err
	}
	return h.releaserService.Get(ctx, r.ID)
}

// HandleAddNick adds a nick, with optional extra variants, to a releaser.
func (h *ReleaserHandler) HandleAddNick(ctx context.Context, releaserID int64, name, abbreviation, differentiator string, variants ...string) (*entities.Nick, error) {
	return h.releaserService.AddNick(ctx, releaserID, name, abbreviation, differentiator, variants...)
}

// HandleAddAlias indexes an extra spelling for a nick.
func (h *ReleaserHandler) HandleAddAlias(ctx context.Context, nickID int64, text string) (*entities.NickVariant, error) {
	return h.releaserService.AddVariant(ctx, nickID, text)
}

// HandleRename renames a releaser along with its primary nick.
func (h *ReleaserHandler) HandleRename(ctx context.Context, releaserID int64, name string) error {
	return h.releaserService.RenameReleaser(ctx, releaserID, name)
}

// HandleRenameNick renames a single nick.
func (h *ReleaserHandler) HandleRenameNick(ctx context.Context, nickID int64, name string) error {
	return h.releaserService.RenameNick(ctx, nickID, name)
}

// HandleAddMembership records that memberID belongs to groupID.
func (h *ReleaserHandler) HandleAddMembership(ctx context.Context, memberID, groupID int64, current bool) (*entities.Membership, error) {
	return h.releaserService.AddMembership(ctx, memberID, groupID, current)
}

// HandleShow returns a releaser with its nicks, variants and groups.
func (h *ReleaserHandler) HandleShow(ctx context.Context, releaserID int64) (*services.ReleaserDetail, error) {
	return h.releaserService.Get(ctx, releaserID)
}

// HandleList returns releasers with pagination.
func (h *ReleaserHandler) HandleList(ctx context.Context, limit, offset int) (*ReleaserListResult, error) {
	releasers, err := h.releaserService.List(ctx, limit, offset)
	if err != nil {
		return nil, err
	}

	count, err := h.releaserService.Count(ctx)
	if err != nil {
		return nil, err
	}

	return &ReleaserListResult{
		Releasers: releasers,
		Total:     count,
	}, nil
}

// HandleDelete removes a releaser with its nicks and memberships.
func (h *ReleaserHandler) HandleDelete(ctx context.Context, releaserID int64) error {
	return h.releaserService.Delete(ctx, releaserID)
}

// HandleExport returns releasers in the shape the import parsers read, so
// an export can be imported into another database. Every nick and variant
// other than the primary name becomes an alias.
func (h *ReleaserHandler) HandleExport(ctx context.Context, limit int) ([]parsers.RawReleaser, error) {
	releasers, err := h.releaserService.List(ctx, limit, 0)
	if err != nil {
		return nil, err
	}

	out := make([]parsers.RawReleaser, 0, len(releasers))
	for _, r := range releasers {
		detail, err := h.releaserService.Get(ctx, r.ID)
		if err != nil {
			return nil, err
		}

		raw := parsers.RawReleaser{
			Name:    r.Name,
			Kind:    string(r.Kind()),
			Country: r.CountryCode,
		}
		seen := map[string]bool{entities.MatchKey(r.Name): true}
		for _, n := range detail.Nicks {
			for _, v := range detail.Variants[n.ID] {
				if seen[v.MatchKey] {
					continue
				}
				seen[v.MatchKey] = true
				raw.Aliases = append(raw.Aliases, v.Name)
			}
		}
		for _, g := range detail.Groups {
			raw.Groups = append(raw.Groups, g.Name)
		}
		out = append(out, raw)
	}
	return out, nil
}
