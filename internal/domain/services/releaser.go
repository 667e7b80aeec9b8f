package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/ersonp/scenecredits/internal/domain/entities"
	"github.com/ersonp/scenecredits/internal/domain/ports"
)

// ReleaserDetail is a releaser with its nicks, their variants and its groups.
type ReleaserDetail struct {
	Releaser *entities.Releaser               `json:"releaser"`
	Nicks    []entities.Nick                  `json:"nicks"`
	Variants map[int64][]entities.NickVariant `json:"variants"`
	Groups   []entities.Releaser              `json:"groups,omitempty"`
}

// PrimaryNick returns the nick whose name is the releaser's name.
func (d *ReleaserDetail) PrimaryNick() *entities.Nick {
	for i := range d.Nicks {
		if d.Nicks[i].Name == d.Releaser.Name {
			return &d.Nicks[i]
		}
	}
	return nil
}

// ReleaserService is the only writer of releasers, nicks, variants and
// memberships.
type ReleaserService struct {
	relationalDB ports.RelationalDB
}

// NewReleaserService creates a new ReleaserService.
func NewReleaserService(relationalDB ports.RelationalDB) *ReleaserService {
	return &ReleaserService{
		relationalDB: relationalDB,
	}
}

// CreateReleaser creates a releaser together with its primary nick.
func (s *ReleaserService) CreateReleaser(ctx context.Context, name string, kind entities.Kind, countryCode string) (*entities.Releaser, *entities.Nick, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, nil, fmt.Errorf("creating releaser: %w", entities.ErrInvalidName)
	}

	r := &entities.Releaser{
		Name:        name,
		IsGroup:     kind == entities.KindGroup,
		CountryCode: strings.ToLower(strings.TrimSpace(countryCode)),
	}
	nick, err := s.relationalDB.CreateReleaser(ctx, r)
	if err != nil {
		return nil, nil, fmt.Errorf("creating releaser %q: %w", name, err)
	}

	zerolog.Ctx(ctx).Info().
		Int64("releaser_id", r.ID).
		Int64("nick_id", nick.ID).
		Str("name", r.Name).
		Str("kind", string(r.Kind())).
		Msg("releaser created")

	return r, nick, nil
}

// AddNick adds a further nick to a releaser. The nick is indexed under its
// own name, its abbreviation and any extra variants.
func (s *ReleaserService) AddNick(ctx context.Context, releaserID int64, name, abbreviation, differentiator string, variants ...string) (*entities.Nick, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("adding nick: %w", entities.ErrInvalidName)
	}

	r, err := s.relationalDB.FindReleaserByID(ctx, releaserID)
	if err != nil {
		return nil, fmt.Errorf("finding releaser: %w", err)
	}
	if r == nil {
		return nil, fmt.Errorf("releaser %d: %w", releaserID, entities.ErrNotFound)
	}
	if err := s.checkNickName(ctx, releaserID, 0, name); err != nil {
		return nil, fmt.Errorf("adding nick: %w", err)
	}

	nick := &entities.Nick{
		ReleaserID:     releaserID,
		Name:           name,
		Abbreviation:   strings.TrimSpace(abbreviation),
		Differentiator: strings.TrimSpace(differentiator),
	}
	if err := s.relationalDB.SaveNick(ctx, nick); err != nil {
		return nil, fmt.Errorf("saving nick: %w", err)
	}

	extra := variants
	if nick.Abbreviation != "" {
		extra = append([]string{nick.Abbreviation}, variants...)
	}
	seen := map[string]bool{entities.MatchKey(name): true}
	for _, text := range extra {
		key := entities.MatchKey(text)
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		if _, err := s.AddVariant(ctx, nick.ID, text); err != nil {
			return nil, err
		}
	}

	return nick, nil
}

// AddVariant indexes an alternate spelling of a nick.
func (s *ReleaserService) AddVariant(ctx context.Context, nickID int64, text string) (*entities.NickVariant, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, fmt.Errorf("adding variant: %w", entities.ErrInvalidName)
	}

	nick, err := s.relationalDB.FindNickByID(ctx, nickID)
	if err != nil {
		return nil, fmt.Errorf("finding nick: %w", err)
	}
	if nick == nil {
		return nil, fmt.Errorf("nick %d: %w", nickID, entities.ErrNotFound)
	}

	v := entities.NewNickVariant(nickID, text)
	if err := s.relationalDB.SaveNickVariant(ctx, v); err != nil {
		return nil, fmt.Errorf("saving variant: %w", err)
	}
	return v, nil
}

// RenameNick renames a nick. Renaming the primary nick renames the releaser.
func (s *ReleaserService) RenameNick(ctx context.Context, nickID int64, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("renaming nick: %w", entities.ErrInvalidName)
	}

	nick, err := s.relationalDB.FindNickByID(ctx, nickID)
	if err != nil {
		return fmt.Errorf("finding nick: %w", err)
	}
	if nick == nil {
		return fmt.Errorf("nick %d: %w", nickID, entities.ErrNotFound)
	}
	if err := s.checkNickName(ctx, nick.ReleaserID, nick.ID, name); err != nil {
		return fmt.Errorf("renaming nick: %w", err)
	}

	if err := s.relationalDB.RenameNick(ctx, nickID, name); err != nil {
		return fmt.Errorf("renaming nick: %w", err)
	}
	return nil
}

// checkNickName keeps nick names unique within a releaser, ignoring case, so
// exactly one nick can equal the releaser's name. exceptNickID is the nick
// being renamed.
func (s *ReleaserService) checkNickName(ctx context.Context, releaserID, exceptNickID int64, name string) error {
	nicks, err := s.relationalDB.FindNicksByReleaser(ctx, releaserID)
	if err != nil {
		return fmt.Errorf("finding nicks: %w", err)
	}
	key := entities.MatchKey(name)
	for _, n := range nicks {
		if n.ID != exceptNickID && entities.MatchKey(n.Name) == key {
			return fmt.Errorf("releaser %d already has a nick named %q: %w", releaserID, n.Name, entities.ErrInvalidName)
		}
	}
	return nil
}

// RenameReleaser renames a releaser by renaming its primary nick.
func (s *ReleaserService) RenameReleaser(ctx context.Context, releaserID int64, name string) error {
	detail, err := s.Get(ctx, releaserID)
	if err != nil {
		return err
	}
	primary := detail.PrimaryNick()
	if primary == nil {
		return fmt.Errorf("releaser %d has no primary nick: %w", releaserID, entities.ErrNotFound)
	}
	return s.RenameNick(ctx, primary.ID, name)
}

// AddMembership records that memberID belongs (or belonged) to groupID.
func (s *ReleaserService) AddMembership(ctx context.Context, memberID, groupID int64, current bool) (*entities.Membership, error) {
	if memberID == groupID {
		return nil, fmt.Errorf("releaser %d cannot be a member of itself", memberID)
	}

	group, err := s.relationalDB.FindReleaserByID(ctx, groupID)
	if err != nil {
		return nil, fmt.Errorf("finding group: %w", err)
	}
	if group == nil {
		return nil, fmt.Errorf("group %d: %w", groupID, entities.ErrNotFound)
	}
	if !group.IsGroup {
		return nil, fmt.Errorf("releaser %d (%s) is not a group", groupID, group.Name)
	}

	member, err := s.relationalDB.FindReleaserByID(ctx, memberID)
	if err != nil {
		return nil, fmt.Errorf("finding member: %w", err)
	}
	if member == nil {
		return nil, fmt.Errorf("member %d: %w", memberID, entities.ErrNotFound)
	}

	m := &entities.Membership{MemberID: memberID, GroupID: groupID, IsCurrent: current}
	if err := s.relationalDB.SaveMembership(ctx, m); err != nil {
		return nil, fmt.Errorf("saving membership: %w", err)
	}
	return m, nil
}

// Get returns a releaser with its nicks, variants and current groups.
func (s *ReleaserService) Get(ctx context.Context, releaserID int64) (*ReleaserDetail, error) {
	r, err := s.relationalDB.FindReleaserByID(ctx, releaserID)
	if err != nil {
		return nil, fmt.Errorf("finding releaser: %w", err)
	}
	if r == nil {
		return nil, fmt.Errorf("releaser %d: %w", releaserID, entities.ErrNotFound)
	}

	nicks, err := s.relationalDB.FindNicksByReleaser(ctx, releaserID)
	if err != nil {
		return nil, fmt.Errorf("finding nicks: %w", err)
	}

	variants := make(map[int64][]entities.NickVariant, len(nicks))
	for i := range nicks {
		vs, err := s.relationalDB.FindVariantsByNick(ctx, nicks[i].ID)
		if err != nil {
			return nil, fmt.Errorf("finding variants: %w", err)
		}
		variants[nicks[i].ID] = vs
	}

	groups, err := s.relationalDB.FindCurrentGroups(ctx, []int64{releaserID})
	if err != nil {
		return nil, fmt.Errorf("finding groups: %w", err)
	}

	return &ReleaserDetail{
		Releaser: r,
		Nicks:    nicks,
		Variants: variants,
		Groups:   groups[releaserID],
	}, nil
}

// List returns releasers ordered by name.
func (s *ReleaserService) List(ctx context.Context, limit, offset int) ([]*entities.Releaser, error) {
	return s.relationalDB.ListReleasers(ctx, limit, offset)
}

// Count returns the number of releasers.
func (s *ReleaserService) Count(ctx context.Context) (int, error) {
	return s.relationalDB.CountReleasers(ctx)
}

// Delete removes a releaser with its nicks and memberships.
func (s *ReleaserService) Delete(ctx context.Context, releaserID int64) error {
	if err := s.relationalDB.DeleteReleaser(ctx, releaserID); err != nil {
		return fmt.Errorf("deleting releaser: %w", err)
	}
	return nil
}
