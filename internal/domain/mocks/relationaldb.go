// Package mocks provides in-memory implementations of the domain ports for tests.
package mocks

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ersonp/scenecredits/internal/domain/entities"
	"github.com/ersonp/scenecredits/internal/domain/ports"
)

type credit struct {
	nickID   int64
	role     entities.CreditRole
	position int
}

// RelationalDB is an in-memory implementation of ports.RelationalDB.
// It is not safe for concurrent use.
type RelationalDB struct {
	Releasers   map[int64]*entities.Releaser
	Nicks       map[int64]*entities.Nick
	Variants    map[int64]*entities.NickVariant
	Memberships map[int64]*entities.Membership
	Productions map[string]*entities.Production
	credits     map[string][]credit

	nextID int64
	inTx   bool

	// Err is returned by every operation when set.
	Err error
	// CreateReleaserErr is returned by CreateReleaser only.
	CreateReleaserErr error
	// SaveBylineErr is returned by SaveByline only.
	SaveBylineErr error

	// Call tracking
	CreateReleaserCallCount int
	FindVariantsCallCount   int
	TxCount                 int
	RollbackCount           int
}

// NewRelationalDB creates a new empty in-memory RelationalDB.
func NewRelationalDB() *RelationalDB {
	return &RelationalDB{
		Releasers:   make(map[int64]*entities.Releaser),
		Nicks:       make(map[int64]*entities.Nick),
		Variants:    make(map[int64]*entities.NickVariant),
		Memberships: make(map[int64]*entities.Membership),
		Productions: make(map[string]*entities.Production),
		credits:     make(map[string][]credit),
	}
}

func (m *RelationalDB) id() int64 {
	m.nextID++
	return m.nextID
}

// EnsureSchema is a no-op.
func (m *RelationalDB) EnsureSchema(_ context.Context) error {
	return m.Err
}

// Close is a no-op.
func (m *RelationalDB) Close() error {
	return nil
}

// WithinTx snapshots the store and restores the snapshot if fn fails.
func (m *RelationalDB) WithinTx(_ context.Context, fn func(tx ports.RelationalDB) error) error {
	if m.Err != nil {
		return m.Err
	}
	if m.inTx {
		return fn(m)
	}

	m.TxCount++
	snap := m.snapshot()
	m.inTx = true
	err := fn(m)
	m.inTx = false
	if err != nil {
		m.restore(snap)
		m.RollbackCount++
		return err
	}
	return nil
}

type snapshot struct {
	releasers   map[int64]entities.Releaser
	nicks       map[int64]entities.Nick
	variants    map[int64]entities.NickVariant
	memberships map[int64]entities.Membership
	productions map[string]entities.Production
	credits     map[string][]credit
	nextID      int64
}

func (m *RelationalDB) snapshot() snapshot {
	s := snapshot{
		releasers:   make(map[int64]entities.Releaser, len(m.Releasers)),
		nicks:       make(map[int64]entities.Nick, len(m.Nicks)),
		variants:    make(map[int64]entities.NickVariant, len(m.Variants)),
		memberships: make(map[int64]entities.Membership, len(m.Memberships)),
		productions: make(map[string]entities.Production, len(m.Productions)),
		credits:     make(map[string][]credit, len(m.credits)),
		nextID:      m.nextID,
	}
	for k, v := range m.Releasers {
		s.releasers[k] = *v
	}
	for k, v := range m.Nicks {
		s.nicks[k] = *v
	}
	for k, v := range m.Variants {
		s.variants[k] = *v
	}
	for k, v := range m.Memberships {
		s.memberships[k] = *v
	}
	for k, v := range m.Productions {
		s.productions[k] = *v
	}
	for k, v := range m.credits {
		s.credits[k] = append([]credit(nil), v...)
	}
	return s
}

func (m *RelationalDB) restore(s snapshot) {
	m.Releasers = make(map[int64]*entities.Releaser, len(s.releasers))
	for k, v := range s.releasers {
		m.Releasers[k] = &v
	}
	m.Nicks = make(map[int64]*entities.Nick, len(s.nicks))
	for k, v := range s.nicks {
		m.Nicks[k] = &v
	}
	m.Variants = make(map[int64]*entities.NickVariant, len(s.variants))
	for k, v := range s.variants {
		m.Variants[k] = &v
	}
	m.Memberships = make(map[int64]*entities.Membership, len(s.memberships))
	for k, v := range s.memberships {
		m.Memberships[k] = &v
	}
	m.Productions = make(map[string]*entities.Production, len(s.productions))
	for k, v := range s.productions {
		m.Productions[k] = &v
	}
	m.credits = s.credits
	m.nextID = s.nextID
}

// Releaser methods.

// CreateReleaser inserts a releaser with its primary nick and self-variant.
func (m *RelationalDB) CreateReleaser(_ context.Context, r *entities.Releaser) (*entities.Nick, error) {
	m.CreateReleaserCallCount++
	if m.Err != nil {
		return nil, m.Err
	}
	if m.CreateReleaserErr != nil {
		return nil, m.CreateReleaserErr
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now()
	}
	r.ID = m.id()
	stored := *r
	m.Releasers[r.ID] = &stored

	nick := &entities.Nick{ReleaserID: r.ID, Name: r.Name}
	m.insertNick(nick)
	out := *nick
	return &out, nil
}

// FindReleaserByID finds a releaser by its ID.
func (m *RelationalDB) FindReleaserByID(_ context.Context, id int64) (*entities.Releaser, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	r, ok := m.Releasers[id]
	if !ok {
		return nil, nil
	}
	out := *r
	return &out, nil
}

// ListReleasers lists releasers ordered by name.
func (m *RelationalDB) ListReleasers(_ context.Context, limit, offset int) ([]*entities.Releaser, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	all := make([]*entities.Releaser, 0, len(m.Releasers))
	for _, r := range m.Releasers {
		out := *r
		all = append(all, &out)
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].Name != all[j].Name {
			return all[i].Name < all[j].Name
		}
		return all[i].ID < all[j].ID
	})
	if offset >= len(all) {
		return []*entities.Releaser{}, nil
	}
	all = all[offset:]
	if limit > 0 && limit < len(all) {
		all = all[:limit]
	}
	return all, nil
}

// CountReleasers returns the number of releasers.
func (m *RelationalDB) CountReleasers(_ context.Context) (int, error) {
	if m.Err != nil {
		return 0, m.Err
	}
	return len(m.Releasers), nil
}

// DeleteReleaser deletes a releaser and everything hanging off it.
func (m *RelationalDB) DeleteReleaser(_ context.Context, id int64) error {
	if m.Err != nil {
		return m.Err
	}
	if _, ok := m.Releasers[id]; !ok {
		return fmt.Errorf("releaser not found: %d", id)
	}
	delete(m.Releasers, id)
	for nid, n := range m.Nicks {
		if n.ReleaserID != id {
			continue
		}
		for vid, v := range m.Variants {
			if v.NickID == nid {
				delete(m.Variants, vid)
			}
		}
		delete(m.Nicks, nid)
	}
	for mid, ms := range m.Memberships {
		if ms.MemberID == id || ms.GroupID == id {
			delete(m.Memberships, mid)
		}
	}
	return nil
}

// Nick methods.

func (m *RelationalDB) insertNick(n *entities.Nick) {
	n.ID = m.id()
	stored := *n
	m.Nicks[n.ID] = &stored

	v := entities.NewNickVariant(n.ID, n.Name)
	v.ID = m.id()
	m.Variants[v.ID] = v
}

// SaveNick inserts a nick and its self-variant.
func (m *RelationalDB) SaveNick(_ context.Context, n *entities.Nick) error {
	if m.Err != nil {
		return m.Err
	}
	if _, ok := m.Releasers[n.ReleaserID]; !ok {
		return fmt.Errorf("releaser not found: %d", n.ReleaserID)
	}
	m.insertNick(n)
	return nil
}

// FindNickByID finds a nick by its ID.
func (m *RelationalDB) FindNickByID(_ context.Context, id int64) (*entities.Nick, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	n, ok := m.Nicks[id]
	if !ok {
		return nil, nil
	}
	out := *n
	return &out, nil
}

// FindNicksByReleaser lists the nicks of a releaser ordered by name.
func (m *RelationalDB) FindNicksByReleaser(_ context.Context, releaserID int64) ([]entities.Nick, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	var result []entities.Nick
	for _, n := range m.Nicks {
		if n.ReleaserID == releaserID {
			result = append(result, *n)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result, nil
}

// RenameNick renames a nick, its self-variant and, for a primary nick, its releaser.
func (m *RelationalDB) RenameNick(_ context.Context, nickID int64, name string) error {
	if m.Err != nil {
		return m.Err
	}
	n, ok := m.Nicks[nickID]
	if !ok {
		return fmt.Errorf("nick not found: %d", nickID)
	}
	oldName := n.Name
	n.Name = name

	if r, ok := m.Releasers[n.ReleaserID]; ok && r.Name == oldName {
		r.Name = name
	}

	for _, v := range m.Variants {
		if v.NickID == nickID && v.Name == oldName {
			v.Name = name
			v.MatchKey = entities.MatchKey(name)
			v.SearchKey = entities.SearchKey(name)
			return nil
		}
	}
	v := entities.NewNickVariant(nickID, name)
	v.ID = m.id()
	m.Variants[v.ID] = v
	return nil
}

// SaveNickVariant inserts an additional variant.
func (m *RelationalDB) SaveNickVariant(_ context.Context, v *entities.NickVariant) error {
	if m.Err != nil {
		return m.Err
	}
	if _, ok := m.Nicks[v.NickID]; !ok {
		return fmt.Errorf("nick not found: %d", v.NickID)
	}
	v.ID = m.id()
	stored := *v
	m.Variants[v.ID] = &stored
	return nil
}

// FindVariantsByNick lists the variants of a nick ordered by name.
func (m *RelationalDB) FindVariantsByNick(_ context.Context, nickID int64) ([]entities.NickVariant, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	var result []entities.NickVariant
	for _, v := range m.Variants {
		if v.NickID == nickID {
			result = append(result, *v)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result, nil
}

// Lookup methods.

// FindVariants returns every variant matching q.
func (m *RelationalDB) FindVariants(_ context.Context, q ports.VariantQuery) ([]ports.VariantRow, error) {
	m.FindVariantsCallCount++
	if m.Err != nil {
		return nil, m.Err
	}
	key := entities.PrefixKey(q.Text)
	if q.Exact {
		key = entities.MatchKey(q.Text)
	}

	var rows []ports.VariantRow
	for _, v := range m.Variants {
		if q.Exact && v.MatchKey != key {
			continue
		}
		if !q.Exact && !strings.HasPrefix(v.MatchKey, key) {
			continue
		}
		n, ok := m.Nicks[v.NickID]
		if !ok {
			continue
		}
		r, ok := m.Releasers[n.ReleaserID]
		if !ok || !q.Kind.Allows(r.IsGroup) {
			continue
		}
		rows = append(rows, ports.VariantRow{Variant: *v, Nick: *n, Releaser: *r})
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Variant.ID < rows[j].Variant.ID })
	return rows, nil
}

// CountAffiliations counts membership edges between candidates and the context set.
func (m *RelationalDB) CountAffiliations(_ context.Context, candidateIDs, contextIDs []int64) (map[int64]int, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	candidates := toSet(candidateIDs)
	related := toSet(contextIDs)

	scores := make(map[int64]int)
	for _, ms := range m.Memberships {
		if candidates[ms.MemberID] && related[ms.GroupID] {
			scores[ms.MemberID]++
		}
		if candidates[ms.GroupID] && related[ms.MemberID] {
			scores[ms.GroupID]++
		}
	}
	return scores, nil
}

// FindCurrentGroups returns the current groups of each releaser ordered by name.
func (m *RelationalDB) FindCurrentGroups(_ context.Context, releaserIDs []int64) (map[int64][]entities.Releaser, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	wanted := toSet(releaserIDs)
	result := make(map[int64][]entities.Releaser)
	for _, ms := range m.Memberships {
		if !ms.IsCurrent || !wanted[ms.MemberID] {
			continue
		}
		if g, ok := m.Releasers[ms.GroupID]; ok {
			result[ms.MemberID] = append(result[ms.MemberID], *g)
		}
	}
	for id := range result {
		groups := result[id]
		sort.Slice(groups, func(i, j int) bool { return groups[i].Name < groups[j].Name })
	}
	return result, nil
}

// Membership methods.

// SaveMembership inserts a membership edge.
func (m *RelationalDB) SaveMembership(_ context.Context, ms *entities.Membership) error {
	if m.Err != nil {
		return m.Err
	}
	ms.ID = m.id()
	stored := *ms
	m.Memberships[ms.ID] = &stored
	return nil
}

// Production methods.

// SaveProduction saves or updates a production.
func (m *RelationalDB) SaveProduction(_ context.Context, p *entities.Production) error {
	if m.Err != nil {
		return m.Err
	}
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now()
	}
	stored := *p
	m.Productions[p.ID] = &stored
	return nil
}

// FindProduction finds a production by its ID.
func (m *RelationalDB) FindProduction(_ context.Context, id string) (*entities.Production, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	p, ok := m.Productions[id]
	if !ok {
		return nil, nil
	}
	out := *p
	return &out, nil
}

// SaveByline replaces the credits of a production.
func (m *RelationalDB) SaveByline(_ context.Context, productionID string, authorNickIDs, affiliationNickIDs []int64) error {
	if m.Err != nil {
		return m.Err
	}
	if m.SaveBylineErr != nil {
		return m.SaveBylineErr
	}
	credits := make([]credit, 0, len(authorNickIDs)+len(affiliationNickIDs))
	for i, id := range authorNickIDs {
		credits = append(credits, credit{nickID: id, role: entities.RoleAuthor, position: i})
	}
	for i, id := range affiliationNickIDs {
		credits = append(credits, credit{nickID: id, role: entities.RoleAffiliation, position: i})
	}
	m.credits[productionID] = credits
	return nil
}

// FindByline returns the ordered credits of a production.
func (m *RelationalDB) FindByline(_ context.Context, productionID string) (*entities.Byline, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	byline := &entities.Byline{}
	for _, c := range m.credits[productionID] {
		n, ok := m.Nicks[c.nickID]
		if !ok {
			continue
		}
		if c.role == entities.RoleAuthor {
			byline.Authors = append(byline.Authors, *n)
		} else {
			byline.Affiliations = append(byline.Affiliations, *n)
		}
	}
	return byline, nil
}

func toSet(ids []int64) map[int64]bool {
	set := make(map[int64]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return set
}
