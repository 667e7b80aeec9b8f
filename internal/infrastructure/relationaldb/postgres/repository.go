// Package postgres provides a PostgreSQL implementation of the RelationalDB interface.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ersonp/scenecredits/internal/domain/entities"
	"github.com/ersonp/scenecredits/internal/domain/ports"
	"github.com/ersonp/scenecredits/internal/infrastructure/config"
)

// timeNow returns the current time (can be mocked in tests).
var timeNow = time.Now

// DBTX is satisfied by *pgxpool.Pool, pgx.Tx and pgxmock pools.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
}

// Repository implements ports.RelationalDB using PostgreSQL.
type Repository struct {
	db   DBTX
	pool *pgxpool.Pool
	inTx bool
}

var _ ports.RelationalDB = (*Repository)(nil)

// Connect opens a connection pool and returns a repository using it.
func Connect(ctx context.Context, cfg config.PostgresConfig) (*Repository, error) {
	if cfg.DSN == "" {
		return nil, errors.New("postgres dsn is required")
	}

	poolConfig, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parsing postgres dsn: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolConfig.MaxConns = cfg.MaxConns
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging postgres: %w", err)
	}

	repo := NewRepository(pool)
	repo.pool = pool
	return repo, nil
}

// NewRepository wraps an existing pool or connection.
func NewRepository(db DBTX) *Repository {
	return &Repository{db: db}
}

// Close closes the connection pool if the repository owns one.
func (r *Repository) Close() error {
	if r.pool != nil {
		r.pool.Close()
	}
	return nil
}

// WithinTx runs fn against a repository bound to one transaction.
// Nested calls reuse the enclosing transaction.
func (r *Repository) WithinTx(ctx context.Context, fn func(tx ports.RelationalDB) error) error {
	if r.inTx {
		return fn(r)
	}

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}

	if err := fn(&Repository{db: tx, inTx: true}); err != nil {
		if rbErr := tx.Rollback(ctx); rbErr != nil {
			return fmt.Errorf("transaction error: %w (rollback error: %v)", err, rbErr)
		}
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// DropSchema removes every table EnsureSchema creates.
func (r *Repository) DropSchema(ctx context.Context) error {
	_, err := r.db.Exec(ctx, `DROP TABLE IF EXISTS production_credits, productions, memberships, nick_variants, nicks, releasers CASCADE`)
	if err != nil {
		return fmt.Errorf("dropping schema: %w", err)
	}
	return nil
}

// EnsureSchema creates the database schema if it doesn't exist.
func (r *Repository) EnsureSchema(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS releasers (
		id BIGSERIAL PRIMARY KEY,
		name TEXT NOT NULL,
		is_group BOOLEAN NOT NULL DEFAULT FALSE,
		country_code TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);
	CREATE INDEX IF NOT EXISTS idx_releasers_name ON releasers(name);

	CREATE TABLE IF NOT EXISTS nicks (
		id BIGSERIAL PRIMARY KEY,
		releaser_id BIGINT NOT NULL REFERENCES releasers(id) ON DELETE CASCADE,
		name TEXT NOT NULL,
		abbreviation TEXT NOT NULL DEFAULT '',
		differentiator TEXT NOT NULL DEFAULT ''
	);
	CREATE INDEX IF NOT EXISTS idx_nicks_releaser ON nicks(releaser_id);

	CREATE TABLE IF NOT EXISTS nick_variants (
		id BIGSERIAL PRIMARY KEY,
		nick_id BIGINT NOT NULL REFERENCES nicks(id) ON DELETE CASCADE,
		name TEXT NOT NULL,
		match_key TEXT NOT NULL,
		search_key TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_nick_variants_nick ON nick_variants(nick_id);
	CREATE INDEX IF NOT EXISTS idx_nick_variants_match ON nick_variants(match_key text_pattern_ops);

	CREATE TABLE IF NOT EXISTS memberships (
		id BIGSERIAL PRIMARY KEY,
		member_id BIGINT NOT NULL REFERENCES releasers(id) ON DELETE CASCADE,
		group_id BIGINT NOT NULL REFERENCES releasers(id) ON DELETE CASCADE,
		is_current BOOLEAN NOT NULL DEFAULT TRUE
	);
	CREATE INDEX IF NOT EXISTS idx_memberships_member ON memberships(member_id);
	CREATE INDEX IF NOT EXISTS idx_memberships_group ON memberships(group_id);

	CREATE TABLE IF NOT EXISTS productions (
		id UUID PRIMARY KEY,
		title TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);

	CREATE TABLE IF NOT EXISTS production_credits (
		production_id UUID NOT NULL REFERENCES productions(id) ON DELETE CASCADE,
		nick_id BIGINT NOT NULL REFERENCES nicks(id),
		role TEXT NOT NULL,
		position INTEGER NOT NULL,
		PRIMARY KEY (production_id, role, position)
	);
	CREATE INDEX IF NOT EXISTS idx_production_credits_nick ON production_credits(nick_id);
	`

	if _, err := r.db.Exec(ctx, schema); err != nil {
		return fmt.Errorf("creating schema: %w", err)
	}
	return nil
}

// CreateReleaser inserts a releaser with its primary nick and self-variant.
func (r *Repository) CreateReleaser(ctx context.Context, rel *entities.Releaser) (*entities.Nick, error) {
	if rel.CreatedAt.IsZero() {
		rel.CreatedAt = timeNow()
	}

	var nick *entities.Nick
	err := r.WithinTx(ctx, func(tx ports.RelationalDB) error {
		txRepo := tx.(*Repository)
		err := txRepo.db.QueryRow(ctx,
			`INSERT INTO releasers (name, is_group, country_code, created_at) VALUES ($1, $2, $3, $4) RETURNING id`,
			rel.Name, rel.IsGroup, rel.CountryCode, rel.CreatedAt,
		).Scan(&rel.ID)
		if err != nil {
			return fmt.Errorf("inserting releaser: %w", err)
		}

		nick = &entities.Nick{ReleaserID: rel.ID, Name: rel.Name}
		return txRepo.insertNick(ctx, nick)
	})
	if err != nil {
		return nil, err
	}
	return nick, nil
}

const releaserColumns = `id, name, is_group, country_code, created_at`

func scanReleaser(row pgx.Row) (*entities.Releaser, error) {
	var rel entities.Releaser
	if err := row.Scan(&rel.ID, &rel.Name, &rel.IsGroup, &rel.CountryCode, &rel.CreatedAt); err != nil {
		return nil, err
	}
	return &rel, nil
}

// FindReleaserByID finds a releaser by its ID.
func (r *Repository) FindReleaserByID(ctx context.Context, id int64) (*entities.Releaser, error) {
	rel, err := scanReleaser(r.db.QueryRow(ctx,
		`SELECT `+releaserColumns+` FROM releasers WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scanning releaser: %w", err)
	}
	return rel, nil
}

// ListReleasers lists releasers ordered by name. A limit of 0 lists all.
func (r *Repository) ListReleasers(ctx context.Context, limit, offset int) ([]*entities.Releaser, error) {
	var limitArg any
	if limit > 0 {
		limitArg = limit
	}
	rows, err := r.db.Query(ctx,
		`SELECT `+releaserColumns+` FROM releasers ORDER BY name ASC, id ASC LIMIT $1 OFFSET $2`,
		limitArg, offset,
	)
	if err != nil {
		return nil, fmt.Errorf("querying releasers: %w", err)
	}
	defer rows.Close()

	result := make([]*entities.Releaser, 0)
	for rows.Next() {
		rel, err := scanReleaser(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning releaser: %w", err)
		}
		result = append(result, rel)
	}
	return result, rows.Err()
}

// CountReleasers returns the total number of releasers.
func (r *Repository) CountReleasers(ctx context.Context) (int, error) {
	var count int64
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM releasers`).Scan(&count); err != nil {
		return 0, fmt.Errorf("counting releasers: %w", err)
	}
	return int(count), nil
}

// DeleteReleaser deletes a releaser. Nicks, variants and memberships cascade.
func (r *Repository) DeleteReleaser(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM releasers WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("deleting releaser: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("releaser not found: %d", id)
	}
	return nil
}

func (r *Repository) insertNick(ctx context.Context, n *entities.Nick) error {
	err := r.db.QueryRow(ctx,
		`INSERT INTO nicks (releaser_id, name, abbreviation, differentiator) VALUES ($1, $2, $3, $4) RETURNING id`,
		n.ReleaserID, n.Name, n.Abbreviation, n.Differentiator,
	).Scan(&n.ID)
	if err != nil {
		return fmt.Errorf("inserting nick: %w", err)
	}
	return r.SaveNickVariant(ctx, entities.NewNickVariant(n.ID, n.Name))
}

// SaveNick inserts a nick and its self-variant.
func (r *Repository) SaveNick(ctx context.Context, n *entities.Nick) error {
	return r.WithinTx(ctx, func(tx ports.RelationalDB) error {
		return tx.(*Repository).insertNick(ctx, n)
	})
}

const nickColumns = `id, releaser_id, name, abbreviation, differentiator`

// FindNickByID finds a nick by its ID.
func (r *Repository) FindNickByID(ctx context.Context, id int64) (*entities.Nick, error) {
	var n entities.Nick
	err := r.db.QueryRow(ctx, `SELECT `+nickColumns+` FROM nicks WHERE id = $1`, id).
		Scan(&n.ID, &n.ReleaserID, &n.Name, &n.Abbreviation, &n.Differentiator)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scanning nick: %w", err)
	}
	return &n, nil
}

// FindNicksByReleaser lists the nicks of a releaser ordered by name.
func (r *Repository) FindNicksByReleaser(ctx context.Context, releaserID int64) ([]entities.Nick, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+nickColumns+` FROM nicks WHERE releaser_id = $1 ORDER BY name ASC, id ASC`, releaserID)
	if err != nil {
		return nil, fmt.Errorf("querying nicks: %w", err)
	}
	defer rows.Close()

	var result []entities.Nick
	for rows.Next() {
		var n entities.Nick
		if err := rows.Scan(&n.ID, &n.ReleaserID, &n.Name, &n.Abbreviation, &n.Differentiator); err != nil {
			return nil, fmt.Errorf("scanning nick: %w", err)
		}
		result = append(result, n)
	}
	return result, rows.Err()
}

// RenameNick renames a nick and its self-variant, and the releaser when the
// nick is its primary nick.
func (r *Repository) RenameNick(ctx context.Context, nickID int64, name string) error {
	return r.WithinTx(ctx, func(tx ports.RelationalDB) error {
		db := tx.(*Repository).db

		var releaserID int64
		var oldName string
		err := db.QueryRow(ctx, `SELECT releaser_id, name FROM nicks WHERE id = $1 FOR UPDATE`, nickID).
			Scan(&releaserID, &oldName)
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("nick not found: %d", nickID)
		}
		if err != nil {
			return fmt.Errorf("finding nick: %w", err)
		}

		if _, err := db.Exec(ctx, `UPDATE nicks SET name = $1 WHERE id = $2`, name, nickID); err != nil {
			return fmt.Errorf("renaming nick: %w", err)
		}
		if _, err := db.Exec(ctx,
			`UPDATE releasers SET name = $1 WHERE id = $2 AND name = $3`,
			name, releaserID, oldName,
		); err != nil {
			return fmt.Errorf("renaming releaser: %w", err)
		}

		v := entities.NewNickVariant(nickID, name)
		tag, err := db.Exec(ctx, `
			UPDATE nick_variants SET name = $1, match_key = $2, search_key = $3
			WHERE id = (SELECT id FROM nick_variants WHERE nick_id = $4 AND name = $5 ORDER BY id LIMIT 1)
		`, v.Name, v.MatchKey, v.SearchKey, nickID, oldName)
		if err != nil {
			return fmt.Errorf("renaming variant: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return tx.SaveNickVariant(ctx, v)
		}
		return nil
	})
}

// SaveNickVariant inserts a variant.
func (r *Repository) SaveNickVariant(ctx context.Context, v *entities.NickVariant) error {
	if v.MatchKey == "" {
		v.MatchKey = entities.MatchKey(v.Name)
		v.SearchKey = entities.SearchKey(v.Name)
	}
	err := r.db.QueryRow(ctx,
		`INSERT INTO nick_variants (nick_id, name, match_key, search_key) VALUES ($1, $2, $3, $4) RETURNING id`,
		v.NickID, v.Name, v.MatchKey, v.SearchKey,
	).Scan(&v.ID)
	if err != nil {
		return fmt.Errorf("saving nick variant: %w", err)
	}
	return nil
}

// FindVariantsByNick lists the variants of a nick ordered by name.
func (r *Repository) FindVariantsByNick(ctx context.Context, nickID int64) ([]entities.NickVariant, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, nick_id, name, match_key, search_key
		FROM nick_variants
		WHERE nick_id = $1
		ORDER BY name ASC, id ASC
	`, nickID)
	if err != nil {
		return nil, fmt.Errorf("querying variants: %w", err)
	}
	defer rows.Close()

	var result []entities.NickVariant
	for rows.Next() {
		var v entities.NickVariant
		if err := rows.Scan(&v.ID, &v.NickID, &v.Name, &v.MatchKey, &v.SearchKey); err != nil {
			return nil, fmt.Errorf("scanning variant: %w", err)
		}
		result = append(result, v)
	}
	return result, rows.Err()
}

// FindVariants returns every variant matching q joined to its nick and releaser.
func (r *Repository) FindVariants(ctx context.Context, q ports.VariantQuery) ([]ports.VariantRow, error) {
	var sb strings.Builder
	sb.WriteString(`
		SELECT v.id, v.nick_id, v.name, v.match_key, v.search_key,
		       n.id, n.releaser_id, n.name, n.abbreviation, n.differentiator,
		       r.id, r.name, r.is_group, r.country_code, r.created_at
		FROM nick_variants v
		JOIN nicks n ON n.id = v.nick_id
		JOIN releasers r ON r.id = n.releaser_id
	`)

	var arg string
	if q.Exact {
		sb.WriteString(` WHERE v.match_key = $1`)
		arg = entities.MatchKey(q.Text)
	} else {
		sb.WriteString(` WHERE v.match_key LIKE $1 ESCAPE '\'`)
		arg = escapeLike(entities.PrefixKey(q.Text)) + "%"
	}

	switch q.Kind {
	case entities.PersonsOnly:
		sb.WriteString(` AND NOT r.is_group`)
	case entities.GroupsOnly:
		sb.WriteString(` AND r.is_group`)
	}
	sb.WriteString(` ORDER BY v.id`)

	rows, err := r.db.Query(ctx, sb.String(), arg)
	if err != nil {
		return nil, fmt.Errorf("querying variants: %w", err)
	}
	defer rows.Close()

	result := make([]ports.VariantRow, 0)
	for rows.Next() {
		var row ports.VariantRow
		if err := rows.Scan(
			&row.Variant.ID, &row.Variant.NickID, &row.Variant.Name, &row.Variant.MatchKey, &row.Variant.SearchKey,
			&row.Nick.ID, &row.Nick.ReleaserID, &row.Nick.Name, &row.Nick.Abbreviation, &row.Nick.Differentiator,
			&row.Releaser.ID, &row.Releaser.Name, &row.Releaser.IsGroup, &row.Releaser.CountryCode, &row.Releaser.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scanning variant row: %w", err)
		}
		result = append(result, row)
	}
	return result, rows.Err()
}

// CountAffiliations counts membership edges, in either direction, between
// each candidate and the context releasers.
func (r *Repository) CountAffiliations(ctx context.Context, candidateIDs, contextIDs []int64) (map[int64]int, error) {
	scores := make(map[int64]int)
	if len(candidateIDs) == 0 || len(contextIDs) == 0 {
		return scores, nil
	}

	rows, err := r.db.Query(ctx, `
		SELECT candidate_id, COUNT(*) AS score
		FROM (
			SELECT member_id AS candidate_id FROM memberships
			WHERE member_id = ANY($1) AND group_id = ANY($2)
			UNION ALL
			SELECT group_id AS candidate_id FROM memberships
			WHERE group_id = ANY($1) AND member_id = ANY($2)
		) edges
		GROUP BY candidate_id
	`, candidateIDs, contextIDs)
	if err != nil {
		return nil, fmt.Errorf("counting affiliations: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id, score int64
		if err := rows.Scan(&id, &score); err != nil {
			return nil, fmt.Errorf("scanning score: %w", err)
		}
		scores[id] = int(score)
	}
	return scores, rows.Err()
}

// FindCurrentGroups returns the current groups of each releaser ordered by name.
func (r *Repository) FindCurrentGroups(ctx context.Context, releaserIDs []int64) (map[int64][]entities.Releaser, error) {
	result := make(map[int64][]entities.Releaser)
	if len(releaserIDs) == 0 {
		return result, nil
	}

	rows, err := r.db.Query(ctx, `
		SELECT m.member_id, g.id, g.name, g.is_group, g.country_code, g.created_at
		FROM memberships m
		JOIN releasers g ON g.id = m.group_id
		WHERE m.is_current AND m.member_id = ANY($1)
		ORDER BY g.name ASC, g.id ASC
	`, releaserIDs)
	if err != nil {
		return nil, fmt.Errorf("querying groups: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var memberID int64
		var g entities.Releaser
		if err := rows.Scan(&memberID, &g.ID, &g.Name, &g.IsGroup, &g.CountryCode, &g.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning group: %w", err)
		}
		result[memberID] = append(result[memberID], g)
	}
	return result, rows.Err()
}

// SaveMembership inserts a membership edge.
func (r *Repository) SaveMembership(ctx context.Context, m *entities.Membership) error {
	err := r.db.QueryRow(ctx,
		`INSERT INTO memberships (member_id, group_id, is_current) VALUES ($1, $2, $3) RETURNING id`,
		m.MemberID, m.GroupID, m.IsCurrent,
	).Scan(&m.ID)
	if err != nil {
		return fmt.Errorf("saving membership: %w", err)
	}
	return nil
}

// SaveProduction saves or updates a production. An empty ID is assigned a UUID.
func (r *Repository) SaveProduction(ctx context.Context, p *entities.Production) error {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = timeNow()
	}
	_, err := r.db.Exec(ctx, `
		INSERT INTO productions (id, title, created_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (id) DO UPDATE SET title = EXCLUDED.title
	`, p.ID, p.Title, p.CreatedAt)
	if err != nil {
		return fmt.Errorf("saving production: %w", err)
	}
	return nil
}

// FindProduction finds a production by its ID.
func (r *Repository) FindProduction(ctx context.Context, id string) (*entities.Production, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, nil
	}
	var p entities.Production
	err := r.db.QueryRow(ctx, `SELECT id::text, title, created_at FROM productions WHERE id = $1`, id).
		Scan(&p.ID, &p.Title, &p.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scanning production: %w", err)
	}
	return &p, nil
}

// SaveByline replaces the credits of a production.
func (r *Repository) SaveByline(ctx context.Context, productionID string, authorNickIDs, affiliationNickIDs []int64) error {
	return r.WithinTx(ctx, func(tx ports.RelationalDB) error {
		db := tx.(*Repository).db
		if _, err := db.Exec(ctx, `DELETE FROM production_credits WHERE production_id = $1`, productionID); err != nil {
			return fmt.Errorf("clearing credits: %w", err)
		}

		insert := func(role entities.CreditRole, ids []int64) error {
			for i, id := range ids {
				if _, err := db.Exec(ctx,
					`INSERT INTO production_credits (production_id, nick_id, role, position) VALUES ($1, $2, $3, $4)`,
					productionID, id, string(role), i,
				); err != nil {
					return fmt.Errorf("saving %s credit: %w", role, err)
				}
			}
			return nil
		}
		if err := insert(entities.RoleAuthor, authorNickIDs); err != nil {
			return err
		}
		return insert(entities.RoleAffiliation, affiliationNickIDs)
	})
}

// FindByline returns the ordered credits of a production.
func (r *Repository) FindByline(ctx context.Context, productionID string) (*entities.Byline, error) {
	byline := &entities.Byline{}
	if _, err := uuid.Parse(productionID); err != nil {
		return byline, nil
	}

	rows, err := r.db.Query(ctx, `
		SELECT c.role, n.id, n.releaser_id, n.name, n.abbreviation, n.differentiator
		FROM production_credits c
		JOIN nicks n ON n.id = c.nick_id
		WHERE c.production_id = $1
		ORDER BY c.role, c.position
	`, productionID)
	if err != nil {
		return nil, fmt.Errorf("querying credits: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var role string
		var n entities.Nick
		if err := rows.Scan(&role, &n.ID, &n.ReleaserID, &n.Name, &n.Abbreviation, &n.Differentiator); err != nil {
			return nil, fmt.Errorf("scanning credit: %w", err)
		}
		if entities.CreditRole(role) == entities.RoleAuthor {
			byline.Authors = append(byline.Authors, n)
		} else {
			byline.Affiliations = append(byline.Affiliations, n)
		}
	}
	return byline, rows.Err()
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
