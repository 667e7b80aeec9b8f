// Package sqlite provides a SQLite implementation of the RelationalDB interface.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"github.com/ersonp/scenecredits/internal/domain/entities"
	"github.com/ersonp/scenecredits/internal/domain/ports"
	"github.com/ersonp/scenecredits/internal/infrastructure/config"
)

// generateUUID returns a new UUID string.
func generateUUID() string {
	return uuid.New().String()
}

// timeNow returns the current time (can be mocked in tests).
var timeNow = time.Now

// dbtx is satisfied by both *sql.DB and *sql.Tx.
type dbtx interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Repository implements ports.RelationalDB using SQLite.
type Repository struct {
	db   *sql.DB
	q    dbtx
	tx   *sql.Tx
	path string
}

var _ ports.RelationalDB = (*Repository)(nil)

// NewRepository creates a new SQLite repository.
func NewRepository(cfg config.SQLiteConfig) (*Repository, error) {
	if cfg.Path == "" {
		return nil, errors.New("sqlite path is required")
	}

	db, err := sql.Open("sqlite", cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite database: %w", err)
	}

	// One connection: pragmas are per connection and ":memory:" is per connection too.
	db.SetMaxOpenConns(1)

	// Enable foreign keys for referential integrity
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	// Enable WAL mode for better concurrent read/write performance
	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}

	// Set busy timeout to avoid "database is locked" errors
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting busy timeout: %w", err)
	}

	return &Repository{
		db:   db,
		q:    db,
		path: cfg.Path,
	}, nil
}

// Close closes the database connection.
func (r *Repository) Close() error {
	if r.tx != nil {
		return errors.New("cannot close a transaction-bound repository")
	}
	return r.db.Close()
}

// Path returns the database file path.
func (r *Repository) Path() string {
	return r.path
}

// WithinTx runs fn against a repository bound to one transaction.
// Nested calls reuse the enclosing transaction.
func (r *Repository) WithinTx(ctx context.Context, fn func(tx ports.RelationalDB) error) error {
	if r.tx != nil {
		return fn(r)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}

	if err := fn(&Repository{db: r.db, q: tx, tx: tx, path: r.path}); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("rolling back after %v: %w", err, rbErr)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// EnsureSchema creates the database schema if it doesn't exist.
func (r *Repository) EnsureSchema(ctx context.Context) error {
	schema := `
	-- Releasers (persons and groups)
	CREATE TABLE IF NOT EXISTS releasers (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL,
		is_group INTEGER NOT NULL DEFAULT 0,
		country_code TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_releasers_name ON releasers(name);

	-- Nicks (names a releaser is known by; one equals releasers.name)
	CREATE TABLE IF NOT EXISTS nicks (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		releaser_id INTEGER NOT NULL REFERENCES releasers(id) ON DELETE CASCADE,
		name TEXT NOT NULL,
		abbreviation TEXT NOT NULL DEFAULT '',
		differentiator TEXT NOT NULL DEFAULT ''
	);
	CREATE INDEX IF NOT EXISTS idx_nicks_releaser ON nicks(releaser_id);

	-- Nick variants (indexed spellings used for lookup)
	CREATE TABLE IF NOT EXISTS nick_variants (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		nick_id INTEGER NOT NULL REFERENCES nicks(id) ON DELETE CASCADE,
		name TEXT NOT NULL,
		match_key TEXT NOT NULL,
		search_key TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_nick_variants_nick ON nick_variants(nick_id);
	CREATE INDEX IF NOT EXISTS idx_nick_variants_match ON nick_variants(match_key);

	-- Memberships (member releaser -> group releaser)
	CREATE TABLE IF NOT EXISTS memberships (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		member_id INTEGER NOT NULL REFERENCES releasers(id) ON DELETE CASCADE,
		group_id INTEGER NOT NULL REFERENCES releasers(id) ON DELETE CASCADE,
		is_current INTEGER NOT NULL DEFAULT 1
	);
	CREATE INDEX IF NOT EXISTS idx_memberships_member ON memberships(member_id);
	CREATE INDEX IF NOT EXISTS idx_memberships_group ON memberships(group_id);

	-- Productions and their bylines
	CREATE TABLE IF NOT EXISTS productions (
		id TEXT PRIMARY KEY,
		title TEXT NOT NULL,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS production_credits (
		production_id TEXT NOT NULL REFERENCES productions(id) ON DELETE CASCADE,
		nick_id INTEGER NOT NULL REFERENCES nicks(id),
		role TEXT NOT NULL,
		position INTEGER NOT NULL,
		PRIMARY KEY (production_id, role, position)
	);
	CREATE INDEX IF NOT EXISTS idx_production_credits_nick ON production_credits(nick_id);
	`

	_, err := r.q.ExecContext(ctx, schema)
	if err != nil {
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
		res, err := txRepo.q.ExecContext(ctx,
			`INSERT INTO releasers (name, is_group, country_code, created_at) VALUES (?, ?, ?, ?)`,
			rel.Name, rel.IsGroup, rel.CountryCode, rel.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("inserting releaser: %w", err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return fmt.Errorf("reading releaser id: %w", err)
		}
		rel.ID = id

		nick = &entities.Nick{ReleaserID: id, Name: rel.Name}
		return txRepo.insertNick(ctx, nick)
	})
	if err != nil {
		return nil, err
	}
	return nick, nil
}

// FindReleaserByID finds a releaser by its ID.
func (r *Repository) FindReleaserByID(ctx context.Context, id int64) (*entities.Releaser, error) {
	query := `
		SELECT id, name, is_group, country_code, created_at
		FROM releasers
		WHERE id = ?
	`
	row := r.q.QueryRowContext(ctx, query, id)

	var rel entities.Releaser
	err := row.Scan(&rel.ID, &rel.Name, &rel.IsGroup, &rel.CountryCode, &rel.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scanning releaser: %w", err)
	}
	return &rel, nil
}

// ListReleasers lists releasers ordered by name. A limit of 0 lists all.
func (r *Repository) ListReleasers(ctx context.Context, limit, offset int) ([]*entities.Releaser, error) {
	if limit <= 0 {
		limit = -1
	}
	query := `
		SELECT id, name, is_group, country_code, created_at
		FROM releasers
		ORDER BY name ASC, id ASC
		LIMIT ? OFFSET ?
	`
	rows, err := r.q.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("querying releasers: %w", err)
	}
	defer rows.Close()

	result := make([]*entities.Releaser, 0)
	for rows.Next() {
		var rel entities.Releaser
		if err := rows.Scan(&rel.ID, &rel.Name, &rel.IsGroup, &rel.CountryCode, &rel.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning releaser: %w", err)
		}
		result = append(result, &rel)
	}
	return result, rows.Err()
}

// CountReleasers returns the total number of releasers.
func (r *Repository) CountReleasers(ctx context.Context) (int, error) {
	var count int
	err := r.q.QueryRowContext(ctx, `SELECT COUNT(*) FROM releasers`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("counting releasers: %w", err)
	}
	return count, nil
}

// DeleteReleaser deletes a releaser. Nicks, variants and memberships cascade.
func (r *Repository) DeleteReleaser(ctx context.Context, id int64) error {
	result, err := r.q.ExecContext(ctx, `DELETE FROM releasers WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting releaser: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("releaser not found: %d", id)
	}
	return nil
}

func (r *Repository) insertNick(ctx context.Context, n *entities.Nick) error {
	res, err := r.q.ExecContext(ctx,
		`INSERT INTO nicks (releaser_id, name, abbreviation, differentiator) VALUES (?, ?, ?, ?)`,
		n.ReleaserID, n.Name, n.Abbreviation, n.Differentiator,
	)
	if err != nil {
		return fmt.Errorf("inserting nick: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("reading nick id: %w", err)
	}
	n.ID = id

	return r.SaveNickVariant(ctx, entities.NewNickVariant(id, n.Name))
}

// SaveNick inserts a nick and its self-variant.
func (r *Repository) SaveNick(ctx context.Context, n *entities.Nick) error {
	return r.WithinTx(ctx, func(tx ports.RelationalDB) error {
		return tx.(*Repository).insertNick(ctx, n)
	})
}

// FindNickByID finds a nick by its ID.
func (r *Repository) FindNickByID(ctx context.Context, id int64) (*entities.Nick, error) {
	query := `
		SELECT id, releaser_id, name, abbreviation, differentiator
		FROM nicks
		WHERE id = ?
	`
	var n entities.Nick
	err := r.q.QueryRowContext(ctx, query, id).Scan(&n.ID, &n.ReleaserID, &n.Name, &n.Abbreviation, &n.Differentiator)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scanning nick: %w", err)
	}
	return &n, nil
}

// FindNicksByReleaser lists the nicks of a releaser ordered by name.
func (r *Repository) FindNicksByReleaser(ctx context.Context, releaserID int64) ([]entities.Nick, error) {
	query := `
		SELECT id, releaser_id, name, abbreviation, differentiator
		FROM nicks
		WHERE releaser_id = ?
		ORDER BY name ASC, id ASC
	`
	rows, err := r.q.QueryContext(ctx, query, releaserID)
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
		q := tx.(*Repository).q

		var releaserID int64
		var oldName string
		err := q.QueryRowContext(ctx, `SELECT releaser_id, name FROM nicks WHERE id = ?`, nickID).Scan(&releaserID, &oldName)
		if err == sql.ErrNoRows {
			return fmt.Errorf("nick not found: %d", nickID)
		}
		if err != nil {
			return fmt.Errorf("finding nick: %w", err)
		}

		if _, err := q.ExecContext(ctx, `UPDATE nicks SET name = ? WHERE id = ?`, name, nickID); err != nil {
			return fmt.Errorf("renaming nick: %w", err)
		}
		if _, err := q.ExecContext(ctx,
			`UPDATE releasers SET name = ? WHERE id = ? AND name = ?`,
			name, releaserID, oldName,
		); err != nil {
			return fmt.Errorf("renaming releaser: %w", err)
		}

		v := entities.NewNickVariant(nickID, name)
		res, err := q.ExecContext(ctx, `
			UPDATE nick_variants SET name = ?, match_key = ?, search_key = ?
			WHERE id = (SELECT id FROM nick_variants WHERE nick_id = ? AND name = ? ORDER BY id LIMIT 1)
		`, v.Name, v.MatchKey, v.SearchKey, nickID, oldName)
		if err != nil {
			return fmt.Errorf("renaming variant: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
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
	res, err := r.q.ExecContext(ctx,
		`INSERT INTO nick_variants (nick_id, name, match_key, search_key) VALUES (?, ?, ?, ?)`,
		v.NickID, v.Name, v.MatchKey, v.SearchKey,
	)
	if err != nil {
		return fmt.Errorf("saving nick variant: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("reading variant id: %w", err)
	}
	v.ID = id
	return nil
}

// FindVariantsByNick lists the variants of a nick ordered by name.
func (r *Repository) FindVariantsByNick(ctx context.Context, nickID int64) ([]entities.NickVariant, error) {
	query := `
		SELECT id, nick_id, name, match_key, search_key
		FROM nick_variants
		WHERE nick_id = ?
		ORDER BY name ASC, id ASC
	`
	rows, err := r.q.QueryContext(ctx, query, nickID)
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

	var args []any
	if q.Exact {
		sb.WriteString(` WHERE v.match_key = ?`)
		args = append(args, entities.MatchKey(q.Text))
	} else {
		sb.WriteString(` WHERE v.match_key LIKE ? ESCAPE '\'`)
		args = append(args, escapeLike(entities.PrefixKey(q.Text))+"%")
	}

	switch q.Kind {
	case entities.PersonsOnly:
		sb.WriteString(` AND r.is_group = 0`)
	case entities.GroupsOnly:
		sb.WriteString(` AND r.is_group = 1`)
	}
	sb.WriteString(` ORDER BY v.id`)

	rows, err := r.q.QueryContext(ctx, sb.String(), args...)
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

	candIn, candArgs := inClause(candidateIDs)
	ctxIn, ctxArgs := inClause(contextIDs)
	query := fmt.Sprintf(`
		SELECT candidate_id, COUNT(*) AS score
		FROM (
			SELECT member_id AS candidate_id FROM memberships
			WHERE member_id IN (%[1]s) AND group_id IN (%[2]s)
			UNION ALL
			SELECT group_id AS candidate_id FROM memberships
			WHERE group_id IN (%[1]s) AND member_id IN (%[2]s)
		)
		GROUP BY candidate_id
	`, candIn, ctxIn)

	args := make([]any, 0, 2*(len(candArgs)+len(ctxArgs)))
	args = append(args, candArgs...)
	args = append(args, ctxArgs...)
	args = append(args, candArgs...)
	args = append(args, ctxArgs...)

	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("counting affiliations: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id int64
		var score int
		if err := rows.Scan(&id, &score); err != nil {
			return nil, fmt.Errorf("scanning score: %w", err)
		}
		scores[id] = score
	}
	return scores, rows.Err()
}

// FindCurrentGroups returns the current groups of each releaser ordered by name.
func (r *Repository) FindCurrentGroups(ctx context.Context, releaserIDs []int64) (map[int64][]entities.Releaser, error) {
	result := make(map[int64][]entities.Releaser)
	if len(releaserIDs) == 0 {
		return result, nil
	}

	in, args := inClause(releaserIDs)
	query := fmt.Sprintf(`
		SELECT m.member_id, g.id, g.name, g.is_group, g.country_code, g.created_at
		FROM memberships m
		JOIN releasers g ON g.id = m.group_id
		WHERE m.is_current = 1 AND m.member_id IN (%s)
		ORDER BY g.name ASC, g.id ASC
	`, in)

	rows, err := r.q.QueryContext(ctx, query, args...)
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
	res, err := r.q.ExecContext(ctx,
		`INSERT INTO memberships (member_id, group_id, is_current) VALUES (?, ?, ?)`,
		m.MemberID, m.GroupID, m.IsCurrent,
	)
	if err != nil {
		return fmt.Errorf("saving membership: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("reading membership id: %w", err)
	}
	m.ID = id
	return nil
}

// SaveProduction saves or updates a production. An empty ID is assigned a UUID.
func (r *Repository) SaveProduction(ctx context.Context, p *entities.Production) error {
	if p.ID == "" {
		p.ID = generateUUID()
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = timeNow()
	}
	query := `
		INSERT INTO productions (id, title, created_at)
		VALUES (?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			title = excluded.title
	`
	if _, err := r.q.ExecContext(ctx, query, p.ID, p.Title, p.CreatedAt); err != nil {
		return fmt.Errorf("saving production: %w", err)
	}
	return nil
}

// FindProduction finds a production by its ID.
func (r *Repository) FindProduction(ctx context.Context, id string) (*entities.Production, error) {
	var p entities.Production
	err := r.q.QueryRowContext(ctx,
		`SELECT id, title, created_at FROM productions WHERE id = ?`, id,
	).Scan(&p.ID, &p.Title, &p.CreatedAt)
	if err == sql.ErrNoRows {
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
		q := tx.(*Repository).q
		if _, err := q.ExecContext(ctx, `DELETE FROM production_credits WHERE production_id = ?`, productionID); err != nil {
			return fmt.Errorf("clearing credits: %w", err)
		}

		insert := func(role entities.CreditRole, ids []int64) error {
			for i, id := range ids {
				if _, err := q.ExecContext(ctx,
					`INSERT INTO production_credits (production_id, nick_id, role, position) VALUES (?, ?, ?, ?)`,
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
	query := `
		SELECT c.role, n.id, n.releaser_id, n.name, n.abbreviation, n.differentiator
		FROM production_credits c
		JOIN nicks n ON n.id = c.nick_id
		WHERE c.production_id = ?
		ORDER BY c.role, c.position
	`
	rows, err := r.q.QueryContext(ctx, query, productionID)
	if err != nil {
		return nil, fmt.Errorf("querying credits: %w", err)
	}
	defer rows.Close()

	byline := &entities.Byline{}
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

// inClause builds "?,?,?" placeholders for ids.
func inClause(ids []int64) (string, []any) {
	placeholders := make([]string, len(ids))
	args := make([]any, len(ids))
	for i, id := range ids {
		placeholders[i] = "?"
		args[i] = id
	}
	return strings.Join(placeholders, ","), args
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
