// Package store is the authoritative team registry client: a Postgres table
// of canonical records, searched with pg_trgm similarity and refreshed by
// the out-of-band sync job (resolvectl sync).
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"
	"github.com/rs/zerolog"

	"github.com/oddslab/teamresolve/pkg/resolver"
)

// ErrExtensionMissing reports that the pg_trgm extension is not installed.
// SearchByTrigram handles it internally by falling back to substring search;
// it is exported for callers running their own queries.
var ErrExtensionMissing = errors.New("store: pg_trgm extension unavailable")

// Substring-fallback similarity assignments. All sit below the high
// threshold so a search without real trigram scoring never claims more than
// medium confidence.
const (
	fallbackEqual    = 0.69
	fallbackPrefix   = 0.62
	fallbackContains = 0.55
)

// Client searches and maintains the canonical team registry.
type Client struct {
	db  *sql.DB
	log zerolog.Logger
}

// Option configures the client.
type Option func(*Client)

// WithLogger sets the structured logger.
func WithLogger(log zerolog.Logger) Option {
	return func(c *Client) { c.log = log }
}

// New wraps an existing database handle.
func New(db *sql.DB, opts ...Option) *Client {
	c := &Client{db: db, log: zerolog.Nop()}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Open connects to Postgres and returns a registry client.
func Open(dsn string, opts ...Option) (*Client, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)
	return New(db, opts...), nil
}

// Close closes the underlying handle.
func (c *Client) Close() error {
	return c.db.Close()
}

// Ping tests the connection.
func (c *Client) Ping(ctx context.Context) error {
	return c.db.PingContext(ctx)
}

// EnsureSchema creates the teams table and its trigram index if absent.
// Installing pg_trgm needs elevated privileges on some hosts, so that step
// failing is tolerated and logged; searches then take the substring
// fallback path until an operator installs the extension.
func (c *Client) EnsureSchema(ctx context.Context) error {
	if _, err := c.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS teams (
			id         text PRIMARY KEY,
			name       text NOT NULL,
			acronym    text,
			logo_url   text,
			updated_at timestamptz NOT NULL DEFAULT now()
		)
	`); err != nil {
		return fmt.Errorf("create teams table: %w", err)
	}

	if _, err := c.db.ExecContext(ctx, `CREATE EXTENSION IF NOT EXISTS pg_trgm`); err != nil {
		c.log.Warn().Err(err).Msg("could not install pg_trgm, substring fallback will be used")
		return nil
	}
	if _, err := c.db.ExecContext(ctx, `
		CREATE INDEX IF NOT EXISTS teams_name_trgm_idx
		ON teams USING gin (name gin_trgm_ops)
	`); err != nil {
		return fmt.Errorf("create trigram index: %w", err)
	}
	return nil
}

// SearchByTrigram returns up to limit candidates ordered by trigram
// similarity to the query, similarity in [0,1]. When pg_trgm is missing the
// search degrades to ILIKE matching with conservative similarity values
// capped below the high-confidence threshold. The extension check is the
// failed query itself, not a pre-flight probe.
func (c *Client) SearchByTrigram(ctx context.Context, query string, limit int) ([]resolver.StoreCandidate, error) {
	if limit <= 0 {
		limit = 5
	}

	rows, err := c.db.QueryContext(ctx, `
		SELECT id, name, similarity(name, $1) AS sim
		FROM teams
		WHERE name % $1
		ORDER BY sim DESC, name
		LIMIT $2
	`, query, limit)
	if err != nil {
		if isUndefinedFunction(err) {
			c.log.Warn().Str("query", query).
				Msg("pg_trgm unavailable, falling back to substring search")
			out, ferr := c.searchSubstring(ctx, query, limit)
			if ferr != nil {
				return nil, fmt.Errorf("%w; substring fallback failed: %v", ErrExtensionMissing, ferr)
			}
			return out, nil
		}
		return nil, fmt.Errorf("trigram search: %w", err)
	}
	defer rows.Close()

	return scanCandidates(rows)
}

// searchSubstring is the degraded search path. Equality beats prefix beats
// containment, all at fixed sub-high similarities.
func (c *Client) searchSubstring(ctx context.Context, query string, limit int) ([]resolver.StoreCandidate, error) {
	pattern := escapeLike(query)
	rows, err := c.db.QueryContext(ctx, `
		SELECT id, name,
		       CASE
		           WHEN lower(name) = lower($1) THEN $3::float8
		           WHEN name ILIKE $2 || '%'    THEN $4::float8
		           ELSE $5::float8
		       END AS sim
		FROM teams
		WHERE name ILIKE '%' || $2 || '%'
		ORDER BY sim DESC, name
		LIMIT $6
	`, query, pattern, fallbackEqual, fallbackPrefix, fallbackContains, limit)
	if err != nil {
		return nil, fmt.Errorf("substring search: %w", err)
	}
	defer rows.Close()

	return scanCandidates(rows)
}

// RecordCount reports how many canonical records the registry holds. The
// resolver probes this before searching so an unpopulated store is skipped
// instead of queried.
func (c *Client) RecordCount(ctx context.Context) (int, error) {
	var n int
	if err := c.db.QueryRowContext(ctx, `SELECT count(*) FROM teams`).Scan(&n); err != nil {
		return 0, fmt.Errorf("record count: %w", err)
	}
	return n, nil
}

// LoadAll returns every canonical record, used to snapshot the registry into
// the in-memory fuzzy index at startup.
func (c *Client) LoadAll(ctx context.Context) ([]resolver.TeamRecord, error) {
	rows, err := c.db.QueryContext(ctx, `
		SELECT id, name, COALESCE(acronym, ''), COALESCE(logo_url, '')
		FROM teams
		ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("load teams: %w", err)
	}
	defer rows.Close()

	var records []resolver.TeamRecord
	for rows.Next() {
		var rec resolver.TeamRecord
		if err := rows.Scan(&rec.ID, &rec.Name, &rec.Acronym, &rec.LogoURL); err != nil {
			return nil, fmt.Errorf("scan team: %w", err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// UpsertTeams writes a batch of provider records, inserting new ids and
// refreshing names and branding for existing ones.
func (c *Client) UpsertTeams(ctx context.Context, records []resolver.TeamRecord) error {
	if len(records) == 0 {
		return nil
	}

	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin upsert: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO teams (id, name, acronym, logo_url, updated_at)
		VALUES ($1, $2, $3, $4, now())
		ON CONFLICT (id) DO UPDATE
		SET name = EXCLUDED.name,
		    acronym = EXCLUDED.acronym,
		    logo_url = EXCLUDED.logo_url,
		    updated_at = now()
	`)
	if err != nil {
		return fmt.Errorf("prepare upsert: %w", err)
	}
	defer stmt.Close()

	for _, rec := range records {
		if rec.ID == "" || rec.Name == "" {
			continue
		}
		if _, err := stmt.ExecContext(ctx, rec.ID, rec.Name, rec.Acronym, rec.LogoURL); err != nil {
			return fmt.Errorf("upsert team %s: %w", rec.ID, err)
		}
	}
	return tx.Commit()
}

func scanCandidates(rows *sql.Rows) ([]resolver.StoreCandidate, error) {
	var out []resolver.StoreCandidate
	for rows.Next() {
		var cand resolver.StoreCandidate
		if err := rows.Scan(&cand.ID, &cand.Name, &cand.Similarity); err != nil {
			return nil, fmt.Errorf("scan candidate: %w", err)
		}
		out = append(out, cand)
	}
	return out, rows.Err()
}

// isUndefinedFunction matches SQLSTATE 42883, raised both for similarity()
// and the % operator when pg_trgm is not installed.
func isUndefinedFunction(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "42883"
	}
	return false
}

// escapeLike neutralizes LIKE metacharacters in user input.
func escapeLike(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `%`, `\%`)
	s = strings.ReplaceAll(s, `_`, `\_`)
	return s
}
