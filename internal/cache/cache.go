// Package cache is a SQLite-backed store for workspace metadata
// (teams, users, labels, projects, and per-team workflow states) so
// name-to-ID resolution does not hit the API on every invocation. It
// uses modernc.org/sqlite (pure Go, no CGO) with WAL mode.
package cache

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver registration
)

// DefaultTTL is how long a cached entry is served before it is
// considered stale.
const DefaultTTL = time.Hour

const busyTimeoutMS = 5000

// Kind identifies one cached dataset.
type Kind string

// Cached datasets.
const (
	Teams    Kind = "teams"
	Users    Kind = "users"
	Labels   Kind = "labels"
	Projects Kind = "projects"
)

const statusesPrefix = "statuses:"

// StatusesFor keys workflow states per team, since states are
// team-scoped in Linear.
func StatusesFor(teamID string) Kind {
	return Kind(statusesPrefix + teamID)
}

// AllKinds lists the workspace-wide datasets.
func AllKinds() []Kind {
	return []Kind{Teams, Users, Labels, Projects}
}

// DisplayName returns the human-readable name for status output.
func (k Kind) DisplayName() string {
	switch k {
	case Teams:
		return "Teams"
	case Users:
		return "Users"
	case Labels:
		return "Labels"
	case Projects:
		return "Projects"
	}
	if strings.HasPrefix(string(k), statusesPrefix) {
		return "Statuses (" + strings.TrimPrefix(string(k), statusesPrefix) + ")"
	}
	return string(k)
}

// Options carries the cache flags shared by most commands.
type Options struct {
	// TTL overrides DefaultTTL when positive.
	TTL time.Duration

	// Disabled bypasses the cache entirely (--no-cache).
	Disabled bool
}

// EffectiveTTL returns the TTL to use.
func (o Options) EffectiveTTL() time.Duration {
	if o.TTL > 0 {
		return o.TTL
	}
	return DefaultTTL
}

// Cache is a handle on the metadata database.
type Cache struct {
	db  *sql.DB
	ttl time.Duration
	now func() time.Time
}

// Dir returns the cache directory for a profile, creating it.
func Dir(profile string) (string, error) {
	base, err := os.UserCacheDir()
	if err != nil {
		return "", fmt.Errorf("cache: locate cache directory: %w", err)
	}
	dir := filepath.Join(base, "linear-cli", profile)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", fmt.Errorf("cache: create %s: %w", dir, err)
	}
	return dir, nil
}

// OpenDefault opens the cache database for a profile.
func OpenDefault(profile string, ttl time.Duration) (*Cache, error) {
	dir, err := Dir(profile)
	if err != nil {
		return nil, err
	}
	return Open(filepath.Join(dir, "cache.db"), ttl)
}

// Open opens (and if needed creates) the cache database at path.
// The database uses WAL mode, a 5 s busy timeout, and a single
// connection (SQLite serialises writes).
func Open(path string, ttl time.Duration) (*Cache, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, fmt.Errorf("cache: create directory %s: %w", dir, err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("cache: open %s: %w", path, err)
	}

	db.SetMaxOpenConns(1)

	ctx := context.Background()
	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("cache: enable WAL: %w", err)
	}
	if _, err := db.ExecContext(ctx, fmt.Sprintf("PRAGMA busy_timeout=%d", busyTimeoutMS)); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("cache: set busy_timeout: %w", err)
	}
	if err := migrate(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Cache{db: db, ttl: ttl, now: time.Now}, nil
}

func migrate(db *sql.DB) error {
	const schema = `
CREATE TABLE IF NOT EXISTS entries (
	kind        TEXT PRIMARY KEY,
	created_at  INTEGER NOT NULL,
	ttl_seconds INTEGER NOT NULL,
	data        TEXT NOT NULL
);`
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("cache: migrate schema: %w", err)
	}
	return nil
}

// Close releases the database handle.
func (c *Cache) Close() error {
	return c.db.Close()
}

// Get returns the cached payload for kind if present and still within
// the cache's TTL.
func (c *Cache) Get(ctx context.Context, kind Kind) (json.RawMessage, bool) {
	var createdAt int64
	var data string
	row := c.db.QueryRowContext(ctx,
		"SELECT created_at, data FROM entries WHERE kind = ?", string(kind))
	if err := row.Scan(&createdAt, &data); err != nil {
		return nil, false
	}
	if c.now().Unix() >= createdAt+int64(c.ttl.Seconds()) {
		return nil, false
	}
	return json.RawMessage(data), true
}

// Set stores a payload for kind, replacing any previous entry.
func (c *Cache) Set(ctx context.Context, kind Kind, data json.RawMessage) error {
	_, err := c.db.ExecContext(ctx, `
INSERT INTO entries (kind, created_at, ttl_seconds, data)
VALUES (?, ?, ?, ?)
ON CONFLICT(kind) DO UPDATE SET
	created_at = excluded.created_at,
	ttl_seconds = excluded.ttl_seconds,
	data = excluded.data`,
		string(kind), c.now().Unix(), int64(c.ttl.Seconds()), string(data))
	if err != nil {
		return fmt.Errorf("cache: store %s: %w", kind, err)
	}
	return nil
}

// Clear removes the given kinds, or everything when none are given.
func (c *Cache) Clear(ctx context.Context, kinds ...Kind) error {
	if len(kinds) == 0 {
		if _, err := c.db.ExecContext(ctx, "DELETE FROM entries"); err != nil {
			return fmt.Errorf("cache: clear: %w", err)
		}
		return nil
	}
	for _, kind := range kinds {
		if _, err := c.db.ExecContext(ctx,
			"DELETE FROM entries WHERE kind = ?", string(kind)); err != nil {
			return fmt.Errorf("cache: clear %s: %w", kind, err)
		}
	}
	return nil
}

// EntryStatus describes one cached dataset for `linear cache status`.
type EntryStatus struct {
	Kind  Kind          `json:"kind"`
	Age   time.Duration `json:"age_seconds"`
	Size  int           `json:"size_bytes"`
	Valid bool          `json:"valid"`
}

// Status reports age, size, and validity for every stored entry.
func (c *Cache) Status(ctx context.Context) ([]EntryStatus, error) {
	rows, err := c.db.QueryContext(ctx,
		"SELECT kind, created_at, ttl_seconds, data FROM entries ORDER BY kind")
	if err != nil {
		return nil, fmt.Errorf("cache: status: %w", err)
	}
	defer rows.Close()

	var out []EntryStatus
	for rows.Next() {
		var kind string
		var createdAt, ttlSeconds int64
		var data string
		if err := rows.Scan(&kind, &createdAt, &ttlSeconds, &data); err != nil {
			return nil, fmt.Errorf("cache: status scan: %w", err)
		}
		age := c.now().Unix() - createdAt
		out = append(out, EntryStatus{
			Kind:  Kind(kind),
			Age:   time.Duration(age) * time.Second,
			Size:  len(data),
			Valid: age < ttlSeconds,
		})
	}
	if err := rows.Err(); err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("cache: status rows: %w", err)
	}
	return out, nil
}
