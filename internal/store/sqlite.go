package store

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3" // sqlite driver
	"go.uber.org/zap"
	"golang.org/x/net/idna"

	"github.com/balticscan/domain-analyzer/internal/model"
)

const schema = `
CREATE TABLE IF NOT EXISTS domains (
    id            INTEGER PRIMARY KEY AUTOINCREMENT,
    name          TEXT NOT NULL UNIQUE,
    is_registered INTEGER,
    is_active     INTEGER,
    created_at    TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at    TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS results (
    id                 INTEGER PRIMARY KEY AUTOINCREMENT,
    domain_id          INTEGER NOT NULL REFERENCES domains(id),
    task_id            TEXT NOT NULL,
    status             TEXT NOT NULL,
    data               TEXT NOT NULL,
    profiles_requested TEXT NOT NULL,
    profiles_executed  TEXT NOT NULL,
    created_at         TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS discoveries (
    id              INTEGER PRIMARY KEY AUTOINCREMENT,
    domain          TEXT NOT NULL,
    discovered_from TEXT NOT NULL,
    method          TEXT NOT NULL,
    metadata        TEXT,
    discovered_at   TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_results_domain ON results(domain_id);
CREATE INDEX IF NOT EXISTS idx_discoveries_domain ON discoveries(domain);
`

// SQLite implements Store on a local sqlite database.
type SQLite struct {
	db     *sqlx.DB
	logger *zap.Logger
}

// Open opens (creating if needed) the database at path and applies the
// schema. Use ":memory:" for an ephemeral store.
func Open(path string, logger *zap.Logger) (*SQLite, error) {
	// Serialized access and foreign keys; the scan worker pool hits
	// the store concurrently.
	dsn := path + "?_busy_timeout=5000&_fk=1"
	db, err := sqlx.Connect("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open store %s: %w", path, err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &SQLite{db: db, logger: logger}, nil
}

// Close releases the database handle.
func (s *SQLite) Close() error { return s.db.Close() }

// canonicalName lowercases and punycodes a domain name so that lookups
// are case- and unicode-insensitive.
func canonicalName(name string) (string, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	ascii, err := idna.Lookup.ToASCII(name)
	if err != nil {
		// Keep the lowercase form for names idna rejects; uniqueness
		// still holds on the raw string.
		return name, nil
	}
	return ascii, nil
}

func (s *SQLite) GetOrCreateDomain(ctx context.Context, name string) (int64, error) {
	canonical, err := canonicalName(name)
	if err != nil {
		return 0, err
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO domains (name) VALUES (?) ON CONFLICT(name) DO NOTHING`, canonical)
	if err != nil {
		return 0, fmt.Errorf("upsert domain %s: %w", canonical, err)
	}

	var id int64
	if err := s.db.GetContext(ctx, &id, `SELECT id FROM domains WHERE name = ?`, canonical); err != nil {
		return 0, fmt.Errorf("lookup domain %s: %w", canonical, err)
	}
	return id, nil
}

func (s *SQLite) UpdateDomainFlags(ctx context.Context, domainID int64, isRegistered, isActive *bool) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE domains
		SET is_registered = COALESCE(?, is_registered),
		    is_active     = COALESCE(?, is_active),
		    updated_at    = CURRENT_TIMESTAMP
		WHERE id = ?`,
		boolToInt(isRegistered), boolToInt(isActive), domainID)
	if err != nil {
		return fmt.Errorf("update flags for domain %d: %w", domainID, err)
	}
	return nil
}

func (s *SQLite) SaveResult(ctx context.Context, domainID int64, taskID string, result *model.Result) error {
	blob, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("marshal result: %w", err)
	}
	requested, err := json.Marshal(result.Meta.Profiles.Requested)
	if err != nil {
		return fmt.Errorf("marshal requested profiles: %w", err)
	}
	executed, err := json.Marshal(result.Meta.Profiles.Executed)
	if err != nil {
		return fmt.Errorf("marshal executed profiles: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO results (domain_id, task_id, status, data, profiles_requested, profiles_executed)
		VALUES (?, ?, ?, ?, ?, ?)`,
		domainID, taskID, string(result.Status), string(blob), string(requested), string(executed))
	if err != nil {
		return fmt.Errorf("save result for domain %d: %w", domainID, err)
	}
	return nil
}

func (s *SQLite) InsertCapturedDomain(ctx context.Context, name, discoveredFrom, method string, metadata map[string]interface{}) (bool, error) {
	canonical, err := canonicalName(name)
	if err != nil {
		return false, err
	}

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO domains (name) VALUES (?) ON CONFLICT(name) DO NOTHING`, canonical)
	if err != nil {
		return false, fmt.Errorf("upsert captured domain %s: %w", canonical, err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	inserted := rows > 0

	var metaJSON []byte
	if metadata != nil {
		if metaJSON, err = json.Marshal(metadata); err != nil {
			return inserted, fmt.Errorf("marshal discovery metadata: %w", err)
		}
	}

	// The discovery event is append-only: recorded even when the
	// domain row already existed.
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO discoveries (domain, discovered_from, method, metadata)
		VALUES (?, ?, ?, ?)`,
		canonical, discoveredFrom, method, string(metaJSON))
	if err != nil {
		return inserted, fmt.Errorf("record discovery of %s: %w", canonical, err)
	}

	if s.logger != nil {
		s.logger.Debug("captured domain recorded",
			zap.String("domain", canonical),
			zap.String("from", discoveredFrom),
			zap.Bool("new", inserted))
	}
	return inserted, nil
}

// boolToInt maps a tri-state *bool to sqlite NULL/0/1.
func boolToInt(b *bool) interface{} {
	if b == nil {
		return nil
	}
	if *b {
		return 1
	}
	return 0
}

// DomainRow is the persisted per-domain view, used by queries and
// tests.
type DomainRow struct {
	ID           int64  `db:"id"`
	Name         string `db:"name"`
	IsRegistered *bool  `db:"is_registered"`
	IsActive     *bool  `db:"is_active"`
	CreatedAt    string `db:"created_at"`
	UpdatedAt    string `db:"updated_at"`
}

// GetDomain fetches one domain row by name.
func (s *SQLite) GetDomain(ctx context.Context, name string) (*DomainRow, error) {
	canonical, err := canonicalName(name)
	if err != nil {
		return nil, err
	}
	var row DomainRow
	if err := s.db.GetContext(ctx, &row, `SELECT * FROM domains WHERE name = ?`, canonical); err != nil {
		return nil, err
	}
	return &row, nil
}

// CountResults returns the number of result rows for a domain.
func (s *SQLite) CountResults(ctx context.Context, domainID int64) (int, error) {
	var n int
	err := s.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM results WHERE domain_id = ?`, domainID)
	return n, err
}

// CountDiscoveries returns the number of discovery events for a
// captured domain name.
func (s *SQLite) CountDiscoveries(ctx context.Context, name string) (int, error) {
	var n int
	err := s.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM discoveries WHERE domain = ?`, name)
	return n, err
}
