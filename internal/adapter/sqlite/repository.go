package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"

	"github.com/cwygoda/modscope/internal/domain"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS lookups (
    id         INTEGER PRIMARY KEY AUTOINCREMENT,
    url        TEXT NOT NULL,
    status     TEXT NOT NULL,
    provider   TEXT,
    mod_id     TEXT,
    name       TEXT,
    pairs      TEXT NOT NULL DEFAULT '[]',
    error      TEXT,
    created_at DATETIME DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_lookups_created ON lookups(created_at);
`

// Repository implements domain.LookupRepository using SQLite.
type Repository struct {
	db *sql.DB
}

// New creates a new SQLite repository, initializing the schema if needed.
func New(dbPath string) (*Repository, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, err
	}
	// Batch workers record concurrently; a single connection serializes writers.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, err
	}

	return &Repository{db: db}, nil
}

// Close closes the database connection.
func (r *Repository) Close() error {
	return r.db.Close()
}

// Create inserts l and sets its ID.
func (r *Repository) Create(ctx context.Context, l *domain.Lookup) error {
	pairs := l.Pairs
	if pairs == nil {
		pairs = []domain.VersionPair{}
	}
	encoded, err := json.Marshal(pairs)
	if err != nil {
		return err
	}

	result, err := r.db.ExecContext(ctx,
		`INSERT INTO lookups (url, status, provider, mod_id, name, pairs, error, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		l.URL, l.Status, string(l.Provider), l.ModID, l.Name, string(encoded), l.Error, l.CreatedAt,
	)
	if err != nil {
		return err
	}

	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	l.ID = id
	return nil
}

// Get retrieves a lookup by ID.
func (r *Repository) Get(ctx context.Context, id int64) (*domain.Lookup, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, url, status, COALESCE(provider, ''), COALESCE(mod_id, ''), COALESCE(name, ''),
		        pairs, COALESCE(error, ''), created_at
		 FROM lookups WHERE id = ?`, id,
	)
	return scanLookup(row)
}

// Recent returns up to limit lookups, newest first.
func (r *Repository) Recent(ctx context.Context, limit int) ([]domain.Lookup, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, url, status, COALESCE(provider, ''), COALESCE(mod_id, ''), COALESCE(name, ''),
		        pairs, COALESCE(error, ''), created_at
		 FROM lookups ORDER BY id DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var lookups []domain.Lookup
	for rows.Next() {
		l, err := scanLookup(rows)
		if err != nil {
			return nil, err
		}
		lookups = append(lookups, *l)
	}
	return lookups, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanLookup(row scanner) (*domain.Lookup, error) {
	var l domain.Lookup
	var status, provider, pairs string
	err := row.Scan(&l.ID, &l.URL, &status, &provider, &l.ModID, &l.Name, &pairs, &l.Error, &l.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrLookupNotFound
	}
	if err != nil {
		return nil, err
	}
	l.Status = domain.LookupStatus(status)
	l.Provider = domain.ProviderName(provider)
	if err := json.Unmarshal([]byte(pairs), &l.Pairs); err != nil {
		return nil, err
	}
	return &l, nil
}
