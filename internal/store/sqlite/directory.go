// Package sqlite is a single-file property directory for deployments without
// Postgres. It answers the same owner and capacity questions as the pgx
// repository in store/properties.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"
)

const schema = `
CREATE TABLE IF NOT EXISTS properties (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	owner_id    TEXT NOT NULL,
	external_id TEXT NOT NULL DEFAULT '',
	name        TEXT NOT NULL DEFAULT '',
	UNIQUE (owner_id, external_id)
);
CREATE INDEX IF NOT EXISTS idx_properties_owner ON properties(owner_id);
`

type Directory struct {
	db  *sql.DB
	log *zap.Logger
}

// Open opens the database at path and creates the schema. Use ":memory:" for
// a throwaway directory.
func Open(path string, log *zap.Logger) (*Directory, error) {
	dsn := path + "?_foreign_keys=on"
	if path != ":memory:" {
		dsn += "&_journal_mode=WAL"
	}
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if path == ":memory:" {
		// every connection would otherwise see its own empty database
		db.SetMaxOpenConns(1)
	}
	d := New(db, log)
	if err := d.EnsureSchema(context.Background()); err != nil {
		db.Close()
		return nil, err
	}
	return d, nil
}

// New wraps an existing handle without touching the schema.
func New(db *sql.DB, log *zap.Logger) *Directory {
	if log == nil {
		log = zap.NewNop()
	}
	return &Directory{db: db, log: log}
}

func (d *Directory) Close() error {
	return d.db.Close()
}

func (d *Directory) EnsureSchema(ctx context.Context) error {
	if _, err := d.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	return nil
}

// AddProperty records that ownerID holds the property known upstream as
// externalID. Re-adding the same pair is a no-op.
func (d *Directory) AddProperty(ctx context.Context, ownerID, externalID, name string) error {
	_, err := d.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO properties (owner_id, external_id, name) VALUES (?, ?, ?)`,
		ownerID, strings.TrimSpace(externalID), name)
	return err
}

func (d *Directory) ExternalIDsByOwner(ctx context.Context, ownerID string) ([]string, error) {
	rows, err := d.db.QueryContext(ctx,
		`SELECT DISTINCT external_id FROM properties WHERE owner_id = ? AND external_id <> '' ORDER BY external_id`,
		ownerID)
	if err != nil {
		return nil, fmt.Errorf("query owner properties: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	d.log.Debug("resolved owner properties", zap.String("owner_id", ownerID), zap.Int("count", len(ids)))
	return ids, nil
}

func (d *Directory) CountManaged(ctx context.Context) (int, error) {
	var n int
	err := d.db.QueryRowContext(ctx, `SELECT COUNT(DISTINCT external_id) FROM properties WHERE external_id <> ''`).Scan(&n)
	return n, err
}
