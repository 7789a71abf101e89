package journal

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS journal_entries (
	id             TEXT PRIMARY KEY,
	plan           TEXT NOT NULL,
	kind           TEXT NOT NULL,
	district       INTEGER NOT NULL DEFAULT 0,
	units          INTEGER NOT NULL DEFAULT 0,
	version_before INTEGER NOT NULL,
	version_after  INTEGER NOT NULL,
	message        TEXT,
	created_at     DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_journal_entries_plan ON journal_entries(plan);
CREATE INDEX IF NOT EXISTS idx_journal_entries_kind ON journal_entries(kind);
CREATE INDEX IF NOT EXISTS idx_journal_entries_created_at ON journal_entries(created_at);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) Record(ctx context.Context, e Entry) (*Entry, error) {
	e.ID = uuid.New().String()
	e.CreatedAt = time.Now().UTC()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO journal_entries (id, plan, kind, district, units, version_before, version_after, message, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.Plan, string(e.Kind), e.District, e.Units, e.VersionBefore, e.VersionAfter, e.Message, e.CreatedAt,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: insert entry")
	}
	return &e, nil
}

func (s *SQLiteStore) List(ctx context.Context, filter Filter) ([]Entry, error) {
	query := `SELECT id, plan, kind, district, units, version_before, version_after, message, created_at
	          FROM journal_entries WHERE 1=1`
	var args []any

	if filter.Plan != "" {
		query += ` AND plan = ?`
		args = append(args, filter.Plan)
	}
	if filter.Kind != "" {
		query += ` AND kind = ?`
		args = append(args, string(filter.Kind))
	}
	query += ` ORDER BY created_at DESC`

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	query += ` LIMIT ?`
	args = append(args, limit)

	if filter.Offset > 0 {
		query += ` OFFSET ?`
		args = append(args, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list entries")
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var kind string
		var message sql.NullString
		if err := rows.Scan(&e.ID, &e.Plan, &kind, &e.District, &e.Units,
			&e.VersionBefore, &e.VersionAfter, &message, &e.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan entry")
		}
		e.Kind = Kind(kind)
		e.Message = message.String
		entries = append(entries, e)
	}
	return entries, eris.Wrap(rows.Err(), "sqlite: list entries iterate")
}
