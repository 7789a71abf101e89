package journal

import (
	"context"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"
)

// Pool is the subset of pgxpool.Pool the journal uses; pgxmock satisfies it
// in tests.
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Ping(ctx context.Context) error
	Close()
}

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool Pool
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(10)
	minConns := int32(2)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS journal_entries (
	id             TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	plan           TEXT NOT NULL,
	kind           TEXT NOT NULL,
	district       INTEGER NOT NULL DEFAULT 0,
	units          INTEGER NOT NULL DEFAULT 0,
	version_before INTEGER NOT NULL,
	version_after  INTEGER NOT NULL,
	message        TEXT,
	created_at     TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_journal_entries_plan ON journal_entries(plan);
CREATE INDEX IF NOT EXISTS idx_journal_entries_kind ON journal_entries(kind);
CREATE INDEX IF NOT EXISTS idx_journal_entries_created_at ON journal_entries(created_at);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func (s *PostgresStore) Record(ctx context.Context, e Entry) (*Entry, error) {
	e.ID = uuid.New().String()
	e.CreatedAt = time.Now().UTC()

	_, err := s.pool.Exec(ctx,
		`INSERT INTO journal_entries (id, plan, kind, district, units, version_before, version_after, message, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		e.ID, e.Plan, string(e.Kind), e.District, e.Units, e.VersionBefore, e.VersionAfter, e.Message, e.CreatedAt,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: insert entry")
	}
	return &e, nil
}

func (s *PostgresStore) List(ctx context.Context, filter Filter) ([]Entry, error) {
	query := `SELECT id, plan, kind, district, units, version_before, version_after, COALESCE(message, ''), created_at
	          FROM journal_entries WHERE 1=1`
	var args []any

	if filter.Plan != "" {
		args = append(args, filter.Plan)
		query += ` AND plan = $1`
	}
	if filter.Kind != "" {
		args = append(args, string(filter.Kind))
		query += ` AND kind = $` + strconv.Itoa(len(args))
	}
	query += ` ORDER BY created_at DESC`

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	args = append(args, limit)
	query += ` LIMIT $` + strconv.Itoa(len(args))

	if filter.Offset > 0 {
		args = append(args, filter.Offset)
		query += ` OFFSET $` + strconv.Itoa(len(args))
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list entries")
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var kind string
		if err := rows.Scan(&e.ID, &e.Plan, &kind, &e.District, &e.Units,
			&e.VersionBefore, &e.VersionAfter, &e.Message, &e.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan entry")
		}
		e.Kind = Kind(kind)
		entries = append(entries, e)
	}
	return entries, eris.Wrap(rows.Err(), "postgres: list entries iterate")
}
