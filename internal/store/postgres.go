package store

import (
	"context"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"
)

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    Pool
	closeFn func()
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// preparedStatements lists queries to prepare on each new connection for
// faster execution of the most frequently used store operations.
var preparedStatements = map[string]string{
	"start_sync":    `INSERT INTO syncs (id, dataset, status, started_at) VALUES ($1, $2, $3, $4)`,
	"complete_sync": `UPDATE syncs SET status = $1, rows = $2, ended_at = $3 WHERE id = $4`,
	"fail_sync":     `UPDATE syncs SET status = $1, error = $2, ended_at = $3 WHERE id = $4`,
	"last_success":  `SELECT ended_at FROM syncs WHERE dataset = $1 AND status = $2 ORDER BY ended_at DESC LIMIT 1`,
	"record_output": `INSERT INTO outputs (id, dataset, year, path, rows, created_at) VALUES ($1, $2, $3, $4, $5, $6)`,
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

	pgxCfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		for name, sql := range preparedStatements {
			if _, err := conn.Prepare(ctx, name, sql); err != nil {
				return eris.Wrapf(err, "postgres: prepare %s", name)
			}
		}
		return nil
	}

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

// NewPostgresWithPool wraps an existing pool, used by tests with pgxmock.
func NewPostgresWithPool(pool Pool) *PostgresStore {
	return &PostgresStore{pool: pool, closeFn: func() {}}
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS syncs (
	id         TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	dataset    TEXT NOT NULL,
	status     TEXT NOT NULL DEFAULT 'running',
	error      TEXT,
	rows       INTEGER NOT NULL DEFAULT 0,
	started_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	ended_at   TIMESTAMPTZ
);

CREATE TABLE IF NOT EXISTS outputs (
	id         TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	dataset    TEXT NOT NULL,
	year       INTEGER NOT NULL,
	path       TEXT NOT NULL,
	rows       INTEGER NOT NULL DEFAULT 0,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_syncs_dataset ON syncs(dataset);
CREATE INDEX IF NOT EXISTS idx_syncs_status ON syncs(status);
CREATE INDEX IF NOT EXISTS idx_outputs_dataset_year ON outputs(dataset, year);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	s.closeFn()
	return nil
}

func (s *PostgresStore) StartSync(ctx context.Context, dataset string) (*SyncRecord, error) {
	id := uuid.New().String()
	now := time.Now().UTC()

	_, err := s.pool.Exec(ctx,
		`INSERT INTO syncs (id, dataset, status, started_at) VALUES ($1, $2, $3, $4)`,
		id, dataset, string(SyncRunning), now,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: start sync %s", dataset)
	}

	return &SyncRecord{ID: id, Dataset: dataset, Status: SyncRunning, StartedAt: now}, nil
}

func (s *PostgresStore) CompleteSync(ctx context.Context, syncID string, rows int) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE syncs SET status = $1, rows = $2, ended_at = $3 WHERE id = $4`,
		string(SyncCompleted), rows, time.Now().UTC(), syncID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: complete sync %s", syncID)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("sync not found: %s", syncID)
	}
	return nil
}

func (s *PostgresStore) FailSync(ctx context.Context, syncID string, cause error) error {
	msg := ""
	if cause != nil {
		msg = cause.Error()
	}
	tag, err := s.pool.Exec(ctx,
		`UPDATE syncs SET status = $1, error = $2, ended_at = $3 WHERE id = $4`,
		string(SyncFailed), msg, time.Now().UTC(), syncID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: fail sync %s", syncID)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("sync not found: %s", syncID)
	}
	return nil
}

func (s *PostgresStore) LastSuccess(ctx context.Context, dataset string) (*time.Time, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT ended_at FROM syncs WHERE dataset = $1 AND status = $2
		 ORDER BY ended_at DESC LIMIT 1`,
		dataset, string(SyncCompleted),
	)

	var ended time.Time
	err := row.Scan(&ended)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: last success %s", dataset)
	}
	return &ended, nil
}

func (s *PostgresStore) ListSyncs(ctx context.Context, filter SyncFilter) ([]SyncRecord, error) {
	query := `SELECT id, dataset, status, error, rows, started_at, ended_at FROM syncs WHERE 1=1`
	var args []any

	if filter.Dataset != "" {
		args = append(args, filter.Dataset)
		query += ` AND dataset = $` + strconv.Itoa(len(args))
	}
	if filter.Status != "" {
		args = append(args, string(filter.Status))
		query += ` AND status = $` + strconv.Itoa(len(args))
	}
	query += ` ORDER BY started_at DESC`

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
		return nil, eris.Wrap(err, "postgres: list syncs")
	}
	defer rows.Close()

	var syncs []SyncRecord
	for rows.Next() {
		var rec SyncRecord
		var errMsg *string
		var ended *time.Time
		if err := rows.Scan(&rec.ID, &rec.Dataset, &rec.Status, &errMsg, &rec.Rows,
			&rec.StartedAt, &ended); err != nil {
			return nil, eris.Wrap(err, "postgres: scan sync")
		}
		if errMsg != nil {
			rec.Error = *errMsg
		}
		rec.EndedAt = ended
		syncs = append(syncs, rec)
	}
	return syncs, eris.Wrap(rows.Err(), "postgres: list syncs iterate")
}

func (s *PostgresStore) RecordOutput(ctx context.Context, dataset string, year int, path string, rows int) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO outputs (id, dataset, year, path, rows, created_at) VALUES ($1, $2, $3, $4, $5, $6)`,
		uuid.New().String(), dataset, year, path, rows, time.Now().UTC(),
	)
	return eris.Wrapf(err, "postgres: record output %s %d", dataset, year)
}

func (s *PostgresStore) ListOutputs(ctx context.Context, dataset string) ([]OutputRecord, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, dataset, year, path, rows, created_at FROM outputs
		 WHERE dataset = $1 ORDER BY year, created_at`,
		dataset,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: list outputs %s", dataset)
	}
	defer rows.Close()

	var outs []OutputRecord
	for rows.Next() {
		var rec OutputRecord
		if err := rows.Scan(&rec.ID, &rec.Dataset, &rec.Year, &rec.Path, &rec.Rows,
			&rec.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan output")
		}
		outs = append(outs, rec)
	}
	return outs, eris.Wrap(rows.Err(), "postgres: list outputs iterate")
}
