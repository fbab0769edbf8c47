package store

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
CREATE TABLE IF NOT EXISTS syncs (
	id         TEXT PRIMARY KEY,
	dataset    TEXT NOT NULL,
	status     TEXT NOT NULL DEFAULT 'running',
	error      TEXT,
	rows       INTEGER NOT NULL DEFAULT 0,
	started_at DATETIME NOT NULL DEFAULT (datetime('now')),
	ended_at   DATETIME
);

CREATE TABLE IF NOT EXISTS outputs (
	id         TEXT PRIMARY KEY,
	dataset    TEXT NOT NULL,
	year       INTEGER NOT NULL,
	path       TEXT NOT NULL,
	rows       INTEGER NOT NULL DEFAULT 0,
	created_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_syncs_dataset ON syncs(dataset);
CREATE INDEX IF NOT EXISTS idx_syncs_status ON syncs(status);
CREATE INDEX IF NOT EXISTS idx_outputs_dataset_year ON outputs(dataset, year);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) StartSync(ctx context.Context, dataset string) (*SyncRecord, error) {
	id := uuid.New().String()
	now := time.Now().UTC()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO syncs (id, dataset, status, started_at) VALUES (?, ?, ?, ?)`,
		id, dataset, string(SyncRunning), now,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: start sync %s", dataset)
	}

	return &SyncRecord{ID: id, Dataset: dataset, Status: SyncRunning, StartedAt: now}, nil
}

func (s *SQLiteStore) CompleteSync(ctx context.Context, syncID string, rows int) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE syncs SET status = ?, rows = ?, ended_at = ? WHERE id = ?`,
		string(SyncCompleted), rows, time.Now().UTC(), syncID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: complete sync %s", syncID)
	}
	return checkRowsAffected(res, "sync", syncID)
}

func (s *SQLiteStore) FailSync(ctx context.Context, syncID string, cause error) error {
	msg := ""
	if cause != nil {
		msg = cause.Error()
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE syncs SET status = ?, error = ?, ended_at = ? WHERE id = ?`,
		string(SyncFailed), msg, time.Now().UTC(), syncID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: fail sync %s", syncID)
	}
	return checkRowsAffected(res, "sync", syncID)
}

func (s *SQLiteStore) LastSuccess(ctx context.Context, dataset string) (*time.Time, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT ended_at FROM syncs WHERE dataset = ? AND status = ?
		 ORDER BY ended_at DESC LIMIT 1`,
		dataset, string(SyncCompleted),
	)

	var ended time.Time
	err := row.Scan(&ended)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: last success %s", dataset)
	}
	return &ended, nil
}

func (s *SQLiteStore) ListSyncs(ctx context.Context, filter SyncFilter) ([]SyncRecord, error) {
	query := `SELECT id, dataset, status, error, rows, started_at, ended_at FROM syncs WHERE 1=1`
	var args []any

	if filter.Dataset != "" {
		query += ` AND dataset = ?`
		args = append(args, filter.Dataset)
	}
	if filter.Status != "" {
		query += ` AND status = ?`
		args = append(args, string(filter.Status))
	}
	query += ` ORDER BY started_at DESC`

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
		return nil, eris.Wrap(err, "sqlite: list syncs")
	}
	defer rows.Close()

	var syncs []SyncRecord
	for rows.Next() {
		var rec SyncRecord
		var errMsg sql.NullString
		var ended sql.NullTime
		if err := rows.Scan(&rec.ID, &rec.Dataset, &rec.Status, &errMsg, &rec.Rows,
			&rec.StartedAt, &ended); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan sync")
		}
		rec.Error = errMsg.String
		if ended.Valid {
			t := ended.Time
			rec.EndedAt = &t
		}
		syncs = append(syncs, rec)
	}
	return syncs, eris.Wrap(rows.Err(), "sqlite: list syncs iterate")
}

func (s *SQLiteStore) RecordOutput(ctx context.Context, dataset string, year int, path string, rows int) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO outputs (id, dataset, year, path, rows, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		uuid.New().String(), dataset, year, path, rows, time.Now().UTC(),
	)
	return eris.Wrapf(err, "sqlite: record output %s %d", dataset, year)
}

func (s *SQLiteStore) ListOutputs(ctx context.Context, dataset string) ([]OutputRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, dataset, year, path, rows, created_at FROM outputs
		 WHERE dataset = ? ORDER BY year, created_at`,
		dataset,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: list outputs %s", dataset)
	}
	defer rows.Close()

	var outs []OutputRecord
	for rows.Next() {
		var rec OutputRecord
		if err := rows.Scan(&rec.ID, &rec.Dataset, &rec.Year, &rec.Path, &rec.Rows,
			&rec.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan output")
		}
		outs = append(outs, rec)
	}
	return outs, eris.Wrap(rows.Err(), "sqlite: list outputs iterate")
}

func checkRowsAffected(res sql.Result, entity, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "rows affected")
	}
	if n == 0 {
		return eris.Errorf("%s not found: %s", entity, id)
	}
	return nil
}
