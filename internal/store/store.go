// Package store persists the sync log and output catalog behind fetch runs:
// which datasets ran, when they last succeeded, and which CSV files each run
// produced. Two backends are available, SQLite for single-user setups and
// Postgres for shared ones.
package store

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// SyncStatus is the lifecycle state of one dataset run.
type SyncStatus string

const (
	SyncRunning   SyncStatus = "running"
	SyncCompleted SyncStatus = "completed"
	SyncFailed    SyncStatus = "failed"
)

// SyncRecord is one entry in the sync log.
type SyncRecord struct {
	ID        string     `json:"id"`
	Dataset   string     `json:"dataset"`
	Status    SyncStatus `json:"status"`
	Error     string     `json:"error,omitempty"`
	Rows      int        `json:"rows"`
	StartedAt time.Time  `json:"started_at"`
	EndedAt   *time.Time `json:"ended_at,omitempty"`
}

// OutputRecord catalogs one file a dataset run produced.
type OutputRecord struct {
	ID        string    `json:"id"`
	Dataset   string    `json:"dataset"`
	Year      int       `json:"year"`
	Path      string    `json:"path"`
	Rows      int       `json:"rows"`
	CreatedAt time.Time `json:"created_at"`
}

// SyncFilter specifies criteria for listing sync records.
type SyncFilter struct {
	Dataset string     `json:"dataset,omitempty"`
	Status  SyncStatus `json:"status,omitempty"`
	Limit   int        `json:"limit,omitempty"`
	Offset  int        `json:"offset,omitempty"`
}

// Store defines the persistence interface for fetch runs.
type Store interface {
	// Sync log
	StartSync(ctx context.Context, dataset string) (*SyncRecord, error)
	CompleteSync(ctx context.Context, syncID string, rows int) error
	FailSync(ctx context.Context, syncID string, cause error) error
	LastSuccess(ctx context.Context, dataset string) (*time.Time, error)
	ListSyncs(ctx context.Context, filter SyncFilter) ([]SyncRecord, error)

	// Output catalog
	RecordOutput(ctx context.Context, dataset string, year int, path string, rows int) error
	ListOutputs(ctx context.Context, dataset string) ([]OutputRecord, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}

// Pool is the subset of pgxpool.Pool the Postgres backend uses, satisfied by
// pgxmock in tests.
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Ping(ctx context.Context) error
}
