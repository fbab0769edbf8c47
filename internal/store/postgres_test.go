package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockStore(t *testing.T) (*PostgresStore, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return NewPostgresWithPool(mock), mock
}

func TestPostgresStartSync(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectExec("INSERT INTO syncs").
		WithArgs(pgxmock.AnyArg(), "prpop", "running", pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	rec, err := s.StartSync(context.Background(), "prpop")
	require.NoError(t, err)
	assert.Equal(t, "prpop", rec.Dataset)
	assert.Equal(t, SyncRunning, rec.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresCompleteSync(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectExec("UPDATE syncs SET status").
		WithArgs("completed", 52, pgxmock.AnyArg(), "sync-1").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	require.NoError(t, s.CompleteSync(context.Background(), "sync-1", 52))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresCompleteSync_NotFound(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectExec("UPDATE syncs SET status").
		WithArgs("completed", 52, pgxmock.AnyArg(), "nope").
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err := s.CompleteSync(context.Background(), "nope", 52)
	assert.ErrorContains(t, err, "not found")
}

func TestPostgresFailSync(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectExec("UPDATE syncs SET status").
		WithArgs("failed", "census: fetch 2023 state:*: 500", pgxmock.AnyArg(), "sync-2").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	err := s.FailSync(context.Background(), "sync-2", errors.New("census: fetch 2023 state:*: 500"))
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresLastSuccess(t *testing.T) {
	s, mock := newMockStore(t)

	ended := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	mock.ExpectQuery("SELECT ended_at FROM syncs").
		WithArgs("prpop", "completed").
		WillReturnRows(pgxmock.NewRows([]string{"ended_at"}).AddRow(ended))

	last, err := s.LastSuccess(context.Background(), "prpop")
	require.NoError(t, err)
	require.NotNil(t, last)
	assert.True(t, last.Equal(ended))
}

func TestPostgresLastSuccess_Never(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectQuery("SELECT ended_at FROM syncs").
		WithArgs("shapes", "completed").
		WillReturnRows(pgxmock.NewRows([]string{"ended_at"}))

	last, err := s.LastSuccess(context.Background(), "shapes")
	require.NoError(t, err)
	assert.Nil(t, last)
}

func TestPostgresListSyncs(t *testing.T) {
	s, mock := newMockStore(t)

	started := time.Now().UTC()
	ended := started.Add(time.Minute)
	errMsg := "boom"
	mock.ExpectQuery("SELECT id, dataset, status").
		WithArgs("prpop", 100).
		WillReturnRows(pgxmock.NewRows(
			[]string{"id", "dataset", "status", "error", "rows", "started_at", "ended_at"}).
			AddRow("s1", "prpop", SyncCompleted, (*string)(nil), 52, started, &ended).
			AddRow("s2", "prpop", SyncFailed, &errMsg, 0, started, &ended))

	syncs, err := s.ListSyncs(context.Background(), SyncFilter{Dataset: "prpop"})
	require.NoError(t, err)
	require.Len(t, syncs, 2)
	assert.Empty(t, syncs[0].Error)
	assert.Equal(t, "boom", syncs[1].Error)
}

func TestPostgresRecordOutput(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectExec("INSERT INTO outputs").
		WithArgs(pgxmock.AnyArg(), "economy", 2023, "data/economy/economy_2023.csv", 14, pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err := s.RecordOutput(context.Background(), "economy", 2023, "data/economy/economy_2023.csv", 14)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresMigrate(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS syncs").
		WillReturnResult(pgxmock.NewResult("CREATE", 0))

	require.NoError(t, s.Migrate(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}
