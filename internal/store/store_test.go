package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/malik-dev28/OTA-AI/internal/db"
)

// exerciseStore runs the behaviour every HistoryStore shares.
func exerciseStore(t *testing.T, s HistoryStore) {
	t.Helper()
	ctx := context.Background()

	got, err := s.Load(ctx, "unknown")
	require.NoError(t, err)
	assert.Empty(t, got)

	for _, p := range []string{"one", "two", "three", "four"} {
		require.NoError(t, s.Append(ctx, "s1", p))
	}
	require.NoError(t, s.Append(ctx, "s2", "other"))

	got, err = s.Load(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, []string{"two", "three", "four"}, got, "oldest first, capped at three")

	require.NoError(t, s.Clear(ctx, "s1"))
	got, err = s.Load(ctx, "s1")
	require.NoError(t, err)
	assert.Empty(t, got)

	got, err = s.Load(ctx, "s2")
	require.NoError(t, err)
	assert.Equal(t, []string{"other"}, got)

	assert.ErrorIs(t, s.Append(ctx, "", "x"), ErrSessionRequired)
}

func TestMemoryStore(t *testing.T) {
	exerciseStore(t, NewMemoryStore(3, 0))
}

func TestMemoryStore_ExpiresIdleSessions(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	m := NewMemoryStore(0, time.Hour)
	m.now = func() time.Time { return now }
	ctx := context.Background()

	require.NoError(t, m.Append(ctx, "s", "a"))
	now = now.Add(2 * time.Hour)
	got, err := m.Load(ctx, "s")
	require.NoError(t, err)
	assert.Empty(t, got)

	require.NoError(t, m.Append(ctx, "s", "b"))
	got, _ = m.Load(ctx, "s")
	assert.Equal(t, []string{"b"}, got)
}

func TestFileStore(t *testing.T) {
	exerciseStore(t, NewFileStore(filepath.Join(t.TempDir(), "nested", "history.json"), 3))
}

func TestFileStore_SurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.json")
	ctx := context.Background()
	require.NoError(t, NewFileStore(path, 0).Append(ctx, "local", "flights to Oslo"))

	got, err := NewFileStore(path, 0).Load(ctx, "local")
	require.NoError(t, err)
	assert.Equal(t, []string{"flights to Oslo"}, got)
}

func TestRedisStore(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := NewRedis(mr.Addr())
	t.Cleanup(func() { rdb.Close() })

	exerciseStore(t, NewRedisStore(rdb, 3, 24*time.Hour))
}

func TestRedisStore_SetsTTL(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := NewRedis(mr.Addr())
	t.Cleanup(func() { rdb.Close() })

	s := NewRedisStore(rdb, 0, time.Hour)
	require.NoError(t, s.Append(context.Background(), "s", "hello"))
	assert.Equal(t, time.Hour, mr.TTL(historyKey("s")))

	mr.FastForward(2 * time.Hour)
	got, err := s.Load(context.Background(), "s")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func newMockStore(t *testing.T, maxPrompts int) (*DatabaseStore, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })
	return NewDatabaseStore(db.Wrap(sqlDB, nil), maxPrompts), mock
}

func TestDatabaseStore_AppendPrunes(t *testing.T) {
	s, mock := newMockStore(t, 50)
	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO prompt_history").
		WithArgs("s1", "hello").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("DELETE FROM prompt_history").
		WithArgs("s1", 50).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	require.NoError(t, s.Append(context.Background(), "s1", "hello"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDatabaseStore_AppendWithoutCap(t *testing.T) {
	s, mock := newMockStore(t, 0)
	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO prompt_history").
		WithArgs("s1", "hello").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	require.NoError(t, s.Append(context.Background(), "s1", "hello"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDatabaseStore_Load(t *testing.T) {
	s, mock := newMockStore(t, 0)
	mock.ExpectQuery("SELECT prompt FROM prompt_history").
		WithArgs("s1").
		WillReturnRows(sqlmock.NewRows([]string{"prompt"}).AddRow("first").AddRow("second"))

	got, err := s.Load(context.Background(), "s1")
	require.NoError(t, err)
	assert.Equal(t, []string{"first", "second"}, got)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDatabaseStore_Errors(t *testing.T) {
	s, mock := newMockStore(t, 0)
	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO prompt_history").WillReturnError(errors.New("connection reset"))
	mock.ExpectRollback()
	mock.ExpectQuery("SELECT prompt FROM prompt_history").WillReturnError(errors.New("connection reset"))

	assert.ErrorContains(t, s.Append(context.Background(), "s1", "x"), "failed to save prompt")
	_, err := s.Load(context.Background(), "s1")
	assert.ErrorContains(t, err, "failed to load history")
	assert.ErrorIs(t, s.Clear(context.Background(), ""), ErrSessionRequired)
}

func TestDatabaseStore_Clear(t *testing.T) {
	s, mock := newMockStore(t, 0)
	mock.ExpectExec("DELETE FROM prompt_history").WithArgs("s1").WillReturnResult(sqlmock.NewResult(0, 2))
	require.NoError(t, s.Clear(context.Background(), "s1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDatabaseStore_PruneFailureRollsBack(t *testing.T) {
	s, mock := newMockStore(t, 3)
	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO prompt_history").
		WithArgs("s1", "hello").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("DELETE FROM prompt_history").
		WithArgs("s1", 3).
		WillReturnError(errors.New("deadlock detected"))
	mock.ExpectRollback()

	assert.ErrorContains(t, s.Append(context.Background(), "s1", "hello"), "failed to prune history")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDatabaseStore_HealthCheck(t *testing.T) {
	sqlDB, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })
	s := NewDatabaseStore(db.Wrap(sqlDB, nil), 0)

	mock.ExpectPing()
	assert.NoError(t, s.HealthCheck(context.Background()))
	mock.ExpectPing().WillReturnError(errors.New("connection refused"))
	assert.Error(t, s.HealthCheck(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisStore_HealthCheck(t *testing.T) {
	mr := miniredis.RunT(t)
	s := NewRedisStore(NewRedis(mr.Addr()), 3, time.Hour)
	require.NoError(t, s.HealthCheck(context.Background()))

	mr.Close()
	assert.Error(t, s.HealthCheck(context.Background()))
}
