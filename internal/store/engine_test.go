package store

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/stowlog/internal/logging"
	"github.com/mesh-intelligence/stowlog/pkg/types"
)

// newTestEngine returns an Engine backed by a fresh database file.
func newTestEngine(t *testing.T, opts ...Option) (*Engine, types.Config) {
	t.Helper()
	cfg := types.Config{DataDir: t.TempDir()}
	e, err := NewEngine(cfg, logging.NewNop(), opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = e.Close() })
	return e, cfg
}

func insertRow(ctx context.Context, tx DBTX, id string) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO entries (id, created_at, item) VALUES (?, ?, ?)`,
		id, "2024-01-01T00:00:00.000Z", "thing")
	return err
}

func countRows(t *testing.T, e *Engine) int {
	t.Helper()
	var n int
	err := e.RunUnitOfWork(context.Background(), ReadOnly, func(ctx context.Context, tx DBTX) error {
		return tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM entries`).Scan(&n)
	})
	require.NoError(t, err)
	return n
}

func TestNewEngine_InvalidConfig(t *testing.T) {
	_, err := NewEngine(types.Config{}, logging.NewNop())
	assert.ErrorIs(t, err, types.ErrDataDirEmpty)
}

func TestEngine_OpensLazily(t *testing.T) {
	e, cfg := newTestEngine(t)

	_, err := os.Stat(cfg.DBPath())
	require.True(t, os.IsNotExist(err), "database must not exist before first use")

	assert.Equal(t, 0, countRows(t, e))

	_, err = os.Stat(cfg.DBPath())
	assert.NoError(t, err)
}

func TestEngine_SchemaHasIndexes(t *testing.T) {
	e, _ := newTestEngine(t)

	var names []string
	err := e.RunUnitOfWork(context.Background(), ReadOnly, func(ctx context.Context, tx DBTX) error {
		rows, err := tx.QueryContext(ctx,
			`SELECT name FROM sqlite_master WHERE type = 'index' AND tbl_name = 'entries' AND name LIKE 'idx_%' ORDER BY name`)
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			var n string
			if err := rows.Scan(&n); err != nil {
				return err
			}
			names = append(names, n)
		}
		return rows.Err()
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"idx_entries_created_at", "idx_entries_item"}, names)
}

func TestRunUnitOfWork_ReadWriteCommits(t *testing.T) {
	e, _ := newTestEngine(t)
	ctx := context.Background()

	err := e.RunUnitOfWork(ctx, ReadWrite, func(ctx context.Context, tx DBTX) error {
		return insertRow(ctx, tx, "a")
	})
	require.NoError(t, err)
	assert.Equal(t, 1, countRows(t, e))
}

func TestRunUnitOfWork_ReadOnlyDiscardsWrites(t *testing.T) {
	e, _ := newTestEngine(t)

	err := e.RunUnitOfWork(context.Background(), ReadOnly, func(ctx context.Context, tx DBTX) error {
		return insertRow(ctx, tx, "a")
	})
	require.NoError(t, err)
	assert.Equal(t, 0, countRows(t, e))
}

func TestRunUnitOfWork_ErrorRollsBack(t *testing.T) {
	e, _ := newTestEngine(t)
	boom := errors.New("boom")

	err := e.RunUnitOfWork(context.Background(), ReadWrite, func(ctx context.Context, tx DBTX) error {
		require.NoError(t, insertRow(ctx, tx, "a"))
		require.NoError(t, insertRow(ctx, tx, "b"))
		return boom
	})
	require.ErrorIs(t, err, boom)
	assert.NotErrorIs(t, err, types.ErrStorage, "fn errors are returned unchanged")
	assert.Equal(t, 0, countRows(t, e))
}

func TestRunUnitOfWork_PanicRollsBack(t *testing.T) {
	e, _ := newTestEngine(t)

	assert.PanicsWithValue(t, "kaboom", func() {
		_ = e.RunUnitOfWork(context.Background(), ReadWrite, func(ctx context.Context, tx DBTX) error {
			require.NoError(t, insertRow(ctx, tx, "a"))
			panic("kaboom")
		})
	})
	assert.Equal(t, 0, countRows(t, e))
}

func TestWithConnection_ConcurrentCallersShareOneOpen(t *testing.T) {
	var opens atomic.Int32
	entered := make(chan struct{})
	release := make(chan struct{})

	var e *Engine
	e, _ = newTestEngine(t, WithOpener(func(ctx context.Context) (*sql.DB, error) {
		if opens.Add(1) == 1 {
			close(entered)
		}
		<-release
		return e.openSQLite(ctx)
	}))

	const callers = 8
	var wg sync.WaitGroup
	dbs := make([]*sql.DB, callers)
	errs := make([]error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			dbs[i], errs[i] = e.WithConnection(context.Background())
		}(i)
	}

	<-entered
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), opens.Load())
	for i := 0; i < callers; i++ {
		require.NoError(t, errs[i])
		assert.Same(t, dbs[0], dbs[i])
	}
}

func TestWithConnection_InitFailureIsStorageErrorAndRetried(t *testing.T) {
	var opens atomic.Int32
	diskGone := errors.New("disk gone")

	var e *Engine
	e, _ = newTestEngine(t, WithOpener(func(ctx context.Context) (*sql.DB, error) {
		if opens.Add(1) == 1 {
			return nil, diskGone
		}
		return e.openSQLite(ctx)
	}))

	err := e.RunUnitOfWork(context.Background(), ReadOnly, func(context.Context, DBTX) error { return nil })
	require.ErrorIs(t, err, types.ErrStorage)
	require.ErrorIs(t, err, diskGone)

	// A later caller starts a fresh attempt.
	assert.Equal(t, 0, countRows(t, e))
	assert.Equal(t, int32(2), opens.Load())
}

func TestWithConnection_MigrationFailureClosesAndFails(t *testing.T) {
	e, _ := newTestEngine(t, WithMigrator(func(context.Context, *sql.DB) error {
		return errors.New("bad schema")
	}))

	_, err := e.WithConnection(context.Background())
	require.ErrorIs(t, err, types.ErrStorage)
	assert.Contains(t, err.Error(), "bad schema")
}

func TestWithConnection_NewerSchemaRejected(t *testing.T) {
	cfg := types.Config{DataDir: t.TempDir()}

	first, err := NewEngine(cfg, logging.NewNop())
	require.NoError(t, err)
	db, err := first.WithConnection(context.Background())
	require.NoError(t, err)
	_, err = db.Exec(`INSERT INTO goose_db_version (version_id, is_applied) VALUES (?, ?)`, 99, true)
	require.NoError(t, err)
	require.NoError(t, first.Close())

	second, err := NewEngine(cfg, logging.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = second.Close() })

	_, err = second.WithConnection(context.Background())
	assert.ErrorIs(t, err, types.ErrStorage)
}

func TestEngine_CloseThenReopen(t *testing.T) {
	e, cfg := newTestEngine(t)
	ctx := context.Background()

	require.NoError(t, e.RunUnitOfWork(ctx, ReadWrite, func(ctx context.Context, tx DBTX) error {
		return insertRow(ctx, tx, "a")
	}))
	require.NoError(t, e.Close())
	require.NoError(t, e.Close(), "close is idempotent")

	assert.Equal(t, 1, countRows(t, e))
	assert.FileExists(t, filepath.Join(cfg.DataDir, types.DefaultDBFile))
}

func TestEngine_CloseWaitsForPendingOpen(t *testing.T) {
	entered := make(chan struct{})
	release := make(chan struct{})

	var e *Engine
	e, _ = newTestEngine(t, WithOpener(func(ctx context.Context) (*sql.DB, error) {
		close(entered)
		<-release
		return e.openSQLite(ctx)
	}))

	type opened struct {
		db  *sql.DB
		err error
	}
	openDone := make(chan opened, 1)
	go func() {
		db, err := e.WithConnection(context.Background())
		openDone <- opened{db, err}
	}()
	<-entered

	closeDone := make(chan error, 1)
	go func() { closeDone <- e.Close() }()

	select {
	case <-closeDone:
		t.Fatal("Close returned while the open was still running")
	case <-time.After(50 * time.Millisecond):
	}

	close(release)
	got := <-openDone
	require.NoError(t, got.err)
	require.NoError(t, <-closeDone)

	e.mu.Lock()
	held := e.db
	e.mu.Unlock()
	assert.Nil(t, held, "closed engine keeps no connection")
	assert.Error(t, got.db.Ping(), "connection from the pending open is closed")
}

func newMockEngine(t *testing.T) (*Engine, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	e, err := NewEngine(types.Config{DataDir: t.TempDir()}, logging.NewNop(),
		WithOpener(func(context.Context) (*sql.DB, error) { return db, nil }),
		WithMigrator(func(context.Context, *sql.DB) error { return nil }),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = e.Close() })
	return e, mock
}

func TestRunUnitOfWork_CommitFailureIsStorageError(t *testing.T) {
	e, mock := newMockEngine(t)
	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO entries").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit().WillReturnError(errors.New("disk full"))

	err := e.RunUnitOfWork(context.Background(), ReadWrite, func(ctx context.Context, tx DBTX) error {
		return insertRow(ctx, tx, "a")
	})
	require.ErrorIs(t, err, types.ErrStorage)
	assert.Contains(t, err.Error(), "commit")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRunUnitOfWork_BeginFailureIsStorageError(t *testing.T) {
	e, mock := newMockEngine(t)
	mock.ExpectBegin().WillReturnError(errors.New("locked"))

	called := false
	err := e.RunUnitOfWork(context.Background(), ReadWrite, func(context.Context, DBTX) error {
		called = true
		return nil
	})
	require.ErrorIs(t, err, types.ErrStorage)
	assert.False(t, called)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRunUnitOfWork_ReadOnlyRollsBack(t *testing.T) {
	e, mock := newMockEngine(t)
	mock.ExpectBegin()
	mock.ExpectRollback()

	err := e.RunUnitOfWork(context.Background(), ReadOnly, func(context.Context, DBTX) error { return nil })
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestModeString(t *testing.T) {
	assert.Equal(t, "read-only", ReadOnly.String())
	assert.Equal(t, "read-write", ReadWrite.String())
	assert.Equal(t, "Mode(7)", Mode(7).String())
}
