// Package store owns the durable SQLite connection for stowlog and the
// unit-of-work primitive every repository call runs inside.
//
// The connection is opened lazily on first use and memoized. Concurrent first
// callers share one pending open. The schema is installed by embedded goose
// migrations and pinned to SchemaVersion.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/pressly/goose/v3"
	"golang.org/x/sync/singleflight"
	_ "modernc.org/sqlite"

	"github.com/mesh-intelligence/stowlog/internal/logging"
	"github.com/mesh-intelligence/stowlog/internal/store/migrations"
	"github.com/mesh-intelligence/stowlog/pkg/types"
)

// SchemaVersion is the only schema version this build understands.
const SchemaVersion int64 = 1

// ErrSchemaVersion is returned when the database was written by a newer schema.
var ErrSchemaVersion = errors.New("unsupported schema version")

// Opener creates the underlying database handle.
type Opener func(ctx context.Context) (*sql.DB, error)

// Migrator brings db to SchemaVersion.
type Migrator func(ctx context.Context, db *sql.DB) error

// Engine is the lazily initialized owner of the durable connection.
type Engine struct {
	cfg     types.Config
	log     logging.Logger
	open    Opener
	migrate Migrator

	// opening is held for the whole of an open attempt so Close can wait on it.
	opening sync.Mutex
	mu      sync.Mutex
	db      *sql.DB
	group   singleflight.Group
}

// Option configures an Engine.
type Option func(*Engine)

// WithOpener replaces the default SQLite opener.
func WithOpener(o Opener) Option {
	return func(e *Engine) { e.open = o }
}

// WithMigrator replaces the goose migrator.
func WithMigrator(m Migrator) Option {
	return func(e *Engine) { e.migrate = m }
}

// NewEngine validates cfg and returns an Engine. No connection is opened
// until the first unit of work.
func NewEngine(cfg types.Config, log logging.Logger, opts ...Option) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if log == nil {
		log = logging.NewNop()
	}
	e := &Engine{cfg: cfg, log: log.Named("store")}
	e.open = e.openSQLite
	e.migrate = e.migrateGoose
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// WithConnection returns the shared connection, opening and migrating it on
// first use. Initialization failures are wrapped in types.ErrStorage and are
// reported to every caller that waited on the same attempt; the next call
// starts a new attempt.
func (e *Engine) WithConnection(ctx context.Context) (*sql.DB, error) {
	e.mu.Lock()
	db := e.db
	e.mu.Unlock()
	if db != nil {
		return db, nil
	}

	// Waiters share the first caller's attempt, so its cancellation must not
	// fail them.
	openCtx := context.WithoutCancel(ctx)
	v, err, _ := e.group.Do("open", func() (any, error) {
		e.opening.Lock()
		defer e.opening.Unlock()

		e.mu.Lock()
		if e.db != nil {
			db := e.db
			e.mu.Unlock()
			return db, nil
		}
		e.mu.Unlock()

		db, err := e.initialize(openCtx)
		if err != nil {
			return nil, err
		}

		e.mu.Lock()
		e.db = db
		e.mu.Unlock()
		return db, nil
	})
	if err != nil {
		e.log.Error("storage initialization failed", logging.String("path", e.cfg.DBPath()), logging.Error(err))
		return nil, Wrap("open", err)
	}
	return v.(*sql.DB), nil
}

func (e *Engine) initialize(ctx context.Context) (*sql.DB, error) {
	db, err := e.open(ctx)
	if err != nil {
		return nil, err
	}
	if err := e.migrate(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	// One connection is shared by every unit of work.
	db.SetMaxOpenConns(1)
	e.log.Info("storage opened", logging.String("path", e.cfg.DBPath()))
	return db, nil
}

// RunUnitOfWork runs fn inside one transaction. ReadWrite commits when fn
// returns nil; ReadOnly always rolls back. On error or panic the transaction
// is rolled back and nothing fn did is visible. fn's own error is returned
// unchanged; begin, commit and initialization failures wrap types.ErrStorage.
// fn must use tx, never the connection returned by WithConnection.
func (e *Engine) RunUnitOfWork(ctx context.Context, mode Mode, fn func(ctx context.Context, tx DBTX) error) (err error) {
	db, err := e.WithConnection(ctx)
	if err != nil {
		return err
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return Wrap("begin", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil || mode == ReadOnly {
			if rbErr := tx.Rollback(); rbErr != nil && err == nil {
				err = Wrap("rollback", rbErr)
			}
			if err != nil {
				e.log.Debug("unit of work aborted", logging.String("mode", mode.String()), logging.Error(err))
			}
			return
		}
		if cErr := tx.Commit(); cErr != nil {
			err = Wrap("commit", cErr)
		}
	}()

	err = fn(ctx, tx)
	return err
}

// Close releases the connection. An open in progress is waited for and its
// connection closed too. A later unit of work reopens it.
func (e *Engine) Close() error {
	e.opening.Lock()
	defer e.opening.Unlock()

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.db == nil {
		return nil
	}
	err := e.db.Close()
	e.db = nil
	return err
}

func (e *Engine) openSQLite(ctx context.Context) (*sql.DB, error) {
	if err := os.MkdirAll(e.cfg.DataDir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	dsn := fmt.Sprintf("%s?_pragma=busy_timeout(%d)", e.cfg.DBPath(), e.cfg.GetBusyTimeoutMS())
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// goose keeps its configuration in package globals.
var gooseMu sync.Mutex

func (e *Engine) migrateGoose(ctx context.Context, db *sql.DB) error {
	gooseMu.Lock()
	defer gooseMu.Unlock()

	goose.SetBaseFS(migrations.Migrations)
	goose.SetLogger(gooseLogger{log: e.log})
	if err := goose.SetDialect("sqlite3"); err != nil {
		return err
	}
	if err := goose.UpContext(ctx, db, "."); err != nil {
		return err
	}

	version, err := goose.GetDBVersionContext(ctx, db)
	if err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	if version != SchemaVersion {
		return fmt.Errorf("%w: database is at %d, want %d", ErrSchemaVersion, version, SchemaVersion)
	}
	return nil
}

// gooseLogger routes goose output into the engine logger at debug level.
type gooseLogger struct {
	log logging.Logger
}

func (g gooseLogger) Printf(format string, v ...interface{}) { g.log.Debugf(format, v...) }

// Fatalf is only reached on goose internal errors; it must not exit the process.
func (g gooseLogger) Fatalf(format string, v ...interface{}) { g.log.Errorf(format, v...) }
