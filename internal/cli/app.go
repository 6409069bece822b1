package cli

import (
	"github.com/mesh-intelligence/stowlog/internal/entries"
	"github.com/mesh-intelligence/stowlog/internal/lifecycle"
	"github.com/mesh-intelligence/stowlog/internal/logging"
	"github.com/mesh-intelligence/stowlog/internal/store"
	"github.com/mesh-intelligence/stowlog/internal/transfer"
)

// services are the components a command works through. They share one
// storage engine that is closed when the command returns.
type services struct {
	engine   *store.Engine
	repo     *entries.SQLiteRepository
	entries  *lifecycle.Manager
	transfer *transfer.Serializer
}

// withServices wires engine, repository, lifecycle manager and serializer,
// runs fn, and closes the engine.
func (a *app) withServices(fn func(svc *services) error) (err error) {
	engine, err := store.NewEngine(a.storeConfig(), a.log)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := engine.Close(); cerr != nil {
			a.log.Warn("closing store", logging.Error(cerr))
			if err == nil {
				err = store.Wrap("close", cerr)
			}
		}
		_ = a.log.Sync()
	}()

	repo := entries.NewSQLiteRepository(engine)
	svc := &services{
		engine:   engine,
		repo:     repo,
		entries:  lifecycle.NewManager(repo, lifecycle.WithLogger(a.log)),
		transfer: transfer.NewSerializer(repo, transfer.WithLogger(a.log)),
	}
	return fn(svc)
}
