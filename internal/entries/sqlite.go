package entries

import (
	"context"
	"database/sql"
	"errors"

	"github.com/mesh-intelligence/stowlog/internal/store"
	"github.com/mesh-intelligence/stowlog/pkg/types"
)

const entryColumns = `id, created_at, updated_at, item, location, inventory, date, notes`

const upsertQuery = `INSERT INTO entries (` + entryColumns + `)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(id) DO UPDATE SET
		created_at = excluded.created_at,
		updated_at = excluded.updated_at,
		item = excluded.item,
		location = excluded.location,
		inventory = excluded.inventory,
		date = excluded.date,
		notes = excluded.notes`

// UnitOfWorker runs functions inside store units of work.
type UnitOfWorker interface {
	RunUnitOfWork(ctx context.Context, mode store.Mode, fn func(ctx context.Context, tx store.DBTX) error) error
}

// SQLiteRepository implements types.Repository on top of a store engine.
type SQLiteRepository struct {
	uow UnitOfWorker
}

var _ types.Repository = (*SQLiteRepository)(nil)

// NewSQLiteRepository returns a repository that runs every call through uow.
func NewSQLiteRepository(uow UnitOfWorker) *SQLiteRepository {
	return &SQLiteRepository{uow: uow}
}

// Add inserts e. The existence check and the insert share one unit of work.
func (r *SQLiteRepository) Add(ctx context.Context, e types.Entry) error {
	return r.uow.RunUnitOfWork(ctx, store.ReadWrite, func(ctx context.Context, tx store.DBTX) error {
		exists, err := existsTx(ctx, tx, e.ID)
		if err != nil {
			return err
		}
		if exists {
			return types.ErrDuplicateKey
		}
		_, err = tx.ExecContext(ctx,
			`INSERT INTO entries (`+entryColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			entryArgs(e)...)
		if err != nil {
			return store.Wrap("insert entry", err)
		}
		return nil
	})
}

// Put inserts e or replaces every column of the entry stored under e.ID.
func (r *SQLiteRepository) Put(ctx context.Context, e types.Entry) error {
	return r.PutAll(ctx, []types.Entry{e})
}

// PutAll upserts es in order inside one unit of work.
func (r *SQLiteRepository) PutAll(ctx context.Context, es []types.Entry) error {
	if len(es) == 0 {
		return nil
	}
	return r.uow.RunUnitOfWork(ctx, store.ReadWrite, func(ctx context.Context, tx store.DBTX) error {
		for _, e := range es {
			if _, err := tx.ExecContext(ctx, upsertQuery, entryArgs(e)...); err != nil {
				return store.Wrap("upsert entry", err)
			}
		}
		return nil
	})
}

// Get returns the entry stored under id. A missing id yields ok == false and
// a nil error.
func (r *SQLiteRepository) Get(ctx context.Context, id string) (types.Entry, bool, error) {
	var (
		e     types.Entry
		found bool
	)
	err := r.uow.RunUnitOfWork(ctx, store.ReadOnly, func(ctx context.Context, tx store.DBTX) error {
		row := tx.QueryRowContext(ctx, `SELECT `+entryColumns+` FROM entries WHERE id = ?`, id)
		got, err := scanEntry(row)
		if errors.Is(err, sql.ErrNoRows) {
			return nil
		}
		if err != nil {
			return store.Wrap("select entry", err)
		}
		e, found = got, true
		return nil
	})
	if err != nil {
		return types.Entry{}, false, err
	}
	return e, found, nil
}

// GetAll returns every entry. Order is unspecified.
func (r *SQLiteRepository) GetAll(ctx context.Context) ([]types.Entry, error) {
	result := []types.Entry{}
	err := r.uow.RunUnitOfWork(ctx, store.ReadOnly, func(ctx context.Context, tx store.DBTX) error {
		rows, err := tx.QueryContext(ctx, `SELECT `+entryColumns+` FROM entries`)
		if err != nil {
			return store.Wrap("select entries", err)
		}
		defer rows.Close()

		for rows.Next() {
			e, err := scanEntry(rows)
			if err != nil {
				return store.Wrap("scan entry", err)
			}
			result = append(result, e)
		}
		if err := rows.Err(); err != nil {
			return store.Wrap("iterate entries", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Delete removes the entry. Missing ids are not an error.
func (r *SQLiteRepository) Delete(ctx context.Context, id string) error {
	return r.uow.RunUnitOfWork(ctx, store.ReadWrite, func(ctx context.Context, tx store.DBTX) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM entries WHERE id = ?`, id); err != nil {
			return store.Wrap("delete entry", err)
		}
		return nil
	})
}

// Count returns the number of stored entries.
func (r *SQLiteRepository) Count(ctx context.Context) (int, error) {
	var n int
	err := r.uow.RunUnitOfWork(ctx, store.ReadOnly, func(ctx context.Context, tx store.DBTX) error {
		if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM entries`).Scan(&n); err != nil {
			return store.Wrap("count entries", err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return n, nil
}

func existsTx(ctx context.Context, tx store.DBTX, id string) (bool, error) {
	var one int
	err := tx.QueryRowContext(ctx, `SELECT 1 FROM entries WHERE id = ?`, id).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, store.Wrap("check entry", err)
	}
	return true, nil
}

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(s scanner) (types.Entry, error) {
	var (
		e         types.Entry
		updatedAt sql.NullString
	)
	err := s.Scan(&e.ID, &e.CreatedAt, &updatedAt, &e.Item, &e.Location, &e.Inventory, &e.Date, &e.Notes)
	if err != nil {
		return types.Entry{}, err
	}
	if updatedAt.Valid {
		v := updatedAt.String
		e.UpdatedAt = &v
	}
	return e, nil
}

func entryArgs(e types.Entry) []any {
	var updatedAt sql.NullString
	if e.UpdatedAt != nil {
		updatedAt = sql.NullString{String: *e.UpdatedAt, Valid: true}
	}
	return []any{e.ID, e.CreatedAt, updatedAt, e.Item, e.Location, e.Inventory, e.Date, e.Notes}
}
