package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/mesh-intelligence/stowlog/pkg/types"
)

// DBTX is the subset of database/sql a unit of work may use.
// *sql.Tx satisfies it.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Mode selects whether a unit of work may persist changes.
type Mode int

const (
	// ReadOnly units of work are always rolled back.
	ReadOnly Mode = iota
	// ReadWrite units of work commit when fn succeeds.
	ReadWrite
)

func (m Mode) String() string {
	switch m {
	case ReadOnly:
		return "read-only"
	case ReadWrite:
		return "read-write"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// Wrap marks err as a storage failure of the named operation.
func Wrap(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", types.ErrStorage, op, err)
}
