package types

import "context"

// Repository provides typed CRUD over the entries collection. Every method
// runs in exactly one unit of work and fails with ErrStorage if it aborts.
type Repository interface {
	// Add inserts a new entry. Returns ErrDuplicateKey if the id exists.
	Add(ctx context.Context, e Entry) error

	// Put inserts e or fully replaces the entry stored under e.ID.
	Put(ctx context.Context, e Entry) error

	// PutAll upserts every entry in order inside a single unit of work.
	// Later entries with a repeated id overwrite earlier ones.
	PutAll(ctx context.Context, es []Entry) error

	// Get returns the entry and true, or a zero Entry and false if absent.
	// Absence is never an error.
	Get(ctx context.Context, id string) (Entry, bool, error)

	// GetAll returns every stored entry in no particular order.
	GetAll(ctx context.Context) ([]Entry, error)

	// Delete removes the entry. Deleting a missing id succeeds.
	Delete(ctx context.Context, id string) error

	// Count returns the number of stored entries.
	Count(ctx context.Context) (int, error)
}
