// Package lifecycle enforces the entry rules: item is required, ids are
// assigned once, created_at never changes, and every edit refreshes
// updated_at.
package lifecycle

import (
	"context"
	"fmt"
	"time"

	"github.com/mesh-intelligence/stowlog/internal/logging"
	"github.com/mesh-intelligence/stowlog/pkg/types"
)

// Manager creates, edits and removes entries through a Repository.
type Manager struct {
	repo  types.Repository
	log   logging.Logger
	now   func() time.Time
	newID func() string
}

// Option configures a Manager.
type Option func(*Manager)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

// WithIDGenerator overrides id generation.
func WithIDGenerator(gen func() string) Option {
	return func(m *Manager) { m.newID = gen }
}

// WithLogger sets the logger.
func WithLogger(l logging.Logger) Option {
	return func(m *Manager) { m.log = l }
}

// NewManager returns a Manager backed by repo.
func NewManager(repo types.Repository, opts ...Option) *Manager {
	m := &Manager{
		repo:  repo,
		log:   logging.NewNop(),
		now:   time.Now,
		newID: types.NewID,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.log = m.log.Named("lifecycle")
	return m
}

// Create validates f and stores a new entry. Returns types.ErrItemRequired
// without touching storage when the trimmed item is empty.
func (m *Manager) Create(ctx context.Context, f types.Fields) (types.Entry, error) {
	f = f.Trimmed()
	if f.Item == "" {
		return types.Entry{}, types.ErrItemRequired
	}

	e := types.Entry{
		ID:        m.newID(),
		CreatedAt: types.FormatTimestamp(m.now()),
		Item:      f.Item,
		Location:  f.Location,
		Inventory: f.Inventory,
		Date:      f.Date,
		Notes:     f.Notes,
	}
	if err := m.repo.Add(ctx, e); err != nil {
		return types.Entry{}, fmt.Errorf("create entry: %w", err)
	}
	m.log.Debug("entry created", logging.String("id", e.ID))
	return e, nil
}

// Update merges p over the stored entry id and saves it with a fresh
// updated_at. Returns types.ErrNotFound if id is unknown and
// types.ErrItemRequired if the merged item is blank.
func (m *Manager) Update(ctx context.Context, id string, p types.Patch) (types.Entry, error) {
	existing, ok, err := m.repo.Get(ctx, id)
	if err != nil {
		return types.Entry{}, fmt.Errorf("load entry %s: %w", id, err)
	}
	if !ok {
		return types.Entry{}, fmt.Errorf("%w: %s", types.ErrNotFound, id)
	}

	updated := p.Apply(existing)
	if updated.Item == "" {
		return types.Entry{}, types.ErrItemRequired
	}

	stamp := m.stampAfter(existing)
	updated.UpdatedAt = &stamp
	if err := m.repo.Put(ctx, updated); err != nil {
		return types.Entry{}, fmt.Errorf("update entry %s: %w", id, err)
	}
	m.log.Debug("entry updated", logging.String("id", id))
	return updated, nil
}

// Remove deletes the entry. Removing an unknown id succeeds.
func (m *Manager) Remove(ctx context.Context, id string) error {
	if err := m.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("remove entry %s: %w", id, err)
	}
	m.log.Debug("entry removed", logging.String("id", id))
	return nil
}

// Get returns the entry or types.ErrNotFound.
func (m *Manager) Get(ctx context.Context, id string) (types.Entry, error) {
	e, ok, err := m.repo.Get(ctx, id)
	if err != nil {
		return types.Entry{}, fmt.Errorf("load entry %s: %w", id, err)
	}
	if !ok {
		return types.Entry{}, fmt.Errorf("%w: %s", types.ErrNotFound, id)
	}
	return e, nil
}

// maxClockSkew bounds how far a stored timestamp may be ahead of the clock
// and still hold back a new updated_at.
const maxClockSkew = 5 * time.Minute

// stampAfter returns the current timestamp, raised to the entry's created_at
// or previous updated_at when the clock is slightly behind them. Stored values
// that are not timestamps, or that lie more than maxClockSkew in the future,
// are ignored.
func (m *Manager) stampAfter(e types.Entry) string {
	now := m.now().UTC()
	stamp := now
	raise := func(v string) {
		t, err := time.Parse(types.TimestampLayout, v)
		if err != nil || t.Sub(now) > maxClockSkew {
			return
		}
		if t.After(stamp) {
			stamp = t
		}
	}
	raise(e.CreatedAt)
	if e.UpdatedAt != nil {
		raise(*e.UpdatedAt)
	}
	return types.FormatTimestamp(stamp)
}
