// Package transfer exports the whole entry collection as a portable snapshot
// and imports snapshots back by upsert, normalizing malformed records instead
// of rejecting them.
package transfer

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/mesh-intelligence/stowlog/internal/logging"
	"github.com/mesh-intelligence/stowlog/pkg/types"
)

// Snapshot is the export document.
type Snapshot struct {
	ExportedAt string        `json:"exported_at"`
	Entries    []types.Entry `json:"entries"`
}

// Serializer converts between the repository and snapshots.
type Serializer struct {
	repo  types.Repository
	log   logging.Logger
	now   func() time.Time
	newID func() string
}

// Option configures a Serializer.
type Option func(*Serializer)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Serializer) { s.now = now }
}

// WithIDGenerator overrides id generation for records imported without an id.
func WithIDGenerator(gen func() string) Option {
	return func(s *Serializer) { s.newID = gen }
}

// WithLogger sets the logger.
func WithLogger(l logging.Logger) Option {
	return func(s *Serializer) { s.log = l }
}

// NewSerializer returns a Serializer over repo.
func NewSerializer(repo types.Repository, opts ...Option) *Serializer {
	s := &Serializer{
		repo:  repo,
		log:   logging.NewNop(),
		now:   time.Now,
		newID: types.NewID,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.log = s.log.Named("transfer")
	return s
}

// Export returns every entry, newest first, stamped with the export time.
func (s *Serializer) Export(ctx context.Context) (Snapshot, error) {
	all, err := s.repo.GetAll(ctx)
	if err != nil {
		return Snapshot{}, fmt.Errorf("export: %w", err)
	}
	types.SortNewestFirst(all)
	return Snapshot{
		ExportedAt: types.FormatTimestamp(s.now()),
		Entries:    all,
	}, nil
}

// Import parses payload and upserts every record of its entries array in a
// single unit of work. Elements that are not JSON objects are skipped; every
// other element is normalized and counted. Item is not validated here.
//
// Returns types.ErrParse if payload is not JSON and types.ErrSchema if it has
// no top-level entries array.
func (s *Serializer) Import(ctx context.Context, payload []byte) (int, error) {
	var doc any
	if err := json.Unmarshal(payload, &doc); err != nil {
		return 0, fmt.Errorf("%w: %w", types.ErrParse, err)
	}
	obj, ok := doc.(map[string]any)
	if !ok {
		return 0, fmt.Errorf("%w: top level is not an object", types.ErrSchema)
	}
	raw, ok := obj["entries"].([]any)
	if !ok {
		return 0, types.ErrSchema
	}

	now := s.now()
	batch := make([]types.Entry, 0, len(raw))
	skipped := 0
	for _, el := range raw {
		rec, ok := el.(map[string]any)
		if !ok {
			skipped++
			continue
		}
		batch = append(batch, Normalize(rec, now, s.newID))
	}

	if err := s.repo.PutAll(ctx, batch); err != nil {
		return 0, fmt.Errorf("import: %w", err)
	}
	s.log.Info("import finished", logging.Int("imported", len(batch)), logging.Int("skipped", skipped))
	return len(batch), nil
}

// Normalize converts an untyped record into an Entry. A missing, empty or
// non-string id gets newID(); a missing created_at gets now; updated_at is
// kept only when it is a non-empty string; text fields that are absent or not
// strings become "".
func Normalize(rec map[string]any, now time.Time, newID func() string) types.Entry {
	e := types.Entry{
		ID:        text(rec, "id"),
		CreatedAt: text(rec, "created_at"),
		Item:      text(rec, "item"),
		Location:  text(rec, "location"),
		Inventory: text(rec, "inventory"),
		Date:      text(rec, "date"),
		Notes:     text(rec, "notes"),
	}
	if e.ID == "" {
		e.ID = newID()
	}
	if e.CreatedAt == "" {
		e.CreatedAt = types.FormatTimestamp(now)
	}
	if u := text(rec, "updated_at"); u != "" {
		e.UpdatedAt = &u
	}
	return e
}

func text(rec map[string]any, key string) string {
	s, _ := rec[key].(string)
	return s
}
