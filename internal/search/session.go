package search

import (
	"context"
	"fmt"
	"sync"

	"github.com/mesh-intelligence/stowlog/pkg/types"
)

// Snapshotter is the read side of the repository a Session needs.
type Snapshotter interface {
	GetAll(ctx context.Context) ([]types.Entry, error)
}

// Session holds the last snapshot loaded for one caller. Sessions are
// independent: refreshing or querying one never affects another.
type Session struct {
	src Snapshotter

	mu       sync.RWMutex
	snapshot []types.Entry
}

// NewSession returns an empty session reading from src.
func NewSession(src Snapshotter) *Session {
	return &Session{src: src}
}

// Refresh reloads the snapshot from storage, newest first.
func (s *Session) Refresh(ctx context.Context) error {
	all, err := s.src.GetAll(ctx)
	if err != nil {
		return fmt.Errorf("refresh search snapshot: %w", err)
	}
	types.SortNewestFirst(all)

	s.mu.Lock()
	s.snapshot = all
	s.mu.Unlock()
	return nil
}

// Query filters the held snapshot. The result is a fresh slice the caller
// may modify.
func (s *Session) Query(query string) []types.Entry {
	s.mu.RLock()
	snap := s.snapshot
	s.mu.RUnlock()

	return append([]types.Entry(nil), Filter(snap, query)...)
}

// Snapshot returns a copy of the held snapshot.
func (s *Session) Snapshot() []types.Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]types.Entry(nil), s.snapshot...)
}
