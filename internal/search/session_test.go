package search

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/stowlog/pkg/types"
)

type staticSource struct {
	entries []types.Entry
	err     error
}

func (s *staticSource) GetAll(context.Context) ([]types.Entry, error) {
	if s.err != nil {
		return nil, s.err
	}
	return append([]types.Entry(nil), s.entries...), nil
}

func TestSession_RefreshSortsNewestFirst(t *testing.T) {
	src := &staticSource{entries: []types.Entry{
		{ID: "a", CreatedAt: "2024-01-01T00:00:00.000Z", Item: "tent"},
		{ID: "c", CreatedAt: "2024-03-01T00:00:00.000Z", Item: "tent pegs"},
		{ID: "b", CreatedAt: "2024-02-01T00:00:00.000Z", Item: "stove"},
	}}
	s := NewSession(src)

	assert.Empty(t, s.Query("tent"), "no snapshot before refresh")

	require.NoError(t, s.Refresh(context.Background()))
	assert.Equal(t, []string{"c", "b", "a"}, ids(s.Snapshot()))
	assert.Equal(t, []string{"c", "a"}, ids(s.Query("TENT")))
}

func TestSession_QueryAfterRefreshSeesNewEntries(t *testing.T) {
	src := &staticSource{entries: []types.Entry{
		{ID: "a", CreatedAt: "2024-01-01T00:00:00.000Z", Item: "Drill"},
	}}
	s := NewSession(src)
	require.NoError(t, s.Refresh(context.Background()))
	assert.Equal(t, []string{"a"}, ids(s.Query("drill")))

	src.entries = append(src.entries, types.Entry{ID: "b", CreatedAt: "2024-02-01T00:00:00.000Z", Item: "drill bits"})
	assert.Equal(t, []string{"a"}, ids(s.Query("drill")), "held snapshot is unchanged until Refresh")
	require.NoError(t, s.Refresh(context.Background()))
	assert.Equal(t, []string{"b", "a"}, ids(s.Query("drill")))
}

func TestSession_IndependentSessions(t *testing.T) {
	src := &staticSource{entries: []types.Entry{
		{ID: "a", CreatedAt: "2024-01-01T00:00:00.000Z", Item: "Drill"},
		{ID: "b", CreatedAt: "2024-02-01T00:00:00.000Z", Item: "Saw"},
	}}
	s1 := NewSession(src)
	s2 := NewSession(src)
	require.NoError(t, s1.Refresh(context.Background()))

	assert.Equal(t, []string{"a"}, ids(s1.Query("drill")))
	assert.Empty(t, s2.Snapshot(), "refreshing one session does not fill another")

	require.NoError(t, s2.Refresh(context.Background()))
	assert.Equal(t, []string{"b"}, ids(s2.Query("saw")))
	assert.Equal(t, []string{"a"}, ids(s1.Query("drill")))
}

func TestSession_ResultsAreCopies(t *testing.T) {
	src := &staticSource{entries: []types.Entry{{ID: "a", Item: "Drill"}}}
	s := NewSession(src)
	require.NoError(t, s.Refresh(context.Background()))

	got := s.Query("")
	got[0].Item = "changed"
	assert.Equal(t, "Drill", s.Snapshot()[0].Item)
}

func TestSession_RefreshError(t *testing.T) {
	boom := errors.New("boom")
	s := NewSession(&staticSource{err: boom})

	err := s.Refresh(context.Background())
	assert.ErrorIs(t, err, boom)
	assert.Empty(t, s.Snapshot())
}
