package types

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func TestFieldsTrimmed(t *testing.T) {
	got := Fields{
		Item:      "  Drill ",
		Location:  "\tGarage\n",
		Inventory: " 3 ",
		Date:      " spring ",
		Notes:     " needs battery ",
	}.Trimmed()

	assert.Equal(t, Fields{
		Item:      "Drill",
		Location:  "Garage",
		Inventory: "3",
		Date:      "spring",
		Notes:     "needs battery",
	}, got)
}

func TestPatchApply(t *testing.T) {
	created := "2024-01-01T00:00:00.000Z"
	base := Entry{
		ID:        "id-1",
		CreatedAt: created,
		Item:      "Drill",
		Location:  "Garage",
		Inventory: "1",
		Notes:     "old",
	}

	tests := []struct {
		name  string
		patch Patch
		want  Entry
	}{
		{
			name:  "empty patch keeps entry",
			patch: Patch{},
			want:  base,
		},
		{
			name:  "sets and trims provided fields",
			patch: Patch{Location: strPtr(" Shed "), Notes: strPtr("")},
			want: Entry{
				ID:        "id-1",
				CreatedAt: created,
				Item:      "Drill",
				Location:  "Shed",
				Inventory: "1",
				Notes:     "",
			},
		},
		{
			name:  "blank item is carried through for the caller to validate",
			patch: Patch{Item: strPtr("   ")},
			want: Entry{
				ID:        "id-1",
				CreatedAt: created,
				Item:      "",
				Location:  "Garage",
				Inventory: "1",
				Notes:     "old",
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.patch.Apply(base))
		})
	}
}

func TestPatchEmpty(t *testing.T) {
	assert.True(t, Patch{}.Empty())
	assert.False(t, Patch{Date: strPtr("x")}.Empty())
}

func TestFormatTimestamp(t *testing.T) {
	loc := time.FixedZone("UTC+2", 2*60*60)
	ts := time.Date(2024, 3, 5, 10, 4, 5, 7_000_000, loc)

	assert.Equal(t, "2024-03-05T08:04:05.007Z", FormatTimestamp(ts))
}

func TestFormatTimestamp_LexicalOrderMatchesTime(t *testing.T) {
	base := time.Date(2024, 12, 31, 23, 59, 59, 0, time.UTC)
	times := []time.Time{
		base,
		base.Add(time.Millisecond),
		base.Add(999 * time.Millisecond),
		base.Add(time.Second),
		base.Add(24 * time.Hour),
	}
	for i := 1; i < len(times); i++ {
		assert.Less(t, FormatTimestamp(times[i-1]), FormatTimestamp(times[i]))
	}
}

func TestNewID(t *testing.T) {
	a := NewID()
	b := NewID()

	require.NotEqual(t, a, b)
	parsed, err := uuid.Parse(a)
	require.NoError(t, err)
	assert.Equal(t, uuid.Version(7), parsed.Version())
}

func TestSortNewestFirst(t *testing.T) {
	entries := []Entry{
		{ID: "b", CreatedAt: "2024-01-02T00:00:00.000Z"},
		{ID: "a", CreatedAt: "2024-01-01T00:00:00.000Z"},
		{ID: "c", CreatedAt: "2024-01-03T00:00:00.000Z"},
		{ID: "c2", CreatedAt: "2024-01-03T00:00:00.000Z"},
	}

	SortNewestFirst(entries)

	ids := make([]string, len(entries))
	for i, e := range entries {
		ids[i] = e.ID
	}
	assert.Equal(t, []string{"c", "c2", "b", "a"}, ids)
}
