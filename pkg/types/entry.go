package types

import (
	"cmp"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
)

// TimestampLayout is the fixed-width ISO-8601 UTC layout used for created_at
// and updated_at. Fixed width keeps string order equal to time order.
const TimestampLayout = "2006-01-02T15:04:05.000Z"

// Entry is a single logged item and where it is kept.
type Entry struct {
	ID        string  `json:"id"`         // UUID v7, assigned on creation.
	CreatedAt string  `json:"created_at"` // Set once, never changes.
	UpdatedAt *string `json:"updated_at"` // nil until the first edit.
	Item      string  `json:"item"`       // Required, non-empty after trim.
	Location  string  `json:"location"`
	Inventory string  `json:"inventory"` // Free-form quantity.
	Date      string  `json:"date"`      // Free-form label, not parsed.
	Notes     string  `json:"notes"`
}

// Fields carries the user-editable text of a new entry.
type Fields struct {
	Item      string
	Location  string
	Inventory string
	Date      string
	Notes     string
}

// Trimmed returns a copy with surrounding whitespace removed from every field.
func (f Fields) Trimmed() Fields {
	return Fields{
		Item:      strings.TrimSpace(f.Item),
		Location:  strings.TrimSpace(f.Location),
		Inventory: strings.TrimSpace(f.Inventory),
		Date:      strings.TrimSpace(f.Date),
		Notes:     strings.TrimSpace(f.Notes),
	}
}

// Patch carries a partial edit. Nil fields keep the stored value.
type Patch struct {
	Item      *string
	Location  *string
	Inventory *string
	Date      *string
	Notes     *string
}

// Apply merges the non-nil, trimmed patch fields over e and returns the result.
// ID and timestamps are left untouched.
func (p Patch) Apply(e Entry) Entry {
	set := func(dst *string, src *string) {
		if src != nil {
			*dst = strings.TrimSpace(*src)
		}
	}
	set(&e.Item, p.Item)
	set(&e.Location, p.Location)
	set(&e.Inventory, p.Inventory)
	set(&e.Date, p.Date)
	set(&e.Notes, p.Notes)
	return e
}

// Empty reports whether the patch changes nothing.
func (p Patch) Empty() bool {
	return p.Item == nil && p.Location == nil && p.Inventory == nil && p.Date == nil && p.Notes == nil
}

// FormatTimestamp renders t in UTC using TimestampLayout.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}

// NewID generates a UUID v7 string, falling back to v4 if v7 generation fails.
func NewID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.New().String()
	}
	return id.String()
}

// SortNewestFirst sorts entries in place by created_at, descending.
// Entries with equal created_at keep their relative order.
func SortNewestFirst(entries []Entry) {
	slices.SortStableFunc(entries, func(a, b Entry) int {
		return cmp.Compare(b.CreatedAt, a.CreatedAt)
	})
}
