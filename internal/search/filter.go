// Package search filters entry snapshots by free text.
//
// Matching is a case-insensitive substring test against item, location and
// notes. Inventory and date are never searched.
package search

import (
	"strings"

	"github.com/mesh-intelligence/stowlog/pkg/types"
)

// Filter returns the entries whose searchable text contains query, keeping
// input order. An empty query returns entries unchanged. The query is not
// trimmed: whitespace is matched like any other character.
func Filter(entries []types.Entry, query string) []types.Entry {
	if query == "" {
		return entries
	}

	matched := make([]types.Entry, 0, len(entries))
	for _, e := range entries {
		if Matches(e, query) {
			matched = append(matched, e)
		}
	}
	return matched
}

// Matches reports whether e would be kept by Filter for query.
func Matches(e types.Entry, query string) bool {
	return query == "" || strings.Contains(haystack(e), strings.ToLower(query))
}

func haystack(e types.Entry) string {
	return strings.ToLower(e.Item + " " + e.Location + " " + e.Notes)
}
