package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/mesh-intelligence/stowlog/pkg/types"
)

// printJSON writes v as indented JSON.
func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// printEntry writes every field of e, one per line.
func printEntry(w io.Writer, e types.Entry) error {
	updated := "-"
	if e.UpdatedAt != nil {
		updated = *e.UpdatedAt
	}
	tw := tabwriter.NewWriter(w, 0, 0, 1, ' ', 0)
	fmt.Fprintf(tw, "id:\t%s\n", e.ID)
	fmt.Fprintf(tw, "item:\t%s\n", e.Item)
	fmt.Fprintf(tw, "location:\t%s\n", e.Location)
	fmt.Fprintf(tw, "inventory:\t%s\n", e.Inventory)
	fmt.Fprintf(tw, "date:\t%s\n", e.Date)
	fmt.Fprintf(tw, "notes:\t%s\n", e.Notes)
	fmt.Fprintf(tw, "created_at:\t%s\n", e.CreatedAt)
	fmt.Fprintf(tw, "updated_at:\t%s\n", updated)
	return tw.Flush()
}

// printEntryTable writes one row per entry.
func printEntryTable(w io.Writer, es []types.Entry) error {
	if len(es) == 0 {
		_, err := fmt.Fprintln(w, "no entries")
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tITEM\tLOCATION\tINVENTORY\tCREATED")
	for _, e := range es {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", e.ID, e.Item, e.Location, e.Inventory, e.CreatedAt)
	}
	return tw.Flush()
}
