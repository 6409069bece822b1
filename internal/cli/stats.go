package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/stowlog/internal/search"
	"github.com/mesh-intelligence/stowlog/pkg/types"
)

// collectionStats summarizes the stored entries.
type collectionStats struct {
	Total  int    `json:"total"`
	Newest string `json:"newest_created_at,omitempty"`
	Oldest string `json:"oldest_created_at,omitempty"`
}

func newStatsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Summarize stored entries",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var st collectionStats
			err := a.withServices(func(svc *services) error {
				total, err := svc.repo.Count(cmd.Context())
				if err != nil {
					return err
				}
				session := search.NewSession(svc.repo)
				if err := session.Refresh(cmd.Context()); err != nil {
					return err
				}
				st = summarize(total, session.Snapshot())
				return nil
			})
			if err != nil {
				return err
			}
			if a.flags.jsonMode {
				return printJSON(cmd.OutOrStdout(), st)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "entries: %d\n", st.Total)
			if st.Newest != "" {
				fmt.Fprintf(cmd.OutOrStdout(), "newest:  %s\noldest:  %s\n", st.Newest, st.Oldest)
			}
			return nil
		},
	}
}

// summarize reports total and the created_at range of newestFirst.
func summarize(total int, newestFirst []types.Entry) collectionStats {
	st := collectionStats{Total: total}
	if len(newestFirst) == 0 {
		return st
	}
	st.Newest = newestFirst[0].CreatedAt
	st.Oldest = newestFirst[len(newestFirst)-1].CreatedAt
	return st
}
