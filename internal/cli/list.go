package cli

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/stowlog/internal/logging"
	"github.com/mesh-intelligence/stowlog/internal/search"
	"github.com/mesh-intelligence/stowlog/pkg/types"
)

func newListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "list [query]",
		Aliases: []string{"ls", "search"},
		Short:   "List entries, newest first",
		Long: "List entries newest first. With a query, only entries whose item,\n" +
			"location or notes contain it (case-insensitive) are shown.",
		RunE: func(cmd *cobra.Command, args []string) error {
			query := strings.Join(args, " ")
			var found []types.Entry
			err := a.withServices(func(svc *services) error {
				session := search.NewSession(svc.repo)
				if err := session.Refresh(cmd.Context()); err != nil {
					return err
				}
				found = session.Query(query)
				return nil
			})
			if err != nil {
				return err
			}
			a.log.Debug("list", logging.String("query", query), logging.Int("matches", len(found)))

			if a.flags.jsonMode {
				if found == nil {
					found = []types.Entry{}
				}
				return printJSON(cmd.OutOrStdout(), found)
			}
			return printEntryTable(cmd.OutOrStdout(), found)
		},
	}
}
