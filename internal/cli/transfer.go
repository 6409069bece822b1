package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/stowlog/internal/transfer"
	"github.com/mesh-intelligence/stowlog/pkg/types"
)

func newExportCmd(a *app) *cobra.Command {
	var out, format string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export all entries",
		Long: "Export all entries as a JSON snapshot, or as JSON Lines with\n" +
			"--format jsonl. Without --out the export goes to stdout.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !transfer.ValidFormat(format) {
				return fmt.Errorf("%w: unknown format %q (want %s or %s)",
					types.ErrValidation, format, transfer.FormatJSON, transfer.FormatJSONL)
			}
			return a.withServices(func(svc *services) error {
				if out == "" {
					_, err := svc.transfer.ExportTo(cmd.Context(), cmd.OutOrStdout(), format)
					return err
				}
				snap, err := svc.transfer.ExportFile(cmd.Context(), out, format)
				if err != nil {
					if isStorage(err) {
						return err
					}
					return sysError(fmt.Errorf("export to %s: %w", out, err))
				}
				if a.flags.jsonMode {
					return printJSON(cmd.OutOrStdout(), map[string]any{
						"path":        out,
						"format":      format,
						"entries":     len(snap.Entries),
						"exported_at": snap.ExportedAt,
					})
				}
				fmt.Fprintf(cmd.OutOrStdout(), "exported %d entries to %s\n", len(snap.Entries), out)
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "output file (default: stdout)")
	cmd.Flags().StringVar(&format, "format", transfer.FormatJSON, "export format: json or jsonl")
	return cmd
}

func newImportCmd(a *app) *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Import entries from a JSON snapshot or JSON Lines file",
		Long: "Import the entries of a JSON snapshot or a JSON Lines file. Entries\n" +
			"whose id already exists replace the stored entry; other entries are\n" +
			"added. The format follows the file extension unless --format is given.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if format != "" && !transfer.ValidFormat(format) {
				return fmt.Errorf("%w: unknown format %q (want %s or %s)",
					types.ErrValidation, format, transfer.FormatJSON, transfer.FormatJSONL)
			}
			var n int
			err := a.withServices(func(svc *services) error {
				var err error
				n, err = svc.transfer.ImportFile(cmd.Context(), args[0], format)
				return err
			})
			if err != nil {
				return err
			}
			if a.flags.jsonMode {
				return printJSON(cmd.OutOrStdout(), map[string]any{"imported": n})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "imported %d entries\n", n)
			return nil
		},
	}
	cmd.Flags().StringVar(&format, "format", "", "import format: json or jsonl (default: from extension)")
	return cmd
}
