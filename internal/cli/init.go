package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/stowlog/internal/config"
	"github.com/mesh-intelligence/stowlog/internal/store"
)

func newInitCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Initialize configuration and storage",
		Long: "Create the configuration and data directories, record --data-dir in\n" +
			"config.yaml when given, and create or migrate the database.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInit(cmd, a)
		},
	}
}

func runInit(cmd *cobra.Command, a *app) error {
	if a.flags.dataDir != "" && a.settings.DataDir != a.dataDir {
		s := a.settings
		s.DataDir = a.dataDir
		if err := config.Write(a.configDir, s); err != nil {
			return sysError(fmt.Errorf("write config: %w", err))
		}
		a.settings = s
	}

	err := a.withServices(func(svc *services) error {
		_, err := svc.engine.WithConnection(cmd.Context())
		return err
	})
	if err != nil {
		return err
	}

	if a.flags.jsonMode {
		return printJSON(cmd.OutOrStdout(), map[string]any{
			"config_dir":     a.configDir,
			"data_dir":       a.dataDir,
			"database":       a.storeConfig().DBPath(),
			"schema_version": store.SchemaVersion,
		})
	}
	fmt.Fprintf(cmd.OutOrStdout(), "stowlog initialized\nconfig: %s\ndatabase: %s\n", a.configDir, a.storeConfig().DBPath())
	return nil
}
