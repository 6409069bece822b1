// Package cli implements the stowlog command-line interface.
package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/mesh-intelligence/stowlog/internal/config"
	"github.com/mesh-intelligence/stowlog/internal/logging"
	"github.com/mesh-intelligence/stowlog/internal/paths"
	"github.com/mesh-intelligence/stowlog/pkg/types"
)

// rootFlags holds global flag values accessible to all subcommands.
type rootFlags struct {
	configDir string
	dataDir   string
	jsonMode  bool
	logLevel  string
}

// app is the state shared by the commands of one invocation.
type app struct {
	flags     rootFlags
	configDir string
	dataDir   string
	settings  config.Settings
	log       logging.Logger
}

// NewRootCmd creates the top-level "stowlog" command with global flags
// and all subcommands registered.
func NewRootCmd() *cobra.Command {
	a := &app{log: logging.NewNop()}

	root := &cobra.Command{
		Use:   "stowlog",
		Short: "Remember where things are kept",
		Long: "stowlog keeps a local log of items and where they are stored.\n" +
			"Entries live in a SQLite database in the data directory.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Name() == "version" {
				return nil
			}
			return a.setup()
		},
	}

	root.PersistentFlags().StringVar(&a.flags.configDir, "config-dir", "", "configuration directory (env "+paths.EnvConfigDir+")")
	root.PersistentFlags().StringVar(&a.flags.dataDir, "data-dir", "", "data directory (env "+paths.EnvDataDir+")")
	root.PersistentFlags().BoolVar(&a.flags.jsonMode, "json", false, "output in JSON format")
	root.PersistentFlags().StringVar(&a.flags.logLevel, "log-level", "", "log level: debug, info, warn, error")

	root.AddCommand(
		newVersionCmd(),
		newInitCmd(a),
		newAddCmd(a),
		newEditCmd(a),
		newRmCmd(a),
		newShowCmd(a),
		newListCmd(a),
		newExportCmd(a),
		newImportCmd(a),
		newStatsCmd(a),
	)
	return root
}

// Execute runs the root command with the process arguments and exits with
// the code matching the outcome.
func Execute() {
	os.Exit(Run(os.Args[1:], os.Stdout, os.Stderr))
}

// Run executes the command line args and returns the process exit code.
func Run(args []string, stdout, stderr io.Writer) int {
	root := NewRootCmd()
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)
	if err := root.Execute(); err != nil {
		fmt.Fprintf(stderr, "Error: %s\n", err)
		return exitCode(err)
	}
	return exitSuccess
}

// setup resolves directories, loads config.yaml and builds the logger.
func (a *app) setup() error {
	configDir, err := paths.ResolveConfigDir(a.flags.configDir)
	if err != nil {
		return sysError(fmt.Errorf("resolve config dir: %w", err))
	}
	settings, err := config.Load(configDir)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if a.flags.logLevel != "" {
		if !logging.ValidLevel(a.flags.logLevel) {
			return fmt.Errorf("%w: %q", config.ErrInvalidLogLevel, a.flags.logLevel)
		}
		settings.LogLevel = a.flags.logLevel
	}
	dataDir, err := paths.ResolveDataDir(a.flags.dataDir, settings.DataDir)
	if err != nil {
		return sysError(fmt.Errorf("resolve data dir: %w", err))
	}

	// Console encoding only when a person is reading stderr.
	pretty := settings.PrettyLog && term.IsTerminal(int(os.Stderr.Fd()))
	log, err := logging.New(settings.LogLevel, pretty)
	if err != nil {
		return sysError(fmt.Errorf("create logger: %w", err))
	}

	a.configDir = configDir
	a.dataDir = dataDir
	a.settings = settings
	a.log = log.Named("cli")
	a.log.Debug("configuration loaded",
		logging.String("config_dir", configDir),
		logging.String("data_dir", dataDir),
		logging.Bool("json", a.flags.jsonMode),
	)
	return nil
}

// storeConfig returns the storage configuration for this invocation.
func (a *app) storeConfig() types.Config {
	return a.settings.Store(a.dataDir)
}
