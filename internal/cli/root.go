// Package cli defines the cobra command tree for the dsp CLI.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/scbrown/dispatch/internal/config"
	"github.com/scbrown/dispatch/internal/ctxlog"
	"github.com/scbrown/dispatch/internal/store"
)

var (
	dbPath     string
	jsonOutput bool
	verbose    bool
)

// rawArgs is the command line given to the root command, before cobra
// strips the subcommand name from it.
var rawArgs []string

// configPath is the path to the config file, settable with --config and in tests.
var configPath = config.Path()

// rootCmd is the top-level dsp command.
var rootCmd = &cobra.Command{
	Use:   "dsp",
	Short: "Dispatch - inspect argument parsing and command dispatch history",
	Long: `dsp is the companion tool for programs built on the dispatch library.

It shows how a command line is parsed into positional arguments and typed
flags, and reads the history those programs record: which commands ran,
which names failed to resolve, and how often. Misspelled or guessed command
names can be mapped to real commands with aliases, which the fallback
handler follows on the next run.

History is stored in a SQLite database at ~/.dsp/history.db (configurable via
--db or dsp config db_path). All output commands support --json.`,
	Example: `  # See how a command line is parsed
  dsp parse deploy prod --force --replicas=3

  # Review recent runs and failed lookups
  dsp history --since 24h
  dsp misses --since 7d
  dsp paths --top 10

  # Map a common miss onto a real command
  dsp suggest deplyo
  dsp alias ship deploy`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logger := ctxlog.New(cmd.ErrOrStderr(), verbose)
		cmd.SetContext(ctxlog.WithLogger(cmd.Context(), logger))

		cfg, err := config.LoadFrom(configPath)
		if err != nil {
			logger.Warn("ignoring config", "path", configPath, "error", err)
			return
		}
		if cfg.DBPath != "" && !cmd.Flags().Changed("db") {
			dbPath = cfg.DBPath
		}
		if cfg.DefaultFormat == "json" && !cmd.Flags().Changed("json") {
			jsonOutput = true
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", config.DefaultDBPath(), "path to SQLite database")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "output in JSON format")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", config.Path(), "path to config file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging on stderr")
}

// openStore opens the SQLite history database at dbPath.
func openStore(ctx context.Context) (store.Store, error) {
	ctxlog.FromContext(ctx).Debug("opening store", "path", dbPath)
	s, err := store.New(dbPath)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	return s, nil
}

// writeJSON writes v as indented JSON.
func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// Execute runs the root command over the process arguments.
func Execute() error {
	return execute(os.Args[1:])
}

func execute(args []string) error {
	rawArgs = args
	rootCmd.SetArgs(args)
	return rootCmd.ExecuteContext(context.Background())
}
