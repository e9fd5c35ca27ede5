package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/scbrown/dispatch/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config [key] [value]",
	Short: "Show or modify configuration",
	Long: `View or change dsp configuration stored in ~/.dsp/config.toml.

With no arguments, shows all configuration settings.
With one argument, shows the value of that key.
With two arguments, sets the key to the given value.

Settings:
  db_path         Path to the SQLite history database
  default_format  Default output format: "table" or "json"
  history         Record dispatch history: "on" (default) or "off"
  flag_aliases    Flag alias table, as short=long pairs
  default_flags   Flags applied when absent, as key=value pairs`,
	Example: `  dsp config
  dsp config db_path
  dsp config db_path /custom/path/history.db
  dsp config default_format json
  dsp config flag_aliases v=verbose,n=dry-run
  dsp config default_flags retries=3,color=auto`,
	Args: cobra.MaximumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadFrom(configPath)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}

		w := cmd.OutOrStdout()
		switch len(args) {
		case 0:
			return showConfig(w, cfg)
		case 1:
			return getConfig(w, cfg, args[0])
		default:
			return setConfig(w, cfg, args[0], args[1])
		}
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
}

func showConfig(w io.Writer, cfg *config.Config) error {
	if jsonOutput {
		return writeJSON(w, cfg)
	}

	tbl := NewTable(w, "KEY", "VALUE")
	for _, key := range config.ValidKeys() {
		val, err := cfg.Get(key)
		if err != nil {
			return err
		}
		if val == "" {
			val = "(not set)"
		}
		tbl.Row(key, val)
	}
	return tbl.Flush()
}

func getConfig(w io.Writer, cfg *config.Config, key string) error {
	val, err := cfg.Get(key)
	if err != nil {
		return err
	}
	if val == "" {
		return nil
	}
	fmt.Fprintln(w, val)
	return nil
}

func setConfig(w io.Writer, cfg *config.Config, key, value string) error {
	if err := cfg.Set(key, value); err != nil {
		return err
	}
	if err := cfg.SaveTo(configPath); err != nil {
		return err
	}
	fmt.Fprintf(w, "%s = %s\n", key, value)
	return nil
}
