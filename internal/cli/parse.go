package cli

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/scbrown/dispatch/internal/argv"
	"github.com/scbrown/dispatch/internal/config"
)

var parseCmd = &cobra.Command{
	Use:   "parse [tokens...]",
	Short: "Show how a command line is parsed",
	Long: `Parse runs the argument parser over the given tokens exactly as a dispatch
program would see them after its own name, applying the flag_aliases and
default_flags from the config file. It prints the positional arguments and
each flag with its coerced type.

All tokens after "parse" are treated as input. dsp's own flags, such as
--json and --config, apply only when given before "parse".`,
	Example: `  dsp parse deploy prod --force --replicas=3
  dsp parse build -v --tag=a --tag=b
  dsp --json parse deploy --replicas=3`,
	DisableFlagParsing: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		lead := rootFlagsBefore(cmd.Root().PersistentFlags(), rawArgs, cmd.Name())
		if len(lead) > 0 {
			if err := cmd.Root().PersistentFlags().Parse(lead); err != nil {
				return fmt.Errorf("parse: %w", err)
			}
			args = args[len(lead):]
		}

		cfg, err := config.LoadFrom(configPath)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		defaults, err := cfg.DefaultFlagValues()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}

		p := argv.ParseTrimmed(args, cfg.Aliases(), defaults)

		if jsonOutput {
			return writeJSON(cmd.OutOrStdout(), p)
		}
		return writeParsedTable(cmd.OutOrStdout(), p)
	},
}

func init() {
	rootCmd.AddCommand(parseCmd)
}

// rootFlagsBefore returns the tokens of raw that precede the first token
// equal to name, provided they are all flags in fs or their values. Cobra
// hands a command with flag parsing disabled every token except its own
// name, so these are exactly the leading tokens of that command's args.
func rootFlagsBefore(fs *pflag.FlagSet, raw []string, name string) []string {
	for i := 0; i < len(raw); i++ {
		tok := raw[i]
		if tok == name {
			return raw[:i]
		}
		f := lookupFlag(fs, tok)
		if f == nil {
			return nil
		}
		if f.NoOptDefVal == "" && !strings.Contains(tok, "=") {
			i++ // value in the next token
		}
	}
	return nil
}

// lookupFlag finds the flag named by a "--name", "--name=v" or "-n" token.
func lookupFlag(fs *pflag.FlagSet, tok string) *pflag.Flag {
	name, _, _ := strings.Cut(tok, "=")
	switch {
	case strings.HasPrefix(name, "--"):
		return fs.Lookup(name[2:])
	case strings.HasPrefix(name, "-") && len(name) == 2:
		return fs.ShorthandLookup(name[1:])
	}
	return nil
}

func writeParsedTable(w io.Writer, p *argv.Parsed) error {
	color := isTTY(w)
	fmt.Fprintf(w, "%s %s\n", bold("Command:", color), p.Command())
	fmt.Fprintf(w, "%s %s\n", bold("Args:", color), strings.Join(p.Rest(), " "))
	if len(p.Flags) == 0 {
		return nil
	}

	keys := make([]string, 0, len(p.Flags))
	for k := range p.Flags {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	fmt.Fprintln(w)
	tbl := NewTable(w, "FLAG", "VALUE", "TYPE")
	for _, k := range keys {
		v := p.Flags[k]
		tbl.Row(k, v.String(), v.Kind().String())
	}
	return tbl.Flush()
}
