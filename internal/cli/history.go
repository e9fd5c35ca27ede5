package cli

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/scbrown/dispatch/internal/model"
	"github.com/scbrown/dispatch/internal/store"
)

var (
	historySince   string
	historyProgram string
	historyCommand string
	historyErrors  bool
	historyLimit   int

	missesSince   string
	missesProgram string
	missesCommand string
	missesLimit   int
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recent command runs",
	Long: `History lists resolved command runs recorded by dispatch programs,
newest first. COMMAND is the name as typed; RESOLVED is the registered
command it matched.`,
	Example: `  dsp history
  dsp history --since 24h
  dsp history --command build --errors
  dsp history --program greet --limit 10 --json`,
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := store.InvocationOpts{
			Program:    historyProgram,
			Command:    historyCommand,
			ErrorsOnly: historyErrors,
			Limit:      historyLimit,
		}
		since, err := parseSince(historySince)
		if err != nil {
			return fmt.Errorf("invalid --since value %q: %w", historySince, err)
		}
		opts.Since = since

		s, err := openStore(cmd.Context())
		if err != nil {
			return err
		}
		defer s.Close()

		invs, err := s.ListInvocations(cmd.Context(), opts)
		if err != nil {
			return fmt.Errorf("list invocations: %w", err)
		}

		w := cmd.OutOrStdout()
		if jsonOutput {
			if invs == nil {
				invs = []model.Invocation{}
			}
			return writeJSON(w, invs)
		}
		if len(invs) == 0 {
			fmt.Fprintln(w, "No invocations found.")
			return nil
		}

		tbl := NewTable(w, "AGE", "PROGRAM", "COMMAND", "RESOLVED", "DURATION", "ERROR")
		for _, inv := range invs {
			tbl.Row(
				age(inv.Timestamp),
				inv.Program,
				inv.Command,
				inv.Resolved,
				millis(inv.DurationMS),
				truncate(inv.Error, 50),
			)
		}
		return tbl.Flush()
	},
}

var missesCmd = &cobra.Command{
	Use:   "misses",
	Short: "List command names that did not resolve",
	Long: `Misses lists command names that matched no registered command, newest
first. Names that keep showing up are candidates for an alias (see dsp paths
and dsp alias).`,
	Example: `  dsp misses
  dsp misses --since 7d
  dsp misses --command deplyo --json`,
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := store.MissOpts{
			Program: missesProgram,
			Command: missesCommand,
			Limit:   missesLimit,
		}
		since, err := parseSince(missesSince)
		if err != nil {
			return fmt.Errorf("invalid --since value %q: %w", missesSince, err)
		}
		opts.Since = since

		s, err := openStore(cmd.Context())
		if err != nil {
			return err
		}
		defer s.Close()

		misses, err := s.ListMisses(cmd.Context(), opts)
		if err != nil {
			return fmt.Errorf("list misses: %w", err)
		}

		w := cmd.OutOrStdout()
		if jsonOutput {
			if misses == nil {
				misses = []model.Miss{}
			}
			return writeJSON(w, misses)
		}
		if len(misses) == 0 {
			fmt.Fprintln(w, "No misses found.")
			return nil
		}

		tbl := NewTable(w, "AGE", "PROGRAM", "COMMAND", "ARGS")
		for _, m := range misses {
			tbl.Row(age(m.Timestamp), m.Program, m.Command, truncate(strings.Join(m.Args, " "), 40))
		}
		return tbl.Flush()
	},
}

func init() {
	historyCmd.Flags().StringVar(&historySince, "since", "", "show runs within this duration (e.g., 30m, 24h, 7d) or after an RFC3339 time")
	historyCmd.Flags().StringVar(&historyProgram, "program", "", "filter by program name")
	historyCmd.Flags().StringVar(&historyCommand, "command", "", "filter by resolved command name")
	historyCmd.Flags().BoolVar(&historyErrors, "errors", false, "only show runs that returned an error")
	historyCmd.Flags().IntVar(&historyLimit, "limit", 50, "maximum number of results")

	missesCmd.Flags().StringVar(&missesSince, "since", "", "show misses within this duration (e.g., 30m, 24h, 7d) or after an RFC3339 time")
	missesCmd.Flags().StringVar(&missesProgram, "program", "", "filter by program name")
	missesCmd.Flags().StringVar(&missesCommand, "command", "", "filter by command name (case-insensitive)")
	missesCmd.Flags().IntVar(&missesLimit, "limit", 50, "maximum number of results")

	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(missesCmd)
}

// parseSince accepts a relative duration ("7d", "24h") or an absolute
// RFC3339 timestamp or date. An empty string yields the zero time.
func parseSince(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	if t, err := time.Parse(time.DateOnly, s); err == nil {
		return t, nil
	}
	d, err := parseDuration(s)
	if err != nil {
		return time.Time{}, fmt.Errorf("expected a duration (e.g. 7d, 24h) or RFC3339 time")
	}
	return time.Now().Add(-d), nil
}

// parseDuration parses a duration string that supports d (days), h (hours), m (minutes), s (seconds).
func parseDuration(s string) (time.Duration, error) {
	if s == "" {
		return 0, fmt.Errorf("empty duration")
	}
	// time.ParseDuration has no day unit.
	if strings.HasSuffix(s, "d") {
		numStr := s[:len(s)-1]
		days, err := strconv.Atoi(numStr)
		if err != nil {
			return 0, fmt.Errorf("invalid day count %q", numStr)
		}
		return time.Duration(days) * 24 * time.Hour, nil
	}
	return time.ParseDuration(s)
}
