package cli

import (
	"fmt"
	"io"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/scbrown/dispatch/internal/store"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show summary statistics about dispatch history",
	Long: `Display a summary of recorded history: total and failed runs, misses
and distinct missed names, alias count, the most run commands, the most
missed names, the date range, and recent activity counts.`,
	Example: `  dsp stats
  dsp stats --json`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openStore(cmd.Context())
		if err != nil {
			return err
		}
		defer s.Close()

		st, err := s.Stats(cmd.Context())
		if err != nil {
			return fmt.Errorf("get stats: %w", err)
		}

		if jsonOutput {
			if st.TopCommands == nil {
				st.TopCommands = []store.NameCount{}
			}
			if st.TopMisses == nil {
				st.TopMisses = []store.NameCount{}
			}
			return writeJSON(cmd.OutOrStdout(), st)
		}
		printStatsText(cmd.OutOrStdout(), st)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statsCmd)
}

func printStatsText(w io.Writer, st store.Stats) {
	color := isTTY(w)

	fmt.Fprintf(w, "Total runs:         %s\n", humanize.Comma(int64(st.TotalInvocations)))
	fmt.Fprintf(w, "Failed runs:        %s\n", humanize.Comma(int64(st.FailedRuns)))
	fmt.Fprintf(w, "Misses:             %s\n", humanize.Comma(int64(st.TotalMisses)))
	fmt.Fprintf(w, "Unique misses:      %d\n", st.UniqueMisses)
	fmt.Fprintf(w, "Aliases:            %d\n", st.Aliases)

	if st.TotalInvocations+st.TotalMisses == 0 {
		return
	}

	fmt.Fprintln(w)
	fmt.Fprintf(w, "Date range:         %s to %s\n",
		st.Earliest.Format("2006-01-02"), st.Latest.Format("2006-01-02"))

	fmt.Fprintln(w)
	fmt.Fprintf(w, "Last 24h:           %d\n", st.Last24h)
	fmt.Fprintf(w, "Last 7d:            %d\n", st.Last7d)
	fmt.Fprintf(w, "Last 30d:           %d\n", st.Last30d)

	printNameCounts(w, bold("Top commands:", color), st.TopCommands)
	printNameCounts(w, bold("Top misses:", color), st.TopMisses)
}

func printNameCounts(w io.Writer, title string, counts []store.NameCount) {
	if len(counts) == 0 {
		return
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, title)
	for _, nc := range counts {
		fmt.Fprintf(w, "  %-20s %d\n", nc.Name, nc.Count)
	}
}
