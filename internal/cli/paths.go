package cli

import (
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/scbrown/dispatch/internal/model"
	"github.com/scbrown/dispatch/internal/store"
)

var (
	pathsTop   int
	pathsSince string
)

// pathsCmd displays misses aggregated by command name.
var pathsCmd = &cobra.Command{
	Use:   "paths",
	Short: "Show missed command names ranked by frequency",
	Long: `Paths aggregates misses by lowercase command name and ranks them by how
often they occur. Each row shows the count, when the name was first and last
typed, and the command it is aliased to, if any.`,
	Example: `  dsp paths
  dsp paths --top 10
  dsp paths --since 7d
  dsp paths --json`,
	RunE: func(cmd *cobra.Command, args []string) error {
		since, err := parseSince(pathsSince)
		if err != nil {
			return fmt.Errorf("invalid --since value %q: %w", pathsSince, err)
		}

		s, err := openStore(cmd.Context())
		if err != nil {
			return err
		}
		defer s.Close()

		paths, err := s.GetPaths(cmd.Context(), store.PathOpts{Top: pathsTop, Since: since})
		if err != nil {
			return fmt.Errorf("get paths: %w", err)
		}

		if jsonOutput {
			if paths == nil {
				paths = []model.Path{}
			}
			return writeJSON(cmd.OutOrStdout(), paths)
		}
		return writePathsTable(cmd.OutOrStdout(), paths)
	},
}

func init() {
	pathsCmd.Flags().IntVar(&pathsTop, "top", 20, "maximum number of paths to display")
	pathsCmd.Flags().StringVar(&pathsSince, "since", "", "only include misses within this duration or after an RFC3339 time")
	rootCmd.AddCommand(pathsCmd)
}

// writePathsTable writes paths as an aligned text table to w.
func writePathsTable(w io.Writer, paths []model.Path) error {
	if len(paths) == 0 {
		fmt.Fprintln(w, "No paths found.")
		return nil
	}
	tbl := NewTable(w, "RANK", "PATTERN", "COUNT", "FIRST_SEEN", "LAST_SEEN", "ALIAS")
	for i, p := range paths {
		tbl.Row(
			strconv.Itoa(i+1),
			p.Pattern,
			strconv.Itoa(p.Count),
			age(p.FirstSeen),
			age(p.LastSeen),
			p.AliasTo,
		)
	}
	return tbl.Flush()
}
