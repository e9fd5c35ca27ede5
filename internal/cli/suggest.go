package cli

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/scbrown/dispatch/internal/analyze"
	"github.com/scbrown/dispatch/internal/store"
)

var (
	suggestKnown     string
	suggestThreshold float64
	suggestTopN      int
)

// suggestCmd suggests registered commands for a name that did not resolve.
var suggestCmd = &cobra.Command{
	Use:   "suggest <name>",
	Short: "Suggest commands similar to a name",
	Long: `Suggest finds commands similar to the given name. A configured alias for
the name wins outright; otherwise known commands are ranked by string
similarity. Known commands come from --known, or default to every command
name recorded in the run history.`,
	Example: `  dsp suggest deplyo
  dsp suggest biuld --known "build,deploy,test"
  dsp suggest stat --threshold 0.3 --top 3
  dsp suggest deplyo --json`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := args[0]
		w := cmd.OutOrStdout()
		ctx := cmd.Context()

		s, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer s.Close()

		alias, err := s.GetAlias(ctx, name)
		if err != nil {
			return fmt.Errorf("get alias: %w", err)
		}
		if alias != nil {
			if jsonOutput {
				return writeJSON(w, suggestOutput{Query: name, Alias: alias.To})
			}
			fmt.Fprintf(w, "Alias: %q -> %q\n", name, alias.To)
			return nil
		}

		known, err := knownCommands(ctx, s)
		if err != nil {
			return err
		}

		threshold := suggestThreshold
		if threshold == 0 {
			threshold = analyze.DefaultThreshold
		}
		suggestions := analyze.SuggestN(name, known, suggestTopN, threshold)

		if jsonOutput {
			if suggestions == nil {
				suggestions = []analyze.Suggestion{}
			}
			return writeJSON(w, suggestOutput{Query: name, Suggestions: suggestions})
		}
		return writeSuggestTable(w, name, suggestions)
	},
}

func init() {
	suggestCmd.Flags().StringVar(&suggestKnown, "known", "", "comma-separated list of known command names")
	suggestCmd.Flags().Float64Var(&suggestThreshold, "threshold", 0, "minimum similarity score (default 0.5)")
	suggestCmd.Flags().IntVar(&suggestTopN, "top", analyze.DefaultTopN, "maximum number of suggestions")
	rootCmd.AddCommand(suggestCmd)
}

// suggestOutput is the JSON structure for suggest results.
type suggestOutput struct {
	Query       string               `json:"query"`
	Alias       string               `json:"alias,omitempty"`
	Suggestions []analyze.Suggestion `json:"suggestions,omitempty"`
}

// knownCommands returns --known split on commas, or else the distinct
// resolved command names in the history, most recently run first.
func knownCommands(ctx context.Context, s store.Store) ([]string, error) {
	if suggestKnown != "" {
		var known []string
		for _, k := range strings.Split(suggestKnown, ",") {
			if k = strings.TrimSpace(k); k != "" {
				known = append(known, k)
			}
		}
		return known, nil
	}

	invs, err := s.ListInvocations(ctx, store.InvocationOpts{})
	if err != nil {
		return nil, fmt.Errorf("list invocations: %w", err)
	}
	seen := make(map[string]bool)
	var known []string
	for _, inv := range invs {
		if !seen[inv.Resolved] {
			seen[inv.Resolved] = true
			known = append(known, inv.Resolved)
		}
	}
	return known, nil
}

// writeSuggestTable writes suggestions as an aligned text table.
func writeSuggestTable(w io.Writer, query string, suggestions []analyze.Suggestion) error {
	if len(suggestions) == 0 {
		fmt.Fprintf(w, "No suggestions found for %q\n", query)
		return nil
	}
	tbl := NewTable(w, "RANK", "COMMAND", "SCORE")
	for i, s := range suggestions {
		tbl.Row(fmt.Sprintf("%d", i+1), s.Name, fmt.Sprintf("%.2f", s.Score))
	}
	return tbl.Flush()
}
