package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/scbrown/dispatch/internal/model"
)

var aliasDelete bool

var aliasCmd = &cobra.Command{
	Use:   "alias [--delete] <from> [<to>]",
	Short: "Create, update, or delete a command alias",
	Long: `Map a command name that does not resolve onto a registered command.
When a dispatch program is given <from>, the fallback handler runs <to>
with the same arguments and flags. Names are stored lowercase.`,
	Example: `  dsp alias ship deploy
  dsp alias --delete ship`,
	RunE: runAlias,
}

var aliasesCmd = &cobra.Command{
	Use:   "aliases",
	Short: "List all command aliases",
	Example: `  dsp aliases
  dsp aliases --json`,
	Args: cobra.NoArgs,
	RunE: listAliases,
}

func init() {
	aliasCmd.Flags().BoolVar(&aliasDelete, "delete", false, "delete the alias for <from>")
	rootCmd.AddCommand(aliasCmd)
	rootCmd.AddCommand(aliasesCmd)
}

// aliasResult is the JSON structure for alias mutation results.
type aliasResult struct {
	Action string `json:"action"`
	From   string `json:"from"`
	To     string `json:"to,omitempty"`
}

func runAlias(cmd *cobra.Command, args []string) error {
	if aliasDelete {
		if len(args) != 1 {
			return fmt.Errorf("--delete requires exactly one argument: dsp alias --delete <from>")
		}
		return deleteAlias(cmd, args[0])
	}
	if len(args) != 2 {
		return fmt.Errorf("requires exactly two arguments: dsp alias <from> <to>")
	}
	return setAlias(cmd, model.Alias{From: args[0], To: args[1]})
}

func setAlias(cmd *cobra.Command, a model.Alias) error {
	s, err := openStore(cmd.Context())
	if err != nil {
		return err
	}
	defer s.Close()

	if err := s.SetAlias(cmd.Context(), a); err != nil {
		return fmt.Errorf("set alias: %w", err)
	}

	w := cmd.OutOrStdout()
	if jsonOutput {
		return writeJSON(w, aliasResult{Action: "set", From: a.From, To: a.To})
	}
	fmt.Fprintf(w, "Alias set: %s -> %s\n", a.From, a.To)
	return nil
}

func deleteAlias(cmd *cobra.Command, from string) error {
	s, err := openStore(cmd.Context())
	if err != nil {
		return err
	}
	defer s.Close()

	deleted, err := s.DeleteAlias(cmd.Context(), from)
	if err != nil {
		return fmt.Errorf("delete alias: %w", err)
	}
	if !deleted {
		return fmt.Errorf("alias %q not found", from)
	}

	w := cmd.OutOrStdout()
	if jsonOutput {
		return writeJSON(w, aliasResult{Action: "deleted", From: from})
	}
	fmt.Fprintf(w, "Alias deleted: %s\n", from)
	return nil
}

func listAliases(cmd *cobra.Command, args []string) error {
	s, err := openStore(cmd.Context())
	if err != nil {
		return err
	}
	defer s.Close()

	aliases, err := s.GetAliases(cmd.Context())
	if err != nil {
		return fmt.Errorf("get aliases: %w", err)
	}

	w := cmd.OutOrStdout()
	if jsonOutput {
		if aliases == nil {
			aliases = []model.Alias{}
		}
		return writeJSON(w, aliases)
	}
	if len(aliases) == 0 {
		fmt.Fprintln(cmd.ErrOrStderr(), "No aliases configured.")
		return nil
	}

	tbl := NewTable(w, "FROM", "TO", "CREATED")
	for _, a := range aliases {
		tbl.Row(a.From, a.To, age(a.CreatedAt))
	}
	return tbl.Flush()
}
