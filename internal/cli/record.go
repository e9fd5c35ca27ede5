package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/scbrown/dispatch/internal/record"
)

var recordProgram string

var recordCmd = &cobra.Command{
	Use:   "record",
	Short: "Record runs or misses from JSON on stdin",
	Long: `Record reads one or more JSON objects from stdin and stores them in the
history database, so programs that do not link the dispatcher can still
feed dsp history, misses, and paths.

Each object needs a "command" field. Objects with a "resolved" field are
stored as runs; the rest are stored as misses. Optional fields: id,
program, args, flags, error, duration_ms, cwd, timestamp.`,
	Example: `  echo '{"command":"deplyo","args":["prod"]}' | dsp record --program deploy.sh
  echo '{"command":"up","resolved":"upgrade","duration_ms":120}' | dsp record`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openStore(cmd.Context())
		if err != nil {
			return err
		}
		defer s.Close()

		results, err := record.Record(cmd.Context(), s, cmd.InOrStdin(), recordProgram)
		if err != nil {
			return err
		}

		if jsonOutput {
			return writeJSON(cmd.OutOrStdout(), results)
		}
		for _, r := range results {
			fmt.Fprintf(cmd.ErrOrStderr(), "Recorded %s: %s (%s)\n", r.Kind, r.Command, r.ID)
		}
		return nil
	},
}

func init() {
	recordCmd.Flags().StringVar(&recordProgram, "program", "", "program name to store with each entry")
	rootCmd.AddCommand(recordCmd)
}
