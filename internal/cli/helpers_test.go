package cli

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"

	"github.com/scbrown/dispatch/internal/config"
	"github.com/scbrown/dispatch/internal/model"
	"github.com/scbrown/dispatch/internal/store"
)

// resetFlags restores every flag to its default and clears its changed
// state, since the command tree is shared between tests. The config path is
// pointed at a temp file so the user's config is never read.
func resetFlags(t *testing.T) {
	t.Helper()
	reset := func(f *pflag.Flag) {
		if err := f.Value.Set(f.DefValue); err != nil {
			t.Fatalf("reset --%s: %v", f.Name, err)
		}
		f.Changed = false
	}
	rootCmd.PersistentFlags().VisitAll(reset)
	for _, c := range rootCmd.Commands() {
		c.LocalFlags().VisitAll(reset)
	}

	configPath = filepath.Join(t.TempDir(), "config.toml")
	t.Cleanup(func() {
		configPath = config.Path()
		jsonOutput = false
	})
}

// runCmd executes the root command with args and returns stdout and stderr.
func runCmd(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
	})
	err := execute(args)
	return out.String(), errOut.String(), err
}

// newTestDB creates a database path and seeds it with fn.
func newTestDB(t *testing.T, fn func(s *store.SQLiteStore)) string {
	t.Helper()
	db := filepath.Join(t.TempDir(), "test.db")
	s, err := store.New(db)
	if err != nil {
		t.Fatalf("store.New: %v", err)
	}
	if fn != nil {
		fn(s)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	return db
}

func seedHistory(t *testing.T) func(s *store.SQLiteStore) {
	return func(s *store.SQLiteStore) {
		t.Helper()
		ctx := context.Background()
		now := time.Now()
		invs := []model.Invocation{
			{Program: "greet", Command: "bu", Resolved: "build", DurationMS: 20, Timestamp: now.Add(-2 * time.Hour)},
			{Program: "greet", Command: "build", Resolved: "build", Error: "compile failed", Timestamp: now.Add(-time.Hour)},
			{Program: "greet", Command: "greet", Resolved: "greet", Args: []string{"world"}, Timestamp: now.Add(-10 * 24 * time.Hour)},
		}
		for _, inv := range invs {
			if err := s.RecordInvocation(ctx, inv); err != nil {
				t.Fatalf("RecordInvocation: %v", err)
			}
		}
		misses := []model.Miss{
			{Program: "greet", Command: "deplyo", Args: []string{"prod"}, Timestamp: now.Add(-3 * time.Hour)},
			{Program: "greet", Command: "Deplyo", Timestamp: now.Add(-time.Hour)},
			{Program: "greet", Command: "ship", Timestamp: now.Add(-30 * time.Minute)},
		}
		for _, m := range misses {
			if err := s.RecordMiss(ctx, m); err != nil {
				t.Fatalf("RecordMiss: %v", err)
			}
		}
	}
}
