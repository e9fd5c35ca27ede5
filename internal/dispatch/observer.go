package dispatch

import (
	"context"
	"time"

	"github.com/scbrown/dispatch/internal/argv"
)

// Observer is notified after each resolved command run, from Start or Run,
// and after each name Start fails to resolve. It cannot change results;
// implementations should not block.
type Observer interface {
	Invoked(ctx context.Context, inv Invocation)
	Missed(ctx context.Context, miss Miss)
}

// Invocation describes one command run.
type Invocation struct {
	Command  string // name as typed
	Resolved string // registered name it matched
	Args     []string
	Flags    map[string]argv.Value
	Err      error
	Duration time.Duration
}

// Miss describes a command name that did not resolve.
type Miss struct {
	Command string
	Args    []string
	Flags   map[string]argv.Value
}
