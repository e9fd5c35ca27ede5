// Package history records dispatcher activity into a store.
package history

import (
	"context"
	"encoding/json"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/scbrown/dispatch/internal/argv"
	"github.com/scbrown/dispatch/internal/ctxlog"
	"github.com/scbrown/dispatch/internal/dispatch"
	"github.com/scbrown/dispatch/internal/model"
	"github.com/scbrown/dispatch/internal/store"
)

// Recorder is a dispatch.Observer that persists runs and misses. Store
// failures are logged and dropped so dispatch never fails because of history.
type Recorder struct {
	store   store.Store
	program string
	cwd     string
	now     func() time.Time
}

var _ dispatch.Observer = (*Recorder)(nil)

// NewRecorder returns a Recorder writing to s under the given program name.
func NewRecorder(s store.Store, program string) *Recorder {
	cwd, _ := os.Getwd()
	return &Recorder{store: s, program: program, cwd: cwd, now: time.Now}
}

// Invoked stores a resolved command run.
func (r *Recorder) Invoked(ctx context.Context, inv dispatch.Invocation) {
	rec := model.Invocation{
		ID:         uuid.New().String(),
		Program:    r.program,
		Command:    inv.Command,
		Resolved:   inv.Resolved,
		Args:       inv.Args,
		Flags:      encodeFlags(ctx, inv.Flags),
		DurationMS: inv.Duration.Milliseconds(),
		CWD:        r.cwd,
		Timestamp:  r.now().UTC(),
	}
	if inv.Err != nil {
		rec.Error = inv.Err.Error()
	}
	if err := r.store.RecordInvocation(ctx, rec); err != nil {
		ctxlog.FromContext(ctx).Warn("recording invocation failed", "command", inv.Command, "error", err)
	}
}

// Missed stores a command name that did not resolve.
func (r *Recorder) Missed(ctx context.Context, miss dispatch.Miss) {
	rec := model.Miss{
		ID:        uuid.New().String(),
		Program:   r.program,
		Command:   miss.Command,
		Args:      miss.Args,
		Flags:     encodeFlags(ctx, miss.Flags),
		CWD:       r.cwd,
		Timestamp: r.now().UTC(),
	}
	if err := r.store.RecordMiss(ctx, rec); err != nil {
		ctxlog.FromContext(ctx).Warn("recording miss failed", "command", miss.Command, "error", err)
	}
}

func encodeFlags(ctx context.Context, flags map[string]argv.Value) json.RawMessage {
	if len(flags) == 0 {
		return nil
	}
	data, err := json.Marshal(flags)
	if err != nil {
		ctxlog.FromContext(ctx).Debug("encoding flags failed", "error", err)
		return nil
	}
	return data
}
