// Package record imports dispatch history written as JSON by programs that
// do not link the dispatcher, such as shell wrappers.
package record

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"

	"github.com/scbrown/dispatch/internal/argv"
	"github.com/scbrown/dispatch/internal/model"
	"github.com/scbrown/dispatch/internal/store"
)

// Kind tells whether an entry was stored as a run or a miss.
type Kind string

const (
	KindInvocation Kind = "invocation"
	KindMiss       Kind = "miss"
)

// Result describes one stored entry.
type Result struct {
	Kind    Kind   `json:"kind"`
	ID      string `json:"id"`
	Command string `json:"command"`
}

// entry is the accepted input shape. An entry with a resolved name is a run;
// one without is a miss.
type entry struct {
	ID         string                `json:"id"`
	Program    string                `json:"program"`
	Command    string                `json:"command"`
	Resolved   string                `json:"resolved"`
	Args       []string              `json:"args"`
	Flags      map[string]argv.Value `json:"flags"`
	Error      string                `json:"error"`
	DurationMS int64                 `json:"duration_ms"`
	CWD        string                `json:"cwd"`
	Timestamp  time.Time             `json:"timestamp"`
}

// Record reads one or more JSON objects from input and stores each through s.
//
// The program parameter overrides any "program" field in the input. Only
// "command" is required; ID and timestamp are generated when absent. Flag
// values must be strings, numbers, booleans, or flat lists of those. Unknown
// fields are rejected. Entries stored before an error stay stored.
func Record(ctx context.Context, s store.Store, input io.Reader, program string) ([]Result, error) {
	dec := json.NewDecoder(input)
	dec.DisallowUnknownFields()

	var results []Result
	for n := 1; ; n++ {
		var e entry
		if err := dec.Decode(&e); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return results, fmt.Errorf("entry %d: parsing JSON: %w", n, err)
		}
		res, err := store1(ctx, s, e, program)
		if err != nil {
			return results, fmt.Errorf("entry %d: %w", n, err)
		}
		results = append(results, res)
	}
	if len(results) == 0 {
		return nil, fmt.Errorf("no entries in input")
	}
	return results, nil
}

func store1(ctx context.Context, s store.Store, e entry, program string) (Result, error) {
	if e.Command == "" {
		return Result{}, fmt.Errorf("missing required field: command")
	}
	if e.ID == "" {
		e.ID = uuid.New().String()
	}
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now()
	}
	if program != "" {
		e.Program = program
	}

	var flags json.RawMessage
	if len(e.Flags) > 0 {
		data, err := json.Marshal(e.Flags)
		if err != nil {
			return Result{}, fmt.Errorf("encoding flags: %w", err)
		}
		flags = data
	}

	if e.Resolved == "" {
		if e.Error != "" || e.DurationMS != 0 {
			return Result{}, fmt.Errorf("error and duration_ms need a resolved command")
		}
		m := model.Miss{
			ID:        e.ID,
			Program:   e.Program,
			Command:   e.Command,
			Args:      e.Args,
			Flags:     flags,
			CWD:       e.CWD,
			Timestamp: e.Timestamp,
		}
		if err := s.RecordMiss(ctx, m); err != nil {
			return Result{}, fmt.Errorf("storing miss: %w", err)
		}
		return Result{Kind: KindMiss, ID: e.ID, Command: e.Command}, nil
	}

	inv := model.Invocation{
		ID:         e.ID,
		Program:    e.Program,
		Command:    e.Command,
		Resolved:   e.Resolved,
		Args:       e.Args,
		Flags:      flags,
		Error:      e.Error,
		DurationMS: e.DurationMS,
		CWD:        e.CWD,
		Timestamp:  e.Timestamp,
	}
	if err := s.RecordInvocation(ctx, inv); err != nil {
		return Result{}, fmt.Errorf("storing invocation: %w", err)
	}
	return Result{Kind: KindInvocation, ID: e.ID, Command: e.Command}, nil
}
