package record

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/scbrown/dispatch/internal/model"
	"github.com/scbrown/dispatch/internal/store"
)

// fakeStore captures recorded entries for test inspection.
type fakeStore struct {
	store.Store
	invocations []model.Invocation
	misses      []model.Miss
	err         error
}

func (f *fakeStore) RecordInvocation(_ context.Context, inv model.Invocation) error {
	if f.err != nil {
		return f.err
	}
	f.invocations = append(f.invocations, inv)
	return nil
}

func (f *fakeStore) RecordMiss(_ context.Context, m model.Miss) error {
	if f.err != nil {
		return f.err
	}
	f.misses = append(f.misses, m)
	return nil
}

func TestRecordInvocation(t *testing.T) {
	fs := &fakeStore{}
	input := `{"program":"deploy.sh","command":"up","resolved":"upgrade","args":["prod"],"flags":{"force":true,"n":3},"duration_ms":120,"timestamp":"2026-02-07T12:00:00Z"}`

	results, err := Record(context.Background(), fs, strings.NewReader(input), "")
	if err != nil {
		t.Fatalf("Record: %v", err)
	}
	if len(results) != 1 || results[0].Kind != KindInvocation || results[0].Command != "up" {
		t.Fatalf("results = %+v", results)
	}
	if len(fs.invocations) != 1 {
		t.Fatalf("recorded %d invocations, want 1", len(fs.invocations))
	}
	inv := fs.invocations[0]
	if inv.ID == "" || inv.ID != results[0].ID {
		t.Errorf("ID = %q, result ID = %q", inv.ID, results[0].ID)
	}
	if inv.Program != "deploy.sh" || inv.Resolved != "upgrade" || inv.DurationMS != 120 {
		t.Errorf("unexpected invocation %+v", inv)
	}
	if string(inv.Flags) != `{"force":true,"n":3}` {
		t.Errorf("Flags = %s", inv.Flags)
	}
	if inv.Timestamp.Year() != 2026 {
		t.Errorf("Timestamp = %v", inv.Timestamp)
	}
}

func TestRecordMissStream(t *testing.T) {
	fs := &fakeStore{}
	input := "{\"command\":\"deplyo\"}\n{\"command\":\"shp\",\"args\":[\"a\"]}\n"

	results, err := Record(context.Background(), fs, strings.NewReader(input), "wrapper")
	if err != nil {
		t.Fatalf("Record: %v", err)
	}
	if len(results) != 2 || len(fs.misses) != 2 {
		t.Fatalf("results = %+v, misses = %d", results, len(fs.misses))
	}
	for _, m := range fs.misses {
		if m.Program != "wrapper" {
			t.Errorf("Program = %q, want wrapper", m.Program)
		}
		if m.Timestamp.IsZero() {
			t.Error("Timestamp should be generated")
		}
	}
	if results[1].Kind != KindMiss || results[1].Command != "shp" {
		t.Errorf("second result = %+v", results[1])
	}
}

func TestRecordErrors(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr string
	}{
		{"empty input", "", "no entries in input"},
		{"invalid JSON", "{not json", "parsing JSON"},
		{"missing command", `{"resolved":"build"}`, "missing required field: command"},
		{"unknown field", `{"command":"x","tool_name":"y"}`, "unknown field"},
		{"nested flag list", `{"command":"x","flags":{"a":[[1]]}}`, "nested lists"},
		{"object flag", `{"command":"x","flags":{"a":{"b":1}}}`, "unsupported flag value"},
		{"miss with error", `{"command":"x","error":"boom"}`, "need a resolved command"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Record(context.Background(), &fakeStore{}, strings.NewReader(tt.input), "")
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %q, want it to contain %q", err, tt.wantErr)
			}
		})
	}
}

func TestRecordPartialStream(t *testing.T) {
	fs := &fakeStore{}
	input := "{\"command\":\"ok\"}\n{\"resolved\":\"x\"}\n"
	results, err := Record(context.Background(), fs, strings.NewReader(input), "")
	if err == nil || !strings.Contains(err.Error(), "entry 2") {
		t.Fatalf("err = %v, want entry 2 failure", err)
	}
	if len(results) != 1 || len(fs.misses) != 1 {
		t.Errorf("first entry should stay stored: results=%d misses=%d", len(results), len(fs.misses))
	}
}

func TestRecordStoreError(t *testing.T) {
	fs := &fakeStore{err: errors.New("disk full")}
	_, err := Record(context.Background(), fs, strings.NewReader(`{"command":"x","resolved":"x"}`), "")
	if err == nil || !strings.Contains(err.Error(), "storing invocation: disk full") {
		t.Errorf("err = %v", err)
	}
}
