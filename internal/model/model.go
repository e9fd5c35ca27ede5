// Package model defines the persisted dispatch history types: invocations
// (resolved command runs), misses (names that resolved to nothing), paths
// (misses aggregated by name), and aliases (command name mappings).
package model

import (
	"encoding/json"
	"time"
)

// Invocation records a single resolved command run.
type Invocation struct {
	ID         string          `json:"id"`
	Program    string          `json:"program,omitempty"`
	Command    string          `json:"command"`
	Resolved   string          `json:"resolved"`
	Args       []string        `json:"args,omitempty"`
	Flags      json.RawMessage `json:"flags,omitempty"`
	Error      string          `json:"error,omitempty"`
	DurationMS int64           `json:"duration_ms"`
	CWD        string          `json:"cwd,omitempty"`
	Timestamp  time.Time       `json:"timestamp"`
}

// IsError reports whether the run ended with a handler error.
func (i Invocation) IsError() bool { return i.Error != "" }

// Miss records a command name that no registered command matched.
type Miss struct {
	ID        string          `json:"id"`
	Program   string          `json:"program,omitempty"`
	Command   string          `json:"command"`
	Args      []string        `json:"args,omitempty"`
	Flags     json.RawMessage `json:"flags,omitempty"`
	CWD       string          `json:"cwd,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
}

// Path represents an aggregated pattern of repeated misses.
type Path struct {
	Pattern   string    `json:"pattern"`
	Count     int       `json:"count"`
	FirstSeen time.Time `json:"first_seen"`
	LastSeen  time.Time `json:"last_seen"`
	AliasTo   string    `json:"alias_to,omitempty"`
}

// Alias maps a command name users reach for to a registered command.
type Alias struct {
	From      string    `json:"from"`
	To        string    `json:"to"`
	CreatedAt time.Time `json:"created_at"`
}
