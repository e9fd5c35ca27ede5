// Package store defines the storage interface for dispatch history.
package store

import (
	"context"
	"time"

	"github.com/scbrown/dispatch/internal/model"
)

// Store is the persistence interface for invocations, misses, and aliases.
type Store interface {
	// RecordInvocation persists a single resolved command run.
	RecordInvocation(ctx context.Context, inv model.Invocation) error

	// ListInvocations returns invocations matching the given filter options.
	ListInvocations(ctx context.Context, opts InvocationOpts) ([]model.Invocation, error)

	// RecordMiss persists a command name that did not resolve.
	RecordMiss(ctx context.Context, m model.Miss) error

	// ListMisses returns misses matching the given filter options.
	ListMisses(ctx context.Context, opts MissOpts) ([]model.Miss, error)

	// GetPaths returns misses aggregated by command name, ranked by frequency.
	GetPaths(ctx context.Context, opts PathOpts) ([]model.Path, error)

	// SetAlias creates or updates a command alias.
	SetAlias(ctx context.Context, alias model.Alias) error

	// GetAlias returns the alias for from, or nil if there is none.
	GetAlias(ctx context.Context, from string) (*model.Alias, error)

	// GetAliases returns all configured aliases.
	GetAliases(ctx context.Context) ([]model.Alias, error)

	// DeleteAlias removes the alias for from. Returns true if deleted.
	DeleteAlias(ctx context.Context, from string) (bool, error)

	// Stats returns summary statistics about the stored history.
	Stats(ctx context.Context) (Stats, error)

	// Close releases any resources held by the store.
	Close() error
}

// InvocationOpts controls filtering for ListInvocations.
type InvocationOpts struct {
	Since      time.Time // Only invocations after this time.
	Program    string    // Filter by program name.
	Command    string    // Filter by resolved command name.
	ErrorsOnly bool      // Only return invocations that ended in an error.
	Limit      int       // Maximum results; 0 means no limit.
}

// MissOpts controls filtering for ListMisses.
type MissOpts struct {
	Since   time.Time // Only misses after this time.
	Program string    // Filter by program name.
	Command string    // Filter by command name (case-insensitive).
	Limit   int       // Maximum results; 0 means no limit.
}

// PathOpts controls filtering for GetPaths.
type PathOpts struct {
	Top   int       // Maximum paths to return; 0 means no limit.
	Since time.Time // Only aggregate misses after this time.
}

// NameCount pairs a name with its occurrence count.
type NameCount struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// Stats holds summary statistics about the stored history.
type Stats struct {
	TotalInvocations int         `json:"total_invocations"`
	FailedRuns       int         `json:"failed_runs"`
	TotalMisses      int         `json:"total_misses"`
	UniqueMisses     int         `json:"unique_misses"`
	Aliases          int         `json:"aliases"`
	TopCommands      []NameCount `json:"top_commands"`
	TopMisses        []NameCount `json:"top_misses"`
	Earliest         time.Time   `json:"earliest"`
	Latest           time.Time   `json:"latest"`
	Last24h          int         `json:"last_24h"`
	Last7d           int         `json:"last_7d"`
	Last30d          int         `json:"last_30d"`
}
