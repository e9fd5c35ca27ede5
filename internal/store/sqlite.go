// Package store provides SQLite-backed persistence for dispatch history.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/scbrown/dispatch/internal/model"

	_ "modernc.org/sqlite"
)

const schemaVersion = 2

// SQLiteStore implements Store using a local SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

// New opens (or creates) a SQLite database at dbPath.
// It auto-creates the parent directory (e.g. ~/.dsp/) and runs
// schema migrations to ensure the database is up to date.
func New(dbPath string) (*SQLiteStore, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir %s: %w", dir, err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// Single connection for WAL mode simplicity.
	db.SetMaxOpenConns(1)

	s := &SQLiteStore{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

// migrate runs schema migrations up to schemaVersion.
func (s *SQLiteStore) migrate() error {
	if _, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS schema_version (
		version INTEGER NOT NULL
	)`); err != nil {
		return fmt.Errorf("create version table: %w", err)
	}

	var ver int
	err := s.db.QueryRow("SELECT version FROM schema_version LIMIT 1").Scan(&ver)
	if err == sql.ErrNoRows {
		ver = 0
	} else if err != nil {
		return fmt.Errorf("read version: %w", err)
	}

	steps := []func() error{s.migrateV1, s.migrateV2}
	for v := ver; v < schemaVersion; v++ {
		if err := steps[v](); err != nil {
			return err
		}
	}
	return nil
}

func (s *SQLiteStore) migrateV1() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS invocations (
			id          TEXT PRIMARY KEY,
			program     TEXT,
			command     TEXT NOT NULL,
			resolved    TEXT NOT NULL,
			args        TEXT,
			flags       TEXT,
			error       TEXT,
			duration_ms INTEGER NOT NULL DEFAULT 0,
			cwd         TEXT,
			timestamp   TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_invocations_resolved ON invocations(resolved)`,
		`CREATE INDEX IF NOT EXISTS idx_invocations_timestamp ON invocations(timestamp)`,
		`CREATE TABLE IF NOT EXISTS aliases (
			from_name  TEXT PRIMARY KEY,
			to_name    TEXT NOT NULL,
			created_at TEXT NOT NULL
		)`,
		`INSERT INTO schema_version (version) VALUES (1)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("migrate v1: %w", err)
		}
	}
	return nil
}

func (s *SQLiteStore) migrateV2() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS misses (
			id        TEXT PRIMARY KEY,
			program   TEXT,
			command   TEXT NOT NULL,
			args      TEXT,
			flags     TEXT,
			cwd       TEXT,
			timestamp TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_misses_command ON misses(lower(command))`,
		`CREATE INDEX IF NOT EXISTS idx_misses_timestamp ON misses(timestamp)`,
		`CREATE INDEX IF NOT EXISTS idx_invocations_program ON invocations(program)`,
		`UPDATE schema_version SET version = 2`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("migrate v2: %w", err)
		}
	}
	return nil
}

// RecordInvocation persists a single resolved command run. A missing ID or
// timestamp is filled in.
func (s *SQLiteStore) RecordInvocation(ctx context.Context, inv model.Invocation) error {
	if inv.ID == "" {
		inv.ID = uuid.New().String()
	}
	if inv.Timestamp.IsZero() {
		inv.Timestamp = time.Now()
	}
	args, err := encodeArgs(inv.Args)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO invocations (id, program, command, resolved, args, flags, error, duration_ms, cwd, timestamp)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		inv.ID,
		nullableString(inv.Program),
		inv.Command,
		inv.Resolved,
		args,
		nullableJSON(inv.Flags),
		nullableString(inv.Error),
		inv.DurationMS,
		nullableString(inv.CWD),
		inv.Timestamp.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("insert invocation: %w", err)
	}
	return nil
}

// ListInvocations returns invocations matching the given filter options,
// newest first.
func (s *SQLiteStore) ListInvocations(ctx context.Context, opts InvocationOpts) ([]model.Invocation, error) {
	query := "SELECT id, program, command, resolved, args, flags, error, duration_ms, cwd, timestamp FROM invocations WHERE 1=1"
	var args []any

	if !opts.Since.IsZero() {
		query += " AND timestamp >= ?"
		args = append(args, opts.Since.UTC().Format(time.RFC3339Nano))
	}
	if opts.Program != "" {
		query += " AND program = ?"
		args = append(args, opts.Program)
	}
	if opts.Command != "" {
		query += " AND resolved = ?"
		args = append(args, strings.ToLower(opts.Command))
	}
	if opts.ErrorsOnly {
		query += " AND error IS NOT NULL AND error != ''"
	}
	query += " ORDER BY timestamp DESC"
	if opts.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", opts.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list invocations: %w", err)
	}
	defer rows.Close()

	var out []model.Invocation
	for rows.Next() {
		var inv model.Invocation
		var program, argsJSON, flags, errMsg, cwd sql.NullString
		var ts string
		if err := rows.Scan(&inv.ID, &program, &inv.Command, &inv.Resolved, &argsJSON, &flags, &errMsg, &inv.DurationMS, &cwd, &ts); err != nil {
			return nil, fmt.Errorf("scan invocation: %w", err)
		}
		inv.Program = program.String
		inv.Error = errMsg.String
		inv.CWD = cwd.String
		if flags.Valid && flags.String != "" {
			inv.Flags = []byte(flags.String)
		}
		if inv.Args, err = decodeArgs(argsJSON); err != nil {
			return nil, err
		}
		if inv.Timestamp, err = time.Parse(time.RFC3339Nano, ts); err != nil {
			return nil, fmt.Errorf("parse timestamp %q: %w", ts, err)
		}
		out = append(out, inv)
	}
	return out, rows.Err()
}

// RecordMiss persists a command name that did not resolve. A missing ID or
// timestamp is filled in.
func (s *SQLiteStore) RecordMiss(ctx context.Context, m model.Miss) error {
	if m.ID == "" {
		m.ID = uuid.New().String()
	}
	if m.Timestamp.IsZero() {
		m.Timestamp = time.Now()
	}
	args, err := encodeArgs(m.Args)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO misses (id, program, command, args, flags, cwd, timestamp)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		m.ID,
		nullableString(m.Program),
		m.Command,
		args,
		nullableJSON(m.Flags),
		nullableString(m.CWD),
		m.Timestamp.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("insert miss: %w", err)
	}
	return nil
}

// ListMisses returns misses matching the given filter options, newest first.
func (s *SQLiteStore) ListMisses(ctx context.Context, opts MissOpts) ([]model.Miss, error) {
	query := "SELECT id, program, command, args, flags, cwd, timestamp FROM misses WHERE 1=1"
	var args []any

	if !opts.Since.IsZero() {
		query += " AND timestamp >= ?"
		args = append(args, opts.Since.UTC().Format(time.RFC3339Nano))
	}
	if opts.Program != "" {
		query += " AND program = ?"
		args = append(args, opts.Program)
	}
	if opts.Command != "" {
		query += " AND lower(command) = ?"
		args = append(args, strings.ToLower(opts.Command))
	}
	query += " ORDER BY timestamp DESC"
	if opts.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", opts.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list misses: %w", err)
	}
	defer rows.Close()

	var out []model.Miss
	for rows.Next() {
		var m model.Miss
		var program, argsJSON, flags, cwd sql.NullString
		var ts string
		if err := rows.Scan(&m.ID, &program, &m.Command, &argsJSON, &flags, &cwd, &ts); err != nil {
			return nil, fmt.Errorf("scan miss: %w", err)
		}
		m.Program = program.String
		m.CWD = cwd.String
		if flags.Valid && flags.String != "" {
			m.Flags = []byte(flags.String)
		}
		if m.Args, err = decodeArgs(argsJSON); err != nil {
			return nil, err
		}
		if m.Timestamp, err = time.Parse(time.RFC3339Nano, ts); err != nil {
			return nil, fmt.Errorf("parse timestamp %q: %w", ts, err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// GetPaths returns misses aggregated by lowercase command name, ranked by
// frequency, with any alias configured for the name.
func (s *SQLiteStore) GetPaths(ctx context.Context, opts PathOpts) ([]model.Path, error) {
	query := `SELECT
		lower(m.command) AS pattern,
		COUNT(*) AS cnt,
		MIN(m.timestamp) AS first_seen,
		MAX(m.timestamp) AS last_seen,
		a.to_name
	FROM misses m
	LEFT JOIN aliases a ON a.from_name = lower(m.command)`

	var args []any
	if !opts.Since.IsZero() {
		query += " WHERE m.timestamp >= ?"
		args = append(args, opts.Since.UTC().Format(time.RFC3339Nano))
	}
	query += " GROUP BY pattern ORDER BY cnt DESC, pattern"
	if opts.Top > 0 {
		query += fmt.Sprintf(" LIMIT %d", opts.Top)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("get paths: %w", err)
	}
	defer rows.Close()

	var paths []model.Path
	for rows.Next() {
		var p model.Path
		var firstSeen, lastSeen string
		var aliasTo sql.NullString
		if err := rows.Scan(&p.Pattern, &p.Count, &firstSeen, &lastSeen, &aliasTo); err != nil {
			return nil, fmt.Errorf("scan path: %w", err)
		}
		p.FirstSeen, _ = time.Parse(time.RFC3339Nano, firstSeen)
		p.LastSeen, _ = time.Parse(time.RFC3339Nano, lastSeen)
		p.AliasTo = aliasTo.String
		paths = append(paths, p)
	}
	return paths, rows.Err()
}

// SetAlias creates or updates a command alias. Both names are stored
// lowercase, matching the registry.
func (s *SQLiteStore) SetAlias(ctx context.Context, a model.Alias) error {
	if a.From == "" || a.To == "" {
		return fmt.Errorf("set alias: from and to must be non-empty")
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO aliases (from_name, to_name, created_at) VALUES (?, ?, ?)`,
		strings.ToLower(a.From), strings.ToLower(a.To),
		time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("set alias: %w", err)
	}
	return nil
}

// GetAlias returns the alias for from, or nil if not found.
func (s *SQLiteStore) GetAlias(ctx context.Context, from string) (*model.Alias, error) {
	var a model.Alias
	var createdAt string
	err := s.db.QueryRowContext(ctx,
		`SELECT from_name, to_name, created_at FROM aliases WHERE from_name = ?`,
		strings.ToLower(from),
	).Scan(&a.From, &a.To, &createdAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get alias: %w", err)
	}
	a.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
	return &a, nil
}

// GetAliases returns all configured aliases ordered by source name.
func (s *SQLiteStore) GetAliases(ctx context.Context) ([]model.Alias, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT from_name, to_name, created_at FROM aliases ORDER BY from_name`)
	if err != nil {
		return nil, fmt.Errorf("get aliases: %w", err)
	}
	defer rows.Close()

	var aliases []model.Alias
	for rows.Next() {
		var a model.Alias
		var createdAt string
		if err := rows.Scan(&a.From, &a.To, &createdAt); err != nil {
			return nil, fmt.Errorf("scan alias: %w", err)
		}
		a.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
		aliases = append(aliases, a)
	}
	return aliases, rows.Err()
}

// DeleteAlias removes the alias for from. Returns true if deleted.
func (s *SQLiteStore) DeleteAlias(ctx context.Context, from string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM aliases WHERE from_name = ?`, strings.ToLower(from))
	if err != nil {
		return false, fmt.Errorf("delete alias: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n > 0, nil
}

// Stats returns summary statistics about the stored history.
func (s *SQLiteStore) Stats(ctx context.Context) (Stats, error) {
	var st Stats

	counts := []struct {
		query string
		dst   *int
	}{
		{"SELECT COUNT(*) FROM invocations", &st.TotalInvocations},
		{"SELECT COUNT(*) FROM invocations WHERE error IS NOT NULL AND error != ''", &st.FailedRuns},
		{"SELECT COUNT(*) FROM misses", &st.TotalMisses},
		{"SELECT COUNT(DISTINCT lower(command)) FROM misses", &st.UniqueMisses},
		{"SELECT COUNT(*) FROM aliases", &st.Aliases},
	}
	for _, c := range counts {
		if err := s.db.QueryRowContext(ctx, c.query).Scan(c.dst); err != nil {
			return st, fmt.Errorf("stats count: %w", err)
		}
	}

	var err error
	st.TopCommands, err = s.topNames(ctx,
		"SELECT resolved, COUNT(*) AS cnt FROM invocations GROUP BY resolved ORDER BY cnt DESC, resolved LIMIT 5")
	if err != nil {
		return st, fmt.Errorf("top commands: %w", err)
	}
	st.TopMisses, err = s.topNames(ctx,
		"SELECT lower(command) AS name, COUNT(*) AS cnt FROM misses GROUP BY name ORDER BY cnt DESC, name LIMIT 5")
	if err != nil {
		return st, fmt.Errorf("top misses: %w", err)
	}

	// Date range across both tables.
	if st.TotalInvocations+st.TotalMisses > 0 {
		var earliest, latest string
		if err := s.db.QueryRowContext(ctx,
			`SELECT MIN(timestamp), MAX(timestamp) FROM (
				SELECT timestamp FROM invocations UNION ALL SELECT timestamp FROM misses
			)`).Scan(&earliest, &latest); err != nil {
			return st, fmt.Errorf("date range: %w", err)
		}
		st.Earliest, _ = time.Parse(time.RFC3339Nano, earliest)
		st.Latest, _ = time.Parse(time.RFC3339Nano, latest)
	}

	// Time-window counts of invocations.
	now := time.Now().UTC()
	for _, w := range []struct {
		dur time.Duration
		dst *int
	}{
		{24 * time.Hour, &st.Last24h},
		{7 * 24 * time.Hour, &st.Last7d},
		{30 * 24 * time.Hour, &st.Last30d},
	} {
		since := now.Add(-w.dur).Format(time.RFC3339Nano)
		if err := s.db.QueryRowContext(ctx,
			"SELECT COUNT(*) FROM invocations WHERE timestamp >= ?", since).Scan(w.dst); err != nil {
			return st, fmt.Errorf("count since %v: %w", w.dur, err)
		}
	}

	return st, nil
}

func (s *SQLiteStore) topNames(ctx context.Context, query string) ([]NameCount, error) {
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []NameCount
	for rows.Next() {
		var nc NameCount
		if err := rows.Scan(&nc.Name, &nc.Count); err != nil {
			return nil, err
		}
		out = append(out, nc)
	}
	return out, rows.Err()
}

// Close releases the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// encodeArgs stores positional args as a JSON array; nil for none.
func encodeArgs(args []string) (any, error) {
	if len(args) == 0 {
		return nil, nil
	}
	data, err := json.Marshal(args)
	if err != nil {
		return nil, fmt.Errorf("encode args: %w", err)
	}
	return string(data), nil
}

func decodeArgs(col sql.NullString) ([]string, error) {
	if !col.Valid || col.String == "" {
		return nil, nil
	}
	var args []string
	if err := json.Unmarshal([]byte(col.String), &args); err != nil {
		return nil, fmt.Errorf("decode args: %w", err)
	}
	return args, nil
}

// nullableString returns nil for empty strings, otherwise the string value.
func nullableString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// nullableJSON returns nil for nil/empty JSON, otherwise the string representation.
func nullableJSON(data []byte) any {
	if len(data) == 0 {
		return nil
	}
	return string(data)
}
