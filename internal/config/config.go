// Package config handles reading and writing the dispatch configuration file (~/.dsp/config.toml).
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	toml "github.com/pelletier/go-toml/v2"

	"github.com/scbrown/dispatch/internal/argv"
)

// Config holds dispatch configuration settings.
type Config struct {
	DBPath        string            `toml:"db_path,omitempty" json:"db_path,omitempty"`
	DefaultFormat string            `toml:"default_format,omitempty" json:"default_format,omitempty"`
	History       string            `toml:"history,omitempty" json:"history,omitempty"`
	FlagAliases   map[string]string `toml:"flag_aliases,omitempty" json:"flag_aliases,omitempty"`
	DefaultFlags  map[string]any    `toml:"default_flags,omitempty" json:"default_flags,omitempty"`
}

// validKeys lists the allowed configuration keys.
var validKeys = map[string]bool{
	"db_path":        true,
	"default_format": true,
	"history":        true,
	"flag_aliases":   true,
	"default_flags":  true,
}

// ValidKeys returns the sorted list of valid configuration keys.
func ValidKeys() []string {
	return []string{"db_path", "default_flags", "default_format", "flag_aliases", "history"}
}

// Dir returns the dispatch data directory (~/.dsp).
func Dir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", ".dsp")
	}
	return filepath.Join(home, ".dsp")
}

// Path returns the default config file path (~/.dsp/config.toml).
func Path() string {
	return filepath.Join(Dir(), "config.toml")
}

// DefaultDBPath returns the default history database path (~/.dsp/history.db).
func DefaultDBPath() string {
	return filepath.Join(Dir(), "history.db")
}

// Load reads the config from the default path.
func Load() (*Config, error) {
	return LoadFrom(Path())
}

// LoadFrom reads the config from a specific path. Returns an empty Config if
// the file does not exist. Supports both TOML and JSON formats (detected by
// file extension; defaults to TOML).
func LoadFrom(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &Config{}, nil
		}
		return nil, fmt.Errorf("reading config: %w", err)
	}
	var cfg Config
	if filepath.Ext(path) == ".json" {
		err = json.Unmarshal(data, &cfg)
	} else {
		err = toml.Unmarshal(data, &cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	return &cfg, nil
}

// Save writes the config to the default path.
func (c *Config) Save() error {
	return c.SaveTo(Path())
}

// SaveTo writes the config to a specific path, creating parent directories as needed.
// Writes TOML format regardless of file extension.
func (c *Config) SaveTo(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	data, err := toml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// HistoryEnabled reports whether dispatch history should be recorded. It is
// on unless history is set to "off".
func (c *Config) HistoryEnabled() bool {
	return c.History != "off"
}

// Aliases returns the flag alias table for the parser.
func (c *Config) Aliases() map[string]string {
	out := make(map[string]string, len(c.FlagAliases))
	for k, v := range c.FlagAliases {
		out[k] = v
	}
	return out
}

// DefaultFlagValues converts the configured default flags into parser values.
func (c *Config) DefaultFlagValues() (map[string]argv.Value, error) {
	out := make(map[string]argv.Value, len(c.DefaultFlags))
	for k, raw := range c.DefaultFlags {
		v, err := argv.ValueOf(raw)
		if err != nil {
			return nil, fmt.Errorf("default_flags.%s: %w", k, err)
		}
		out[k] = v
	}
	return out, nil
}

// Get returns the string value of a configuration key.
func (c *Config) Get(key string) (string, error) {
	if !validKeys[key] {
		return "", fmt.Errorf("unknown config key %q (valid keys: %s)", key, strings.Join(ValidKeys(), ", "))
	}
	switch key {
	case "db_path":
		return c.DBPath, nil
	case "default_format":
		return c.DefaultFormat, nil
	case "history":
		return c.History, nil
	case "flag_aliases":
		pairs := make(map[string]string, len(c.FlagAliases))
		for k, v := range c.FlagAliases {
			pairs[k] = v
		}
		return joinPairs(pairs), nil
	case "default_flags":
		vals, err := c.DefaultFlagValues()
		if err != nil {
			return "", err
		}
		pairs := make(map[string]string, len(vals))
		for k, v := range vals {
			pairs[k] = v.String()
		}
		return joinPairs(pairs), nil
	default:
		return "", fmt.Errorf("unknown config key %q", key)
	}
}

// Set assigns a value to a configuration key. Map keys take "k=v,k=v";
// default_flags values are typed with the parser's coercion rules.
func (c *Config) Set(key, value string) error {
	if !validKeys[key] {
		return fmt.Errorf("unknown config key %q (valid keys: %s)", key, strings.Join(ValidKeys(), ", "))
	}
	switch key {
	case "db_path":
		c.DBPath = value
	case "default_format":
		if value != "" && value != "table" && value != "json" {
			return fmt.Errorf("default_format must be \"table\" or \"json\", got %q", value)
		}
		c.DefaultFormat = value
	case "history":
		if value != "" && value != "on" && value != "off" {
			return fmt.Errorf("history must be \"on\" or \"off\", got %q", value)
		}
		c.History = value
	case "flag_aliases":
		pairs, err := splitPairs(value)
		if err != nil {
			return fmt.Errorf("flag_aliases: %w", err)
		}
		c.FlagAliases = pairs
	case "default_flags":
		pairs, err := splitPairs(value)
		if err != nil {
			return fmt.Errorf("default_flags: %w", err)
		}
		if pairs == nil {
			c.DefaultFlags = nil
			return nil
		}
		c.DefaultFlags = make(map[string]any, len(pairs))
		for k, raw := range pairs {
			c.DefaultFlags[k] = native(argv.Coerce(raw))
		}
	}
	return nil
}

// splitPairs parses "k=v,k=v". An empty string yields a nil map.
func splitPairs(s string) (map[string]string, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	out := make(map[string]string)
	for _, part := range strings.Split(s, ",") {
		k, v, ok := strings.Cut(part, "=")
		k = strings.TrimSpace(k)
		if !ok || k == "" {
			return nil, fmt.Errorf("expected key=value, got %q", part)
		}
		out[k] = strings.TrimSpace(v)
	}
	return out, nil
}

func joinPairs(m map[string]string) string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k + "=" + m[k]
	}
	return strings.Join(parts, ",")
}

// native converts a scalar parser value to the Go type TOML encodes directly.
func native(v argv.Value) any {
	if n, ok := v.Float(); ok {
		return n
	}
	if b, ok := v.Bool(); ok {
		return b
	}
	return v.String()
}
