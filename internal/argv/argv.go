// Package argv turns a raw command-line token stream into positional
// arguments and typed flags.
//
// The grammar is deliberately small: a token that does not start with "-" is
// positional; "-k" and "--key" set a boolean flag; "-k=v" and "--key=v" set a
// flag to v, coerced to a number or boolean when it looks like one. Repeating
// a flag collects its values into a list. There is no quoting, no value in the
// following token, and no short-flag bundling.
package argv

import (
	"os"
	"strings"
	"sync"
)

// PreambleLen is the number of leading tokens in a full token stream that
// describe the environment (interpreter and script path) rather than input.
const PreambleLen = 2

// Parsed is the result of parsing a token stream.
type Parsed struct {
	Positional []string         `json:"positional"`
	Flags      map[string]Value `json:"flags"`
}

// Command returns the first positional token, or "" when there is none.
func (p *Parsed) Command() string {
	if len(p.Positional) == 0 {
		return ""
	}
	return p.Positional[0]
}

// Rest returns the positional tokens after the command name.
func (p *Parsed) Rest() []string {
	if len(p.Positional) < 2 {
		return []string{}
	}
	rest := make([]string, len(p.Positional)-1)
	copy(rest, p.Positional[1:])
	return rest
}

// Flag returns the value stored under key.
func (p *Parsed) Flag(key string) (Value, bool) {
	v, ok := p.Flags[key]
	return v, ok
}

// Has reports whether key was set, either on input or from defaults.
func (p *Parsed) Has(key string) bool {
	_, ok := p.Flags[key]
	return ok
}

// Parse parses a full token stream, discarding the PreambleLen leading
// environment tokens first. Keys found in aliases are replaced by their
// canonical name; defaults fill in keys that the input did not set.
func Parse(tokens []string, aliases map[string]string, defaults map[string]Value) *Parsed {
	if len(tokens) <= PreambleLen {
		return ParseTrimmed(nil, aliases, defaults)
	}
	return ParseTrimmed(tokens[PreambleLen:], aliases, defaults)
}

// ParseTrimmed parses a token stream that has already had its preamble
// removed.
func ParseTrimmed(tokens []string, aliases map[string]string, defaults map[string]Value) *Parsed {
	p := &Parsed{
		Positional: []string{},
		Flags:      make(map[string]Value),
	}

	for _, tok := range tokens {
		tok = strings.TrimSpace(tok)
		if !strings.HasPrefix(tok, "-") {
			p.Positional = append(p.Positional, tok)
			continue
		}
		key, val := parseFlag(tok)
		if canonical, ok := aliases[key]; ok {
			key = canonical
		}
		p.set(key, val)
	}

	for key, val := range defaults {
		if _, ok := p.Flags[key]; !ok {
			p.Flags[key] = val
		}
	}
	return p
}

// set stores val under key, promoting to a list on the second occurrence.
func (p *Parsed) set(key string, val Value) {
	existing, ok := p.Flags[key]
	switch {
	case !ok:
		p.Flags[key] = val
	case existing.IsList():
		existing.list = append(existing.list, val)
		p.Flags[key] = existing
	default:
		p.Flags[key] = List(existing, val)
	}
}

// parseFlag splits a flag token into its key and coerced value.
func parseFlag(tok string) (string, Value) {
	body := strings.TrimPrefix(tok, "-")
	if strings.HasPrefix(tok, "--") {
		body = tok[2:]
	}
	key, raw, hasValue := strings.Cut(body, "=")
	key = strings.TrimSpace(key)
	if !hasValue {
		return key, Bool(true)
	}
	return key, Coerce(strings.TrimSpace(raw))
}

var (
	processOnce     sync.Once
	processParsed   *Parsed
	processAliases  map[string]string
	processDefaults map[string]Value
)

// SetProcessConfig sets the alias table and defaults used by Process. It has
// no effect once Process has been called.
func SetProcessConfig(aliases map[string]string, defaults map[string]Value) {
	processAliases = aliases
	processDefaults = defaults
}

// Process parses os.Args on first use and returns the same *Parsed for the
// rest of the process lifetime. Callers share the returned maps and slices;
// mutating them is visible to every later caller.
func Process() *Parsed {
	processOnce.Do(func() {
		// A compiled binary has a single preamble token: its own path.
		var tokens []string
		if len(os.Args) > 1 {
			tokens = os.Args[1:]
		}
		processParsed = ParseTrimmed(tokens, processAliases, processDefaults)
	})
	return processParsed
}
