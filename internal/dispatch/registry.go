package dispatch

import "strings"

// Command is a registered name and the handlers attached to it, in
// registration order.
type Command struct {
	Name     string
	Handlers []Handler
}

// Registry maps lowercase command names to commands. It only grows: there is
// no removal. Registration order is kept because prefix matching scans names
// in that order.
type Registry struct {
	commands map[string]*Command
	order    []string
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{commands: make(map[string]*Command)}
}

// Add appends handler to the handler list of every given name, creating the
// entry when the name is new. Names are stored lowercase.
func (r *Registry) Add(handler Handler, names ...string) {
	for _, n := range names {
		n = strings.ToLower(n)
		cmd, ok := r.commands[n]
		if !ok {
			cmd = &Command{Name: n}
			r.commands[n] = cmd
			r.order = append(r.order, n)
		}
		cmd.Handlers = append(cmd.Handlers, handler)
	}
}

// Exists reports whether name, lowercased, is registered. It does no prefix
// matching.
func (r *Registry) Exists(name string) bool {
	_, ok := r.commands[strings.ToLower(name)]
	return ok
}

// List returns a snapshot of the registered names.
func (r *Registry) List() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// Resolve finds the command for name: an exact lowercase match first, then
// the first name in registration order that either prefixes name or starts
// with it. The returned Command is a copy.
func (r *Registry) Resolve(name string) (Command, bool) {
	cmd, _, ok := r.resolve(name)
	if !ok {
		return Command{}, false
	}
	out := Command{Name: cmd.Name, Handlers: make([]Handler, len(cmd.Handlers))}
	copy(out.Handlers, cmd.Handlers)
	return out, true
}

// matchKind records how resolve found a command, for logging.
type matchKind string

const (
	matchExact matchKind = "exact"
	matchLoose matchKind = "loose"
)

func (r *Registry) resolve(name string) (*Command, matchKind, bool) {
	lower := strings.ToLower(name)
	if cmd, ok := r.commands[lower]; ok {
		return cmd, matchExact, true
	}
	if lower == "" {
		return nil, "", false
	}
	for _, key := range r.order {
		if strings.HasPrefix(lower, key) || strings.HasPrefix(key, lower) {
			return r.commands[key], matchLoose, true
		}
	}
	return nil, "", false
}
