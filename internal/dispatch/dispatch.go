// Package dispatch resolves a command name to registered handlers and runs
// them.
//
// A Dispatcher owns a Registry and an ordered list of before-hooks. Start
// reads parsed arguments, runs every hook, resolves the first positional
// argument to a command, and runs that command's handlers one after another.
// Nothing runs concurrently: each hook and handler returns before the next
// one starts, so later handlers may rely on the side effects of earlier ones.
//
// Failures come in two shapes. A *NotFoundError means resolution failed and
// can be intercepted by passing a DefaultHandler to Start. Any other error
// comes from a hook or handler and is returned to the caller unchanged. A
// before-hook returning the boolean false is neither: it stops the dispatch
// and Start returns nil, nil.
package dispatch

import (
	"context"
	"log/slog"
	"time"

	"github.com/scbrown/dispatch/internal/argv"
	"github.com/scbrown/dispatch/internal/ctxlog"
)

// Call carries the arguments a hook or handler is invoked with. Command is
// the name as typed, not the registered name it resolved to.
type Call struct {
	Args    []string
	Flags   map[string]argv.Value
	Command string
}

// Flag returns the flag stored under key.
func (c Call) Flag(key string) (argv.Value, bool) {
	v, ok := c.Flags[key]
	return v, ok
}

// Handler is a command handler or before-hook. A before-hook that returns
// the boolean false halts the dispatch.
type Handler func(ctx context.Context, call Call) (any, error)

// DefaultHandler is given to Start to handle a missing or unknown command.
// When no command was given, name is "" and nf is nil; when the command was
// not found, nf carries it. results is always empty.
type DefaultHandler func(ctx context.Context, name string, nf *NotFoundError, call Call, results []any) (any, error)

// Dispatcher owns a command registry and the before-hooks run by Start. It
// is built during a setup phase and must not be mutated while dispatching.
// It is not safe for concurrent Start calls.
type Dispatcher struct {
	*Registry

	hooks    []Handler
	aliases  map[string]string
	defaults map[string]argv.Value
	tokens   []string
	parsed   *argv.Parsed
	logger   *slog.Logger
	observer Observer
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithAliases sets the flag alias table used to parse WithTokens input. The
// process arguments are parsed with the table given to
// argv.SetProcessConfig instead.
func WithAliases(aliases map[string]string) Option {
	return func(d *Dispatcher) { d.aliases = aliases }
}

// WithDefaultFlags sets flags merged into every dispatch for keys the input
// did not set.
func WithDefaultFlags(defaults map[string]argv.Value) Option {
	return func(d *Dispatcher) { d.defaults = defaults }
}

// WithTokens makes Start parse tokens, a full stream including the
// environment preamble, instead of the process arguments.
func WithTokens(tokens []string) Option {
	return func(d *Dispatcher) { d.tokens = tokens }
}

// WithParsed makes Start use p instead of parsing anything.
func WithParsed(p *argv.Parsed) Option {
	return func(d *Dispatcher) { d.parsed = p }
}

// WithLogger sets the logger used when the context carries none.
func WithLogger(logger *slog.Logger) Option {
	return func(d *Dispatcher) { d.logger = logger }
}

// WithObserver registers an observer notified of command runs and misses.
func WithObserver(o Observer) Option {
	return func(d *Dispatcher) { d.observer = o }
}

// New returns a Dispatcher with an empty registry.
func New(opts ...Option) *Dispatcher {
	d := &Dispatcher{Registry: NewRegistry()}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Before appends a hook run by Start ahead of command resolution.
func (d *Dispatcher) Before(h Handler) {
	d.hooks = append(d.hooks, h)
}

// Start dispatches the configured input: explicit parsed arguments, then
// tokens, then the process arguments. See StartWith.
func (d *Dispatcher) Start(ctx context.Context, def DefaultHandler) ([]any, error) {
	return d.StartWith(ctx, d.input(), def)
}

// StartWith runs the before-hooks, then resolves and runs the command named
// by the first positional argument of p. When def handles a missing or
// unknown command, its result is returned as the single element of the
// results.
func (d *Dispatcher) StartWith(ctx context.Context, p *argv.Parsed, def DefaultHandler) ([]any, error) {
	log := d.log(ctx)
	call := Call{
		Args:    p.Rest(),
		Flags:   d.mergeDefaults(p.Flags),
		Command: p.Command(),
	}

	for i, hook := range d.hooks {
		res, err := hook(ctx, call)
		if err != nil {
			log.Debug("before-hook failed", "hook", i, "error", err)
			return nil, err
		}
		if halts(res) {
			log.Debug("dispatch halted by before-hook", "hook", i, "command", call.Command)
			return nil, nil
		}
	}

	if call.Command == "" {
		if def == nil {
			return nil, nil
		}
		return runDefault(ctx, def, "", nil, call)
	}

	cmd, kind, ok := d.resolve(call.Command)
	if !ok {
		nf := d.notFound(ctx, call)
		if d.observer != nil {
			d.observer.Missed(ctx, Miss{Command: call.Command, Args: call.Args, Flags: call.Flags})
		}
		if def == nil {
			return nil, nf
		}
		return runDefault(ctx, def, call.Command, nf, call)
	}
	log.Debug("command resolved", "command", call.Command, "resolved", cmd.Name, "match", string(kind))
	return d.execute(ctx, cmd, call)
}

// Run resolves name and runs its handlers in order without before-hooks. It
// returns one result per handler, a *NotFoundError when nothing matches, or
// the first handler error unchanged. Only Start reports misses to the
// observer; a Run that resolves is reported like any other command run.
func (d *Dispatcher) Run(ctx context.Context, name string, args []string, flags map[string]argv.Value) ([]any, error) {
	if args == nil {
		args = []string{}
	}
	if flags == nil {
		flags = make(map[string]argv.Value)
	}
	call := Call{Args: args, Flags: flags, Command: name}

	cmd, kind, ok := d.resolve(name)
	if !ok {
		return nil, d.notFound(ctx, call)
	}
	d.log(ctx).Debug("command resolved", "command", name, "resolved", cmd.Name, "match", string(kind))
	return d.execute(ctx, cmd, call)
}

func (d *Dispatcher) execute(ctx context.Context, cmd *Command, call Call) ([]any, error) {
	log := d.log(ctx)
	start := time.Now()
	results := make([]any, 0, len(cmd.Handlers))

	var runErr error
	for i, h := range cmd.Handlers {
		res, err := h(ctx, call)
		if err != nil {
			log.Debug("handler failed", "command", cmd.Name, "handler", i, "error", err)
			runErr = err
			break
		}
		results = append(results, res)
	}

	if d.observer != nil {
		d.observer.Invoked(ctx, Invocation{
			Command:  call.Command,
			Resolved: cmd.Name,
			Args:     call.Args,
			Flags:    call.Flags,
			Err:      runErr,
			Duration: time.Since(start),
		})
	}

	if runErr != nil {
		return nil, runErr
	}
	return results, nil
}

func (d *Dispatcher) notFound(ctx context.Context, call Call) *NotFoundError {
	d.log(ctx).Debug("command not found", "command", call.Command)
	return &NotFoundError{Command: call.Command}
}

func runDefault(ctx context.Context, def DefaultHandler, name string, nf *NotFoundError, call Call) ([]any, error) {
	res, err := def(ctx, name, nf, call, []any{})
	if err != nil {
		return nil, err
	}
	return []any{res}, nil
}

// input returns the parsed arguments Start dispatches. Tokens are parsed
// once and kept.
func (d *Dispatcher) input() *argv.Parsed {
	if d.parsed != nil {
		return d.parsed
	}
	if d.tokens != nil {
		d.parsed = argv.Parse(d.tokens, d.aliases, nil)
		return d.parsed
	}
	return argv.Process()
}

// mergeDefaults copies flags and adds the dispatcher defaults for absent
// keys. The input map is never modified.
func (d *Dispatcher) mergeDefaults(flags map[string]argv.Value) map[string]argv.Value {
	out := make(map[string]argv.Value, len(flags)+len(d.defaults))
	for k, v := range flags {
		out[k] = v
	}
	for k, v := range d.defaults {
		if _, ok := out[k]; !ok {
			out[k] = v
		}
	}
	return out
}

func (d *Dispatcher) log(ctx context.Context) *slog.Logger {
	if logger, ok := ctxlog.Lookup(ctx); ok {
		return logger
	}
	if d.logger != nil {
		return d.logger
	}
	return slog.Default()
}

// halts reports whether a hook result is exactly the boolean false.
func halts(res any) bool {
	b, ok := res.(bool)
	return ok && !b
}
