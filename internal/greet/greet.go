// Package greet is a small command-line program built on the dispatcher. It
// wires the parser, config, history, and fallback together the way a real
// program would.
package greet

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/scbrown/dispatch/internal/argv"
	"github.com/scbrown/dispatch/internal/config"
	"github.com/scbrown/dispatch/internal/ctxlog"
	"github.com/scbrown/dispatch/internal/dispatch"
	"github.com/scbrown/dispatch/internal/fallback"
	"github.com/scbrown/dispatch/internal/history"
	"github.com/scbrown/dispatch/internal/store"
)

// Program is the name recorded in history.
const Program = "greet"

// Version is set at build time via -ldflags.
var Version = "dev"

// Options configures a run.
type Options struct {
	// Args are the tokens after the program name. Nil means the process
	// arguments, parsed once through argv.Process.
	Args       []string
	ConfigPath string
	Stdout     io.Writer
	Stderr     io.Writer
}

// Run executes one command line and returns the process exit code.
func Run(ctx context.Context, opts Options) int {
	cfg, err := config.LoadFrom(opts.ConfigPath)
	if err != nil {
		fmt.Fprintf(opts.Stderr, "%s: %v\n", Program, err)
		return 1
	}
	defaults, err := cfg.DefaultFlagValues()
	if err != nil {
		fmt.Fprintf(opts.Stderr, "%s: %v\n", Program, err)
		return 1
	}

	var p *argv.Parsed
	if opts.Args == nil {
		argv.SetProcessConfig(cfg.Aliases(), nil)
		p = argv.Process()
	} else {
		p = argv.ParseTrimmed(opts.Args, cfg.Aliases(), nil)
	}

	verbose, _ := p.Flag("verbose")
	logger := ctxlog.New(opts.Stderr, verbose.Truthy())
	ctx = ctxlog.WithLogger(ctx, logger)

	dbPath := cfg.DBPath
	if dbPath == "" {
		dbPath = config.DefaultDBPath()
	}
	var s store.Store
	if db, err := store.New(dbPath); err != nil {
		logger.Warn("history unavailable", "path", dbPath, "error", err)
	} else {
		defer db.Close()
		s = db
	}

	dopts := []dispatch.Option{
		dispatch.WithParsed(p),
		dispatch.WithDefaultFlags(defaults),
		dispatch.WithLogger(logger),
	}
	if s != nil && cfg.HistoryEnabled() {
		dopts = append(dopts, dispatch.WithObserver(history.NewRecorder(s, Program)))
	}
	d := dispatch.New(dopts...)
	register(d, opts.Stdout)

	if _, err := d.Start(ctx, fallback.New(d, s, opts.Stdout)); err != nil {
		fmt.Fprintf(opts.Stderr, "%s: %v\n", Program, err)
		return 1
	}
	return 0
}

// register adds the greet commands and hooks to d, writing output to w.
func register(d *dispatch.Dispatcher, w io.Writer) {
	d.Before(dryRun(w))

	d.Add(func(ctx context.Context, c dispatch.Call) (any, error) {
		msg, err := greeting(c)
		if err != nil {
			return nil, err
		}
		fmt.Fprintln(w, msg)
		return msg, nil
	}, "greet", "hello")

	d.Add(func(ctx context.Context, c dispatch.Call) (any, error) {
		if len(c.Args) == 0 {
			return nil, errors.New("build: no target given")
		}
		mode := "debug"
		if v, ok := c.Flag("release"); ok && v.Truthy() {
			mode = "release"
		}
		fmt.Fprintf(w, "building %s (%s)\n", strings.Join(c.Args, ", "), mode)
		return c.Args, nil
	}, "build")

	d.Add(func(ctx context.Context, c dispatch.Call) (any, error) {
		fmt.Fprintf(w, "%s %s\n", Program, Version)
		return Version, nil
	}, "version")
}

// dryRun is a before-hook that reports the command and halts when
// --dry-run is set.
func dryRun(w io.Writer) dispatch.Handler {
	return func(ctx context.Context, c dispatch.Call) (any, error) {
		if v, ok := c.Flag("dry-run"); ok && v.Truthy() {
			fmt.Fprintf(w, "dry run: %s %s\n", c.Command, strings.Join(c.Args, " "))
			return false, nil
		}
		return nil, nil
	}
}

// maxTimes bounds --times.
const maxTimes = 10

// greeting builds the message for greet/hello. The name comes from the
// first argument, then --name, then "world". --loud shouts and --times
// repeats.
func greeting(c dispatch.Call) (string, error) {
	name := "world"
	if v, ok := c.Flag("name"); ok {
		name = v.Last().String()
	}
	if len(c.Args) > 0 {
		name = strings.Join(c.Args, " ")
	}

	msg := fmt.Sprintf("Hello, %s!", name)
	if v, ok := c.Flag("loud"); ok && v.Truthy() {
		msg = strings.ToUpper(msg)
	}
	if v, ok := c.Flag("times"); ok {
		n, isInt := v.Last().Int()
		if !isInt || n < 1 || n > maxTimes {
			return "", fmt.Errorf("greet: --times must be a whole number from 1 to %d, got %s", maxTimes, v.Last())
		}
		msg = strings.TrimSpace(strings.Repeat(msg+" ", n))
	}
	return msg, nil
}
