// Package fallback provides the default handler used when no command is
// given or the given name resolves to nothing.
package fallback

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/scbrown/dispatch/internal/analyze"
	"github.com/scbrown/dispatch/internal/ctxlog"
	"github.com/scbrown/dispatch/internal/dispatch"
	"github.com/scbrown/dispatch/internal/store"
)

// New returns a DefaultHandler for d.
//
// With no command it writes the registered command names to w. For an
// unknown name it first consults the alias table in s (which may be nil)
// and runs the alias target through d.Run; otherwise it writes the closest
// registered names to w and returns the original *NotFoundError.
//
// A followed alias returns the target's handler results as one value, and
// Start wraps every default handler result in a single-element slice, so
// Start yields []any{[]any{r1, r2, ...}} where a direct run yields
// []any{r1, r2, ...}. Use Results to flatten it.
func New(d *dispatch.Dispatcher, s store.Store, w io.Writer) dispatch.DefaultHandler {
	return func(ctx context.Context, name string, nf *dispatch.NotFoundError, call dispatch.Call, _ []any) (any, error) {
		if nf == nil {
			writeUsage(w, d.List())
			return nil, nil
		}

		if s != nil {
			alias, err := s.GetAlias(ctx, name)
			if err != nil {
				ctxlog.FromContext(ctx).Warn("alias lookup failed", "command", name, "error", err)
			} else if alias != nil {
				ctxlog.FromContext(ctx).Debug("following alias", "from", alias.From, "to", alias.To)
				return d.Run(ctx, alias.To, call.Args, call.Flags)
			}
		}

		writeUnknown(w, name, analyze.Names(analyze.Suggest(name, d.List())))
		return nil, nf
	}
}

// Results returns the handler results inside a Start result that went
// through the handler from New: the target's results for a followed alias,
// res itself otherwise.
func Results(res []any) []any {
	if len(res) == 1 {
		if inner, ok := res[0].([]any); ok {
			return inner
		}
	}
	return res
}

func writeUsage(w io.Writer, names []string) {
	if len(names) == 0 {
		fmt.Fprintln(w, "No commands registered.")
		return
	}
	sorted := append([]string(nil), names...)
	sort.Strings(sorted)
	fmt.Fprintln(w, "Commands:")
	for _, n := range sorted {
		fmt.Fprintf(w, "  %s\n", n)
	}
}

func writeUnknown(w io.Writer, name string, suggestions []string) {
	fmt.Fprintf(w, "unknown command %q\n", name)
	if len(suggestions) == 0 {
		return
	}
	fmt.Fprintf(w, "\nDid you mean:\n  %s\n", strings.Join(suggestions, "\n  "))
}
