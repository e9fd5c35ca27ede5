// Command greet is a small example program built on the dispatcher.
package main

import (
	"context"
	"os"
	"os/signal"

	"github.com/scbrown/dispatch/internal/config"
	"github.com/scbrown/dispatch/internal/greet"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	code := greet.Run(ctx, greet.Options{
		ConfigPath: config.Path(),
		Stdout:     os.Stdout,
		Stderr:     os.Stderr,
	})
	stop()
	os.Exit(code)
}
