package main

import (
	"context"
	"os"

	"github.com/tdh8316/namecheck/internal/app"
)

func main() {
	ctx, signals := app.WatchSignals(context.Background())
	code := app.Run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	signals.Stop()

	os.Exit(signals.ExitCode(code))
}
