package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"flowlog-tagger/internal/app"
	"flowlog-tagger/internal/config"
)

func main() {
	cfg, err := config.Parse(os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: error: %v, try --help\n", config.AppName, err)
		os.Exit(2)
	}

	// Cancelling only stops object store requests; local reads run to the end.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	code := app.Run(ctx, cfg, os.Stdout, os.Stderr)
	stop()

	os.Exit(code)
}
