// Package main provides the RMA question-answering server entry point.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/rmadesk/rma-qa/internal/app"
	"github.com/rmadesk/rma-qa/internal/config"
	"github.com/rmadesk/rma-qa/internal/sentry"
)

func main() {
	os.Exit(run())
}

func run() int {
	cfg, err := config.Load()
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		return 1
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.RequestTimeout)
	application, err := app.Initialize(ctx, cfg)
	cancel()
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Failed to initialize: %v\n", err)
		sentry.Flush(config.SentryFlush)
		return 1
	}

	if err := application.Run(); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Server error: %v\n", err)
		return 1
	}
	return 0
}
