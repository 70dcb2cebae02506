package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/desertthunder/sp2yt/internal/shared"
)

func main() {
	logger := shared.NewLogger(nil)

	// An interrupt cancels the running session, which checkpoints before returning.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	runner := NewRunner(RunnerOpts{Logger: logger})
	app := runner.Command()

	if err := app.Run(ctx, os.Args); err != nil {
		stop()
		logger.Fatalf("application error: %v", err)
	}
}
