package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/kbukum/resourcekit/logger"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCommand().ExecuteContext(ctx); err != nil {
		logger.Error("tilctl failed", logger.Fields(logger.FieldError, err.Error()))
		stop()
		os.Exit(1)
	}
}
