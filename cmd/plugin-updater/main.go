// Package main is the entry point for the plugin updater.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/stacklok/plugin-updater/cmd/plugin-updater/app"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := app.NewRootCmd().ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}
