// Package main provides the entry point for the viacv via locator.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"pcb-viacv/internal/app"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := app.Execute(ctx)
	stop()
	os.Exit(code)
}
