// File: main.go
package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/igor20192/HumanFlow/cmd"
)

// main is the entry point for the HumanFlow CLI.
func main() {
	// Interrupt signals cancel the run context for a graceful shutdown; the
	// session release still runs on that path.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cmd.ExecuteContext(ctx)
}
