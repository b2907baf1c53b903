package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"autolytiq-desk/internal/cli"
)

func main() {
	// SIGINT/SIGTERM cancel in-flight transactions
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := cli.NewRootCommand().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(cli.ExitCode(err))
	}
}
