package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"example.com/photofeed/cmd/cli"
	config "example.com/photofeed/internal/init"
)

func main() {
	// Initialize application configuration
	config.Init()

	// Setup OS signal handling for graceful shutdown (SIGINT, SIGTERM)
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := cli.Execute(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}
