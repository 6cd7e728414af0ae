// Package main is the entry point for the decaying binary. It supports
// two subcommands:
//
//   - serve: runs an HTTP key/value store whose keys decay after a lifespan
//   - demo:  walks through bag, set and map decay on the console
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"decaying/internal/cmd"
	"decaying/internal/config"
)

// version is injected at build time via -ldflags
// (e.g. -ldflags "-X main.version=v1.2.3").
var version = "devel"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	conf, err := config.New()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	rootCmd, err := cmd.NewRootCommand(conf, version)
	if err != nil {
		return fmt.Errorf("failed to initialize application: %w", err)
	}

	return rootCmd.ExecuteContext(ctx)
}
