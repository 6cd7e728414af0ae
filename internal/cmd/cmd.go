// Package cmd builds the cobra commands of the decaying binary.
package cmd

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"decaying/internal/config"
)

// NewRootCommand returns the root command with every subcommand registered.
func NewRootCommand(conf *config.Config, version string) (*cobra.Command, error) {
	c := &cobra.Command{
		Use:           "decaying",
		Short:         "Time-decaying in-memory collections",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	serveCmd, err := NewServeCommand(conf)
	if err != nil {
		return nil, err
	}

	demoCmd, err := NewDemoCommand(conf)
	if err != nil {
		return nil, err
	}

	c.AddCommand(serveCmd, demoCmd)

	return c, nil
}

// setupLogger installs the process-wide text logger on stderr.
func setupLogger(debug bool) {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
}
