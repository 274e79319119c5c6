// Package main provides the entry point for the cardsync CLI tool.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/cardsync/cardsync/cmd/cardsync/cmd"
	"github.com/cardsync/cardsync/pkg/logging"
)

// Version information populated by goreleaser.
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	root := cmd.NewRootCommand(version, commit, date)
	if err := root.ExecuteContext(ctx); err != nil {
		logging.Error().Err(err).Msg("cardsync failed")
		os.Exit(1)
	}
}
