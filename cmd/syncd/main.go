package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/iudanet/journalsync/internal/app"
	"github.com/iudanet/journalsync/internal/config"
	"github.com/iudanet/journalsync/internal/server"
)

var (
	// Version information set via ldflags during build
	Version   = "dev"
	BuildDate = "unknown"
	GitCommit = "unknown"
)

func main() {
	showVersion := flag.Bool("version", false, "Show version information")
	flag.Parse()

	if *showVersion {
		printVersion()
		os.Exit(0)
	}

	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	settings, err := config.LoadSettings()
	if err != nil {
		return fmt.Errorf("invalid settings: %w", err)
	}
	logger := config.SetupLogger(settings)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := app.Open(ctx, settings, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := a.Close(); err != nil {
			logger.Error("Failed to close application", "error", err)
		}
	}()

	a.Start(ctx)

	logger.Info("Sync daemon starting",
		"version", Version,
		"addr", settings.ListenAddr,
		"provider", settings.Provider)

	srv := server.New(settings.ListenAddr, server.NewRouter(a, Version, logger), settings.ShutdownTimeout, logger)
	return srv.Run(ctx)
}

func printVersion() {
	fmt.Printf("Journal Sync Daemon\n")
	fmt.Printf("Version:    %s\n", Version)
	fmt.Printf("Build Date: %s\n", BuildDate)
	fmt.Printf("Git Commit: %s\n", GitCommit)
}
