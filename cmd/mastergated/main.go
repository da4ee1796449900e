// mastergated is the gate daemon. It opens the submission queue, binds the
// HTTP API, and holds a lock file so only one instance runs per queue database.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"mastergate/internal/analysis"
	"mastergate/internal/audit"
	"mastergate/internal/auth"
	"mastergate/internal/config"
	"mastergate/internal/daemon"
	"mastergate/internal/gate"
	"mastergate/internal/logging"
	"mastergate/internal/queue"
	"mastergate/internal/server"
	"mastergate/internal/simulate"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "mastergated: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := flag.String("config", "", "path to configuration file")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, resolvedPath, exists, err := config.Load(*configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if !exists {
		fmt.Fprintf(os.Stderr, "no config file at %s, using defaults\n", resolvedPath)
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return fmt.Errorf("prepare directories: %w", err)
	}

	logger, err := logging.NewFromConfig(cfg)
	if err != nil {
		return fmt.Errorf("init logging: %w", err)
	}

	store, err := queue.Open(cfg)
	if err != nil {
		return fmt.Errorf("open queue: %w", err)
	}
	defer store.Close()

	tokens, err := auth.New(cfg)
	if err != nil {
		return fmt.Errorf("init auth: %w", err)
	}

	analyzer := analysis.New(cfg, logger)
	simulator := simulate.New(cfg, analyzer, logger)
	recorder := audit.NewRecorder(store, logger)
	orchestrator := gate.New(cfg, store, analyzer, simulator, store, recorder, logger)

	handler, err := server.NewHTTPHandler(server.Dependencies{
		Tokens:       tokens,
		Orchestrator: orchestrator,
		Store:        store,
		Auditor:      recorder,
		Logger:       logger,
	})
	if err != nil {
		return fmt.Errorf("build api: %w", err)
	}

	d, err := daemon.New(cfg, store, handler, logger)
	if err != nil {
		return fmt.Errorf("init daemon: %w", err)
	}
	defer d.Close()

	if err := d.Start(ctx); err != nil {
		return fmt.Errorf("start daemon: %w", err)
	}

	status := d.Status()
	logger.Info("daemon started",
		logging.String("api", status.APIAddress),
		logging.String("queue_db", status.QueueDBPath),
	)

	<-ctx.Done()
	logger.Info("shutting down")
	d.Stop()
	return nil
}
