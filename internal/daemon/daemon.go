package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"path/filepath"
	"sync/atomic"

	"github.com/gofrs/flock"

	"mastergate/internal/config"
	"mastergate/internal/logging"
	"mastergate/internal/queue"
	"mastergate/internal/server"
)

// Daemon owns the long-running gate service: the API listener plus a
// flock-enforced single-instance guarantee.
type Daemon struct {
	cfg    *config.Config
	logger *slog.Logger
	store  *queue.Store
	api    *server.Server

	lockPath string
	lock     *flock.Flock

	running atomic.Bool
	cancel  context.CancelFunc
}

// Status represents daemon runtime information.
type Status struct {
	Running      bool
	APIAddress   string
	QueueDBPath  string
	LockFilePath string
}

// New constructs a daemon serving the provided API handler.
func New(cfg *config.Config, store *queue.Store, handler http.Handler, logger *slog.Logger) (*Daemon, error) {
	if cfg == nil || store == nil || handler == nil {
		return nil, errors.New("daemon requires config, store, and http handler")
	}

	api, err := server.NewServer(cfg.Paths.APIBind, handler, logger)
	if err != nil {
		return nil, err
	}

	lockPath := filepath.Join(cfg.Paths.LogDir, "mastergated.lock")
	return &Daemon{
		cfg:      cfg,
		logger:   logging.NewComponentLogger(logger, "daemon"),
		store:    store,
		api:      api,
		lockPath: lockPath,
		lock:     flock.New(lockPath),
	}, nil
}

// Start acquires the single-instance lock and begins serving the API.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another mastergated instance is already running")
	}

	runCtx, cancel := context.WithCancel(ctx)
	if err := d.api.Start(runCtx); err != nil {
		cancel()
		_ = d.lock.Unlock()
		return err
	}
	d.cancel = cancel

	d.running.Store(true)
	d.logger.Info("gate daemon started",
		logging.String("lock", d.lockPath),
		logging.String("api", d.api.Addr()))
	return nil
}

// Stop shuts the API down and releases the lock.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}
	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	d.api.Stop()
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release daemon lock", logging.Error(err))
	}
	d.running.Store(false)
	d.logger.Info("gate daemon stopped")
}

// Status reports runtime information for CLI display.
func (d *Daemon) Status() Status {
	return Status{
		Running:      d.running.Load(),
		APIAddress:   d.api.Addr(),
		QueueDBPath:  d.store.Path(),
		LockFilePath: d.lockPath,
	}
}

// Close releases resources; safe after Stop.
func (d *Daemon) Close() {
	d.Stop()
}
