package main

import (
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"mastergate/internal/analysis"
	"mastergate/internal/audit"
	"mastergate/internal/config"
	"mastergate/internal/gate"
	"mastergate/internal/logging"
	"mastergate/internal/queue"
	"mastergate/internal/simulate"
)

type commandContext struct {
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

// withStore opens the queue database for the duration of fn.
func (c *commandContext) withStore(fn func(*config.Config, *queue.Store) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	store, err := queue.Open(cfg)
	if err != nil {
		return err
	}
	defer store.Close()
	return fn(cfg, store)
}

// buildOrchestrator wires a local gate pipeline against the given store,
// mirroring the daemon's assembly.
func buildOrchestrator(cfg *config.Config, store *queue.Store) *gate.Orchestrator {
	logger := logging.NewNop()
	analyzer := analysis.New(cfg, logger)
	simulator := simulate.New(cfg, analyzer, logger)
	recorder := audit.NewRecorder(store, logger)
	return gate.New(cfg, store, analyzer, simulator, store, recorder, logger)
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
