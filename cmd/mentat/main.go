// Package main implements the mentat CLI.
//
// mentat manages a self-improving operating prompt for an automated coding
// agent: it records task attempts, reflects on their outcomes, mines
// recurring failures into durable rules, and guards real code edits behind
// a snapshot/verify/revert protocol.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/mentat/internal/config"
	"github.com/fyrsmithlabs/mentat/internal/learning"
	"github.com/fyrsmithlabs/mentat/internal/logging"
	"github.com/fyrsmithlabs/mentat/internal/metrics"
	"github.com/fyrsmithlabs/mentat/internal/redact"
	"github.com/fyrsmithlabs/mentat/internal/state"
)

var (
	// stateDir overrides the configured state directory
	stateDir string
	// configPath points at an optional YAML config file
	configPath string
	// logLevel overrides the configured log level
	logLevel string

	// version information (set via ldflags during build)
	version = "dev"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "mentat",
	Short: "Self-improving operating prompt for automated coding agents",
	Long: `mentat records task attempts and their outcomes, mines recurring
failure categories into durable rules appended to the agent's operating
prompt, versions that prompt over time, and measures whether the learned
rules correlate with later success.

All state lives in one directory per project (default: .mentat).`,
	Version: version,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&stateDir, "state-dir", "", `state directory (default ".mentat")`)
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file path")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warn or error")
}

// loadConfig loads configuration and applies persistent flag overrides.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	if stateDir != "" {
		cfg.State.Dir = stateDir
	}
	if logLevel != "" {
		cfg.Logging.Level = logLevel
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// setup wires the configured logger and learning service.
func setup() (*config.Config, *zap.Logger, *learning.Service, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, nil, err
	}

	logger, err := logging.New(&cfg.Logging)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	store := state.NewStore(cfg.State.Dir, cfg.State.PromptFile)
	svc, err := learning.NewService(store, learning.Config{
		MinEvidence: cfg.Miner.MinEvidence,
		Scrubber:    redact.New(),
		Metrics:     metrics.NewMetrics(),
	}, logger)
	if err != nil {
		return nil, nil, nil, err
	}
	return cfg, logger, svc, nil
}
