// Package config provides configuration loading for mentat.
//
// Configuration is loaded from an optional YAML file and environment
// variables with sensible defaults. One state directory per project holds
// all persisted learning state.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/fyrsmithlabs/mentat/internal/logging"
)

// Config holds the complete mentat configuration.
type Config struct {
	State   StateConfig    `koanf:"state"`
	Logging logging.Config `koanf:"logging"`
	Miner   MinerConfig    `koanf:"miner"`
	Guard   GuardConfig    `koanf:"guard"`
	Server  ServerConfig   `koanf:"server"`
	Watch   WatchConfig    `koanf:"watch"`
}

// StateConfig locates the persisted learning state.
type StateConfig struct {
	Dir        string `koanf:"dir"`         // state directory, relative to the working directory
	PromptFile string `koanf:"prompt_file"` // live prompt file name inside the state directory
}

// MinerConfig holds pattern mining configuration.
type MinerConfig struct {
	MinEvidence int `koanf:"min_evidence"` // failures required before a category is proposed
}

// GuardConfig holds guarded-execution configuration.
type GuardConfig struct {
	TestTimeout Duration `koanf:"test_timeout"` // verification command timeout
	Shell       string   `koanf:"shell"`        // shell used to run the verification command
}

// ServerConfig holds the read-only HTTP API configuration.
type ServerConfig struct {
	Host            string   `koanf:"host"`
	Port            int      `koanf:"http_port"`
	RateLimit       float64  `koanf:"rate_limit"` // requests per second per client
	ShutdownTimeout Duration `koanf:"shutdown_timeout"`
}

// WatchConfig holds prompt-file watcher configuration.
type WatchConfig struct {
	Debounce Duration `koanf:"debounce"` // quiet period before an external edit is archived
}

// NewDefaultConfig returns the configuration used when no file and no
// environment overrides are present.
func NewDefaultConfig() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

// applyDefaults sets default values for missing configuration fields.
func applyDefaults(cfg *Config) {
	if cfg.State.Dir == "" {
		cfg.State.Dir = ".mentat"
	}
	if cfg.State.PromptFile == "" {
		cfg.State.PromptFile = "prompt.md"
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "console"
	}

	if cfg.Miner.MinEvidence == 0 {
		cfg.Miner.MinEvidence = 2
	}

	if cfg.Guard.TestTimeout == 0 {
		cfg.Guard.TestTimeout = Duration(5 * time.Minute)
	}
	if cfg.Guard.Shell == "" {
		cfg.Guard.Shell = "/bin/sh"
	}

	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8484
	}
	if cfg.Server.RateLimit == 0 {
		cfg.Server.RateLimit = 20
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = Duration(10 * time.Second)
	}

	if cfg.Watch.Debounce == 0 {
		cfg.Watch.Debounce = Duration(500 * time.Millisecond)
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.State.Dir == "" {
		return errors.New("state directory cannot be empty")
	}
	if c.State.PromptFile == "" {
		return errors.New("prompt file name cannot be empty")
	}
	if strings.ContainsAny(c.State.PromptFile, "/\\") {
		return fmt.Errorf("prompt file must be a bare file name, got %q", c.State.PromptFile)
	}

	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("logging: %w", err)
	}

	if c.Miner.MinEvidence < 1 {
		return fmt.Errorf("miner min_evidence must be at least 1, got %d", c.Miner.MinEvidence)
	}

	if c.Guard.TestTimeout <= 0 {
		return errors.New("guard test_timeout must be positive")
	}
	if c.Guard.Shell == "" {
		return errors.New("guard shell cannot be empty")
	}

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d (must be 1-65535)", c.Server.Port)
	}
	if c.Server.RateLimit <= 0 {
		return errors.New("server rate_limit must be positive")
	}
	if c.Server.ShutdownTimeout <= 0 {
		return errors.New("server shutdown_timeout must be positive")
	}

	if c.Watch.Debounce < 0 {
		return errors.New("watch debounce cannot be negative")
	}

	return nil
}
