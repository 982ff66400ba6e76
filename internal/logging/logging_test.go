package logging

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDefaultConfig(t *testing.T) {
	cfg := NewDefaultConfig()

	assert.Equal(t, "info", cfg.Level)
	assert.Equal(t, "console", cfg.Format)
	assert.NoError(t, cfg.Validate())
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr string
	}{
		{
			name:   "valid json config",
			config: Config{Level: "debug", Format: "json"},
		},
		{
			name:   "valid console config",
			config: Config{Level: "warn", Format: "console"},
		},
		{
			name:    "unknown level",
			config:  Config{Level: "verbose", Format: "json"},
			wantErr: "invalid log level",
		},
		{
			name:    "unknown format",
			config:  Config{Level: "info", Format: "logfmt"},
			wantErr: "invalid log format",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestNew(t *testing.T) {
	t.Run("builds logger with nil config", func(t *testing.T) {
		logger, err := New(nil)
		require.NoError(t, err)
		require.NotNil(t, logger)
		logger.Info("default logger works")
	})

	t.Run("builds json logger", func(t *testing.T) {
		logger, err := New(&Config{Level: "debug", Format: "json"})
		require.NoError(t, err)
		require.NotNil(t, logger)
	})

	t.Run("rejects invalid config", func(t *testing.T) {
		_, err := New(&Config{Level: "nope", Format: "json"})
		assert.Error(t, err)
	})
}
