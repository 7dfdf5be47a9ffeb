package log

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestNewConfigLevels(t *testing.T) {
	tests := []struct {
		name     string
		env      string
		level    string
		expected zapcore.Level
		json     bool
	}{
		{"dev default", "dev", "", zapcore.DebugLevel, false},
		{"prod default", "prod", "", zapcore.InfoLevel, true},
		{"override", "prod", "warn", zapcore.WarnLevel, true},
		{"override upper case", "dev", "ERROR", zapcore.ErrorLevel, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := newConfig(tt.env, tt.level)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, cfg.Level.Level())
			assert.Equal(t, "timestamp", cfg.EncoderConfig.TimeKey)
			if tt.json {
				assert.Equal(t, "json", cfg.Encoding)
			} else {
				assert.Equal(t, "console", cfg.Encoding)
			}
		})
	}
}

func TestNewConfigRejectsUnknownLevel(t *testing.T) {
	_, err := newConfig("dev", "chatty")
	assert.Error(t, err)
}

func TestNewSugar(t *testing.T) {
	logger, err := NewSugar("prod", "")
	require.NoError(t, err)
	assert.NotNil(t, logger)
}
