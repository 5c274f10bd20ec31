package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	"messageboard/internal/config"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name      string
		cfg       config.Config
		wantLevel zapcore.Level
		wantErr   bool
	}{
		{"development text", config.Config{GoEnv: "development", LogLevel: "debug", LogFormat: "text"}, zapcore.DebugLevel, false},
		{"production json", config.Config{GoEnv: "production", LogLevel: "warn", LogFormat: "json"}, zapcore.WarnLevel, false},
		{"bad level", config.Config{GoEnv: "production", LogLevel: "shout", LogFormat: "json"}, zapcore.InfoLevel, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, err := New(&tt.cfg)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.True(t, l.Core().Enabled(tt.wantLevel))
			assert.False(t, l.Core().Enabled(tt.wantLevel-1))
		})
	}
}
