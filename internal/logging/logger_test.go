package logging

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestNewAppliesLevel(t *testing.T) {
	for levelStr, want := range map[string]zapcore.Level{
		"":      zapcore.InfoLevel,
		"info":  zapcore.InfoLevel,
		"debug": zapcore.DebugLevel,
		"warn":  zapcore.WarnLevel,
		"error": zapcore.ErrorLevel,
	} {
		for _, format := range []string{"json", "console"} {
			logger, err := New(levelStr, format)
			require.NoError(t, err)
			require.True(t, logger.Core().Enabled(want), "%s/%s", levelStr, format)
			if want > zapcore.DebugLevel {
				require.False(t, logger.Core().Enabled(want-1), "%s/%s", levelStr, format)
			}
		}
	}
}

func TestNewRejectsUnknownLevel(t *testing.T) {
	_, err := New("verbose", "json")
	require.Error(t, err)
}
