package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetLevelFromEnv(t *testing.T) {
	tests := []struct {
		name          string
		envValue      string
		expectedLevel LogLevel
	}{
		{
			name:          "trace level",
			envValue:      "trace",
			expectedLevel: LevelTrace,
		},
		{
			name:          "debug level",
			envValue:      "debug",
			expectedLevel: LevelDebug,
		},
		{
			name:          "warn level",
			envValue:      "warn",
			expectedLevel: LevelWarn,
		},
		{
			name:          "error level",
			envValue:      "error",
			expectedLevel: LevelError,
		},
		{
			name:          "none",
			envValue:      "none",
			expectedLevel: LevelNone,
		},
		{
			name:          "mixed case debug",
			envValue:      "DeBuG",
			expectedLevel: LevelDebug,
		},
		{
			name:          "empty string",
			envValue:      "",
			expectedLevel: LevelInfo, // Default value
		},
		{
			name:          "invalid value",
			envValue:      "invalid",
			expectedLevel: LevelInfo, // Default value
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(EnvLogLevel, tt.envValue)
			assert.Equal(t, tt.expectedLevel, GetLevelFromEnv())
		})
	}
}

func TestLogLevelConstants(t *testing.T) {
	assert.Equal(t, LogLevel(0), LevelTrace)
	assert.Equal(t, LogLevel(1), LevelDebug)
	assert.Equal(t, LogLevel(2), LevelInfo)
	assert.Equal(t, LogLevel(3), LevelWarn)
	assert.Equal(t, LogLevel(4), LevelError)
	assert.Equal(t, LogLevel(5), LevelNone)
}

func TestWithKV(t *testing.T) {
	l := WithKV(NewTestLogger(), "key", 42)
	l.Info("hello")

	tl, ok := l.(*TestLogger)
	assert.True(t, ok)
	logs := tl.Logs()
	assert.Len(t, logs, 1)
	assert.Equal(t, 42, logs[0].Metadata["key"])
}
