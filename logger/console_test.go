package logger

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConsoleLoggerSink(t *testing.T) {
	var buf bytes.Buffer
	l := NewConsoleLogger(LevelNone)
	l.SetSink(&buf, LevelDebug)

	l.Trace("hidden")
	l.Debug("shown %d", 1)
	l.WithPrefix("[memoize]").Info("prefixed")
	l.With(map[string]interface{}{"key": "k"}).Warn("with metadata")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "[DEBUG] shown 1")
	assert.Contains(t, out, "[INFO ] [memoize] prefixed")
	assert.Contains(t, out, `with metadata {"key":"k"}`)
	assert.Equal(t, 3, strings.Count(out, "\n"))
	assert.False(t, ansiColorStripper.MatchString(out))
}

func TestConsoleLoggerLevels(t *testing.T) {
	l := NewConsoleLogger(LevelWarn)
	assert.False(t, l.IsLevelEnabled(LevelInfo))
	assert.True(t, l.IsLevelEnabled(LevelWarn))
	assert.True(t, l.IsLevelEnabled(LevelError))

	l.SetSink(&bytes.Buffer{}, LevelTrace)
	assert.True(t, l.IsLevelEnabled(LevelTrace))
}

func TestConsoleLoggerPrefixNotDuplicated(t *testing.T) {
	var buf bytes.Buffer
	l := NewConsoleLogger(LevelNone)
	l.SetSink(&buf, LevelInfo)

	l.WithPrefix("[a]").WithPrefix("[a]").Info("once")
	assert.Equal(t, 1, strings.Count(buf.String(), "[a]"))
}

func TestNoopLogger(t *testing.T) {
	l := NewNoopLogger()
	assert.False(t, l.IsLevelEnabled(LevelError))
	assert.Equal(t, l, l.WithPrefix("x").With(map[string]interface{}{"a": 1}))
	l.Error("discarded")
}
