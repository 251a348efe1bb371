package logger

import (
	"maps"
	"sync"
)

type TestLogEntry struct {
	Severity  string
	Message   string
	Arguments []interface{}
	Prefixes  []string
	Metadata  map[string]interface{}
}

// testLogStore is shared by a TestLogger and every logger derived from it.
type testLogStore struct {
	mutex sync.Mutex
	logs  []TestLogEntry
}

// TestLogger records entries instead of printing them. It is safe for
// concurrent use, and derived loggers record into the same store.
type TestLogger struct {
	metadata map[string]interface{}
	prefixes []string
	store    *testLogStore
}

var _ Logger = (*TestLogger)(nil)

// WithPrefix will return a new logger with a prefix prepended to the message
func (c *TestLogger) WithPrefix(prefix string) Logger {
	prefixes := append(append([]string{}, c.prefixes...), prefix)
	return &TestLogger{metadata: c.metadata, prefixes: prefixes, store: c.store}
}

func (c *TestLogger) With(metadata map[string]interface{}) Logger {
	kv := make(map[string]interface{}, len(c.metadata)+len(metadata))
	maps.Copy(kv, c.metadata)
	maps.Copy(kv, metadata)
	return &TestLogger{metadata: kv, prefixes: c.prefixes, store: c.store}
}

func (c *TestLogger) IsLevelEnabled(level LogLevel) bool {
	return level < LevelNone
}

func (c *TestLogger) Log(level string, msg string, args ...interface{}) {
	c.store.mutex.Lock()
	defer c.store.mutex.Unlock()
	c.store.logs = append(c.store.logs, TestLogEntry{
		Severity:  level,
		Message:   msg,
		Arguments: args,
		Prefixes:  c.prefixes,
		Metadata:  c.metadata,
	})
}

func (c *TestLogger) Trace(msg string, args ...interface{}) { c.Log("TRACE", msg, args...) }
func (c *TestLogger) Debug(msg string, args ...interface{}) { c.Log("DEBUG", msg, args...) }
func (c *TestLogger) Info(msg string, args ...interface{})  { c.Log("INFO", msg, args...) }
func (c *TestLogger) Warn(msg string, args ...interface{})  { c.Log("WARNING", msg, args...) }
func (c *TestLogger) Error(msg string, args ...interface{}) { c.Log("ERROR", msg, args...) }

// Logs returns a copy of everything recorded so far.
func (c *TestLogger) Logs() []TestLogEntry {
	c.store.mutex.Lock()
	defer c.store.mutex.Unlock()
	return append([]TestLogEntry(nil), c.store.logs...)
}

// NewTestLogger returns a new Logger instance useful for testing
func NewTestLogger() *TestLogger {
	return &TestLogger{store: &testLogStore{}}
}
