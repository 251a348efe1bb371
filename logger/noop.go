package logger

type noopLogger struct{}

var _ Logger = noopLogger{}

// NewNoopLogger returns a Logger that discards everything.
func NewNoopLogger() Logger {
	return noopLogger{}
}

func (n noopLogger) With(map[string]interface{}) Logger { return n }
func (n noopLogger) WithPrefix(string) Logger           { return n }
func (noopLogger) Trace(string, ...interface{})         {}
func (noopLogger) Debug(string, ...interface{})         {}
func (noopLogger) Info(string, ...interface{})          {}
func (noopLogger) Warn(string, ...interface{})          {}
func (noopLogger) Error(string, ...interface{})         {}
func (noopLogger) IsLevelEnabled(LogLevel) bool         { return false }
