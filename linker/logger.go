package linker

import "go.uber.org/zap"

var logger = zap.NewNop()

// Logger returns the linker logger. It is a no-op until SetLogger is called.
func Logger() *zap.Logger {
	return logger
}

// SetLogger installs l, named "linker", as the package logger. A nil l restores
// the no-op logger. The logger is read without locking, so set it before
// starting a run.
func SetLogger(l *zap.Logger) {
	if l == nil {
		logger = zap.NewNop()
		return
	}
	logger = l.Named("linker")
}
