package bootstrap

import (
	"io"
	"os"
	"time"

	"github.com/kbukum/framegraph/logger"
)

// Option adjusts an App before its logger is initialized.
type Option func(*App)

// WithLogger uses l instead of initializing the global logger from the
// config.
func WithLogger(l *logger.Logger) Option {
	return func(a *App) { a.Logger = l }
}

// WithGracefulTimeout bounds the OnStop hooks. The default is ten seconds.
func WithGracefulTimeout(d time.Duration) Option {
	return func(a *App) { a.gracefulTimeout = d }
}

// WithSummaryWriter redirects the startup summary from stdout; nil
// disables it.
func WithSummaryWriter(w io.Writer) Option {
	return func(a *App) { a.summaryOut = w }
}

// WithSignals replaces the signals that end the task, SIGINT and SIGTERM
// by default. No signals leaves shutdown to the caller's context.
func WithSignals(sigs ...os.Signal) Option {
	return func(a *App) { a.signals = sigs }
}
