package logger

import (
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/getsentry/sentry-go"
	slogmulti "github.com/samber/slog-multi"
	slogsentry "github.com/samber/slog-sentry/v2"
)

// Log is the global logger instance
var Log *slog.Logger

// Init installs the default logger writing to stdout.
func Init(isDev bool, sentryDSN string) {
	InitTo(os.Stdout, isDev, sentryDSN)
}

// InitTo installs the default logger writing to w. goalctl logs to stderr so
// stdout stays machine-readable.
func InitTo(w io.Writer, isDev bool, sentryDSN string) {
	Log = New(w, isDev, sentryDSN)
	slog.SetDefault(Log)
}

// New builds a logger:
// Development: text at Debug level
// Production: JSON at Info level
// Errors are also sent to Sentry when sentryDSN is set.
func New(w io.Writer, isDev bool, sentryDSN string) *slog.Logger {
	var handlers []slog.Handler

	if isDev {
		handlers = append(handlers, slog.NewTextHandler(w, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		}))
	} else {
		handlers = append(handlers, slog.NewJSONHandler(w, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		}))
	}

	if sentryDSN != "" {
		err := sentry.Init(sentry.ClientOptions{
			Dsn:              sentryDSN,
			TracesSampleRate: 1.0,
		})
		if err == nil {
			handlers = append(handlers, slogsentry.Option{
				Level: slog.LevelError,
			}.NewSentryHandler())
		} else {
			slog.New(handlers[0]).Warn("sentry disabled", "error", err)
		}
	}

	var handler slog.Handler
	if len(handlers) > 1 {
		handler = slogmulti.Fanout(handlers...)
	} else {
		handler = handlers[0]
	}

	return slog.New(handler).With("service", "goalplanner")
}

// Flush waits for buffered Sentry events. No-op when Sentry is not initialized.
func Flush(timeout time.Duration) {
	sentry.Flush(timeout)
}
