package cli

import (
	"context"
	"io"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/awmpietro/policy-blocks/internal/config"
)

// newLogger writes timestamped, level-filtered records to w.
func newLogger(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           level,
	})
}

// parseLevel maps a config value to a level, defaulting to info.
func parseLevel(s string) log.Level {
	level, err := log.ParseLevel(strings.ToLower(strings.TrimSpace(s)))
	if err != nil {
		return log.InfoLevel
	}
	return level
}

type ctxKey int

const (
	loggerKey ctxKey = iota
	runtimeKey
)

func withLogger(ctx context.Context, l *log.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, l)
}

// loggerFromContext falls back to log.Default() so commands always log.
func loggerFromContext(ctx context.Context) *log.Logger {
	if l, ok := ctx.Value(loggerKey).(*log.Logger); ok {
		return l
	}
	return log.Default()
}

func withRuntime(ctx context.Context, rt config.Runtime) context.Context {
	return context.WithValue(ctx, runtimeKey, rt)
}

func runtimeFromContext(ctx context.Context) config.Runtime {
	if rt, ok := ctx.Value(runtimeKey).(config.Runtime); ok {
		return rt
	}
	return config.Load()
}
