package ctx

import (
	"context"
	"log/slog"
	"os"
)

// defaultLogger writes JSON to stdout; outside production debug records
// (e.g. scope exits) are kept as well.
func defaultLogger() *slog.Logger {

	level := slog.LevelInfo
	if getEnv() != EnvironmentProduction {
		level = slog.LevelDebug
	}

	return slog.New(
		slog.NewJSONHandler(
			os.Stdout,
			&slog.HandlerOptions{
				Level:     level,
				AddSource: true,
			},
		),
	)
}

func (ctx Context) Logger() *slog.Logger {
	logger, _ := ctx.Value(contextKeyLogger).(*slog.Logger)
	if logger == nil {
		logger = defaultLogger()
	}
	return logger
}

func (ctx Context) WithLogger(logger *slog.Logger) Context {
	return Context{
		context.WithValue(
			ctx.Context,
			contextKeyLogger,
			logger,
		),
	}
}
