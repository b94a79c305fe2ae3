package logging

import (
	"log/slog"
	"os"
)

// ParseLevel maps a LOG_LEVEL value to a slog level. Unknown or empty
// values return def.
func ParseLevel(value string, def slog.Level) slog.Level {
	switch value {
	case "dev", "development", "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error", "production", "prod":
		return slog.LevelError
	}
	return def
}

// Level returns the level selected by LOG_LEVEL, or def.
func Level(def slog.Level) slog.Level {
	l, _ := os.LookupEnv("LOG_LEVEL")
	return ParseLevel(l, def)
}

// Init installs a text logger on stderr as the slog default and returns it.
func Init(def slog.Level) *slog.Logger {
	logger := slog.New(
		slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: Level(def),
		}),
	)
	slog.SetDefault(logger)
	return logger
}
