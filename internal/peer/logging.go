package peer

import (
	"log/slog"

	"github.com/pion/logging"
)

// loggerFactory routes pion's internal logging at a level matching ours.
// pion is chatty, so it sits one step quieter than the slog level.
func loggerFactory(level slog.Level) logging.LoggerFactory {
	lf := logging.NewDefaultLoggerFactory()
	lf.DefaultLogLevel = pionLevel(level)
	return lf
}

func pionLevel(level slog.Level) logging.LogLevel {
	switch {
	case level <= slog.LevelDebug:
		return logging.LogLevelInfo
	case level <= slog.LevelInfo:
		return logging.LogLevelWarn
	case level <= slog.LevelWarn:
		return logging.LogLevelError
	default:
		return logging.LogLevelDisabled
	}
}
