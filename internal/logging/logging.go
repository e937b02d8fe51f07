package logging

import (
	"log/slog"
	"os"
)

// Init installs the default slog logger. Levels come from
// CLINICCALL_LOG_LEVEL (falling back to LOG_LEVEL) so the interactive
// UI stays quiet unless asked otherwise.
func Init() {
	logger := slog.New(
		slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: levelFromEnv(),
		}),
	)
	slog.SetDefault(logger)
}

func levelFromEnv() slog.Level {
	l := os.Getenv("CLINICCALL_LOG_LEVEL")
	if l == "" {
		l = os.Getenv("LOG_LEVEL")
	}

	switch l {
	case "dev", "development", "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	default:
		return slog.LevelError
	}
}
