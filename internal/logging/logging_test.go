package logging

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLevelFromEnv(t *testing.T) {
	tests := []struct {
		name     string
		appLevel string
		genLevel string
		want     slog.Level
	}{
		{name: "unset defaults to error", want: slog.LevelError},
		{name: "app variable", appLevel: "debug", want: slog.LevelDebug},
		{name: "generic fallback", genLevel: "info", want: slog.LevelInfo},
		{name: "app variable wins", appLevel: "warn", genLevel: "debug", want: slog.LevelWarn},
		{name: "unknown value defaults to error", appLevel: "loud", want: slog.LevelError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Clear both so the surrounding environment cannot leak in;
			// empty values fall back to the default level.
			t.Setenv("CLINICCALL_LOG_LEVEL", tt.appLevel)
			t.Setenv("LOG_LEVEL", tt.genLevel)
			assert.Equal(t, tt.want, levelFromEnv())
		})
	}
}
