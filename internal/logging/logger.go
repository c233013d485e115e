package logging

import (
	"log/slog"
	"os"
)

// Setup installs the global JSON logger. Called before anything else in main
// so startup failures are already structured.
func Setup() {
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})
	slog.SetDefault(slog.New(handler))
}
