package cli

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/aretw0/catena/internal/logging"
)

// createLogger configures the application logger from cfg.
// It writes to Stderr to keep Stdout free for results.
func createLogger(cfg Config) *slog.Logger {
	level, err := logging.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = slog.LevelWarn
	}
	if cfg.LogFormat == "json" {
		return logging.NewJSON(os.Stderr, level)
	}
	return logging.New(level)
}

// printSystemMessage prints a standardized system message.
func printSystemMessage(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, ">>> %s\n", fmt.Sprintf(format, args...))
}
