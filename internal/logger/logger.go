package logger

import (
	"log/slog"
	"os"
)

// Setup installs a JSON slog logger as the process default and returns it.
func Setup() *slog.Logger {
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		AddSource: false,
	})
	l := slog.New(handler)
	slog.SetDefault(l)
	return l
}
