package logger

import (
	"log/slog"
	"os"
)

// New returns a structured stdout logger shared by the whole process.
func New() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, nil))
}
