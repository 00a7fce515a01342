// Package logging builds the diagnostic logger shared by the commands.
package logging

import (
	"io"
	"log/slog"
	"time"

	"github.com/lmittmann/tint"
)

// New returns a leveled logger writing to w. Console progress lines do not go through it.
func New(w io.Writer, level slog.Level, color bool) *slog.Logger {
	h := tint.NewHandler(w, &tint.Options{
		Level:      level,
		AddSource:  level <= slog.LevelDebug,
		TimeFormat: time.Kitchen,
		NoColor:    !color,
	})
	return slog.New(h).With("app", "liftwatch")
}
