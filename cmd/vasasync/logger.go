package main

import (
	"io"
	"log/slog"
	"os"

	"github.com/iudanet/vasasync/internal/iocli"
)

// newLogger пишет текстом в терминал и JSON во всех остальных случаях
func newLogger(w io.Writer, level slog.Level) *slog.Logger {
	opts := &slog.HandlerOptions{Level: level}
	if f, ok := w.(*os.File); ok && iocli.IsTerminal(f) {
		return slog.New(slog.NewTextHandler(w, opts))
	}
	return slog.New(slog.NewJSONHandler(w, opts))
}
