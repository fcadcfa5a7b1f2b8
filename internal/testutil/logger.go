package testutil

import (
	"io"
	"log/slog"
)

// NopLogger returns a logger that discards all output. The presence
// engine warns on every unknown-address query, so tests that exercise
// the tolerant paths are noisy under a real handler.
func NopLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}
