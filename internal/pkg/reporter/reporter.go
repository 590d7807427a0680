// Package reporter is the collaborator contract spec.md calls
// `reporter.warning` / `reporter.internal_warning` / `reporter.fatal`.
// The engine's warnings go through it rather than through a logging
// package directly, so test code can substitute a capturing
// implementation to assert on exactly which warnings fired.
package reporter

import (
	"os"

	"github.com/fenwick-net/dpdcore/internal/pkg/logger"
)

// Reporter receives the engine's non-fatal diagnostics and fatal
// startup failures. "Warning" denotes a caller-level problem the
// engine ignores and continues past (e.g. scheduling before processing
// begins; a plain port miss is not reported at all); "InternalWarning" denotes a condition
// that should never happen absent a programming error (e.g.
// instantiating an unregistered tag).
type Reporter interface {
	Warning(msg string, args ...any)
	InternalWarning(msg string, args ...any)
	Fatal(msg string, args ...any)
}

// Slog is the default Reporter, backed by the package-wide slog logger
// the same way every other component in this module logs.
type Slog struct{}

// New returns the default slog-backed reporter.
func New() Reporter { return Slog{} }

func (Slog) Warning(msg string, args ...any) {
	logger.Warn(msg, args...)
}

func (Slog) InternalWarning(msg string, args ...any) {
	logger.Error("internal: "+msg, args...)
}

func (Slog) Fatal(msg string, args ...any) {
	logger.Error("fatal: "+msg, args...)
	os.Exit(1)
}
