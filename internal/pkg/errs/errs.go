// Package errs holds the sentinel errors shared across the engine's
// packages, following the same package-level var convention used
// elsewhere in the retrieval pack for Go-level (non-reporter) errors.
package errs

import "errors"

var (
	// ErrDuplicateTag is returned by Registry.Register when a tag has
	// already been registered.
	ErrDuplicateTag = errors.New("analyzer: tag already registered")

	// ErrMissingConfig is returned by config loaders when a required
	// configuration value has no default and was not supplied.
	ErrMissingConfig = errors.New("config: required value missing")
)
