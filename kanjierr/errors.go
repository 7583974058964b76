// Package kanjierr defines the error kinds shared across the matching
// pipeline. Callers classify failures with errors.Cause.
package kanjierr

import "github.com/pkg/errors"

var (
	// ErrMalformedInput marks empty or degenerate stroke data. It rejects
	// the single request and is never fatal to the process.
	ErrMalformedInput = errors.New("malformed input")

	// ErrEmptyDatabase marks a match attempt against a database with no
	// reference entries.
	ErrEmptyDatabase = errors.New("empty database")

	// ErrSchemaMismatch marks a feature-vector layout that disagrees with
	// the matcher's compiled layout. Fatal, never coerced.
	ErrSchemaMismatch = errors.New("schema mismatch")

	// ErrCorruptDatabase marks a database blob whose header, version tag
	// or payload layout cannot be trusted.
	ErrCorruptDatabase = errors.New("corrupt database")
)
