// Package errs defines the sentinel error kinds shared across the editing
// and mixing engine. Call sites wrap one of these with fmt.Errorf("...: %w", ...)
// and callers recover the kind with errors.Is.
package errs

import "errors"

var (
	// InvalidRange reports a slice or edit index out of bounds. The
	// operation is a no-op; the input is left unchanged.
	InvalidRange = errors.New("invalid range")

	// InvalidFormat reports an unsupported export/import format.
	InvalidFormat = errors.New("invalid format")

	// InvalidSampleRate reports a resample ratio outside the accepted range.
	InvalidSampleRate = errors.New("invalid sample rate")

	// DriverFailure reports that the audio driver failed to init or start.
	// Fatal to the owning mixer session.
	DriverFailure = errors.New("driver failure")

	// DecoderFailure reports that a file could not be opened or decoded.
	DecoderFailure = errors.New("decoder failure")

	// Cancelled reports that a progress callback requested cancellation.
	Cancelled = errors.New("cancelled")

	// SingletonViolation reports a second driver instance constructed in
	// the same process.
	SingletonViolation = errors.New("singleton violation")
)
