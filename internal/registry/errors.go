package registry

import "errors"

// Registration errors. All are surfaced before any context hop or
// mutation.
var (
	// ErrEmptyName indicates the project display name is empty.
	ErrEmptyName = errors.New("registry: project name is empty")

	// ErrUnknownLanguage indicates the language tag is not recognized.
	ErrUnknownLanguage = errors.New("registry: unrecognized language tag")

	// ErrClosed indicates the registrar's coordinator has shut down.
	ErrClosed = errors.New("registry: registrar is closed")
)
