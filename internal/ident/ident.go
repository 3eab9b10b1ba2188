// Package ident allocates process-unique identifiers for projects and
// solutions. Identifiers are backed by random UUIDs; the human-readable
// hint attached at allocation time is carried for diagnostics only and
// contributes nothing to uniqueness.
package ident

import (
	"path/filepath"

	"github.com/google/uuid"
)

// ProjectID uniquely identifies a registered project for the lifetime of
// the process. The zero value is not a valid id.
type ProjectID struct {
	id   uuid.UUID
	hint string
}

// NewProjectID allocates a fresh ProjectID. The hint is typically the
// project's display name. Allocation cannot fail.
func NewProjectID(hint string) ProjectID {
	return ProjectID{id: uuid.New(), hint: hint}
}

// Hint returns the diagnostic hint supplied at allocation.
func (p ProjectID) Hint() string { return p.hint }

// IsZero reports whether p is the zero (unallocated) id.
func (p ProjectID) IsZero() bool { return p.id == uuid.Nil }

// String renders the id with its hint for logs: "name (uuid)".
func (p ProjectID) String() string {
	if p.hint == "" {
		return p.id.String()
	}
	return p.hint + " (" + p.id.String() + ")"
}

// SolutionID uniquely identifies a solution for the lifetime of the
// process. The zero value is not a valid id.
type SolutionID struct {
	id   uuid.UUID
	hint string
}

// NewSolutionID allocates a fresh SolutionID. The hint is typically the
// solution file path and may be empty; only its base name is retained.
func NewSolutionID(hint string) SolutionID {
	if hint != "" {
		hint = filepath.Base(hint)
	}
	return SolutionID{id: uuid.New(), hint: hint}
}

// Hint returns the diagnostic hint supplied at allocation.
func (s SolutionID) Hint() string { return s.hint }

// IsZero reports whether s is the zero (unallocated) id.
func (s SolutionID) IsZero() bool { return s.id == uuid.Nil }

// String renders the id with its hint for logs.
func (s SolutionID) String() string {
	if s.hint == "" {
		return s.id.String()
	}
	return s.hint + " (" + s.id.String() + ")"
}
