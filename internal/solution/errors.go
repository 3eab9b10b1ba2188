package solution

import "errors"

// Store errors.
var (
	// ErrDuplicateProject indicates a descriptor with an already-registered
	// id was applied. Fresh ids make this unreachable; seeing it means a
	// caller reused a descriptor.
	ErrDuplicateProject = errors.New("solution: project id already registered")

	// ErrEmptySolution indicates a solution-level operation was applied to
	// a snapshot holding no projects.
	ErrEmptySolution = errors.New("solution: snapshot has no projects")
)
