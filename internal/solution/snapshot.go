package solution

import (
	"github.com/dshills/keystone/internal/ident"
	"github.com/dshills/keystone/internal/version"
)

// Snapshot is an immutable point-in-time value of the solution. The zero
// Snapshot is the empty solution: no projects, no identity. All mutators
// return a new Snapshot sharing nothing mutable with the receiver.
type Snapshot struct {
	id       ident.SolutionID
	ver      version.Marker
	filePath string
	session  SessionID
	projects map[ident.ProjectID]ProjectDescriptor
}

// NewSolution creates the initial snapshot for a freshly created solution
// containing exactly one project.
func NewSolution(id ident.SolutionID, ver version.Marker, filePath string, session SessionID, first ProjectDescriptor) Snapshot {
	return Snapshot{
		id:       id,
		ver:      ver,
		filePath: filePath,
		session:  session,
		projects: map[ident.ProjectID]ProjectDescriptor{first.ID(): first},
	}
}

// ID returns the solution identity; zero for the empty snapshot.
func (s Snapshot) ID() ident.SolutionID { return s.id }

// Version returns the solution's version marker.
func (s Snapshot) Version() version.Marker { return s.ver }

// FilePath returns the solution file path, empty if unknown.
func (s Snapshot) FilePath() string { return s.filePath }

// Session returns the telemetry session id, zero if unresolved.
func (s Snapshot) Session() SessionID { return s.session }

// ProjectCount returns the number of registered projects.
func (s Snapshot) ProjectCount() int { return len(s.projects) }

// Project looks up a descriptor by id.
func (s Snapshot) Project(id ident.ProjectID) (ProjectDescriptor, bool) {
	d, ok := s.projects[id]
	return d, ok
}

// Projects returns all descriptors. Order is unspecified.
func (s Snapshot) Projects() []ProjectDescriptor {
	out := make([]ProjectDescriptor, 0, len(s.projects))
	for _, d := range s.projects {
		out = append(out, d)
	}
	return out
}

// HasLanguage reports whether any registered project uses the language tag.
func (s Snapshot) HasLanguage(lang string) bool {
	for _, d := range s.projects {
		if d.Language() == lang {
			return true
		}
	}
	return false
}

// WithProject returns a new snapshot that is the receiver plus the given
// descriptor. The solution identity, path, and session are unchanged.
func (s Snapshot) WithProject(d ProjectDescriptor) (Snapshot, error) {
	if _, ok := s.projects[d.ID()]; ok {
		return Snapshot{}, ErrDuplicateProject
	}
	next := s.clone()
	next.projects[d.ID()] = d
	return next, nil
}

// WithVersion returns a new snapshot carrying the given marker.
func (s Snapshot) WithVersion(ver version.Marker) Snapshot {
	next := s.clone()
	next.ver = ver
	return next
}

// clone copies the snapshot with a fresh project map.
func (s Snapshot) clone() Snapshot {
	next := s
	next.projects = make(map[ident.ProjectID]ProjectDescriptor, len(s.projects)+1)
	for id, d := range s.projects {
		next.projects[id] = d
	}
	return next
}
