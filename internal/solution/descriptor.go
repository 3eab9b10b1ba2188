package solution

import (
	"github.com/google/uuid"

	"github.com/dshills/keystone/internal/ident"
	"github.com/dshills/keystone/internal/version"
)

// SessionID correlates a solution with an external telemetry session. The
// zero value (uuid.Nil) means the session could not be resolved.
type SessionID uuid.UUID

// ZeroSession is the unresolved session id.
var ZeroSession SessionID

// IsZero reports whether the session id is unresolved.
func (s SessionID) IsZero() bool { return uuid.UUID(s) == uuid.Nil }

// String renders the session id.
func (s SessionID) String() string { return uuid.UUID(s).String() }

// ProjectConfig carries the caller-supplied facts needed to describe a new
// project. Fields other than Name and Language are optional.
type ProjectConfig struct {
	Name               string
	Language           string
	AssemblyName       string
	FilePath           string
	CompilationOptions any
	ParseOptions       any
	ExternalGUID       string
}

// ProjectDescriptor is the immutable record of one registered project. It
// is created once per registration, consumed by the Store, and never
// modified afterwards.
type ProjectDescriptor struct {
	id   ident.ProjectID
	ver  version.Marker
	conf ProjectConfig
}

// NewProjectDescriptor builds a descriptor from an allocated id, a version
// marker, and the caller's configuration. An empty AssemblyName defaults to
// the project name.
func NewProjectDescriptor(id ident.ProjectID, ver version.Marker, conf ProjectConfig) ProjectDescriptor {
	if conf.AssemblyName == "" {
		conf.AssemblyName = conf.Name
	}
	return ProjectDescriptor{id: id, ver: ver, conf: conf}
}

// ID returns the project's unique identity.
func (d ProjectDescriptor) ID() ident.ProjectID { return d.id }

// Version returns the marker stamped at creation.
func (d ProjectDescriptor) Version() version.Marker { return d.ver }

// Name returns the display name.
func (d ProjectDescriptor) Name() string { return d.conf.Name }

// Language returns the language tag.
func (d ProjectDescriptor) Language() string { return d.conf.Language }

// AssemblyName returns the output assembly name.
func (d ProjectDescriptor) AssemblyName() string { return d.conf.AssemblyName }

// FilePath returns the project file path, empty if none was supplied.
func (d ProjectDescriptor) FilePath() string { return d.conf.FilePath }

// CompilationOptions returns the opaque compilation options, nil if unset.
func (d ProjectDescriptor) CompilationOptions() any { return d.conf.CompilationOptions }

// ParseOptions returns the opaque parse options, nil if unset.
func (d ProjectDescriptor) ParseOptions() any { return d.conf.ParseOptions }

// ExternalGUID returns the host-supplied correlation guid, empty if none.
func (d ProjectDescriptor) ExternalGUID() string { return d.conf.ExternalGUID }
