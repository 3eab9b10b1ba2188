// Package host declares the contracts the registration protocol consumes
// from the surrounding IDE shell. Everything here is a thin boundary: the
// shell, the correlation table, the options initializer, and the telemetry
// session are all owned by the host; this package only fixes their shape
// and the degrade-to-default rules for their failures.
package host

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/tidwall/gjson"

	"github.com/dshills/keystone/internal/affinity"
	"github.com/dshills/keystone/internal/ident"
	"github.com/dshills/keystone/internal/solution"
)

// Shell exposes host UI-only state. Both methods demand a UIToken: they
// may only be called from the UI-affine context.
type Shell interface {
	// SolutionPath returns the active solution's file path. Absence is
	// reported via ok=false, never as an error.
	SolutionPath(tok affinity.UIToken) (path string, ok bool)

	// RefreshLanguageFlag updates the host-visible "language X is present"
	// flag after a registration lands.
	RefreshLanguageFlag(tok affinity.UIToken, language string)
}

// OptionsInitializer prepares host document options. EnsureInitialized must
// complete before any project is added to the workspace.
type OptionsInitializer interface {
	EnsureInitialized(ctx context.Context) error
}

// CorrelationTable records the mapping from a new project identity to the
// host's hierarchy handle and external guid. Entries must be registered
// before the snapshot mutation so collaborators observing the mutation can
// resolve them.
type CorrelationTable interface {
	Register(id ident.ProjectID, hierarchy any, guid string, name string)
}

// TelemetrySession looks up the host telemetry session context. The
// returned property is parsed with ParseSessionID; both lookup and parse
// failures degrade to the zero session id.
type TelemetrySession interface {
	SessionProperty(ctx context.Context) (string, error)
}

// ParseSessionID extracts a session id from the host's session-context
// property. The property is accepted either as a bare GUID or as a JSON
// payload carrying a "sessionId" field. Anything malformed yields the zero
// id; parsing never fails.
func ParseSessionID(prop string) solution.SessionID {
	prop = strings.TrimSpace(prop)
	if prop == "" {
		return solution.ZeroSession
	}
	if id, err := uuid.Parse(prop); err == nil {
		return solution.SessionID(id)
	}
	if gjson.Valid(prop) {
		if field := gjson.Get(prop, "sessionId"); field.Exists() {
			if id, err := uuid.Parse(field.String()); err == nil {
				return solution.SessionID(id)
			}
		}
	}
	return solution.ZeroSession
}
