package registry

import (
	"github.com/dshills/keystone/internal/ident"
	"github.com/dshills/keystone/internal/solution"
)

// ProjectHandle is the caller's reference to a registered project. It
// carries the descriptor created at registration time and can resolve the
// project's current descriptor from the live snapshot.
type ProjectHandle struct {
	id      ident.ProjectID
	created solution.ProjectDescriptor
	store   *solution.Store
}

// ID returns the project's identity.
func (h *ProjectHandle) ID() ident.ProjectID { return h.id }

// Descriptor returns the immutable descriptor built at registration.
func (h *ProjectHandle) Descriptor() solution.ProjectDescriptor { return h.created }

// Name returns the project's display name.
func (h *ProjectHandle) Name() string { return h.created.Name() }

// Language returns the project's language tag.
func (h *ProjectHandle) Language() string { return h.created.Language() }

// Live resolves the project in the store's current snapshot. ok is false
// if the project has since been removed from the solution.
func (h *ProjectHandle) Live() (solution.ProjectDescriptor, bool) {
	return h.store.Current().Project(h.id)
}
