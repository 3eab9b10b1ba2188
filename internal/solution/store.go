package solution

import (
	"sync"

	"github.com/dshills/keystone/internal/ident"
	"github.com/dshills/keystone/internal/version"
)

// ChangeKind classifies a snapshot swap.
type ChangeKind int

const (
	// SolutionCreated means the swap installed the first project and the
	// solution identity itself.
	SolutionCreated ChangeKind = iota
	// ProjectAdded means the swap added one project to an existing
	// solution.
	ProjectAdded
	// SolutionReloaded means the swap changed only solution-level state,
	// such as a version bump after the solution file changed on disk.
	SolutionReloaded
)

// String returns the kind name.
func (k ChangeKind) String() string {
	switch k {
	case SolutionCreated:
		return "solution-created"
	case ProjectAdded:
		return "project-added"
	case SolutionReloaded:
		return "solution-reloaded"
	}
	return "unknown"
}

// ChangeEvent describes one snapshot swap.
type ChangeEvent struct {
	Kind ChangeKind
	Old  Snapshot
	New  Snapshot
	// Project is the affected project id for SolutionCreated and
	// ProjectAdded; zero otherwise.
	Project ident.ProjectID
}

// Mutation receives the pre-mutation snapshot and returns its replacement.
// It runs inside the store's critical section and must not block on
// external work or call back into the store.
type Mutation func(Snapshot) (Snapshot, error)

// Store holds the current solution snapshot and serializes all mutations.
// It is the single writer for the shared workspace model; concurrent Apply
// calls are linearized, so branch decisions made inside a Mutation are
// race-free.
type Store struct {
	mu   sync.RWMutex
	snap Snapshot

	// notifyMu keeps handler invocation in apply order without holding mu
	// while handlers run. Acquired while mu is held, released after the
	// handlers fire; mu is always taken first, so the ordering is fixed.
	notifyMu sync.Mutex

	handlerMu sync.Mutex
	handlers  []func(ChangeEvent)
}

// NewStore creates a store holding the empty snapshot.
func NewStore() *Store { return &Store{} }

// Current returns the current snapshot. The returned value is immutable
// and remains valid after subsequent mutations.
func (s *Store) Current() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap
}

// OnChange registers a handler invoked after every snapshot swap, in apply
// order. Handlers run on the mutating goroutine and must not call Apply.
func (s *Store) OnChange(fn func(ChangeEvent)) {
	s.handlerMu.Lock()
	defer s.handlerMu.Unlock()
	s.handlers = append(s.handlers, fn)
}

// Apply runs fn against the current snapshot and atomically installs its
// result. The whole step is serialized with every other Apply caller; fn's
// error aborts the swap and leaves the snapshot untouched. Returns the
// installed snapshot.
func (s *Store) Apply(fn Mutation) (Snapshot, error) {
	s.mu.Lock()
	old := s.snap
	next, err := fn(old)
	if err != nil {
		s.mu.Unlock()
		return Snapshot{}, err
	}
	s.snap = next

	// A mutation may decline to change anything (e.g. a stale version
	// bump); no event fires for an identical install.
	if next.id == old.id && next.ver == old.ver && len(next.projects) == len(old.projects) {
		s.mu.Unlock()
		return next, nil
	}

	// Take the notify lock before releasing the write lock so events fire
	// in the same order the swaps landed.
	s.notifyMu.Lock()
	s.mu.Unlock()

	ev := diff(old, next)
	s.handlerMu.Lock()
	handlers := make([]func(ChangeEvent), len(s.handlers))
	copy(handlers, s.handlers)
	s.handlerMu.Unlock()
	for _, h := range handlers {
		h(ev)
	}
	s.notifyMu.Unlock()

	return next, nil
}

// BumpVersion installs a snapshot identical to the current one but carrying
// the given marker, when it is newer. Used when the solution file changes
// on disk. Applying to the empty snapshot fails with ErrEmptySolution.
func (s *Store) BumpVersion(ver version.Marker) (Snapshot, error) {
	return s.Apply(func(snap Snapshot) (Snapshot, error) {
		if snap.ProjectCount() == 0 {
			return Snapshot{}, ErrEmptySolution
		}
		if !ver.Newer(snap.Version()) {
			return snap, nil
		}
		return snap.WithVersion(ver), nil
	})
}

// diff classifies the swap from old to next and finds the affected project.
func diff(old, next Snapshot) ChangeEvent {
	ev := ChangeEvent{Old: old, New: next}
	switch {
	case old.ProjectCount() == 0 && next.ProjectCount() > 0:
		ev.Kind = SolutionCreated
	case next.ProjectCount() > old.ProjectCount():
		ev.Kind = ProjectAdded
	default:
		ev.Kind = SolutionReloaded
		return ev
	}
	for _, d := range next.Projects() {
		if _, ok := old.Project(d.ID()); !ok {
			ev.Project = d.ID()
			break
		}
	}
	return ev
}
