// Package hostfake provides in-memory host collaborators for tests.
package hostfake

import (
	"context"
	"sync"

	"github.com/dshills/keystone/internal/affinity"
	"github.com/dshills/keystone/internal/ident"
)

// Shell is a scriptable host shell.
type Shell struct {
	mu sync.Mutex

	// Path is returned by SolutionPath when HasPath is true.
	Path    string
	HasPath bool

	refreshed []string
}

// SolutionPath implements host.Shell.
func (s *Shell) SolutionPath(affinity.UIToken) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.Path, s.HasPath
}

// RefreshLanguageFlag implements host.Shell, recording each call.
func (s *Shell) RefreshLanguageFlag(_ affinity.UIToken, language string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.refreshed = append(s.refreshed, language)
}

// Refreshed returns the language tags passed to RefreshLanguageFlag.
func (s *Shell) Refreshed() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.refreshed))
	copy(out, s.refreshed)
	return out
}

// OptionsInitializer counts EnsureInitialized calls and can fail them.
type OptionsInitializer struct {
	mu    sync.Mutex
	calls int

	// Err, when set, is returned by EnsureInitialized.
	Err error
}

// EnsureInitialized implements host.OptionsInitializer.
func (o *OptionsInitializer) EnsureInitialized(context.Context) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.calls++
	return o.Err
}

// Calls returns how many times EnsureInitialized ran.
func (o *OptionsInitializer) Calls() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.calls
}

// CorrelationEntry is one recorded correlation registration.
type CorrelationEntry struct {
	ID        ident.ProjectID
	Hierarchy any
	GUID      string
	Name      string
}

// CorrelationTable records correlation registrations in order.
type CorrelationTable struct {
	mu      sync.Mutex
	entries []CorrelationEntry
}

// Register implements host.CorrelationTable.
func (c *CorrelationTable) Register(id ident.ProjectID, hierarchy any, guid string, name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = append(c.entries, CorrelationEntry{ID: id, Hierarchy: hierarchy, GUID: guid, Name: name})
}

// Entries returns the recorded registrations.
func (c *CorrelationTable) Entries() []CorrelationEntry {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]CorrelationEntry, len(c.entries))
	copy(out, c.entries)
	return out
}

// TelemetrySession returns a fixed property, or an error when Err is set.
type TelemetrySession struct {
	Property string
	Err      error
}

// SessionProperty implements host.TelemetrySession.
func (t *TelemetrySession) SessionProperty(context.Context) (string, error) {
	return t.Property, t.Err
}
