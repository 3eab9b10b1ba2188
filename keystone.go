// Package keystone maintains a shared, versioned, in-memory model of a
// multi-project workspace and the protocol for registering new projects
// into it.
//
// A Workspace wires together the UI-affinity coordinator, the snapshot
// store, and the registrar, mirroring how a host IDE shell would embed
// them. Registration hops between the UI-affine context and background
// execution, honors the caller's cancellation up to the mutation window,
// and applies exactly one serialized mutation to the solution snapshot.
//
//	ws, err := keystone.New(keystone.WithHost(shell))
//	if err != nil { ... }
//	defer ws.Close()
//
//	handle, err := ws.Register(ctx, keystone.ProjectInfo{
//	    Name:     "App",
//	    Language: "csharp",
//	    FilePath: "/work/App/App.csproj",
//	})
package keystone

import (
	"context"
	"log/slog"
	"os"
	"strings"
	"sync"

	"github.com/dshills/keystone/internal/affinity"
	"github.com/dshills/keystone/internal/config"
	"github.com/dshills/keystone/internal/host"
	"github.com/dshills/keystone/internal/registry"
	"github.com/dshills/keystone/internal/solution"
	"github.com/dshills/keystone/internal/watch"
)

// Public surface re-exported from the internal packages.
type (
	// ProjectInfo describes the project to register.
	ProjectInfo = registry.ProjectInfo
	// ProjectHandle is the caller's reference to a registered project.
	ProjectHandle = registry.ProjectHandle
	// Snapshot is an immutable point-in-time view of the solution.
	Snapshot = solution.Snapshot
	// ChangeEvent describes one snapshot swap.
	ChangeEvent = solution.ChangeEvent
	// ChangeKind classifies a snapshot swap.
	ChangeKind = solution.ChangeKind
)

// Snapshot change kinds.
const (
	SolutionCreated  = solution.SolutionCreated
	ProjectAdded     = solution.ProjectAdded
	SolutionReloaded = solution.SolutionReloaded
)

// Registration errors.
var (
	ErrEmptyName       = registry.ErrEmptyName
	ErrUnknownLanguage = registry.ErrUnknownLanguage
)

// Option configures a Workspace.
type Option func(*options)

type options struct {
	shell       host.Shell
	optsInit    host.OptionsInitializer
	correlation host.CorrelationTable
	telemetry   host.TelemetrySession
	configPath  string
	logger      *slog.Logger
}

// WithHost supplies the host shell consulted for UI-only state.
func WithHost(s host.Shell) Option { return func(o *options) { o.shell = s } }

// WithOptionsInitializer supplies the host document-option initializer.
func WithOptionsInitializer(i host.OptionsInitializer) Option {
	return func(o *options) { o.optsInit = i }
}

// WithCorrelation supplies the host hierarchy/guid correlation table.
func WithCorrelation(c host.CorrelationTable) Option {
	return func(o *options) { o.correlation = c }
}

// WithTelemetry supplies the host telemetry session context.
func WithTelemetry(t host.TelemetrySession) Option {
	return func(o *options) { o.telemetry = t }
}

// WithConfigPath loads workspace settings from the given TOML file.
func WithConfigPath(path string) Option { return func(o *options) { o.configPath = path } }

// WithLogger sets the workspace logger.
func WithLogger(l *slog.Logger) Option { return func(o *options) { o.logger = l } }

// Workspace is the central coordinator: it owns the UI-affine context, the
// solution store, the registrar, and the optional solution-file watcher.
type Workspace struct {
	cfg   config.Config
	log   *slog.Logger
	coord *affinity.Coordinator
	store *solution.Store
	reg   *registry.Registrar

	mu      sync.Mutex
	watcher *watch.Watcher
	closed  bool
}

// New builds a Workspace, wiring components in dependency order.
func New(opts ...Option) (*Workspace, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	// 1. Config
	cfg := config.Default()
	if o.configPath != "" {
		loaded, err := config.Load(o.configPath)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	// 2. Logger
	log := o.logger
	if log == nil {
		log = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: parseLevel(cfg.LogLevel),
		}))
	}

	// 3. Affinity coordinator and store
	ws := &Workspace{
		cfg:   cfg,
		log:   log,
		coord: affinity.NewCoordinator(),
		store: solution.NewStore(),
	}

	// 4. Registrar
	reg, err := registry.New(registry.Config{
		Coordinator: ws.coord,
		Store:       ws.store,
		Shell:       o.shell,
		Options:     o.optsInit,
		Correlation: o.correlation,
		Telemetry:   o.telemetry,
		Languages:   cfg.ExtraLanguages,
		Logger:      log,
	})
	if err != nil {
		ws.coord.Close()
		return nil, err
	}
	ws.reg = reg

	// 5. Solution-file watcher, armed once a solution with a known file
	// path exists.
	if cfg.Watch {
		ws.store.OnChange(ws.maybeStartWatcher)
	}

	return ws, nil
}

// Register admits one new project into the solution. See
// registry.Registrar.Register for the protocol and cancellation contract.
func (ws *Workspace) Register(ctx context.Context, info ProjectInfo) (*ProjectHandle, error) {
	return ws.reg.Register(ctx, info)
}

// Snapshot returns the current solution snapshot.
func (ws *Workspace) Snapshot() Snapshot { return ws.store.Current() }

// OnChange registers a handler invoked after every snapshot swap, in apply
// order. Handlers must not call Register.
func (ws *Workspace) OnChange(fn func(ChangeEvent)) { ws.store.OnChange(fn) }

// Close shuts the workspace down: the watcher first, then the UI-affine
// coordinator. A registration already inside its mutation window finishes.
func (ws *Workspace) Close() error {
	ws.mu.Lock()
	ws.closed = true
	w := ws.watcher
	ws.watcher = nil
	ws.mu.Unlock()

	var err error
	if w != nil {
		err = w.Close()
	}
	ws.coord.Close()
	return err
}

// maybeStartWatcher arms the solution-file watcher after the creation swap.
func (ws *Workspace) maybeStartWatcher(ev ChangeEvent) {
	if ev.Kind != SolutionCreated || ev.New.FilePath() == "" {
		return
	}
	ws.mu.Lock()
	defer ws.mu.Unlock()
	if ws.closed || ws.watcher != nil {
		return
	}
	w, err := watch.New(ws.store, ev.New.FilePath(),
		watch.WithDebounce(ws.cfg.Debounce()),
		watch.WithLogger(ws.log),
	)
	if err != nil {
		ws.log.Warn("solution watcher unavailable",
			"path", ev.New.FilePath(), "error", err)
		return
	}
	ws.watcher = w
	ws.log.Debug("solution watcher started", "path", w.Path())
}

// parseLevel maps a config level name onto slog.
func parseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
