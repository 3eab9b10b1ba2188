package registry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/dshills/keystone/internal/affinity"
	"github.com/dshills/keystone/internal/host"
	"github.com/dshills/keystone/internal/ident"
	"github.com/dshills/keystone/internal/solution"
	"github.com/dshills/keystone/internal/version"
)

// ProjectInfo is the caller-supplied description of the project to
// register. Name and Language are required; everything else is optional.
type ProjectInfo struct {
	Name         string
	Language     string
	AssemblyName string

	// FilePath is the project file on disk; when set, the project's
	// version marker derives from its last-write time.
	FilePath string

	CompilationOptions any
	ParseOptions       any

	// Hierarchy is the opaque host hierarchy handle for correlation.
	Hierarchy any
	// ExternalGUID is the host-supplied correlation guid.
	ExternalGUID string
}

// Config wires a Registrar. Coordinator and Store are required; host
// collaborators are optional and degrade to absent behavior when nil.
type Config struct {
	Coordinator *affinity.Coordinator
	Store       *solution.Store

	Shell       host.Shell
	Options     host.OptionsInitializer
	Correlation host.CorrelationTable
	Telemetry   host.TelemetrySession

	// Languages extends the built-in recognized language tags.
	Languages []string

	Logger *slog.Logger
}

// Registrar executes project registrations against a shared store.
type Registrar struct {
	coord *affinity.Coordinator
	store *solution.Store

	shell     host.Shell
	options   host.OptionsInitializer
	corr      host.CorrelationTable
	telemetry host.TelemetrySession

	languages map[string]struct{}
	log       *slog.Logger
}

// New creates a Registrar from the config.
func New(cfg Config) (*Registrar, error) {
	if cfg.Coordinator == nil {
		return nil, errors.New("registry: config requires a coordinator")
	}
	if cfg.Store == nil {
		return nil, errors.New("registry: config requires a store")
	}
	langs := defaultLanguages()
	for _, l := range cfg.Languages {
		if l = normalizeLanguage(l); l != "" {
			langs[l] = struct{}{}
		}
	}
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}
	return &Registrar{
		coord:     cfg.Coordinator,
		store:     cfg.Store,
		shell:     cfg.Shell,
		options:   cfg.Options,
		corr:      cfg.Correlation,
		telemetry: cfg.Telemetry,
		languages: langs,
		log:       log,
	}, nil
}

// Register admits one new project into the solution. The caller's context
// is honored up to the start of the mutation window; once the window
// begins, the registration always runs to completion.
func (r *Registrar) Register(ctx context.Context, info ProjectInfo) (*ProjectHandle, error) {
	if info.Name == "" {
		return nil, ErrEmptyName
	}
	lang := normalizeLanguage(info.Language)
	if _, ok := r.languages[lang]; !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownLanguage, info.Language)
	}

	flow := affinity.NewFlow(r.coord)

	// UI-affine: capture the host's solution path. Best-effort; absence is
	// not an error.
	var solutionPath string
	if r.shell != nil {
		err := flow.OnUI(ctx, func(tok affinity.UIToken) error {
			if p, ok := r.shell.SolutionPath(tok); ok {
				solutionPath = p
			}
			return nil
		})
		if err != nil {
			if errors.Is(err, affinity.ErrClosed) {
				return nil, ErrClosed
			}
			return nil, err
		}
	}

	// Document options must be ready before any project is added.
	if r.options != nil {
		if err := r.options.EnsureInitialized(ctx); err != nil {
			return nil, fmt.Errorf("registry: document options init: %w", err)
		}
	}

	if err := flow.ToBackground(ctx); err != nil {
		return nil, err
	}

	// Solution-level inputs are gathered outside the store's critical
	// section. Project counts only grow, so a non-empty read here is
	// conclusive; an empty read is provisional, and the mutation re-checks
	// under the store's lock. If another registration wins the creation
	// branch first, these lookups are merely wasted.
	var session solution.SessionID
	var solutionVer version.Marker
	if r.store.Current().ProjectCount() == 0 {
		session = r.resolveSession(ctx)
		solutionVer = r.markerFor(solutionPath)
	}

	// Last cancellation point. The mutation window begins here.
	if err := flow.Checkpoint(ctx); err != nil {
		return nil, err
	}
	flow.Seal()

	id := ident.NewProjectID(info.Name)
	desc := solution.NewProjectDescriptor(id, r.markerFor(info.FilePath), solution.ProjectConfig{
		Name:               info.Name,
		Language:           lang,
		AssemblyName:       info.AssemblyName,
		FilePath:           info.FilePath,
		CompilationOptions: info.CompilationOptions,
		ParseOptions:       info.ParseOptions,
		ExternalGUID:       info.ExternalGUID,
	})

	// Correlation must land before the snapshot mutation so observers of
	// the mutation can resolve the new id.
	if r.corr != nil {
		r.corr.Register(id, info.Hierarchy, info.ExternalGUID, info.Name)
	}

	snap, err := r.store.Apply(func(snap solution.Snapshot) (solution.Snapshot, error) {
		if snap.ProjectCount() == 0 {
			sid := ident.NewSolutionID(solutionPath)
			return solution.NewSolution(sid, solutionVer, solutionPath, session, desc), nil
		}
		return snap.WithProject(desc)
	})
	if err != nil {
		// Unreachable with fresh ids; reported rather than retried.
		return nil, fmt.Errorf("registry: apply: %w", err)
	}

	// Post-mutation refresh, back on the UI context. Part of the committed
	// operation: runs even if the caller cancelled mid-flight.
	if r.shell != nil {
		err := flow.OnUI(ctx, func(tok affinity.UIToken) error {
			r.shell.RefreshLanguageFlag(tok, lang)
			return nil
		})
		if err != nil {
			r.log.Warn("post-registration ui refresh failed",
				"project", id, "error", err)
		}
	}

	r.log.Info("project registered",
		"project", id, "language", lang, "solution", snap.ID())

	return &ProjectHandle{id: id, created: desc, store: r.store}, nil
}

// markerFor stamps a version from the file's mtime when a path is known,
// falling back to the logical clock. Stat failures degrade with a warning;
// they never block registration.
func (r *Registrar) markerFor(path string) version.Marker {
	if path == "" {
		return version.FromClock()
	}
	m, err := version.FromFile(path)
	if err != nil {
		r.log.Warn("version from file failed, using clock", "path", path, "error", err)
		return version.FromClock()
	}
	return m
}

// resolveSession looks up and parses the telemetry session id. Every
// failure degrades to the zero id.
func (r *Registrar) resolveSession(ctx context.Context) solution.SessionID {
	if r.telemetry == nil {
		return solution.ZeroSession
	}
	prop, err := r.telemetry.SessionProperty(ctx)
	if err != nil {
		r.log.Warn("telemetry session lookup failed", "error", err)
		return solution.ZeroSession
	}
	return host.ParseSessionID(prop)
}
