package registry

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/google/uuid"

	"github.com/dshills/keystone/internal/affinity"
	"github.com/dshills/keystone/internal/host/hostfake"
	"github.com/dshills/keystone/internal/solution"
	"github.com/dshills/keystone/internal/version"
)

// harness bundles a registrar with its fakes.
type harness struct {
	coord     *affinity.Coordinator
	store     *solution.Store
	shell     *hostfake.Shell
	options   *hostfake.OptionsInitializer
	corr      *hostfake.CorrelationTable
	telemetry *hostfake.TelemetrySession
	reg       *Registrar
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{
		coord:     affinity.NewCoordinator(),
		store:     solution.NewStore(),
		shell:     &hostfake.Shell{},
		options:   &hostfake.OptionsInitializer{},
		corr:      &hostfake.CorrelationTable{},
		telemetry: &hostfake.TelemetrySession{},
	}
	t.Cleanup(h.coord.Close)

	reg, err := New(Config{
		Coordinator: h.coord,
		Store:       h.store,
		Shell:       h.shell,
		Options:     h.options,
		Correlation: h.corr,
		Telemetry:   h.telemetry,
	})
	if err != nil {
		t.Fatalf("New error: %v", err)
	}
	h.reg = reg
	return h
}

func TestRegister_FirstProjectCreatesSolution(t *testing.T) {
	h := newHarness(t)

	handle, err := h.reg.Register(context.Background(), ProjectInfo{Name: "App", Language: LanguageCSharp})
	if err != nil {
		t.Fatalf("Register error: %v", err)
	}

	snap := h.store.Current()
	if snap.ProjectCount() != 1 {
		t.Fatalf("project count = %d, want 1", snap.ProjectCount())
	}
	if snap.ID().IsZero() {
		t.Error("solution id should be freshly allocated")
	}
	if snap.FilePath() != "" {
		t.Errorf("solution path = %q, want absent", snap.FilePath())
	}
	if !snap.Session().IsZero() {
		t.Errorf("session = %s, want zero (telemetry unresolved)", snap.Session())
	}

	d, ok := snap.Project(handle.ID())
	if !ok {
		t.Fatal("handle id not present in snapshot")
	}
	if d.Name() != "App" || d.Language() != LanguageCSharp {
		t.Errorf("descriptor = %q/%q, want App/csharp", d.Name(), d.Language())
	}
	if h.options.Calls() != 1 {
		t.Errorf("options initialized %d times, want 1", h.options.Calls())
	}
}

func TestRegister_SecondProjectKeepsSolutionIdentity(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	if _, err := h.reg.Register(ctx, ProjectInfo{Name: "App", Language: LanguageCSharp}); err != nil {
		t.Fatal(err)
	}
	firstID := h.store.Current().ID()

	if _, err := h.reg.Register(ctx, ProjectInfo{Name: "Tests", Language: LanguageCSharp}); err != nil {
		t.Fatal(err)
	}

	snap := h.store.Current()
	if snap.ProjectCount() != 2 {
		t.Errorf("project count = %d, want 2", snap.ProjectCount())
	}
	if snap.ID() != firstID {
		t.Errorf("solution id changed: %v -> %v", firstID, snap.ID())
	}
}

func TestRegister_InvalidInput(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	if _, err := h.reg.Register(ctx, ProjectInfo{Language: LanguageCSharp}); !errors.Is(err, ErrEmptyName) {
		t.Errorf("empty name error = %v, want ErrEmptyName", err)
	}
	if _, err := h.reg.Register(ctx, ProjectInfo{Name: "App", Language: "cobol"}); !errors.Is(err, ErrUnknownLanguage) {
		t.Errorf("unknown language error = %v, want ErrUnknownLanguage", err)
	}
	if h.store.Current().ProjectCount() != 0 {
		t.Error("invalid input must not touch the snapshot")
	}
	if h.options.Calls() != 0 {
		t.Error("invalid input must fail before collaborator calls")
	}
}

func TestRegister_ExtraLanguages(t *testing.T) {
	h := newHarness(t)
	reg, err := New(Config{
		Coordinator: h.coord,
		Store:       h.store,
		Languages:   []string{"TypeScript"},
	})
	if err != nil {
		t.Fatal(err)
	}

	if _, err := reg.Register(context.Background(), ProjectInfo{Name: "Web", Language: "typescript"}); err != nil {
		t.Fatalf("Register with extra language error: %v", err)
	}
}

func TestRegister_SolutionPathCaptured(t *testing.T) {
	h := newHarness(t)
	h.shell.Path = "/work/app.sln"
	h.shell.HasPath = true

	if _, err := h.reg.Register(context.Background(), ProjectInfo{Name: "App", Language: LanguageCSharp}); err != nil {
		t.Fatal(err)
	}

	snap := h.store.Current()
	if snap.FilePath() != "/work/app.sln" {
		t.Errorf("solution path = %q, want /work/app.sln", snap.FilePath())
	}
	if snap.ID().Hint() != "app.sln" {
		t.Errorf("solution id hint = %q, want app.sln", snap.ID().Hint())
	}
}

func TestRegister_VersionFromProjectFile(t *testing.T) {
	h := newHarness(t)

	dir := t.TempDir()
	path := filepath.Join(dir, "app.csproj")
	if err := os.WriteFile(path, []byte("<Project/>"), 0o644); err != nil {
		t.Fatal(err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}

	handle, err := h.reg.Register(context.Background(), ProjectInfo{
		Name: "App", Language: LanguageCSharp, FilePath: path,
	})
	if err != nil {
		t.Fatal(err)
	}

	if want := version.FromTime(info.ModTime()); handle.Descriptor().Version() != want {
		t.Errorf("version = %v, want mtime-derived %v", handle.Descriptor().Version(), want)
	}
}

func TestRegister_VersionFallbackOnStatFailure(t *testing.T) {
	h := newHarness(t)

	before := version.FromClock()
	handle, err := h.reg.Register(context.Background(), ProjectInfo{
		Name: "App", Language: LanguageCSharp,
		FilePath: filepath.Join(t.TempDir(), "missing.csproj"),
	})
	if err != nil {
		t.Fatalf("stat failure must not block registration: %v", err)
	}
	if !handle.Descriptor().Version().Newer(before) {
		t.Error("fallback version should come from the logical clock")
	}
}

func TestRegister_ClockVersionsIncrease(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	a, err := h.reg.Register(ctx, ProjectInfo{Name: "A", Language: LanguageCSharp})
	if err != nil {
		t.Fatal(err)
	}
	b, err := h.reg.Register(ctx, ProjectInfo{Name: "B", Language: LanguageCSharp})
	if err != nil {
		t.Fatal(err)
	}
	if !b.Descriptor().Version().Newer(a.Descriptor().Version()) {
		t.Errorf("later registration version %v not newer than %v",
			b.Descriptor().Version(), a.Descriptor().Version())
	}
}

func TestRegister_SessionResolved(t *testing.T) {
	h := newHarness(t)
	guid := uuid.New()
	h.telemetry.Property = guid.String()

	if _, err := h.reg.Register(context.Background(), ProjectInfo{Name: "App", Language: LanguageCSharp}); err != nil {
		t.Fatal(err)
	}
	if got := h.store.Current().Session(); got.String() != guid.String() {
		t.Errorf("session = %s, want %s", got, guid)
	}
}

func TestRegister_MalformedSessionDegrades(t *testing.T) {
	h := newHarness(t)
	h.telemetry.Property = "{{{not json"

	if _, err := h.reg.Register(context.Background(), ProjectInfo{Name: "App", Language: LanguageCSharp}); err != nil {
		t.Fatalf("malformed session must not fail registration: %v", err)
	}
	if !h.store.Current().Session().IsZero() {
		t.Error("malformed session property should resolve to the zero id")
	}
}

func TestRegister_TelemetryLookupErrorDegrades(t *testing.T) {
	h := newHarness(t)
	h.telemetry.Err = errors.New("telemetry unavailable")

	if _, err := h.reg.Register(context.Background(), ProjectInfo{Name: "App", Language: LanguageCSharp}); err != nil {
		t.Fatalf("telemetry failure must not fail registration: %v", err)
	}
	if !h.store.Current().Session().IsZero() {
		t.Error("failed lookup should resolve to the zero id")
	}
}

func TestRegister_CorrelationBeforeMutation(t *testing.T) {
	h := newHarness(t)

	// Observe correlation state from inside the mutation window.
	var entriesAtMutation int
	h.store.OnChange(func(solution.ChangeEvent) {
		entriesAtMutation = len(h.corr.Entries())
	})

	hierarchy := struct{ name string }{"vsHierarchy"}
	handle, err := h.reg.Register(context.Background(), ProjectInfo{
		Name: "App", Language: LanguageCSharp,
		Hierarchy: hierarchy, ExternalGUID: "ABC-123",
	})
	if err != nil {
		t.Fatal(err)
	}

	entries := h.corr.Entries()
	if len(entries) != 1 {
		t.Fatalf("correlation entries = %d, want 1", len(entries))
	}
	e := entries[0]
	if e.ID != handle.ID() || e.GUID != "ABC-123" || e.Name != "App" {
		t.Errorf("entry = %+v, want id/guid/name of the registration", e)
	}
	if entriesAtMutation != 1 {
		t.Error("correlation must be registered before the snapshot mutation")
	}
}

func TestRegister_RefreshesLanguageFlagAfterMutation(t *testing.T) {
	h := newHarness(t)

	if _, err := h.reg.Register(context.Background(), ProjectInfo{Name: "App", Language: "CSharp"}); err != nil {
		t.Fatal(err)
	}

	got := h.shell.Refreshed()
	if len(got) != 1 || got[0] != LanguageCSharp {
		t.Errorf("refreshed flags = %v, want [csharp] (normalized)", got)
	}
}

func TestRegister_CancelBeforeMutationWindow(t *testing.T) {
	h := newHarness(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := h.reg.Register(ctx, ProjectInfo{Name: "App", Language: LanguageCSharp})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Register error = %v, want context.Canceled", err)
	}
	if h.store.Current().ProjectCount() != 0 {
		t.Error("cancelled registration must not change the snapshot")
	}
}

func TestRegister_CancelDuringMutationWindowIgnored(t *testing.T) {
	h := newHarness(t)

	ctx, cancel := context.WithCancel(context.Background())

	// Cancel from inside the mutation: the window has begun, so the
	// registration must still complete, including the UI refresh.
	h.store.OnChange(func(solution.ChangeEvent) { cancel() })

	handle, err := h.reg.Register(ctx, ProjectInfo{Name: "App", Language: LanguageCSharp})
	if err != nil {
		t.Fatalf("Register error = %v, want completion despite cancel", err)
	}
	if handle == nil {
		t.Fatal("expected a project handle")
	}
	if h.store.Current().ProjectCount() != 1 {
		t.Error("registration should have landed")
	}
	if got := h.shell.Refreshed(); len(got) != 1 {
		t.Errorf("ui refresh ran %d times, want 1 (sealed window ignores cancel)", len(got))
	}
}

func TestRegister_ConcurrentOnEmptyWorkspace(t *testing.T) {
	h := newHarness(t)
	const n = 12

	var mu sync.Mutex
	var created, added int
	h.store.OnChange(func(ev solution.ChangeEvent) {
		mu.Lock()
		defer mu.Unlock()
		switch ev.Kind {
		case solution.SolutionCreated:
			created++
		case solution.ProjectAdded:
			added++
		}
	})

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := h.reg.Register(context.Background(), ProjectInfo{
				Name: "P", Language: LanguageCSharp,
			})
			if err != nil {
				t.Errorf("Register %d error: %v", i, err)
			}
		}(i)
	}
	wg.Wait()

	snap := h.store.Current()
	if snap.ProjectCount() != n {
		t.Errorf("final count = %d, want %d", snap.ProjectCount(), n)
	}
	if created != 1 {
		t.Errorf("SolutionCreated = %d, want exactly 1", created)
	}
	if added != n-1 {
		t.Errorf("ProjectAdded = %d, want %d", added, n-1)
	}
}

func TestRegister_OptionsInitFailureAborts(t *testing.T) {
	h := newHarness(t)
	h.options.Err = errors.New("options store offline")

	_, err := h.reg.Register(context.Background(), ProjectInfo{Name: "App", Language: LanguageCSharp})
	if err == nil {
		t.Fatal("expected error when options init fails")
	}
	if h.store.Current().ProjectCount() != 0 {
		t.Error("failed init must not change the snapshot")
	}
}

func TestRegister_HandleLive(t *testing.T) {
	h := newHarness(t)

	handle, err := h.reg.Register(context.Background(), ProjectInfo{Name: "App", Language: LanguageCSharp})
	if err != nil {
		t.Fatal(err)
	}
	live, ok := handle.Live()
	if !ok {
		t.Fatal("Live() did not find the project")
	}
	if live.ID() != handle.ID() {
		t.Errorf("Live id = %v, want %v", live.ID(), handle.ID())
	}
}

func TestNew_RequiresWiring(t *testing.T) {
	if _, err := New(Config{Store: solution.NewStore()}); err == nil {
		t.Error("New without coordinator should fail")
	}

	coord := affinity.NewCoordinator()
	defer coord.Close()
	if _, err := New(Config{Coordinator: coord}); err == nil {
		t.Error("New without store should fail")
	}
}
