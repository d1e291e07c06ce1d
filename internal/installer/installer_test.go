package installer

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/nebula-lang/nebula-setup/internal/config"
	"github.com/nebula-lang/nebula-setup/internal/desktop"
	"github.com/nebula-lang/nebula-setup/internal/editors"
	"github.com/nebula-lang/nebula-setup/internal/ledger"
	"github.com/nebula-lang/nebula-setup/internal/pathenv"
	"github.com/nebula-lang/nebula-setup/internal/payload"
	"github.com/nebula-lang/nebula-setup/internal/probe"
	"github.com/nebula-lang/nebula-setup/internal/reconcile"
)

// fakeProber returns canned probe results over a real ledger.
type fakeProber struct {
	ledger      *ledger.Ledger
	platformErr error
	spaceErr    error
	targets     []editors.Target
}

func (p *fakeProber) CheckPlatformSupported() error { return p.platformErr }

func (p *fakeProber) CheckDiskSpace(string, uint64) error { return p.spaceErr }

func (p *fakeProber) DetectExistingInstall(ctx context.Context) (*ledger.Record, bool, error) {
	rec, err := p.ledger.Read(ctx)
	if errors.Is(err, ledger.ErrAbsent) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return rec, true, nil
}

func (p *fakeProber) DetectEditors() []editors.Target { return p.targets }

// countingDispatcher wraps a real dispatcher and counts invocations.
type countingDispatcher struct {
	inner *editors.Dispatcher
	calls int
}

func (d *countingDispatcher) Dispatch(ctx context.Context, targets []editors.Target, selected map[editors.Kind]bool) []editors.Result {
	d.calls++
	return d.inner.Dispatch(ctx, targets, selected)
}

type fakeRunner struct {
	mu    sync.Mutex
	calls []string
}

func (f *fakeRunner) Run(ctx context.Context, timeout time.Duration, name string, args ...string) editors.ProcessResult {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, name+" "+strings.Join(args, " "))
	return editors.ProcessResult{Attempted: true, HasExitCode: true}
}

type fakeDesktop struct {
	shortcut, association     bool
	shortcutErr               error
	createdWith, associatedTo string
}

func (d *fakeDesktop) CreateShortcut(exe string) error {
	if d.shortcutErr != nil {
		return d.shortcutErr
	}
	d.shortcut, d.createdWith = true, exe
	return nil
}

func (d *fakeDesktop) RemoveShortcut() (bool, error) {
	had := d.shortcut
	d.shortcut = false
	return had, nil
}

func (d *fakeDesktop) RegisterAssociation(exe string) error {
	d.association, d.associatedTo = true, exe
	return nil
}

func (d *fakeDesktop) RemoveAssociation() (bool, error) {
	had := d.association
	d.association = false
	return had, nil
}

func (d *fakeDesktop) Describe() []desktop.Artifact {
	return []desktop.Artifact{
		{Name: "shortcut", Present: d.shortcut},
		{Name: "association", Present: d.association},
	}
}

type env struct {
	t        *testing.T
	session  *Session
	root     string
	payload  string
	nvimDir  string
	store    *pathenv.MemStore
	prober   *fakeProber
	disp     *countingDispatcher
	runner   *fakeRunner
	desktop  *fakeDesktop
	ledger   *ledger.Ledger
	list     pathenv.List
	basePATH string
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	return string(data)
}

func newEnv(t *testing.T, build reconcile.Build) *env {
	t.Helper()
	base := t.TempDir()
	e := &env{
		t:        t,
		root:     filepath.Join(base, "Nebula"),
		payload:  filepath.Join(base, "payload"),
		nvimDir:  filepath.Join(base, "nvim"),
		list:     pathenv.List{Sep: ":"},
		basePATH: "/usr/bin:/bin",
		runner:   &fakeRunner{},
		desktop:  &fakeDesktop{},
	}

	writeFile(t, filepath.Join(e.payload, "bin", "nebula"), "nebula "+build.ProductVersion)
	writeFile(t, filepath.Join(e.payload, "lib", "std", "io.na"), "io")
	writeFile(t, filepath.Join(e.payload, "LICENSE"), "license")
	writeFile(t, filepath.Join(e.payload, "README"), "readme")
	writeFile(t, filepath.Join(e.payload, "config", "settings.toml"), "default = true\n")
	writeFile(t, filepath.Join(e.payload, "extensions", payload.VSIXName), "vsix")
	if err := os.MkdirAll(e.nvimDir, 0o755); err != nil {
		t.Fatal(err)
	}

	b, err := ledger.OpenSQLite(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	e.ledger = ledger.New(b)
	t.Cleanup(func() { e.ledger.Close() })

	e.store = pathenv.NewMemStore(map[string]string{"PATH": e.basePATH})
	e.prober = &fakeProber{
		ledger: e.ledger,
		targets: []editors.Target{
			{Kind: editors.VSCode, Detected: true, Locator: "/fake/code"},
			{Kind: editors.VSCodePortable},
			{Kind: editors.Neovim, Detected: true, Locator: e.nvimDir, ConfigDir: e.nvimDir},
			{Kind: editors.JetBrains},
			{Kind: editors.Other},
		},
	}
	e.disp = &countingDispatcher{inner: editors.NewDispatcher(editors.Options{
		VSIXPath: payload.Artifact(e.payload, payload.VSIXName),
	}, e.runner, nil)}

	cfg := &config.Config{
		InstallDir:   e.root,
		PayloadDir:   e.payload,
		MinFreeBytes: 1,
	}
	e.session = e.newSession(cfg, build)
	return e
}

func (e *env) newSession(cfg *config.Config, build reconcile.Build) *Session {
	return NewSession(cfg, build, Deps{
		Probe:      e.prober,
		Ledger:     e.ledger,
		PathStore:  e.store,
		PathList:   &e.list,
		Desktop:    e.desktop,
		Dispatcher: e.disp,
		GOOS:       "linux",
		Now:        func() time.Time { return time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC) },
	})
}

func (e *env) path() string {
	v, _ := e.store.Get("PATH")
	return v
}

func (e *env) seedRecord(productVersion, extensionVersion string) {
	e.t.Helper()
	ctx := context.Background()
	rep, err := Install(ctx, e.session, InstallOptions{})
	if err != nil {
		e.t.Fatalf("seed install: %v", err)
	}
	rec := *rep.Record
	rec.ProductVersion = productVersion
	rec.ExtensionVersion = extensionVersion
	if err := e.ledger.Write(ctx, &rec); err != nil {
		e.t.Fatal(err)
	}
	e.disp.calls = 0
	e.runner.calls = nil
}

func TestInstall_Fresh(t *testing.T) {
	e := newEnv(t, reconcile.Build{ProductVersion: "1.0.0", ExtensionVersion: "1.0.0"})
	ctx := context.Background()

	rep, err := Install(ctx, e.session, InstallOptions{})
	if err != nil {
		t.Fatalf("Install: %v", err)
	}

	if rep.Plan.State != reconcile.FreshInstall {
		t.Errorf("State = %v, want FreshInstall", rep.Plan.State)
	}
	if got := readFile(t, filepath.Join(e.root, "bin", "nebula")); got != "nebula 1.0.0" {
		t.Errorf("bin/nebula = %q", got)
	}
	if _, err := os.Stat(filepath.Join(e.root, "extensions")); !os.IsNotExist(err) {
		t.Error("extensions should stay in the payload")
	}

	m, err := payload.LoadManifest(e.root)
	if err != nil {
		t.Fatalf("manifest: %v", err)
	}
	for _, want := range []string{"bin/nebula", "lib/std/io.na", "LICENSE", "README", payload.LogName, payload.ManifestName} {
		found := false
		for _, f := range m.Files {
			found = found || f == want
		}
		if !found {
			t.Errorf("manifest missing %q: %v", want, m.Files)
		}
	}

	wantPath := e.basePATH + ":" + BinDir(e.root)
	if got := e.path(); got != wantPath {
		t.Errorf("PATH = %q, want %q", got, wantPath)
	}
	if !rep.PathChanged {
		t.Error("PathChanged = false")
	}

	rec, err := e.ledger.Read(ctx)
	if err != nil {
		t.Fatalf("ledger: %v", err)
	}
	if rec.InstallPath != e.root || rec.ProductVersion != "1.0.0" || rec.ExtensionVersion != "1.0.0" {
		t.Errorf("record = %+v", rec)
	}
	if rec.InstallDate.Format(ledger.DateLayout) != "2026-05-01" {
		t.Errorf("InstallDate = %v", rec.InstallDate)
	}

	if e.disp.calls != 1 {
		t.Errorf("dispatcher calls = %d, want 1", e.disp.calls)
	}
	if len(e.runner.calls) != 1 || !strings.Contains(e.runner.calls[0], "--install-extension") {
		t.Errorf("runner calls = %v", e.runner.calls)
	}
	if _, err := os.Stat(filepath.Join(e.nvimDir, editors.NeovimHelperPath)); err != nil {
		t.Errorf("neovim helper not written: %v", err)
	}

	// Shortcut and association default off.
	if e.desktop.shortcut || e.desktop.association {
		t.Error("desktop tasks ran without being selected")
	}
}

func TestInstall_SelectionOverrides(t *testing.T) {
	e := newEnv(t, reconcile.Build{ProductVersion: "1.0.0", ExtensionVersion: "1.0.0"})

	rep, err := Install(context.Background(), e.session, InstallOptions{Selection: TaskSelection{
		AddToPath:       ForcedOff,
		DesktopShortcut: SelectedOn,
		FileAssociation: SelectedOn,
		Editors:         map[editors.Kind]TriState{editors.VSCode: SelectedOff},
	}})
	if err != nil {
		t.Fatal(err)
	}

	if got := e.path(); got != e.basePATH {
		t.Errorf("PATH changed with --no-path: %q", got)
	}
	if len(e.runner.calls) != 0 {
		t.Errorf("vscode ran while deselected: %v", e.runner.calls)
	}
	if !e.desktop.shortcut || e.desktop.createdWith != filepath.Join(e.root, "bin", "nebula") {
		t.Errorf("shortcut = %v (%q)", e.desktop.shortcut, e.desktop.createdWith)
	}
	if !e.desktop.association {
		t.Error("association not registered")
	}
	for _, r := range rep.Results {
		if r.Kind == editors.VSCode && r.Outcome != editors.SkippedByFlag {
			t.Errorf("vscode outcome = %v, want SkippedByFlag", r.Outcome)
		}
	}
}

func TestInstall_UpgradeSameVersionSkipsExtensions(t *testing.T) {
	e := newEnv(t, reconcile.Build{ProductVersion: "1.0.0", ExtensionVersion: "1.0.0"})
	e.seedRecord("1.0.0", "1.0.0")

	userCfg := filepath.Join(e.root, "config", "settings.toml")
	writeFile(t, userCfg, "user = true\n")
	pathBefore := e.path()
	writesBefore := e.store.Writes()

	rep, err := Install(context.Background(), e.session, InstallOptions{})
	if err != nil {
		t.Fatalf("Install: %v", err)
	}
	if rep.Plan.State != reconcile.UpgradeSameVersion {
		t.Fatalf("State = %v, want UpgradeSameVersion", rep.Plan.State)
	}
	if e.disp.calls != 0 || len(e.runner.calls) != 0 {
		t.Errorf("dispatcher calls = %d, runner calls = %v; want none", e.disp.calls, e.runner.calls)
	}
	if got := readFile(t, userCfg); got != "user = true\n" {
		t.Errorf("user config = %q, want preserved", got)
	}
	if e.store.Writes() != writesBefore || e.path() != pathBefore {
		t.Error("PATH written during same-version upgrade")
	}
}

func TestInstall_UpgradeNewExtensionVersionRunsDispatcher(t *testing.T) {
	e := newEnv(t, reconcile.Build{ProductVersion: "1.0.0", ExtensionVersion: "1.0.0"})
	e.seedRecord("1.0.0", "1.0.0")

	s := e.newSession(e.session.Config, reconcile.Build{ProductVersion: "1.1.0", ExtensionVersion: "1.1.0"})
	rep, err := Install(context.Background(), s, InstallOptions{})
	if err != nil {
		t.Fatalf("Install: %v", err)
	}
	if rep.Plan.State != reconcile.UpgradeNewVersion {
		t.Fatalf("State = %v, want UpgradeNewVersion", rep.Plan.State)
	}
	if e.disp.calls != 1 {
		t.Fatalf("dispatcher calls = %d, want 1", e.disp.calls)
	}

	attempted := map[editors.Kind]bool{}
	for _, r := range rep.Results {
		if r.Attempted() {
			attempted[r.Kind] = true
		}
	}
	for _, k := range []editors.Kind{editors.VSCode, editors.Neovim} {
		if !attempted[k] {
			t.Errorf("%s not attempted; results = %+v", k, rep.Results)
		}
	}

	rec, err := e.ledger.Read(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if rec.ProductVersion != "1.1.0" || rec.ExtensionVersion != "1.1.0" {
		t.Errorf("record = %+v", rec)
	}
}

func TestInstall_UpgradeKeepsOldManifestEntries(t *testing.T) {
	e := newEnv(t, reconcile.Build{ProductVersion: "1.0.0", ExtensionVersion: "1.0.0"})
	writeFile(t, filepath.Join(e.payload, "lib", "std", "legacy.na"), "legacy")
	e.seedRecord("1.0.0", "1.0.0")

	if err := os.Remove(filepath.Join(e.payload, "lib", "std", "legacy.na")); err != nil {
		t.Fatal(err)
	}
	s := e.newSession(e.session.Config, reconcile.Build{ProductVersion: "2.0.0", ExtensionVersion: "1.0.0"})
	if _, err := Install(context.Background(), s, InstallOptions{}); err != nil {
		t.Fatal(err)
	}

	m, err := payload.LoadManifest(e.root)
	if err != nil {
		t.Fatal(err)
	}
	found := false
	for _, f := range m.Files {
		found = found || f == "lib/std/legacy.na"
	}
	if !found {
		t.Errorf("file from the previous version dropped from manifest: %v", m.Files)
	}
}

func TestInstall_PathFailureIsWarning(t *testing.T) {
	e := newEnv(t, reconcile.Build{ProductVersion: "1.0.0", ExtensionVersion: "1.0.0"})
	e.store.SetErr = errors.New("access denied")

	rep, err := Install(context.Background(), e.session, InstallOptions{})
	if err != nil {
		t.Fatalf("Install failed on PATH error: %v", err)
	}
	if len(rep.Warnings) != 1 || !strings.Contains(rep.Warnings[0], "PATH not configured") {
		t.Errorf("Warnings = %v", rep.Warnings)
	}
	if rep.Record == nil {
		t.Error("ledger not written after PATH warning")
	}
}

func TestInstall_FatalPreconditions(t *testing.T) {
	tests := []struct {
		name  string
		setup func(e *env)
		want  error
	}{
		{"unsupported platform", func(e *env) {
			e.prober.platformErr = probe.ErrUnsupportedPlatform
		}, probe.ErrUnsupportedPlatform},
		{"insufficient space", func(e *env) {
			e.prober.spaceErr = probe.ErrInsufficientSpace
		}, probe.ErrInsufficientSpace},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newEnv(t, reconcile.Build{ProductVersion: "1.0.0", ExtensionVersion: "1.0.0"})
			tt.setup(e)

			_, err := Install(context.Background(), e.session, InstallOptions{})
			if !errors.Is(err, tt.want) {
				t.Fatalf("err = %v, want %v", err, tt.want)
			}
			if Classify(err) != FatalPrecondition {
				t.Errorf("Classify = %v", Classify(err))
			}
			if _, err := os.Stat(e.root); !os.IsNotExist(err) {
				t.Error("install root created despite failed precondition")
			}
			if e.store.Writes() != 0 {
				t.Error("PATH written despite failed precondition")
			}
		})
	}
}

func TestInstall_CopyFailureLeavesPathAlone(t *testing.T) {
	e := newEnv(t, reconcile.Build{ProductVersion: "1.0.0", ExtensionVersion: "1.0.0"})
	e.session.Config.PayloadDir = filepath.Join(t.TempDir(), "missing")

	_, err := Install(context.Background(), e.session, InstallOptions{})
	if !errors.Is(err, payload.ErrCopyFailed) {
		t.Fatalf("err = %v, want ErrCopyFailed", err)
	}
	if Classify(err) != MutationFailure {
		t.Errorf("Classify = %v", Classify(err))
	}
	if e.store.Writes() != 0 {
		t.Error("PATH written after failed copy")
	}
	if ok, _ := e.ledger.Exists(context.Background()); ok {
		t.Error("ledger written after failed copy")
	}
}

func TestInstall_PathConflict(t *testing.T) {
	e := newEnv(t, reconcile.Build{ProductVersion: "1.0.0", ExtensionVersion: "1.0.0"})
	e.seedRecord("1.0.0", "1.0.0")

	_, err := Install(context.Background(), e.session, InstallOptions{Dir: filepath.Join(t.TempDir(), "elsewhere")})
	if !errors.Is(err, ErrInstallPathConflict) {
		t.Errorf("err = %v, want ErrInstallPathConflict", err)
	}
}

func TestInstall_DryRun(t *testing.T) {
	e := newEnv(t, reconcile.Build{ProductVersion: "1.0.0", ExtensionVersion: "1.0.0"})

	rep, err := Install(context.Background(), e.session, InstallOptions{DryRun: true})
	if err != nil {
		t.Fatal(err)
	}
	if rep.Plan.State != reconcile.FreshInstall || rep.Root != e.root {
		t.Errorf("report = %+v", rep)
	}
	if _, err := os.Stat(e.root); !os.IsNotExist(err) {
		t.Error("dry run created the install root")
	}
	if e.store.Writes() != 0 || e.disp.calls != 0 {
		t.Error("dry run mutated state")
	}
}

func TestInstall_Cancelled(t *testing.T) {
	e := newEnv(t, reconcile.Build{ProductVersion: "1.0.0", ExtensionVersion: "1.0.0"})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Install(ctx, e.session, InstallOptions{})
	if Classify(err) != Cancelled {
		t.Errorf("err = %v, class = %v; want Cancelled", err, Classify(err))
	}
}

func TestUninstall_RoundTrip(t *testing.T) {
	e := newEnv(t, reconcile.Build{ProductVersion: "1.0.0", ExtensionVersion: "1.0.0"})
	ctx := context.Background()

	if _, err := Install(ctx, e.session, InstallOptions{Selection: TaskSelection{
		DesktopShortcut: SelectedOn,
		FileAssociation: SelectedOn,
	}}); err != nil {
		t.Fatal(err)
	}
	writeFile(t, filepath.Join(e.root, "install.log"), "log\n")
	foreign := filepath.Join(e.root, "my-scripts", "hello.na")
	writeFile(t, foreign, "print(1)")

	rep, err := Uninstall(ctx, e.session)
	if err != nil {
		t.Fatalf("Uninstall: %v", err)
	}

	if got := e.path(); got != e.basePATH {
		t.Errorf("PATH = %q, want %q", got, e.basePATH)
	}
	if ok, _ := e.ledger.Exists(ctx); ok {
		t.Error("ledger still present")
	}
	if !rep.Shortcut || !rep.Association {
		t.Errorf("desktop artifacts not removed: %+v", rep)
	}
	if got := readFile(t, foreign); got != "print(1)" {
		t.Error("foreign file touched")
	}
	if _, err := os.Stat(filepath.Join(e.root, "bin")); !os.IsNotExist(err) {
		t.Error("bin dir not removed")
	}
	if _, err := os.Stat(filepath.Join(e.nvimDir, editors.NeovimHelperPath)); err != nil {
		t.Error("neovim helper should be preserved")
	}
	if rep.Removed.RootRemoved {
		t.Error("root removed while it holds user files")
	}

	if _, err := Uninstall(ctx, e.session); !errors.Is(err, ErrNotInstalled) {
		t.Errorf("second Uninstall err = %v, want ErrNotInstalled", err)
	}
}

func TestUninstall_NotInstalled(t *testing.T) {
	e := newEnv(t, reconcile.Build{ProductVersion: "1.0.0", ExtensionVersion: "1.0.0"})

	_, err := Uninstall(context.Background(), e.session)
	if !errors.Is(err, ErrNotInstalled) {
		t.Fatalf("err = %v, want ErrNotInstalled", err)
	}
	if Classify(err) != FatalPrecondition {
		t.Errorf("Classify = %v", Classify(err))
	}
}

func TestUninstall_MissingManifestUsesDefaultLayout(t *testing.T) {
	e := newEnv(t, reconcile.Build{ProductVersion: "1.0.0", ExtensionVersion: "1.0.0"})
	ctx := context.Background()
	if _, err := Install(ctx, e.session, InstallOptions{}); err != nil {
		t.Fatal(err)
	}
	if err := os.Remove(filepath.Join(e.root, payload.ManifestName)); err != nil {
		t.Fatal(err)
	}

	rep, err := Uninstall(ctx, e.session)
	if err != nil {
		t.Fatal(err)
	}
	if !rep.UsedFallback {
		t.Error("UsedFallback = false")
	}
	if _, err := os.Stat(filepath.Join(e.root, "bin", "nebula")); !os.IsNotExist(err) {
		t.Error("binary not removed by default layout")
	}
	if _, err := os.Stat(filepath.Join(e.root, "lib", "std")); !os.IsNotExist(err) {
		t.Error("standard library left behind by default layout")
	}
	// config/ is never part of the default layout.
	if _, err := os.Stat(filepath.Join(e.root, "config", "settings.toml")); err != nil {
		t.Error("default layout removed the user config")
	}
}

func TestUninstall_PathFailureIsWarning(t *testing.T) {
	e := newEnv(t, reconcile.Build{ProductVersion: "1.0.0", ExtensionVersion: "1.0.0"})
	ctx := context.Background()
	if _, err := Install(ctx, e.session, InstallOptions{}); err != nil {
		t.Fatal(err)
	}
	e.store.GetErr = errors.New("denied")

	rep, err := Uninstall(ctx, e.session)
	if err != nil {
		t.Fatalf("Uninstall: %v", err)
	}
	if len(rep.Warnings) == 0 {
		t.Error("expected a PATH warning")
	}
}

func TestStatus(t *testing.T) {
	e := newEnv(t, reconcile.Build{ProductVersion: "1.0.0", ExtensionVersion: "1.0.0"})
	ctx := context.Background()

	v := Status(ctx, e.session, "memory")
	if v.Record != nil {
		t.Fatalf("record before install: %+v", v.Record)
	}

	if _, err := Install(ctx, e.session, InstallOptions{}); err != nil {
		t.Fatal(err)
	}
	v = Status(ctx, e.session, "memory")
	if v.Record == nil || !v.OnPath || v.ManifestN == 0 {
		t.Errorf("status = %+v", v)
	}
	if len(v.Targets) != len(e.prober.targets) {
		t.Errorf("targets = %d", len(v.Targets))
	}
}

func TestTaskSelection_Resolve(t *testing.T) {
	targets := []editors.Target{
		{Kind: editors.VSCode, Detected: true},
		{Kind: editors.Neovim, Detected: false},
		{Kind: editors.JetBrains, Detected: true},
	}

	got := TaskSelection{
		Editors: map[editors.Kind]TriState{
			editors.Neovim:    SelectedOn,
			editors.JetBrains: ForcedOff,
		},
	}.Resolve(targets)

	if !got.AddToPath || got.DesktopShortcut || got.FileAssociation {
		t.Errorf("defaults = %+v", got)
	}
	want := map[editors.Kind]bool{editors.VSCode: true, editors.Neovim: true, editors.JetBrains: false}
	for k, v := range want {
		if got.Editors[k] != v {
			t.Errorf("Editors[%s] = %v, want %v", k, got.Editors[k], v)
		}
	}
}

func TestParseChoice(t *testing.T) {
	tests := []struct {
		in      string
		want    TriState
		wantErr bool
	}{
		{"on", SelectedOn, false},
		{"off", SelectedOff, false},
		{"true", SelectedOn, false},
		{"", Default, false},
		{"maybe", Default, true},
	}
	for _, tt := range tests {
		got, err := ParseChoice(tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("ParseChoice(%q) = %v, %v; want %v, err=%v", tt.in, got, err, tt.want, tt.wantErr)
		}
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		err  error
		want Class
	}{
		{nil, ClassNone},
		{probe.ErrUnsupportedPlatform, FatalPrecondition},
		{probe.ErrInsufficientSpace, FatalPrecondition},
		{ErrNotInstalled, FatalPrecondition},
		{payload.ErrCopyFailed, MutationFailure},
		{pathenv.ErrPathMutation, MutationFailure},
		{ErrRemoveFailed, MutationFailure},
		{context.Canceled, Cancelled},
		{errors.New("other"), Unclassified},
	}
	for _, tt := range tests {
		if got := Classify(tt.err); got != tt.want {
			t.Errorf("Classify(%v) = %v, want %v", tt.err, got, tt.want)
		}
	}

	if FatalPrecondition.Fails() != true || IntegrationFailure.Fails() || Informational.Fails() {
		t.Error("Fails() mapping wrong")
	}
	if OutcomeClass(editors.FailedIgnored) != IntegrationFailure {
		t.Error("FailedIgnored should map to IntegrationFailure")
	}
}

func TestInstall_OpenLogOnlyAfterGates(t *testing.T) {
	e := newEnv(t, reconcile.Build{ProductVersion: "1.0.0", ExtensionVersion: "1.0.0"})
	opened := 0
	rootSeen := true
	e.session.OpenLog = func() error {
		opened++
		_, err := os.Stat(e.root)
		rootSeen = err == nil
		return nil
	}

	e.prober.spaceErr = probe.ErrInsufficientSpace
	if _, err := Install(context.Background(), e.session, InstallOptions{}); err == nil {
		t.Fatal("expected disk space failure")
	}
	if opened != 0 {
		t.Errorf("OpenLog called %d times after a failed gate", opened)
	}

	e.prober.spaceErr = nil
	if _, err := Install(context.Background(), e.session, InstallOptions{DryRun: true}); err != nil {
		t.Fatal(err)
	}
	if opened != 0 {
		t.Error("OpenLog called on a dry run")
	}

	if _, err := Install(context.Background(), e.session, InstallOptions{}); err != nil {
		t.Fatal(err)
	}
	if opened != 1 {
		t.Errorf("OpenLog calls = %d, want 1", opened)
	}
	if rootSeen {
		t.Error("OpenLog ran after the install root was created")
	}
}

func TestInstall_OpenLogFailureIsWarning(t *testing.T) {
	e := newEnv(t, reconcile.Build{ProductVersion: "1.0.0", ExtensionVersion: "1.0.0"})
	e.session.OpenLog = func() error { return errors.New("read-only") }

	rep, err := Install(context.Background(), e.session, InstallOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if len(rep.Warnings) != 1 || !strings.Contains(rep.Warnings[0], "install log unavailable") {
		t.Errorf("Warnings = %v", rep.Warnings)
	}
}
