// Package probe inspects the machine before anything is changed.
//
// Every operation here is read-only and safe to call repeatedly. The
// results are logged one line per probe to the install log.
package probe

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"

	"github.com/charmbracelet/log"
	"github.com/dustin/go-humanize"

	"github.com/nebula-lang/nebula-setup/internal/editors"
	"github.com/nebula-lang/nebula-setup/internal/ledger"
)

var (
	// ErrUnsupportedPlatform means the OS is older than the minimum.
	ErrUnsupportedPlatform = errors.New("unsupported platform")

	// ErrInsufficientSpace means the target volume is too full.
	ErrInsufficientSpace = errors.New("insufficient disk space")

	// errSpaceUnmeasurable marks platforms without a free space syscall.
	errSpaceUnmeasurable = errors.New("free space probing not implemented")
)

// MinimumMajor is the lowest supported OS major version per GOOS. The
// value is the Windows major version, the Linux kernel major, or the
// Darwin major (19 is macOS 10.15).
var MinimumMajor = map[string]int{
	"windows": 10,
	"linux":   3,
	"darwin":  19,
}

// LedgerReader is the part of the ledger the probe needs.
type LedgerReader interface {
	Read(ctx context.Context) (*ledger.Record, error)
}

// Prober runs environment checks.
type Prober struct {
	layout   Layout
	ledger   LedgerReader
	logger   *log.Logger
	prefixes []string

	osVersion func() (int, error)
	freeSpace func(dir string) (uint64, error)
	lookPath  func(file string) (string, error)
}

// Options configures a Prober.
type Options struct {
	Layout Layout
	Ledger LedgerReader
	Logger *log.Logger
	// JetBrainsPrefixes overrides editors.DefaultJetBrainsPrefixes.
	JetBrainsPrefixes []string
}

// New returns a Prober over the real OS.
func New(opts Options) *Prober {
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}
	prefixes := opts.JetBrainsPrefixes
	if len(prefixes) == 0 {
		prefixes = editors.DefaultJetBrainsPrefixes
	}
	return &Prober{
		layout:    opts.Layout,
		ledger:    opts.Ledger,
		logger:    logger,
		prefixes:  prefixes,
		osVersion: osMajorVersion,
		freeSpace: freeBytes,
		lookPath:  exec.LookPath,
	}
}

// CheckPlatformSupported fails with ErrUnsupportedPlatform when the OS
// major version is below MinimumMajor. Unknown OSes are allowed.
func (p *Prober) CheckPlatformSupported() error {
	goos := p.layout.goos()
	major, err := p.osVersion()
	if err != nil {
		p.logger.Warn("probe: os version unknown", "goos", goos, "err", err)
		return fmt.Errorf("%w: cannot determine %s version: %v", ErrUnsupportedPlatform, goos, err)
	}

	minimum, known := MinimumMajor[goos]
	p.logger.Info("probe: platform", "goos", goos, "arch", runtime.GOARCH, "major", major, "minimum", minimum)
	if known && major < minimum {
		return fmt.Errorf("%w: %s major version %d is below %d", ErrUnsupportedPlatform, goos, major, minimum)
	}
	return nil
}

// CheckDiskSpace fails with ErrInsufficientSpace if the volume holding
// targetDir has fewer than minimumBytes free. targetDir need not exist yet;
// its nearest existing ancestor is measured.
func (p *Prober) CheckDiskSpace(targetDir string, minimumBytes uint64) error {
	dir := nearestExisting(targetDir)
	free, err := p.freeSpace(dir)
	if errors.Is(err, errSpaceUnmeasurable) {
		p.logger.Warn("probe: disk space check skipped", "dir", dir, "err", err)
		return nil
	}
	if err != nil {
		p.logger.Warn("probe: disk space unknown", "dir", dir, "err", err)
		return fmt.Errorf("failed to measure free space on %s: %w", dir, err)
	}

	p.logger.Info("probe: disk space", "dir", dir, "free", humanize.IBytes(free), "required", humanize.IBytes(minimumBytes))
	if free < minimumBytes {
		return fmt.Errorf("%w: %s free on %s, %s required",
			ErrInsufficientSpace, humanize.IBytes(free), dir, humanize.IBytes(minimumBytes))
	}
	return nil
}

// DetectExistingInstall returns the ledger record, or found=false for a
// fresh machine.
func (p *Prober) DetectExistingInstall(ctx context.Context) (*ledger.Record, bool, error) {
	if p.ledger == nil {
		return nil, false, errors.New("probe has no ledger")
	}
	rec, err := p.ledger.Read(ctx)
	if errors.Is(err, ledger.ErrAbsent) {
		p.logger.Info("probe: existing install", "found", false)
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	p.logger.Info("probe: existing install", "found", true,
		"path", rec.InstallPath, "version", rec.ProductVersion, "extension_version", rec.ExtensionVersion)
	return rec, true, nil
}

// DetectEditor probes one editor kind. Candidates are tried in order and
// the first that exists becomes the locator.
func (p *Prober) DetectEditor(kind editors.Kind) editors.Target {
	t := editors.Target{Kind: kind}

	for _, c := range p.layout.Candidates(kind) {
		loc, ok := p.resolve(kind, c)
		if !ok {
			continue
		}
		t.Detected = true
		t.Locator = loc
		if kind == editors.Neovim && c.Scope != ScopePathLookup {
			t.ConfigDir = loc
		}
		p.logger.Info("probe: editor", "kind", kind, "detected", true, "scope", c.Scope, "locator", loc)
		return t
	}

	if kind == editors.Neovim {
		// Keep the expected config dir so the dispatcher can report it.
		t.ConfigDir = p.layout.NeovimConfigDir()
	}
	p.logger.Info("probe: editor", "kind", kind, "detected", false)
	return t
}

// DetectEditors probes every kind in editors.AllKinds.
func (p *Prober) DetectEditors() []editors.Target {
	targets := make([]editors.Target, 0, len(editors.AllKinds))
	for _, k := range editors.AllKinds {
		targets = append(targets, p.DetectEditor(k))
	}
	return targets
}

func (p *Prober) resolve(kind editors.Kind, c Candidate) (string, bool) {
	if c.Scope == ScopePathLookup {
		path, err := p.lookPath(c.Path)
		if err != nil {
			return "", false
		}
		return path, true
	}

	info, err := os.Stat(c.Path)
	if err != nil {
		return "", false
	}

	if kind == editors.JetBrains {
		if !info.IsDir() {
			return "", false
		}
		dirs, err := editors.ProductDirs(c.Path, p.prefixes)
		if err != nil || len(dirs) == 0 {
			return "", false
		}
	}
	return c.Path, true
}

// nearestExisting walks up from dir to the first path that exists.
func nearestExisting(dir string) string {
	dir = filepath.Clean(dir)
	for {
		if _, err := os.Stat(dir); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return dir
		}
		dir = parent
	}
}
