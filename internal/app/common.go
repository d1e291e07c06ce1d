package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"

	"github.com/charmbracelet/log"

	"github.com/nebula-lang/nebula-setup/internal/buildinfo"
	"github.com/nebula-lang/nebula-setup/internal/config"
	"github.com/nebula-lang/nebula-setup/internal/desktop"
	"github.com/nebula-lang/nebula-setup/internal/editors"
	"github.com/nebula-lang/nebula-setup/internal/installer"
	"github.com/nebula-lang/nebula-setup/internal/ledger"
	"github.com/nebula-lang/nebula-setup/internal/logging"
	"github.com/nebula-lang/nebula-setup/internal/pathenv"
	"github.com/nebula-lang/nebula-setup/internal/payload"
	"github.com/nebula-lang/nebula-setup/internal/probe"
	"github.com/nebula-lang/nebula-setup/internal/reconcile"
)

// sessionOptions are the per-command knobs for building a session.
type sessionOptions struct {
	verbosity logging.Verbosity
	// logPath opens an install log sink when set.
	logPath string
	// installLog sets up the install log at its configured location when
	// logPath is empty. The recorded install root takes precedence over
	// install_dir so an upgrade appends to the existing log. The file is
	// only created once the install flow passes its gate checks; until then
	// lines are buffered and spill to the temp dir if the run stops early.
	installLog bool
	// progress enables the copy progress bar on stderr.
	progress     bool
	noExtensions bool
}

// earlyLogName receives install log lines of a run that stopped before
// the install root could be created.
const earlyLogName = "nebula-install.log"

// runtimeSession is a session plus the resources that must be released.
type runtimeSession struct {
	*installer.Session
	ledger  *ledger.Ledger
	logFile *logging.File
}

func (r *runtimeSession) Close() error {
	var errs []error
	if r.logFile != nil {
		errs = append(errs, r.logFile.Close())
	}
	if r.ledger != nil {
		errs = append(errs, r.ledger.Close())
	}
	return errors.Join(errs...)
}

// currentBuild returns the versions embedded in this binary.
func currentBuild() reconcile.Build {
	return reconcile.Build{
		ProductVersion:   buildinfo.ProductVersion,
		ExtensionVersion: buildinfo.ExtensionVersion,
	}
}

func currentVerbosity() logging.Verbosity {
	if verbose {
		return logging.Verbose
	}
	return logging.Normal
}

// loadConfig reads the config file named by --config, or the default one.
func loadConfig() (*config.Config, error) {
	return config.Load(configPath)
}

// openLedger opens the configured ledger backend, creating the state
// directory for sqlite.
func openLedger(cfg *config.Config) (*ledger.Ledger, error) {
	location := cfg.Ledger.Path
	switch cfg.Ledger.Backend {
	case "registry":
		if filepath.Ext(location) == ".db" {
			// The default path is the sqlite file; the registry has its own.
			location = ""
		}
	default:
		if location != ":memory:" {
			if err := os.MkdirAll(filepath.Dir(location), 0755); err != nil {
				return nil, fmt.Errorf("failed to create ledger directory: %w", err)
			}
		}
	}
	return ledger.Open(cfg.Ledger.Backend, location)
}

// newSession wires the real stores, probe and dispatcher into a session.
func newSession(ctx context.Context, cfg *config.Config, so sessionOptions) (*runtimeSession, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get user home directory: %w", err)
	}

	led, err := openLedger(cfg)
	if err != nil {
		return nil, err
	}
	rs := &runtimeSession{ledger: led}

	console := logging.Console(os.Stderr, so.verbosity)
	sink := console
	var openLog func() error
	switch {
	case so.logPath == "" && so.installLog:
		if rec, err := led.Read(ctx); err == nil {
			cfg.InstallDir = rec.InstallPath
		}
		f := logging.NewDeferred(cfg.LogPath(), filepath.Join(os.TempDir(), earlyLogName))
		rs.logFile = f
		sink = f.Logger
		openLog = f.Open
	case so.logPath != "":
		f, err := logging.OpenFile(so.logPath)
		if err != nil {
			rs.Close()
			return nil, err
		}
		rs.logFile = f
		sink = f.Logger
	}
	sink.Info("nebula-setup", "product_version", buildinfo.ProductVersion,
		"extension_version", buildinfo.ExtensionVersion, "commit", buildinfo.Commit,
		"goos", runtime.GOOS, "goarch", runtime.GOARCH)

	dispatcher := editors.NewDispatcher(editors.Options{
		Disabled:          so.noExtensions,
		ExtensionID:       cfg.Editors.ExtensionID,
		VSIXPath:          existing(payload.Artifact(cfg.PayloadDir, payload.VSIXName)),
		JetBrainsArtifact: payload.Artifact(cfg.PayloadDir, payload.JetBrainsJarName),
		JetBrainsPrefixes: cfg.Editors.JetBrainsPrefixes,
		VSCodeTimeout:     cfg.Editors.VSCodeTimeout,
	}, editors.ExecRunner{}, sink)

	prober := probe.New(probe.Options{
		Layout:            probe.LayoutFromEnv(cfg.Editors.PortableRoot),
		Ledger:            led,
		Logger:            sink,
		JetBrainsPrefixes: cfg.Editors.JetBrainsPrefixes,
	})

	store, broadcaster := pathenv.PlatformStore(home)

	var progress io.Writer
	if so.progress && so.verbosity != logging.VerySilent {
		progress = os.Stderr
	}

	rs.Session = installer.NewSession(cfg, currentBuild(), installer.Deps{
		Probe:      prober,
		Ledger:     led,
		PathStore:  store,
		Broadcast:  broadcaster,
		Desktop:    desktop.Platform(home),
		Dispatcher: &spinnerDispatcher{inner: dispatcher, timeout: cfg.Editors.VSCodeTimeout, quiet: progress == nil},
		Console:    console,
		Log:        sink,
		Progress:   progress,
		OpenLog:    openLog,
	})
	return rs, nil
}

// existing returns p when it exists, otherwise "". A missing VSIX falls
// back to the marketplace id.
func existing(p string) string {
	if _, err := os.Stat(p); err != nil {
		return ""
	}
	return p
}

// pathStoreDescription names where PATH changes are persisted.
func pathStoreDescription() string {
	if runtime.GOOS == "windows" {
		return `HKCU\Environment`
	}
	dir, err := config.StateDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, pathenv.EnvFileName)
}

// logError records a failed run in the install log. The console copy is
// printed by main.
func (r *runtimeSession) logError(err error) {
	if r.logFile == nil {
		return
	}
	logClassified(r.logFile.Logger, err)
}

func logClassified(l *log.Logger, err error) {
	class := installer.Classify(err)
	if class.Fails() {
		l.Error("run failed", "class", class, "err", err)
		return
	}
	l.Warn("run stopped", "class", class, "err", err)
}
