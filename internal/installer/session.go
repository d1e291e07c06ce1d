// Package installer runs the install, upgrade and uninstall flows.
//
// A Session is built once per invocation and passed to every step. It
// owns the stores the flows mutate and collects the run's results; nothing
// in this package keeps state between sessions.
package installer

import (
	"context"
	"io"
	"path/filepath"
	"runtime"
	"time"

	"github.com/charmbracelet/log"

	"github.com/nebula-lang/nebula-setup/internal/config"
	"github.com/nebula-lang/nebula-setup/internal/desktop"
	"github.com/nebula-lang/nebula-setup/internal/editors"
	"github.com/nebula-lang/nebula-setup/internal/ledger"
	"github.com/nebula-lang/nebula-setup/internal/pathenv"
	"github.com/nebula-lang/nebula-setup/internal/payload"
	"github.com/nebula-lang/nebula-setup/internal/reconcile"
)

// PathVar is the environment variable the installer manages.
const PathVar = "PATH"

// Prober is the environment probe as the flows use it.
type Prober interface {
	CheckPlatformSupported() error
	CheckDiskSpace(targetDir string, minimumBytes uint64) error
	DetectExistingInstall(ctx context.Context) (*ledger.Record, bool, error)
	DetectEditors() []editors.Target
}

// Dispatcher runs editor integrations.
type Dispatcher interface {
	Dispatch(ctx context.Context, targets []editors.Target, selected map[editors.Kind]bool) []editors.Result
}

// Session carries everything one run needs.
type Session struct {
	Config *config.Config
	Build  reconcile.Build
	GOOS   string

	Probe      Prober
	Ledger     *ledger.Ledger
	Path       *pathenv.Mutator
	PathList   pathenv.List
	Desktop    desktop.Integrator
	Dispatcher Dispatcher

	// Console receives messages for the person running the installer.
	Console *log.Logger
	// Log is the install log sink.
	Log *log.Logger
	// Progress receives the copy progress bar; nil disables it.
	Progress io.Writer
	// OpenLog, when set, is called once the gate checks pass and before
	// the first change to the system. It creates the install log file,
	// which may live under the install root.
	OpenLog func() error

	Now func() time.Time
}

// Deps are the collaborators NewSession wires into a Session.
type Deps struct {
	Probe      Prober
	Ledger     *ledger.Ledger
	PathStore  pathenv.Store
	Broadcast  pathenv.Broadcaster
	PathList   *pathenv.List
	Desktop    desktop.Integrator
	Dispatcher Dispatcher
	Console    *log.Logger
	Log        *log.Logger
	Progress   io.Writer
	OpenLog    func() error
	GOOS       string
	Now        func() time.Time
}

// NewSession builds a Session, filling unset loggers, list and clock.
func NewSession(cfg *config.Config, build reconcile.Build, d Deps) *Session {
	discard := log.New(io.Discard)
	s := &Session{
		Config:     cfg,
		Build:      build,
		GOOS:       d.GOOS,
		Probe:      d.Probe,
		Ledger:     d.Ledger,
		Desktop:    d.Desktop,
		Dispatcher: d.Dispatcher,
		Console:    d.Console,
		Log:        d.Log,
		Progress:   d.Progress,
		OpenLog:    d.OpenLog,
		Now:        d.Now,
	}
	if s.GOOS == "" {
		s.GOOS = runtime.GOOS
	}
	if s.Console == nil {
		s.Console = discard
	}
	if s.Log == nil {
		s.Log = discard
	}
	if s.Now == nil {
		s.Now = time.Now
	}
	s.PathList = pathenv.Platform()
	if d.PathList != nil {
		s.PathList = *d.PathList
	}
	if d.PathStore != nil {
		b := d.Broadcast
		if b == nil {
			b = pathenv.NopBroadcaster{}
		}
		s.Path = pathenv.NewMutator(d.PathStore, s.PathList, b, s.Log)
	}
	return s
}

// BinDir returns the PATH segment for an install root.
func BinDir(root string) string {
	return filepath.Join(root, payload.BinDirName)
}

// Executable returns the runtime binary path under root.
func (s *Session) Executable(root string) string {
	name := payload.ExecutableBase
	if s.GOOS == "windows" {
		name += ".exe"
	}
	return filepath.Join(BinDir(root), name)
}

// warn records a non-fatal problem on both sinks.
func (s *Session) warn(msg string, keyvals ...any) {
	s.Console.Warn(msg, keyvals...)
	s.Log.Warn(msg, keyvals...)
}

// step logs a progress message on both sinks.
func (s *Session) step(msg string, keyvals ...any) {
	s.Console.Info(msg, keyvals...)
	s.Log.Info(msg, keyvals...)
}
