package probe

import (
	"os"
	"path/filepath"
	"runtime"

	"github.com/nebula-lang/nebula-setup/internal/editors"
)

// Scope says where a detection candidate lives.
type Scope string

const (
	ScopeUser       Scope = "per-user"
	ScopeMachine    Scope = "per-machine"
	ScopePathLookup Scope = "path-lookup"
)

// Candidate is one well-known location for an editor. For ScopePathLookup
// Path is a command name rather than a path.
type Candidate struct {
	Scope Scope
	Path  string
}

// Layout holds the directories detection candidates are built from.
// Tests point these at temporary directories.
type Layout struct {
	GOOS string
	// Home is the user's home directory.
	Home string
	// ConfigHome is $XDG_CONFIG_HOME (default ~/.config), or %APPDATA% on
	// Windows.
	ConfigHome string
	// LocalAppData is %LOCALAPPDATA% (Windows only).
	LocalAppData string
	// ProgramFiles is %ProgramFiles% (Windows only).
	ProgramFiles string
	// MachineRoot prefixes per-machine Unix paths; "/" outside tests.
	MachineRoot string
	// PortableRoot is the directory holding a portable VSCode/ folder.
	PortableRoot string
	// PortableData is $VSCODE_PORTABLE, the data dir of a running
	// portable VS Code.
	PortableData string
}

// LayoutFromEnv builds the Layout for the current user.
func LayoutFromEnv(portableRoot string) Layout {
	home, _ := os.UserHomeDir()
	l := Layout{
		GOOS:         runtime.GOOS,
		Home:         home,
		MachineRoot:  string(filepath.Separator),
		PortableRoot: portableRoot,
		PortableData: os.Getenv("VSCODE_PORTABLE"),
	}

	switch runtime.GOOS {
	case "windows":
		l.ConfigHome = os.Getenv("APPDATA")
		if l.ConfigHome == "" {
			l.ConfigHome = filepath.Join(home, "AppData", "Roaming")
		}
		l.LocalAppData = os.Getenv("LOCALAPPDATA")
		if l.LocalAppData == "" {
			l.LocalAppData = filepath.Join(home, "AppData", "Local")
		}
		l.ProgramFiles = os.Getenv("ProgramFiles")
		if l.ProgramFiles == "" {
			l.ProgramFiles = `C:\Program Files`
		}
		l.MachineRoot = ""
	default:
		l.ConfigHome = os.Getenv("XDG_CONFIG_HOME")
		if l.ConfigHome == "" {
			l.ConfigHome = filepath.Join(home, ".config")
		}
	}
	return l
}

func (l Layout) goos() string {
	if l.GOOS == "" {
		return runtime.GOOS
	}
	return l.GOOS
}

func (l Layout) machine(parts ...string) string {
	return filepath.Join(append([]string{l.MachineRoot}, parts...)...)
}

// NeovimConfigDir returns where Neovim reads its user config.
func (l Layout) NeovimConfigDir() string {
	if l.goos() == "windows" {
		return filepath.Join(l.LocalAppData, "nvim")
	}
	return filepath.Join(l.ConfigHome, "nvim")
}

// JetBrainsConfigRoot returns the directory holding per-product configs.
func (l Layout) JetBrainsConfigRoot() string {
	if l.goos() == "darwin" {
		return filepath.Join(l.Home, "Library", "Application Support", "JetBrains")
	}
	return filepath.Join(l.ConfigHome, "JetBrains")
}

// Candidates returns the ordered detection list for kind: per-user first,
// then per-machine, then a PATH lookup for command-line tools.
func (l Layout) Candidates(kind editors.Kind) []Candidate {
	switch kind {
	case editors.VSCode:
		return l.vscodeCandidates()
	case editors.VSCodePortable:
		return l.portableCandidates()
	case editors.Neovim:
		return []Candidate{
			{Scope: ScopeUser, Path: l.NeovimConfigDir()},
			{Scope: ScopePathLookup, Path: "nvim"},
		}
	case editors.JetBrains:
		return []Candidate{{Scope: ScopeUser, Path: l.JetBrainsConfigRoot()}}
	default:
		return nil
	}
}

func (l Layout) vscodeCandidates() []Candidate {
	switch l.goos() {
	case "windows":
		return []Candidate{
			{Scope: ScopeUser, Path: filepath.Join(l.LocalAppData, "Programs", "Microsoft VS Code", "bin", "code.cmd")},
			{Scope: ScopeMachine, Path: filepath.Join(l.ProgramFiles, "Microsoft VS Code", "bin", "code.cmd")},
			{Scope: ScopePathLookup, Path: "code"},
		}
	case "darwin":
		app := filepath.Join("Visual Studio Code.app", "Contents", "Resources", "app", "bin", "code")
		return []Candidate{
			{Scope: ScopeUser, Path: filepath.Join(l.Home, "Applications", app)},
			{Scope: ScopeMachine, Path: l.machine("Applications", app)},
			{Scope: ScopePathLookup, Path: "code"},
		}
	default:
		return []Candidate{
			{Scope: ScopeUser, Path: filepath.Join(l.Home, ".local", "bin", "code")},
			{Scope: ScopeMachine, Path: l.machine("usr", "share", "code", "bin", "code")},
			{Scope: ScopePathLookup, Path: "code"},
		}
	}
}

// portableCandidates has no PATH fallback: a code on PATH is never the
// portable build.
func (l Layout) portableCandidates() []Candidate {
	bin := "code"
	if l.goos() == "windows" {
		bin = "code.cmd"
	}
	var out []Candidate
	if l.PortableRoot != "" {
		out = append(out, Candidate{Scope: ScopeUser, Path: filepath.Join(l.PortableRoot, "VSCode", "bin", bin)})
	}
	if l.PortableData != "" {
		// VSCODE_PORTABLE points at <install>/data.
		out = append(out, Candidate{Scope: ScopeUser, Path: filepath.Join(filepath.Dir(l.PortableData), "bin", bin)})
	}
	return out
}
