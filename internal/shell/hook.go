// Package shell wires the managed environment file into the user's login
// shell on Unix-like systems.
package shell

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// marker identifies the line block nebula-setup appends to shell profiles.
const marker = "# nebula-setup environment"

// Hook renders the PATH additions into a shell script and makes sure the
// login shell sources it.
type Hook struct {
	// Home is the user's home directory.
	Home string
	// ScriptPath is the POSIX script that carries the PATH additions.
	ScriptPath string
	// Shell overrides $SHELL when non-empty.
	Shell string
}

// Sync rewrites the script for the given PATH additions (a list-separated
// value) and ensures the profile sources it.
func (h *Hook) Sync(additions string) error {
	if err := h.writeScript(additions); err != nil {
		return err
	}
	_, _, err := h.EnsureSourced()
	return err
}

// writeScript writes the POSIX script and, for fish users, the fish
// equivalent in conf.d.
func (h *Hook) writeScript(additions string) error {
	segs := filepath.SplitList(additions)

	var sb strings.Builder
	sb.WriteString(marker + "\n")
	for _, s := range segs {
		if s == "" {
			continue
		}
		q := shQuote(s)
		fmt.Fprintf(&sb, "case \":$PATH:\" in *:%s:*) ;; *) export PATH=\"$PATH\":%s ;; esac\n", q, q)
	}

	if err := os.MkdirAll(filepath.Dir(h.ScriptPath), 0755); err != nil {
		return fmt.Errorf("cannot create %s: %w", filepath.Dir(h.ScriptPath), err)
	}
	if err := os.WriteFile(h.ScriptPath, []byte(sb.String()), 0644); err != nil {
		return fmt.Errorf("cannot write %s: %w", h.ScriptPath, err)
	}

	if h.shellName() != "fish" {
		return nil
	}

	var fish strings.Builder
	fish.WriteString(marker + "\n")
	for _, s := range segs {
		if s == "" {
			continue
		}
		fmt.Fprintf(&fish, "fish_add_path --append %s\n", fishQuote(s))
	}
	fishPath := h.fishPath()
	if err := os.MkdirAll(filepath.Dir(fishPath), 0755); err != nil {
		return fmt.Errorf("cannot create %s: %w", filepath.Dir(fishPath), err)
	}
	if err := os.WriteFile(fishPath, []byte(fish.String()), 0644); err != nil {
		return fmt.Errorf("cannot write %s: %w", fishPath, err)
	}
	return nil
}

// EnsureSourced appends a source line for the script to the profile of
// the user's shell unless the marker is already there.
// Returns (added bool, profile string, err error).
func (h *Hook) EnsureSourced() (bool, string, error) {
	name := h.shellName()
	if name == "fish" {
		// conf.d files are loaded automatically.
		return false, h.fishPath(), nil
	}

	profile := ProfileFor(h.Home, name)

	existing, err := os.ReadFile(profile)
	if err == nil && strings.Contains(string(existing), marker) {
		return false, profile, nil
	}

	if err := os.MkdirAll(filepath.Dir(profile), 0755); err != nil {
		return false, "", fmt.Errorf("cannot create config directory %s: %w", filepath.Dir(profile), err)
	}

	f, err := os.OpenFile(profile, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0644)
	if err != nil {
		return false, "", fmt.Errorf("cannot open config file %s: %w", profile, err)
	}
	defer f.Close()

	q := shQuote(h.ScriptPath)
	line := fmt.Sprintf("\n%s\n[ -f %s ] && . %s\n", marker, q, q)
	if _, err := fmt.Fprint(f, line); err != nil {
		return false, "", fmt.Errorf("cannot write to config file %s: %w", profile, err)
	}
	return true, profile, nil
}

// ProfileFor returns the login profile file for a shell name.
func ProfileFor(home, shellName string) string {
	switch shellName {
	case "zsh":
		return filepath.Join(home, ".zprofile")
	case "bash":
		return filepath.Join(home, ".bash_profile")
	default:
		return filepath.Join(home, ".profile")
	}
}

func (h *Hook) shellName() string {
	s := h.Shell
	if s == "" {
		s = os.Getenv("SHELL")
	}
	return filepath.Base(s)
}

func (h *Hook) fishPath() string {
	return filepath.Join(h.Home, ".config", "fish", "conf.d", "nebula.fish")
}

// shQuote single-quotes s for POSIX sh; an embedded ' becomes '\''.
func shQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

// fishQuote single-quotes s for fish, where \ and ' are escaped with \.
func fishQuote(s string) string {
	r := strings.NewReplacer(`\`, `\\`, "'", `\'`)
	return "'" + r.Replace(s) + "'"
}
