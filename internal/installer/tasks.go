package installer

import (
	"fmt"

	"github.com/nebula-lang/nebula-setup/internal/editors"
)

// TriState is the selection state of one optional task.
type TriState int

const (
	// Default uses the task's detection-based default.
	Default TriState = iota
	// ForcedOff is set by a disabling command-line flag and wins over
	// everything else.
	ForcedOff
	// SelectedOn and SelectedOff are explicit user choices.
	SelectedOn
	SelectedOff
)

// Resolve returns the effective value given the task default.
func (t TriState) Resolve(def bool) bool {
	switch t {
	case ForcedOff, SelectedOff:
		return false
	case SelectedOn:
		return true
	default:
		return def
	}
}

func (t TriState) String() string {
	switch t {
	case ForcedOff:
		return "forced-off"
	case SelectedOn:
		return "on"
	case SelectedOff:
		return "off"
	default:
		return "default"
	}
}

// ParseChoice converts on/off (and common synonyms) to a TriState.
func ParseChoice(s string) (TriState, error) {
	switch s {
	case "on", "true", "yes", "1":
		return SelectedOn, nil
	case "off", "false", "no", "0":
		return SelectedOff, nil
	case "", "default":
		return Default, nil
	default:
		return Default, fmt.Errorf("invalid choice %q (want on or off)", s)
	}
}

// TaskSelection holds the user's per-task choices.
type TaskSelection struct {
	AddToPath       TriState
	DesktopShortcut TriState
	FileAssociation TriState
	Editors         map[editors.Kind]TriState
}

// Tasks is a resolved TaskSelection.
type Tasks struct {
	AddToPath       bool
	DesktopShortcut bool
	FileAssociation bool
	Editors         map[editors.Kind]bool
}

// Resolve applies defaults: PATH on, shortcut and association off, each
// editor on if and only if it was detected.
func (s TaskSelection) Resolve(targets []editors.Target) Tasks {
	t := Tasks{
		AddToPath:       s.AddToPath.Resolve(true),
		DesktopShortcut: s.DesktopShortcut.Resolve(false),
		FileAssociation: s.FileAssociation.Resolve(false),
		Editors:         make(map[editors.Kind]bool, len(targets)),
	}
	for _, target := range targets {
		t.Editors[target.Kind] = s.Editors[target.Kind].Resolve(target.Detected)
	}
	return t
}
