// Package editors installs the Nebula integration into supported editors.
//
// Each editor kind has exactly one strategy: the VS Code family is driven
// through its own extension-install command line, JetBrains IDEs get the
// plugin copied into every product's plugins directory, and Neovim gets a
// single additive helper file. Every strategy is best-effort. A failure is
// recorded as FailedIgnored and never stops other targets or the install.
package editors

import (
	"fmt"
	"strings"
	"time"
)

// Kind identifies an editor family.
type Kind string

const (
	VSCode         Kind = "vscode"
	VSCodePortable Kind = "vscode-portable"
	Neovim         Kind = "neovim"
	JetBrains      Kind = "jetbrains"
	Other          Kind = "other"
)

// AllKinds lists every kind in dispatch order.
var AllKinds = []Kind{VSCode, VSCodePortable, Neovim, JetBrains, Other}

// ParseKind converts a user-supplied name to a Kind.
func ParseKind(s string) (Kind, error) {
	k := Kind(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range AllKinds {
		if k == known {
			return k, nil
		}
	}
	return "", fmt.Errorf("unknown editor %q (want one of vscode, vscode-portable, neovim, jetbrains, other)", s)
}

// DisplayName returns a human-readable name.
func (k Kind) DisplayName() string {
	switch k {
	case VSCode:
		return "Visual Studio Code"
	case VSCodePortable:
		return "VS Code (portable)"
	case Neovim:
		return "Neovim"
	case JetBrains:
		return "JetBrains IDEs"
	default:
		return "Other editors"
	}
}

// Target is an editor found (or not) by the environment probe.
type Target struct {
	Kind     Kind
	Detected bool
	// Locator is the resolved CLI binary (VS Code), the config root
	// (JetBrains) or the config directory (Neovim).
	Locator string
	// ConfigDir is the editor's user config directory when it differs
	// from Locator. Neovim found only on PATH has Locator set to the
	// binary and ConfigDir empty.
	ConfigDir string
}

// Outcome is the result of one dispatch attempt.
type Outcome int

const (
	Succeeded Outcome = iota
	FailedIgnored
	SkippedNotDetected
	SkippedByFlag
	Informational
)

// String returns the outcome name used in logs.
func (o Outcome) String() string {
	switch o {
	case Succeeded:
		return "succeeded"
	case FailedIgnored:
		return "failed-ignored"
	case SkippedNotDetected:
		return "skipped-not-detected"
	case SkippedByFlag:
		return "skipped-by-flag"
	case Informational:
		return "informational"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

// Result records one target's dispatch.
type Result struct {
	Kind    Kind
	Outcome Outcome
	// Message is a short human-readable detail.
	Message string
	// Process is set when an external command was involved.
	Process *ProcessResult
	Started time.Time
	Elapsed time.Duration
}

// Attempted reports whether a strategy actually ran for this target.
func (r Result) Attempted() bool {
	return r.Outcome == Succeeded || r.Outcome == FailedIgnored
}

// ManualSetupMessage is shown for editors without automatic integration.
const ManualSetupMessage = "No automatic integration for this editor. See https://nebula-lang.dev/docs/editors for manual setup."
