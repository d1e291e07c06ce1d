// Package reconcile decides which install flow applies to this run and
// which parts of the work it includes.
package reconcile

import (
	"strings"

	"golang.org/x/mod/semver"

	"github.com/nebula-lang/nebula-setup/internal/ledger"
)

// State is the reconciliation outcome, computed once per run.
type State int

const (
	FreshInstall State = iota
	UpgradeSameVersion
	UpgradeNewVersion
)

// String returns the state name used in logs.
func (s State) String() string {
	switch s {
	case FreshInstall:
		return "fresh-install"
	case UpgradeSameVersion:
		return "upgrade-same-version"
	case UpgradeNewVersion:
		return "upgrade-new-version"
	default:
		return "unknown"
	}
}

// Build carries the version constants embedded in the installer.
type Build struct {
	ProductVersion   string
	ExtensionVersion string
}

// Plan is the subset of install work a state performs.
type Plan struct {
	State State
	// FullCopy starts a new file manifest. When false the previous
	// manifest is extended so files from older versions stay tracked.
	FullCopy bool
	// BackupConfig wraps the file copy in a backup and restore of the
	// user config subtree.
	BackupConfig bool
	// ApplyTasks runs PATH, shortcut and file association tasks.
	ApplyTasks bool
	// RunExtensions runs the editor dispatcher.
	RunExtensions bool
}

// Decide maps the previous record (nil when fresh) and the build onto a State.
func Decide(rec *ledger.Record, b Build) State {
	switch {
	case rec == nil:
		return FreshInstall
	case SameVersion(rec.ProductVersion, b.ProductVersion):
		return UpgradeSameVersion
	default:
		return UpgradeNewVersion
	}
}

// PlanFor returns the work the state performs.
func PlanFor(state State, rec *ledger.Record, b Build) Plan {
	switch state {
	case FreshInstall:
		return Plan{State: state, FullCopy: true, ApplyTasks: true, RunExtensions: true}
	case UpgradeSameVersion:
		return Plan{State: state, BackupConfig: true}
	default:
		extChanged := rec == nil || !SameVersion(rec.ExtensionVersion, b.ExtensionVersion)
		return Plan{State: state, BackupConfig: true, RunExtensions: extChanged}
	}
}

// Reconcile is Decide followed by PlanFor.
func Reconcile(rec *ledger.Record, b Build) Plan {
	return PlanFor(Decide(rec, b), rec, b)
}

// SameVersion compares two version strings. Valid semantic versions (with
// or without a leading "v") compare by precedence, so "1.0" equals
// "v1.0.0"; anything else compares as trimmed text.
func SameVersion(a, b string) bool {
	na, nb := normalize(a), normalize(b)
	if semver.IsValid(na) && semver.IsValid(nb) {
		return semver.Compare(na, nb) == 0
	}
	return strings.TrimSpace(a) == strings.TrimSpace(b)
}

func normalize(v string) string {
	v = strings.TrimSpace(v)
	if v == "" {
		return v
	}
	if !strings.HasPrefix(v, "v") {
		v = "v" + v
	}
	return v
}
