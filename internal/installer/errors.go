package installer

import (
	"context"
	"errors"

	"github.com/nebula-lang/nebula-setup/internal/editors"
	"github.com/nebula-lang/nebula-setup/internal/ledger"
	"github.com/nebula-lang/nebula-setup/internal/pathenv"
	"github.com/nebula-lang/nebula-setup/internal/payload"
	"github.com/nebula-lang/nebula-setup/internal/probe"
)

var (
	// ErrNotInstalled is returned by Uninstall when no install is recorded.
	ErrNotInstalled = errors.New("nebula is not installed")

	// ErrInstallPathConflict is returned when an install is recorded at a
	// different location than the one requested.
	ErrInstallPathConflict = errors.New("nebula is already installed elsewhere")

	// ErrRecordFailed wraps ledger write and delete failures.
	ErrRecordFailed = errors.New("failed to update install record")

	// ErrRemoveFailed wraps manifest files that could not be deleted.
	ErrRemoveFailed = errors.New("failed to remove installed files")
)

// Class is the error taxonomy used for logging and the exit status.
type Class int

const (
	ClassNone Class = iota
	// FatalPrecondition aborts before anything is changed.
	FatalPrecondition
	// MutationFailure aborts a step that was changing the system.
	MutationFailure
	// IntegrationFailure is an editor integration that failed. It is
	// never returned as an error, only recorded as an outcome.
	IntegrationFailure
	// Informational is guidance, never an error.
	Informational
	// Cancelled means the run was interrupted.
	Cancelled
	// Unclassified is any other error.
	Unclassified
)

func (c Class) String() string {
	switch c {
	case ClassNone:
		return "none"
	case FatalPrecondition:
		return "fatal-precondition"
	case MutationFailure:
		return "mutation-failure"
	case IntegrationFailure:
		return "integration-failure"
	case Informational:
		return "informational"
	case Cancelled:
		return "cancelled"
	default:
		return "unclassified"
	}
}

// Fails reports whether an error of this class fails the process.
func (c Class) Fails() bool {
	switch c {
	case ClassNone, IntegrationFailure, Informational:
		return false
	default:
		return true
	}
}

// Classify maps err onto the taxonomy.
func Classify(err error) Class {
	switch {
	case err == nil:
		return ClassNone
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return Cancelled
	case errors.Is(err, probe.ErrUnsupportedPlatform),
		errors.Is(err, probe.ErrInsufficientSpace),
		errors.Is(err, ErrNotInstalled),
		errors.Is(err, ErrInstallPathConflict),
		errors.Is(err, ledger.ErrCorrupt):
		return FatalPrecondition
	case errors.Is(err, payload.ErrCopyFailed),
		errors.Is(err, pathenv.ErrPathMutation),
		errors.Is(err, ErrRecordFailed),
		errors.Is(err, ErrRemoveFailed):
		return MutationFailure
	default:
		return Unclassified
	}
}

// OutcomeClass maps a dispatch outcome onto the taxonomy.
func OutcomeClass(o editors.Outcome) Class {
	switch o {
	case editors.FailedIgnored:
		return IntegrationFailure
	case editors.Informational:
		return Informational
	default:
		return ClassNone
	}
}
