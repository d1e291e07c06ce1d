package editors

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"
)

// DefaultVSCodeTimeout bounds each VS Code CLI call.
const DefaultVSCodeTimeout = 60 * time.Second

// DefaultExtensionID is the marketplace identifier of the VS Code extension.
const DefaultExtensionID = "nebula-lang.nebula"

// Options configures a Dispatcher.
type Options struct {
	// Disabled short-circuits every target to SkippedByFlag.
	Disabled bool
	// ExtensionID is passed to --install-extension when VSIXPath is empty.
	ExtensionID string
	// VSIXPath is the bundled extension package, preferred over ExtensionID.
	VSIXPath string
	// JetBrainsArtifact is the bundled plugin file.
	JetBrainsArtifact string
	// JetBrainsPrefixes overrides DefaultJetBrainsPrefixes.
	JetBrainsPrefixes []string
	// VSCodeTimeout bounds each VS Code CLI call.
	VSCodeTimeout time.Duration
}

// Dispatcher runs at most one strategy per selected editor target.
type Dispatcher struct {
	opts   Options
	runner Runner
	logger *log.Logger
	now    func() time.Time
}

// NewDispatcher creates a Dispatcher. A nil runner uses ExecRunner; a nil
// logger discards output.
func NewDispatcher(opts Options, runner Runner, logger *log.Logger) *Dispatcher {
	if runner == nil {
		runner = ExecRunner{}
	}
	if logger == nil {
		logger = log.New(io.Discard)
	}
	if opts.ExtensionID == "" {
		opts.ExtensionID = DefaultExtensionID
	}
	if opts.VSCodeTimeout <= 0 {
		opts.VSCodeTimeout = DefaultVSCodeTimeout
	}
	return &Dispatcher{opts: opts, runner: runner, logger: logger, now: time.Now}
}

// Dispatch attempts every target whose kind is selected. It returns one
// Result per target and never fails: strategy errors become FailedIgnored
// and a panicking strategy is contained to its own target.
func (d *Dispatcher) Dispatch(ctx context.Context, targets []Target, selected map[Kind]bool) []Result {
	results := make([]Result, 0, len(targets))

	if d.opts.Disabled {
		for _, t := range targets {
			r := Result{Kind: t.Kind, Outcome: SkippedByFlag, Message: "editor integrations disabled", Started: d.now()}
			d.record(r)
			results = append(results, r)
		}
		return results
	}

	for _, t := range targets {
		started := d.now()
		var r Result
		if err := ctx.Err(); err != nil {
			r = Result{Kind: t.Kind, Outcome: SkippedByFlag, Message: "cancelled"}
		} else {
			r = d.dispatchOne(ctx, t, selected[t.Kind])
		}
		r.Kind = t.Kind
		r.Started = started
		r.Elapsed = d.now().Sub(started)
		d.record(r)
		results = append(results, r)
	}
	return results
}

func (d *Dispatcher) dispatchOne(ctx context.Context, t Target, selected bool) (r Result) {
	defer func() {
		if p := recover(); p != nil {
			r = Result{Kind: t.Kind, Outcome: FailedIgnored, Message: fmt.Sprintf("integration panicked: %v", p)}
		}
	}()

	if t.Kind == Other {
		return Result{Kind: t.Kind, Outcome: Informational, Message: ManualSetupMessage}
	}
	if !selected {
		return Result{Kind: t.Kind, Outcome: SkippedByFlag, Message: "not selected"}
	}
	if !t.Detected {
		return Result{Kind: t.Kind, Outcome: SkippedNotDetected, Message: "not detected"}
	}

	switch t.Kind {
	case VSCode, VSCodePortable:
		return d.installVSCode(ctx, t)
	case JetBrains:
		return d.installJetBrains(t)
	case Neovim:
		return d.installNeovim(t)
	default:
		return Result{Kind: t.Kind, Outcome: Informational, Message: ManualSetupMessage}
	}
}

func (d *Dispatcher) record(r Result) {
	d.logger.Info("dispatch outcome",
		"at", r.Started.Format(time.RFC3339),
		"kind", r.Kind,
		"outcome", r.Outcome,
		"detail", r.Message,
	)
}
