package editors

import (
	"context"
	"fmt"
)

// installVSCode runs the editor's own extension installer. The exit code is
// logged but never consulted; see vscodePolicy.
func (d *Dispatcher) installVSCode(ctx context.Context, t Target) Result {
	extension := d.opts.ExtensionID
	if d.opts.VSIXPath != "" {
		extension = d.opts.VSIXPath
	}

	proc := d.runner.Run(ctx, d.opts.VSCodeTimeout, t.Locator, "--install-extension", extension, "--force")

	d.logger.Info("editor command finished",
		"kind", t.Kind,
		"cmd", t.Locator,
		"attempted", proc.Attempted,
		"exit_code", exitCodeField(proc),
		"timed_out", proc.TimedOut,
		"err", proc.Err,
		"elapsed", proc.Elapsed,
	)

	outcome, msg := vscodePolicy(proc)
	return Result{Kind: t.Kind, Outcome: outcome, Message: msg, Process: &proc}
}

// vscodePolicy maps a command result onto an outcome. The integration is
// best-effort: once the command has been started the attempt counts as
// succeeded whatever its exit code or timeout. Only a command that could
// not be started at all is a failure, and even that is ignored.
func vscodePolicy(p ProcessResult) (Outcome, string) {
	if !p.Attempted {
		return FailedIgnored, fmt.Sprintf("could not start editor CLI: %v", p.Err)
	}
	switch {
	case p.TimedOut:
		return Succeeded, "extension install requested (editor CLI timed out)"
	case p.HasExitCode && p.ExitCode != 0:
		return Succeeded, fmt.Sprintf("extension install requested (exit code %d ignored)", p.ExitCode)
	default:
		return Succeeded, "extension installed"
	}
}

func exitCodeField(p ProcessResult) any {
	if !p.HasExitCode {
		return "none"
	}
	return p.ExitCode
}
