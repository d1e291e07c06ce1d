package installer

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/nebula-lang/nebula-setup/internal/editors"
	"github.com/nebula-lang/nebula-setup/internal/ledger"
	"github.com/nebula-lang/nebula-setup/internal/output"
	"github.com/nebula-lang/nebula-setup/internal/payload"
	"github.com/nebula-lang/nebula-setup/internal/reconcile"
)

// InstallOptions are the per-run install choices.
type InstallOptions struct {
	// Dir overrides the install root. Empty means the recorded root on
	// upgrade or the configured default on a fresh install.
	Dir       string
	Selection TaskSelection
	// DryRun stops after planning.
	DryRun bool
}

// InstallReport describes a finished (or planned) install run.
type InstallReport struct {
	Root     string
	Previous *ledger.Record
	Record   *ledger.Record
	Plan     reconcile.Plan
	Tasks    Tasks
	Targets  []editors.Target
	Results  []editors.Result
	Files    int
	// PathChanged reports whether the bin directory was added to PATH.
	PathChanged bool
	Warnings    []string
	DryRun      bool
}

// Install runs the install flow: gate checks, reconcile, copy, tasks,
// editor integrations, then the ledger write. Steps already applied are
// not rolled back when a later step fails or ctx is cancelled.
func Install(ctx context.Context, s *Session, opts InstallOptions) (*InstallReport, error) {
	rep := &InstallReport{DryRun: opts.DryRun}

	if err := s.Probe.CheckPlatformSupported(); err != nil {
		return rep, err
	}

	prev, found, err := s.Probe.DetectExistingInstall(ctx)
	if err != nil {
		if !errors.Is(err, ledger.ErrCorrupt) {
			return rep, err
		}
		rep.warnf(s, "install record is unreadable, installing fresh: %v", err)
		prev, found = nil, false
	}
	if found {
		rep.Previous = prev
	}

	root, err := resolveRoot(s, opts.Dir, prev)
	if err != nil {
		return rep, err
	}
	rep.Root = root

	if err := s.Probe.CheckDiskSpace(root, s.Config.MinFreeBytes); err != nil {
		return rep, err
	}

	rep.Targets = s.Probe.DetectEditors()
	rep.Plan = reconcile.Reconcile(rep.Previous, s.Build)
	rep.Tasks = opts.Selection.Resolve(rep.Targets)
	s.Log.Info("reconciled", "state", rep.Plan.State, "full_copy", rep.Plan.FullCopy,
		"backup_config", rep.Plan.BackupConfig, "apply_tasks", rep.Plan.ApplyTasks,
		"run_extensions", rep.Plan.RunExtensions)

	if opts.DryRun {
		return rep, nil
	}

	if err := ctx.Err(); err != nil {
		return rep, err
	}
	if s.OpenLog != nil {
		if err := s.OpenLog(); err != nil {
			rep.warnf(s, "install log unavailable: %v", err)
		}
	}
	s.step("Installing Nebula", "version", s.Build.ProductVersion, "to", root, "state", rep.Plan.State)
	if err := copyPayload(ctx, s, rep); err != nil {
		return rep, err
	}

	if rep.Plan.ApplyTasks {
		if err := ctx.Err(); err != nil {
			return rep, err
		}
		applyTasks(s, rep)
	}

	if rep.Plan.RunExtensions {
		if err := ctx.Err(); err != nil {
			return rep, err
		}
		rep.Results = s.Dispatcher.Dispatch(ctx, rep.Targets, rep.Tasks.Editors)
	} else {
		s.Log.Info("editor integrations skipped", "state", rep.Plan.State)
	}

	if err := ctx.Err(); err != nil {
		return rep, err
	}
	rec := &ledger.Record{
		InstallPath:      root,
		ProductVersion:   s.Build.ProductVersion,
		ExtensionVersion: s.Build.ExtensionVersion,
		InstallDate:      s.Now(),
	}
	if !rep.Plan.RunExtensions && rep.Previous != nil {
		// Integrations were not refreshed; keep recording what was installed.
		rec.ExtensionVersion = rep.Previous.ExtensionVersion
	}
	if err := s.Ledger.Write(ctx, rec); err != nil {
		return rep, fmt.Errorf("%w: %w", ErrRecordFailed, err)
	}
	rep.Record = rec
	s.step("Nebula installed", "version", rec.ProductVersion, "root", root)
	return rep, nil
}

// resolveRoot picks the install root. An explicit directory that differs
// from the recorded one is refused rather than leaving two installs.
func resolveRoot(s *Session, dir string, prev *ledger.Record) (string, error) {
	if dir != "" {
		abs, err := filepath.Abs(dir)
		if err != nil {
			return "", fmt.Errorf("invalid install directory %q: %w", dir, err)
		}
		dir = abs
	}

	switch {
	case prev == nil && dir != "":
		return dir, nil
	case prev == nil:
		return filepath.Abs(s.Config.InstallDir)
	case dir == "" || s.PathList.Equal(dir, prev.InstallPath):
		return prev.InstallPath, nil
	default:
		return "", fmt.Errorf("%w: recorded at %s, requested %s (uninstall first)",
			ErrInstallPathConflict, prev.InstallPath, dir)
	}
}

// copyPayload copies the payload around an optional config backup and
// saves the manifest.
func copyPayload(ctx context.Context, s *Session, rep *InstallReport) error {
	plan, err := payload.Scan(s.Config.PayloadDir)
	if err != nil {
		return err
	}

	var backup *payload.ConfigBackup
	if rep.Plan.BackupConfig {
		backup, err = payload.BackupConfig(rep.Root)
		if err != nil {
			return fmt.Errorf("%w: %w", payload.ErrCopyFailed, err)
		}
		if backup != nil {
			s.Log.Info("config backed up", "dir", backup.Dir())
		}
	}

	var bar *output.Progress
	c := &payload.Copier{Logger: s.Log}
	if s.Progress != nil {
		bar = output.NewProgress(s.Progress, len(plan.Files), "Copying files")
		c.Progress = bar
	}
	m, copyErr := c.Copy(ctx, plan, rep.Root, s.Build.ProductVersion)
	if bar != nil && copyErr == nil {
		bar.Finish()
	}

	if backup != nil {
		// Restore even after a failed copy so user config is never lost.
		if err := backup.Restore(); err != nil {
			if copyErr != nil {
				return errors.Join(copyErr, err)
			}
			return fmt.Errorf("%w: %w", payload.ErrCopyFailed, err)
		}
		s.Log.Info("config restored")
	}
	if copyErr != nil {
		return copyErr
	}

	if !rep.Plan.FullCopy {
		old, loadErr := payload.LoadOrDefault(rep.Root, s.GOOS)
		if loadErr != nil {
			s.Log.Warn("previous manifest unavailable, using default layout", "err", loadErr)
		}
		m = m.Union(old)
	}
	if rel, ok := underRoot(rep.Root, s.Config.LogPath()); ok {
		m.Add(rel)
	}
	if err := m.Save(rep.Root); err != nil {
		return fmt.Errorf("%w: %w", payload.ErrCopyFailed, err)
	}
	rep.Files = len(plan.Files)
	return nil
}

// applyTasks runs the PATH and desktop tasks. Failures become warnings.
func applyTasks(s *Session, rep *InstallReport) {
	bin := BinDir(rep.Root)

	switch {
	case !rep.Tasks.AddToPath:
		s.Log.Info("path task skipped")
	case s.Path == nil:
		rep.warnf(s, "PATH not configured: no environment store available")
	default:
		changed, err := s.Path.EnsureSegmentPresent(PathVar, bin)
		if err != nil {
			rep.warnf(s, "PATH not configured, add %s manually: %v", bin, err)
		} else {
			rep.PathChanged = changed
			s.Log.Info("path task", "segment", bin, "changed", changed)
		}
	}

	if s.Desktop == nil {
		return
	}
	exe := s.Executable(rep.Root)
	if rep.Tasks.DesktopShortcut {
		if err := s.Desktop.CreateShortcut(exe); err != nil {
			rep.warnf(s, "desktop shortcut not created: %v", err)
		} else {
			s.Log.Info("shortcut created")
		}
	}
	if rep.Tasks.FileAssociation {
		if err := s.Desktop.RegisterAssociation(exe); err != nil {
			rep.warnf(s, "file association not registered: %v", err)
		} else {
			s.Log.Info("file association registered")
		}
	}
}

func (r *InstallReport) warnf(s *Session, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	r.Warnings = append(r.Warnings, msg)
	s.warn(msg)
}

// underRoot returns p relative to root when p lies inside it.
func underRoot(root, p string) (string, bool) {
	rel, err := filepath.Rel(root, p)
	if err != nil || rel == "." || !filepath.IsLocal(rel) {
		return "", false
	}
	return filepath.ToSlash(rel), true
}
