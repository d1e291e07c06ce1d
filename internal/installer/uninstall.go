package installer

import (
	"context"
	"errors"
	"fmt"

	"github.com/nebula-lang/nebula-setup/internal/ledger"
	"github.com/nebula-lang/nebula-setup/internal/payload"
)

// UninstallReport describes a finished uninstall run.
type UninstallReport struct {
	Record       *ledger.Record
	Removed      *payload.RemoveResult
	UsedFallback bool
	PathChanged  bool
	Shortcut     bool
	Association  bool
	Warnings     []string
}

// Uninstall reverses an install: manifest files, PATH segment, desktop
// artifacts, then the ledger. Editor integrations and files outside the
// manifest are left alone. When files cannot be removed the ledger is kept
// so the uninstall can be retried.
func Uninstall(ctx context.Context, s *Session) (*UninstallReport, error) {
	rep := &UninstallReport{}

	rec, err := s.Ledger.Read(ctx)
	if errors.Is(err, ledger.ErrAbsent) {
		return rep, ErrNotInstalled
	}
	if err != nil {
		return rep, err
	}
	rep.Record = rec
	root := rec.InstallPath
	s.step("Uninstalling Nebula", "version", rec.ProductVersion, "from", root)

	m, loadErr := payload.LoadOrDefault(root, s.GOOS)
	if loadErr != nil {
		rep.UsedFallback = true
		s.Log.Warn("manifest unavailable, removing default layout (bin, lib/std, LICENSE, README, log)", "err", loadErr)
	}

	if err := ctx.Err(); err != nil {
		return rep, err
	}
	removed, removeErr := payload.Remove(root, m, s.Log)
	rep.Removed = removed
	if removeErr != nil {
		rep.warnf(s, "some files could not be removed: %v", removeErr)
	}
	for _, d := range removed.Kept {
		s.Log.Info("directory kept", "dir", d)
	}

	if err := ctx.Err(); err != nil {
		return rep, err
	}
	if s.Path != nil {
		bin := BinDir(root)
		changed, err := s.Path.RemoveSegment(PathVar, bin)
		if err != nil {
			rep.warnf(s, "PATH not restored, remove %s manually: %v", bin, err)
		} else {
			rep.PathChanged = changed
			s.Log.Info("path restored", "segment", bin, "changed", changed)
		}
	}

	if s.Desktop != nil {
		ok, err := s.Desktop.RemoveShortcut()
		if err != nil {
			rep.warnf(s, "desktop shortcut not removed: %v", err)
		}
		rep.Shortcut = ok
		ok, err = s.Desktop.RemoveAssociation()
		if err != nil {
			rep.warnf(s, "file association not removed: %v", err)
		}
		rep.Association = ok
	}

	if removeErr != nil {
		return rep, fmt.Errorf("%w: %w", ErrRemoveFailed, removeErr)
	}

	if err := ctx.Err(); err != nil {
		return rep, err
	}
	if err := s.Ledger.Delete(ctx); err != nil {
		return rep, fmt.Errorf("%w: %w", ErrRecordFailed, err)
	}
	s.step("Nebula uninstalled", "root", root, "files", removed.Removed)
	return rep, nil
}

func (r *UninstallReport) warnf(s *Session, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	r.Warnings = append(r.Warnings, msg)
	s.warn(msg)
}
