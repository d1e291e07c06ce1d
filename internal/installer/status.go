package installer

import (
	"context"
	"errors"

	"github.com/nebula-lang/nebula-setup/internal/ledger"
	"github.com/nebula-lang/nebula-setup/internal/output"
	"github.com/nebula-lang/nebula-setup/internal/payload"
)

// Status gathers the read-only view printed by the status command.
func Status(ctx context.Context, s *Session, storeDesc string) output.StatusView {
	v := output.StatusView{Now: s.Now(), PathStore: storeDesc}

	rec, err := s.Ledger.Read(ctx)
	switch {
	case errors.Is(err, ledger.ErrAbsent):
	case err != nil:
		v.LedgerErr = err
	default:
		v.Record = rec
		v.BinDir = BinDir(rec.InstallPath)
		if m, err := payload.LoadManifest(rec.InstallPath); err == nil {
			v.ManifestN = len(m.Files)
		}
		if s.Path != nil {
			if present, err := s.Path.Contains(PathVar, v.BinDir); err == nil {
				v.OnPath = present
			}
		}
	}

	if s.Desktop != nil {
		v.Artifacts = s.Desktop.Describe()
	}
	if s.Probe != nil {
		v.Targets = s.Probe.DetectEditors()
	}
	return v
}
