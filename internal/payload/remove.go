package payload

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/charmbracelet/log"
)

// RemoveResult summarizes a manifest removal.
type RemoveResult struct {
	Removed     int
	Missing     int
	DirsRemoved int
	// Kept lists directories left behind because they still hold files
	// the installer did not place.
	Kept []string
	// RootRemoved reports whether the install root itself was empty and
	// removed.
	RootRemoved bool
}

// Remove deletes exactly the manifest's files under root, then removes
// their parent directories deepest first when empty, then the root when
// empty. Files outside the manifest are never touched. Missing entries
// are counted, not errors.
func Remove(root string, m *Manifest, logger *log.Logger) (*RemoveResult, error) {
	if logger == nil {
		logger = log.New(io.Discard)
	}

	res := &RemoveResult{}
	var errs []error
	for _, rel := range m.Files {
		p := relJoin(root, rel)
		err := os.Remove(p)
		switch {
		case err == nil:
			res.Removed++
		case errors.Is(err, fs.ErrNotExist):
			res.Missing++
		default:
			logger.Warn("remove failed", "file", rel, "err", err)
			errs = append(errs, fmt.Errorf("%s: %w", rel, err))
		}
	}

	for _, d := range m.Dirs() {
		if removeIfEmpty(relJoin(root, d)) {
			res.DirsRemoved++
		} else if exists(relJoin(root, d)) {
			res.Kept = append(res.Kept, d)
		}
	}

	res.RootRemoved = removeIfEmpty(root)
	logger.Info("manifest removed", "root", root, "removed", res.Removed,
		"missing", res.Missing, "dirs", res.DirsRemoved, "kept", len(res.Kept), "root_removed", res.RootRemoved)
	return res, errors.Join(errs...)
}

func removeIfEmpty(dir string) bool {
	entries, err := os.ReadDir(dir)
	if err != nil || len(entries) > 0 {
		return false
	}
	return os.Remove(dir) == nil
}

func exists(p string) bool {
	_, err := os.Stat(p)
	return err == nil
}
