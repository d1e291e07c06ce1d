// Package payload manages the files the installer owns under the install
// root: copying the bundled payload, the uninstall manifest, and the user
// config backup taken across upgrades.
package payload

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"time"

	"github.com/charmbracelet/log"
	"github.com/dustin/go-humanize"
)

// ErrCopyFailed wraps every failure to place a payload file.
var ErrCopyFailed = errors.New("payload copy failed")

// Editor artifacts live under ExtensionsDir in the payload. They are read
// from there by the dispatcher and never copied into the install root.
const (
	ExtensionsDir    = "extensions"
	VSIXName         = "nebula.vsix"
	JetBrainsJarName = "nebula-jetbrains.jar"
)

// Install root layout.
const (
	BinDirName     = "bin"
	ConfigDirName  = "config"
	ExecutableBase = "nebula"
)

// Progress receives one increment per copied file.
type Progress interface {
	IncrementBy(n int)
}

// Plan is the list of payload files to copy.
type Plan struct {
	Source string
	Files  []string
	Bytes  int64
}

// Scan walks the payload directory and returns the copy plan. The
// extensions directory is skipped.
func Scan(src string) (*Plan, error) {
	info, err := os.Stat(src)
	if err != nil {
		return nil, fmt.Errorf("%w: payload %s: %v", ErrCopyFailed, src, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: payload %s is not a directory", ErrCopyFailed, src)
	}

	plan := &Plan{Source: src}
	err = filepath.WalkDir(src, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, p)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		if d.IsDir() {
			if rel == ExtensionsDir {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}
		fi, err := d.Info()
		if err != nil {
			return err
		}
		plan.Files = append(plan.Files, rel)
		plan.Bytes += fi.Size()
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: scanning payload: %v", ErrCopyFailed, err)
	}
	sort.Strings(plan.Files)
	return plan, nil
}

// Artifact returns the absolute path of a bundled editor artifact.
func Artifact(src, name string) string {
	return filepath.Join(src, ExtensionsDir, name)
}

// Copier copies a plan into an install root.
type Copier struct {
	Logger   *log.Logger
	Progress Progress
}

// Copy places every file in plan under root, overwriting, and returns the
// manifest of what was written. It stops at the first failure; files
// already written stay in place.
func (c *Copier) Copy(ctx context.Context, plan *Plan, root, version string) (*Manifest, error) {
	logger := c.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}

	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("%w: creating %s: %v", ErrCopyFailed, root, err)
	}

	start := time.Now()
	m := &Manifest{CreatedAt: start.UTC(), Version: version}
	for _, rel := range plan.Files {
		if err := ctx.Err(); err != nil {
			return m, fmt.Errorf("%w: %w", ErrCopyFailed, err)
		}
		src := filepath.Join(plan.Source, filepath.FromSlash(rel))
		dst := filepath.Join(root, filepath.FromSlash(rel))
		if err := CopyFile(src, dst); err != nil {
			logger.Error("copy failed", "file", rel, "err", err)
			return m, fmt.Errorf("%w: %s: %v", ErrCopyFailed, rel, err)
		}
		m.Add(rel)
		if c.Progress != nil {
			c.Progress.IncrementBy(1)
		}
	}

	logger.Info("payload copied", "root", root, "files", len(plan.Files),
		"size", humanize.IBytes(uint64(plan.Bytes)), "elapsed", time.Since(start).Round(time.Millisecond))
	return m, nil
}

// CopyFile copies src to dst through a temp file in dst's directory,
// keeping src's permission bits.
func CopyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(dst), "."+filepath.Base(dst)+".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	if _, err := io.Copy(tmp, in); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Chmod(tmpName, info.Mode().Perm()); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, dst); err != nil {
		os.Remove(tmpName)
		return err
	}
	return nil
}

// copyTree copies every regular file under src to the same relative path
// under dst.
func copyTree(src, dst string) error {
	return filepath.WalkDir(src, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, p)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)
		if d.IsDir() {
			return os.MkdirAll(target, 0o755)
		}
		if !d.Type().IsRegular() {
			return nil
		}
		return CopyFile(p, target)
	})
}

// relJoin joins slash-separated manifest entries onto root.
func relJoin(root, rel string) string {
	return filepath.Join(root, filepath.FromSlash(path.Clean(rel)))
}
