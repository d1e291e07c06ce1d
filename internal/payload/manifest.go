package payload

import (
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"time"
)

// ManifestName is the manifest file name inside the install root.
const ManifestName = "uninstall.json"

// StdLibDir is the standard library subtree inside the install root.
const StdLibDir = "lib/std"

// LogName is the default install log file name inside the install root.
const LogName = "install.log"

// Manifest lists every file the installer placed under the install root.
// Paths are relative to the root and use forward slashes.
type Manifest struct {
	CreatedAt time.Time
	Version   string
	Files     []string
}

// Add records rel, ignoring duplicates.
func (m *Manifest) Add(rel string) {
	rel = path.Clean(filepath.ToSlash(rel))
	for _, f := range m.Files {
		if f == rel {
			return
		}
	}
	m.Files = append(m.Files, rel)
	sort.Strings(m.Files)
}

// Union returns a manifest holding the files of both. The newer manifest's
// metadata wins.
func (m *Manifest) Union(older *Manifest) *Manifest {
	out := &Manifest{CreatedAt: m.CreatedAt, Version: m.Version}
	seen := make(map[string]bool)
	for _, src := range []*Manifest{m, older} {
		if src == nil {
			continue
		}
		for _, f := range src.Files {
			if !seen[f] {
				seen[f] = true
				out.Files = append(out.Files, f)
			}
		}
	}
	sort.Strings(out.Files)
	return out
}

// Dirs returns every parent directory of a manifest entry, deepest first.
// The root itself is not included.
func (m *Manifest) Dirs() []string {
	seen := make(map[string]bool)
	var dirs []string
	for _, f := range m.Files {
		for d := path.Dir(f); d != "." && d != "/"; d = path.Dir(d) {
			if seen[d] {
				break
			}
			seen[d] = true
			dirs = append(dirs, d)
		}
	}
	sort.Slice(dirs, func(i, j int) bool {
		di, dj := depth(dirs[i]), depth(dirs[j])
		if di != dj {
			return di > dj
		}
		return dirs[i] < dirs[j]
	})
	return dirs
}

func depth(p string) int {
	n := 0
	for _, c := range p {
		if c == '/' {
			n++
		}
	}
	return n
}

// DefaultManifest describes the static layout for installs whose
// manifest is missing. It never includes the user config subtree.
func DefaultManifest(goos string) *Manifest {
	bin := "bin/nebula"
	if goos == "windows" {
		bin += ".exe"
	}
	m := &Manifest{Files: []string{bin, "LICENSE", "README", LogName, ManifestName}}
	sort.Strings(m.Files)
	return m
}

// LoadManifest reads <root>/uninstall.json.
func LoadManifest(root string) (*Manifest, error) {
	data, err := os.ReadFile(filepath.Join(root, ManifestName))
	if err != nil {
		return nil, err
	}
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to parse manifest: %w", err)
	}
	for _, f := range m.Files {
		if !filepath.IsLocal(filepath.FromSlash(f)) {
			return nil, fmt.Errorf("manifest entry %q escapes the install root", f)
		}
	}
	return &m, nil
}

// Save writes the manifest to <root>/uninstall.json. The manifest lists
// itself so uninstall removes it.
func (m *Manifest) Save(root string) error {
	m.Add(ManifestName)
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal manifest: %w", err)
	}
	if err := os.WriteFile(filepath.Join(root, ManifestName), data, 0o644); err != nil {
		return fmt.Errorf("failed to write manifest: %w", err)
	}
	return nil
}

// LoadOrDefault loads the manifest, falling back to DefaultLayout when
// it is missing or unreadable. The returned manifest is never nil; a
// non-nil error is the reason for the fallback.
func LoadOrDefault(root, goos string) (*Manifest, error) {
	m, err := LoadManifest(root)
	if err != nil {
		return DefaultLayout(root, goos), err
	}
	return m, nil
}

// DefaultLayout is DefaultManifest plus every file found under
// <root>/lib/std, a subtree the installer owns as a whole.
func DefaultLayout(root, goos string) *Manifest {
	m := DefaultManifest(goos)
	base := filepath.Join(root, filepath.FromSlash(StdLibDir))
	// Unreadable entries are skipped; the static files are still removed.
	_ = filepath.WalkDir(base, func(p string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(root, p)
		if err != nil {
			return nil
		}
		m.Add(rel)
		return nil
	})
	return m
}
