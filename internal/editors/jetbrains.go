package editors

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// DefaultJetBrainsPrefixes are the product directory prefixes found under
// the JetBrains config root (e.g. "GoLand2024.3", "IdeaIC2025.1").
var DefaultJetBrainsPrefixes = []string{
	"IntelliJIdea",
	"IdeaIC",
	"PyCharm",
	"WebStorm",
	"GoLand",
	"CLion",
	"PhpStorm",
	"RubyMine",
	"Rider",
	"DataGrip",
	"RustRover",
	"AndroidStudio",
}

// MatchProductDirs returns the names of directory entries whose name starts
// with one of prefixes, in the order given by entries.
func MatchProductDirs(entries []os.DirEntry, prefixes []string) []string {
	var matched []string
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		if hasAnyPrefix(e.Name(), prefixes) {
			matched = append(matched, e.Name())
		}
	}
	return matched
}

func hasAnyPrefix(name string, prefixes []string) bool {
	for _, p := range prefixes {
		if p != "" && strings.HasPrefix(name, p) {
			return true
		}
	}
	return false
}

// ProductDirs lists matching product directories under root.
func ProductDirs(root string, prefixes []string) ([]string, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, err
	}
	names := MatchProductDirs(entries, prefixes)
	dirs := make([]string, len(names))
	for i, n := range names {
		dirs[i] = filepath.Join(root, n)
	}
	return dirs, nil
}

// installJetBrains copies the plugin artifact into every product's plugins
// directory, overwriting an older copy. IDEs load it on their next start.
func (d *Dispatcher) installJetBrains(t Target) Result {
	dirs, err := ProductDirs(t.Locator, d.prefixes())
	if err != nil {
		return Result{Kind: t.Kind, Outcome: FailedIgnored, Message: fmt.Sprintf("cannot list %s: %v", t.Locator, err)}
	}
	if len(dirs) == 0 {
		return Result{Kind: t.Kind, Outcome: SkippedNotDetected, Message: "no JetBrains product directories found"}
	}

	var failures []string
	for _, dir := range dirs {
		dst := filepath.Join(dir, "plugins", filepath.Base(d.opts.JetBrainsArtifact))
		if err := copyFile(d.opts.JetBrainsArtifact, dst); err != nil {
			d.logger.Warn("plugin copy failed", "kind", t.Kind, "product", filepath.Base(dir), "err", err)
			failures = append(failures, filepath.Base(dir))
			continue
		}
		d.logger.Info("plugin copied", "kind", t.Kind, "product", filepath.Base(dir), "dst", dst)
	}

	if len(failures) > 0 {
		return Result{
			Kind:    t.Kind,
			Outcome: FailedIgnored,
			Message: fmt.Sprintf("plugin copy failed for %s", strings.Join(failures, ", ")),
		}
	}
	return Result{
		Kind:    t.Kind,
		Outcome: Succeeded,
		Message: fmt.Sprintf("plugin copied to %d product(s); restart the IDE to load it", len(dirs)),
	}
}

func (d *Dispatcher) prefixes() []string {
	if len(d.opts.JetBrainsPrefixes) > 0 {
		return d.opts.JetBrainsPrefixes
	}
	return DefaultJetBrainsPrefixes
}

// copyFile copies src to dst, creating dst's parent and replacing dst.
func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return err
	}

	tmp := dst + ".tmp"
	out, err := os.OpenFile(tmp, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		os.Remove(tmp)
		return err
	}
	if err := out.Close(); err != nil {
		os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, dst)
}
