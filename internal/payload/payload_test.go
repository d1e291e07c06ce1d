package payload

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"sort"
	"testing"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	return string(data)
}

// testPayload builds a payload tree with the standard layout.
func testPayload(t *testing.T) string {
	t.Helper()
	src := t.TempDir()
	writeFile(t, filepath.Join(src, "bin", "nebula"), "binary-v1")
	writeFile(t, filepath.Join(src, "lib", "std", "io.na"), "io")
	writeFile(t, filepath.Join(src, "lib", "std", "net", "http.na"), "http")
	writeFile(t, filepath.Join(src, "LICENSE"), "license")
	writeFile(t, filepath.Join(src, "README"), "readme")
	writeFile(t, filepath.Join(src, "config", "settings.toml"), "default = true\n")
	writeFile(t, filepath.Join(src, "extensions", VSIXName), "vsix")
	writeFile(t, filepath.Join(src, "extensions", JetBrainsJarName), "jar")
	return src
}

type countingProgress struct{ n int }

func (c *countingProgress) IncrementBy(n int) { c.n += n }

func TestScan_SkipsExtensions(t *testing.T) {
	plan, err := Scan(testPayload(t))
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	want := []string{
		"LICENSE",
		"README",
		"bin/nebula",
		"config/settings.toml",
		"lib/std/io.na",
		"lib/std/net/http.na",
	}
	if !reflect.DeepEqual(plan.Files, want) {
		t.Errorf("Files = %v, want %v", plan.Files, want)
	}
	if plan.Bytes == 0 {
		t.Error("Bytes = 0")
	}
}

func TestScan_MissingPayload(t *testing.T) {
	_, err := Scan(filepath.Join(t.TempDir(), "nope"))
	if !errors.Is(err, ErrCopyFailed) {
		t.Errorf("err = %v, want ErrCopyFailed", err)
	}
}

func TestCopy_WritesManifestEntries(t *testing.T) {
	src := testPayload(t)
	root := filepath.Join(t.TempDir(), "Nebula")

	plan, err := Scan(src)
	if err != nil {
		t.Fatal(err)
	}
	progress := &countingProgress{}
	c := &Copier{Progress: progress}
	m, err := c.Copy(context.Background(), plan, root, "1.0.0")
	if err != nil {
		t.Fatalf("Copy: %v", err)
	}

	if !reflect.DeepEqual(m.Files, plan.Files) {
		t.Errorf("manifest = %v, want %v", m.Files, plan.Files)
	}
	if progress.n != len(plan.Files) {
		t.Errorf("progress = %d, want %d", progress.n, len(plan.Files))
	}
	if got := readFile(t, filepath.Join(root, "lib", "std", "net", "http.na")); got != "http" {
		t.Errorf("http.na = %q", got)
	}
	if _, err := os.Stat(filepath.Join(root, "extensions")); !os.IsNotExist(err) {
		t.Error("extensions dir should not be copied into the root")
	}
}

func TestCopy_Overwrites(t *testing.T) {
	src := testPayload(t)
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "bin", "nebula"), "old-binary")

	plan, err := Scan(src)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := (&Copier{}).Copy(context.Background(), plan, root, "1.0.0"); err != nil {
		t.Fatal(err)
	}
	if got := readFile(t, filepath.Join(root, "bin", "nebula")); got != "binary-v1" {
		t.Errorf("bin/nebula = %q, want overwritten", got)
	}
}

func TestCopy_CancelledContext(t *testing.T) {
	plan, err := Scan(testPayload(t))
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = (&Copier{}).Copy(ctx, plan, t.TempDir(), "1.0.0")
	if !errors.Is(err, ErrCopyFailed) {
		t.Errorf("err = %v, want ErrCopyFailed", err)
	}
}

func TestCopy_SourceVanished(t *testing.T) {
	src := testPayload(t)
	plan, err := Scan(src)
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Remove(filepath.Join(src, "README")); err != nil {
		t.Fatal(err)
	}

	m, err := (&Copier{}).Copy(context.Background(), plan, t.TempDir(), "1.0.0")
	if !errors.Is(err, ErrCopyFailed) {
		t.Fatalf("err = %v, want ErrCopyFailed", err)
	}
	// LICENSE sorts before README and was written.
	if !reflect.DeepEqual(m.Files, []string{"LICENSE"}) {
		t.Errorf("partial manifest = %v", m.Files)
	}
}

func TestManifest_SaveLoad(t *testing.T) {
	root := t.TempDir()
	m := &Manifest{Version: "1.0.0"}
	m.Add("bin/nebula")
	m.Add("LICENSE")
	m.Add("bin/nebula")

	if err := m.Save(root); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err := LoadManifest(root)
	if err != nil {
		t.Fatalf("LoadManifest: %v", err)
	}
	want := []string{"LICENSE", "bin/nebula", ManifestName}
	if !reflect.DeepEqual(got.Files, want) {
		t.Errorf("Files = %v, want %v", got.Files, want)
	}
	if got.Version != "1.0.0" {
		t.Errorf("Version = %q", got.Version)
	}
}

func TestLoadManifest_RejectsEscapingEntries(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, ManifestName), `{"Files":["../outside.txt"]}`)

	if _, err := LoadManifest(root); err == nil {
		t.Error("expected error for entry outside the root")
	}
}

func TestLoadOrDefault(t *testing.T) {
	root := t.TempDir()
	m, err := LoadOrDefault(root, "windows")
	if err == nil {
		t.Error("expected fallback reason for missing manifest")
	}
	want := []string{"LICENSE", "README", "bin/nebula.exe", LogName, ManifestName}
	if !reflect.DeepEqual(m.Files, want) {
		t.Errorf("default Files = %v, want %v", m.Files, want)
	}
}

func TestManifest_Union(t *testing.T) {
	older := &Manifest{Version: "1.0.0", Files: []string{"bin/nebula", "lib/std/old.na"}}
	newer := &Manifest{Version: "1.1.0", Files: []string{"bin/nebula", "lib/std/new.na"}}

	got := newer.Union(older)
	want := []string{"bin/nebula", "lib/std/new.na", "lib/std/old.na"}
	if !reflect.DeepEqual(got.Files, want) {
		t.Errorf("Files = %v, want %v", got.Files, want)
	}
	if got.Version != "1.1.0" {
		t.Errorf("Version = %q, want newer", got.Version)
	}
	if got := newer.Union(nil); len(got.Files) != 2 {
		t.Errorf("Union(nil) = %v", got.Files)
	}
}

func TestManifest_DirsDeepestFirst(t *testing.T) {
	m := &Manifest{Files: []string{"LICENSE", "bin/nebula", "lib/std/io.na", "lib/std/net/http.na"}}
	want := []string{"lib/std/net", "lib/std", "bin", "lib"}
	if got := m.Dirs(); !reflect.DeepEqual(got, want) {
		t.Errorf("Dirs = %v, want %v", got, want)
	}
}

func TestRemove_PreservesForeignFiles(t *testing.T) {
	src := testPayload(t)
	root := filepath.Join(t.TempDir(), "Nebula")
	plan, err := Scan(src)
	if err != nil {
		t.Fatal(err)
	}
	m, err := (&Copier{}).Copy(context.Background(), plan, root, "1.0.0")
	if err != nil {
		t.Fatal(err)
	}
	if err := m.Save(root); err != nil {
		t.Fatal(err)
	}

	userFile := filepath.Join(root, "lib", "my-notes.txt")
	writeFile(t, userFile, "mine")

	res, err := Remove(root, m, nil)
	if err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if res.Removed != len(m.Files) {
		t.Errorf("Removed = %d, want %d", res.Removed, len(m.Files))
	}
	if got := readFile(t, userFile); got != "mine" {
		t.Errorf("user file changed: %q", got)
	}
	if res.RootRemoved {
		t.Error("root removed while it still holds a user file")
	}
	if _, err := os.Stat(filepath.Join(root, "bin")); !os.IsNotExist(err) {
		t.Error("empty bin dir should be removed")
	}
	if _, err := os.Stat(filepath.Join(root, "lib", "std")); !os.IsNotExist(err) {
		t.Error("empty lib/std should be removed")
	}
	if !reflect.DeepEqual(res.Kept, []string{"lib"}) {
		t.Errorf("Kept = %v, want [lib]", res.Kept)
	}
}

func TestRemove_EverythingManaged(t *testing.T) {
	root := filepath.Join(t.TempDir(), "Nebula")
	writeFile(t, filepath.Join(root, "bin", "nebula"), "x")
	writeFile(t, filepath.Join(root, "LICENSE"), "x")
	m := &Manifest{Files: []string{"LICENSE", "README", "bin/nebula"}}

	res, err := Remove(root, m, nil)
	if err != nil {
		t.Fatal(err)
	}
	if res.Missing != 1 {
		t.Errorf("Missing = %d, want 1", res.Missing)
	}
	if !res.RootRemoved {
		t.Error("empty root should be removed")
	}
}

func TestConfigBackupRestore(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "config", "settings.toml"), "user = 1\n")
	writeFile(t, filepath.Join(root, "config", "profiles", "work.toml"), "work\n")

	b, err := BackupConfig(root)
	if err != nil || b == nil {
		t.Fatalf("BackupConfig: %v, %v", b, err)
	}

	// Overwrite as a payload copy would.
	writeFile(t, filepath.Join(root, "config", "settings.toml"), "default = true\n")
	writeFile(t, filepath.Join(root, "config", "new-default.toml"), "new\n")

	if err := b.Restore(); err != nil {
		t.Fatalf("Restore: %v", err)
	}
	if got := readFile(t, filepath.Join(root, "config", "settings.toml")); got != "user = 1\n" {
		t.Errorf("settings.toml = %q, want user content", got)
	}
	if got := readFile(t, filepath.Join(root, "config", "profiles", "work.toml")); got != "work\n" {
		t.Errorf("work.toml = %q", got)
	}
	if _, err := os.Stat(filepath.Join(root, "config", "new-default.toml")); !os.IsNotExist(err) {
		t.Error("payload default should not survive restore")
	}
	if _, err := os.Stat(b.Dir()); !os.IsNotExist(err) {
		t.Error("backup dir should be removed after restore")
	}
}

func TestBackupConfig_NoConfigDir(t *testing.T) {
	b, err := BackupConfig(t.TempDir())
	if err != nil || b != nil {
		t.Errorf("got %v, %v; want nil, nil", b, err)
	}
}

func TestLoadOrDefault_IncludesStdLib(t *testing.T) {
	root := t.TempDir()
	for _, rel := range []string{"lib/std/io.na", "lib/std/net/http.na", "lib/user.na", "config/settings.toml"} {
		p := filepath.Join(root, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(p), 0755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(p, []byte("x"), 0644); err != nil {
			t.Fatal(err)
		}
	}

	m, err := LoadOrDefault(root, "linux")
	if err == nil {
		t.Error("expected fallback reason for missing manifest")
	}
	want := []string{"LICENSE", "README", "bin/nebula", LogName, "lib/std/io.na", "lib/std/net/http.na", ManifestName}
	sort.Strings(want)
	if !reflect.DeepEqual(m.Files, want) {
		t.Errorf("Files = %v, want %v", m.Files, want)
	}
}
