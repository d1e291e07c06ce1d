package pathenv

import (
	"bufio"
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// FileStore keeps user environment variables in a KEY=VALUE file.
// Blank lines and lines starting with '#' are ignored on read and dropped
// on write.
type FileStore struct {
	path string
}

// NewFileStore returns a store backed by path. The file need not exist.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Path returns the backing file.
func (f *FileStore) Path() string {
	return f.path
}

// Get returns the value of name, or "" if the file or key is missing.
func (f *FileStore) Get(name string) (string, error) {
	values, err := f.load()
	if err != nil {
		return "", err
	}
	return values[name], nil
}

// Set writes name=value, replacing the file atomically.
func (f *FileStore) Set(name, value string) error {
	if strings.ContainsAny(name, "=\n") || strings.Contains(value, "\n") {
		return fmt.Errorf("invalid variable %q", name)
	}

	values, err := f.load()
	if err != nil {
		return err
	}
	values[name] = value

	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var buf bytes.Buffer
	buf.WriteString("# Managed by nebula-setup. Do not edit.\n")
	for _, k := range keys {
		fmt.Fprintf(&buf, "%s=%s\n", k, values[k])
	}

	if err := os.MkdirAll(filepath.Dir(f.path), 0755); err != nil {
		return fmt.Errorf("cannot create %s: %w", filepath.Dir(f.path), err)
	}

	// Temp file + rename so a reader never sees a half-written file.
	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("cannot write %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, f.path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("cannot replace %s: %w", f.path, err)
	}
	return nil
}

func (f *FileStore) load() (map[string]string, error) {
	values := make(map[string]string)

	file, err := os.Open(f.path)
	if err != nil {
		if os.IsNotExist(err) {
			return values, nil
		}
		return nil, err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		idx := strings.IndexByte(line, '=')
		if idx <= 0 {
			continue
		}
		values[strings.TrimSpace(line[:idx])] = line[idx+1:]
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return values, nil
}
