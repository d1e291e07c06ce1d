// Package logwatch prints and follows the install log.
package logwatch

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// Tail returns the last n lines of path. n <= 0 returns every line.
func Tail(path string, n int) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var lines []string
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for sc.Scan() {
		lines = append(lines, sc.Text())
		if n > 0 && len(lines) > n {
			lines = lines[1:]
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return lines, nil
}

// Follow copies path to w, then keeps copying appended bytes until ctx is
// done. The file may not exist yet; it is picked up when created. A
// truncated or replaced file is reread from the start. Follow watches the
// parent directory so file replacement is seen.
func Follow(ctx context.Context, path string, w io.Writer) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("logwatch: create watcher: %w", err)
	}
	defer fsw.Close()

	dir := filepath.Dir(path)
	if err := fsw.Add(dir); err != nil {
		return fmt.Errorf("logwatch: watch %s: %w", dir, err)
	}

	t := &tailer{path: path, w: w}
	defer t.close()
	if err := t.drain(); err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != filepath.Clean(path) {
				continue
			}
			if ev.Has(fsnotify.Create) || ev.Has(fsnotify.Remove) || ev.Has(fsnotify.Rename) {
				t.close()
			}
			if err := t.drain(); err != nil {
				return err
			}
		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			return fmt.Errorf("logwatch: %w", err)
		}
	}
}

// tailer tracks the open file and read offset.
type tailer struct {
	path   string
	w      io.Writer
	f      *os.File
	offset int64
}

func (t *tailer) close() {
	if t.f != nil {
		t.f.Close()
		t.f = nil
	}
	t.offset = 0
}

// drain writes everything past the current offset.
func (t *tailer) drain() error {
	if t.f == nil {
		f, err := os.Open(t.path)
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("logwatch: open %s: %w", t.path, err)
		}
		t.f = f
	}

	info, err := t.f.Stat()
	if err != nil {
		return fmt.Errorf("logwatch: stat %s: %w", t.path, err)
	}
	if info.Size() < t.offset {
		// Truncated in place.
		t.offset = 0
	}
	if _, err := t.f.Seek(t.offset, io.SeekStart); err != nil {
		return fmt.Errorf("logwatch: seek %s: %w", t.path, err)
	}
	n, err := io.Copy(t.w, t.f)
	t.offset += n
	if err != nil {
		return fmt.Errorf("logwatch: copy %s: %w", t.path, err)
	}
	return nil
}
