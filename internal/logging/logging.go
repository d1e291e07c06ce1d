// Package logging builds the two loggers every run uses: a console logger
// for the person running the installer and a logfmt sink appended to the
// install log.
package logging

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/charmbracelet/log"
)

// Verbosity selects the console level.
type Verbosity int

const (
	// Normal shows info and above.
	Normal Verbosity = iota
	// Verbose adds debug lines.
	Verbose
	// Silent shows warnings and errors only.
	Silent
	// VerySilent shows errors only.
	VerySilent
)

// Level maps a verbosity to a log level.
func (v Verbosity) Level() log.Level {
	switch v {
	case Verbose:
		return log.DebugLevel
	case Silent:
		return log.WarnLevel
	case VerySilent:
		return log.ErrorLevel
	default:
		return log.InfoLevel
	}
}

// Console returns the human-facing logger.
func Console(w io.Writer, v Verbosity) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		Prefix: "nebula-setup",
		Level:  v.Level(),
	})
}

// Discard returns a logger that writes nowhere.
func Discard() *log.Logger {
	return log.New(io.Discard)
}

// File is an install log. A File made by NewDeferred holds lines in memory
// until Open creates the file, so nothing is written to disk before the
// caller decides the target directory may be created.
type File struct {
	*log.Logger
	path     string
	fallback string

	mu  sync.Mutex
	f   *os.File
	buf bytes.Buffer
}

// OpenFile opens path for appending, creating it and its directory. Every
// line carries an RFC 3339 timestamp and is logfmt encoded.
func OpenFile(path string) (*File, error) {
	l := NewDeferred(path, "")
	if err := l.Open(); err != nil {
		return nil, err
	}
	return l, nil
}

// NewDeferred returns a File for path that buffers until Open. If it is
// closed without being opened the buffered lines are appended to fallback
// instead; an empty fallback drops them.
func NewDeferred(path, fallback string) *File {
	l := &File{path: path, fallback: fallback}
	l.Logger = log.NewWithOptions(l, log.Options{
		Level:           log.DebugLevel,
		ReportTimestamp: true,
		TimeFormat:      time.RFC3339,
		Formatter:       log.LogfmtFormatter,
	})
	return l
}

// Write implements io.Writer for the logger.
func (l *File) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.f != nil {
		return l.f.Write(p)
	}
	return l.buf.Write(p)
}

// Open creates the log file and writes the buffered lines to it. Opening
// an open File does nothing.
func (l *File) Open() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.f != nil {
		return nil
	}
	f, err := appendTo(l.path)
	if err != nil {
		return err
	}
	if _, err := l.buf.WriteTo(f); err != nil {
		f.Close()
		return fmt.Errorf("failed to write log file: %w", err)
	}
	l.f = f
	return nil
}

// Opened reports whether the file exists on disk yet.
func (l *File) Opened() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.f != nil
}

// Path returns the log file location.
func (l *File) Path() string {
	return l.path
}

// Close flushes and closes the file. An unopened File spills its buffer
// to the fallback path.
func (l *File) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.f == nil {
		if l.fallback == "" || l.buf.Len() == 0 {
			return nil
		}
		f, err := appendTo(l.fallback)
		if err != nil {
			return err
		}
		_, werr := l.buf.WriteTo(f)
		return errors.Join(werr, f.Close())
	}

	if err := l.f.Sync(); err != nil {
		l.f.Close()
		return err
	}
	return l.f.Close()
}

func appendTo(path string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}
	return f, nil
}
