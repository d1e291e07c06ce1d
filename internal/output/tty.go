// Package output renders headless-friendly progress and status tables for
// nebula-setup. Nothing here prompts; every renderer degrades to plain
// lines when the writer is not a terminal.
package output

import (
	"io"
	"os"

	"github.com/mattn/go-isatty"
)

// isTerminal reports whether w is an *os.File (or anything with Fd) backed
// by a terminal. Buffers are never terminals.
func isTerminal(w io.Writer) bool {
	type fder interface {
		Fd() uintptr
	}
	f, ok := w.(fder)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// ColorEnabled reports whether ANSI colors should be written to w.
func ColorEnabled(w io.Writer) bool {
	return os.Getenv("NO_COLOR") == "" && isTerminal(w)
}

const (
	ansiReset  = "\033[0m"
	ansiGreen  = "\033[32m"
	ansiYellow = "\033[33m"
	ansiRed    = "\033[31m"
	ansiGray   = "\033[90m"
)

func paint(enabled bool, color, text string) string {
	if !enabled || color == "" {
		return text
	}
	return color + text + ansiReset
}
