package output

import (
	"fmt"
	"io"
	"strings"
	"sync"
)

// Progress is a file-count progress bar for the payload copy.
//
//	[==============>         ]  58% Copying files (14/24)
//
// On a terminal it redraws in place; otherwise it prints a single line
// when the bar completes. A Progress with a nil writer prints nothing.
type Progress struct {
	mu      sync.Mutex
	w       io.Writer
	tty     bool
	label   string
	total   int
	current int
	width   int
	done    bool
}

// NewProgress returns a bar for total steps writing to w.
func NewProgress(w io.Writer, total int, label string) *Progress {
	return &Progress{
		w:     w,
		tty:   w != nil && isTerminal(w),
		label: label,
		total: total,
		width: 30,
	}
}

// IncrementBy advances the bar by n steps, clamped at total.
func (p *Progress) IncrementBy(n int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.current = min(p.current+n, p.total)
	p.draw()
}

// Finish fills the bar and ends its line. Calling it twice is harmless.
func (p *Progress) Finish() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.current = p.total
	p.draw()
	if p.tty && p.w != nil {
		fmt.Fprintln(p.w)
	}
}

// Current returns the number of completed steps.
func (p *Progress) Current() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.current
}

// draw must be called with p.mu held.
func (p *Progress) draw() {
	if p.w == nil || p.done {
		return
	}

	complete := p.current >= p.total
	if !p.tty && !complete {
		return
	}

	line := p.line()
	if p.tty {
		fmt.Fprintf(p.w, "\r%s", line)
	} else {
		fmt.Fprintln(p.w, line)
	}
	if complete {
		p.done = true
	}
}

func (p *Progress) line() string {
	pct := 100
	filled := p.width
	if p.total > 0 {
		pct = p.current * 100 / p.total
		filled = p.current * p.width / p.total
	}

	var b strings.Builder
	b.WriteByte('[')
	switch {
	case filled >= p.width:
		b.WriteString(strings.Repeat("=", p.width))
	case filled > 0:
		b.WriteString(strings.Repeat("=", filled-1))
		b.WriteByte('>')
		b.WriteString(strings.Repeat(" ", p.width-filled))
	default:
		b.WriteString(strings.Repeat(" ", p.width))
	}
	b.WriteByte(']')
	return fmt.Sprintf("%s %3d%% %s (%d/%d)", b.String(), pct, p.label, p.current, p.total)
}
