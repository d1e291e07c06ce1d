package output

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"
)

var spinnerFrames = []string{"|", "/", "-", "\\"}

// Spinner shows an indeterminate wait, such as an editor CLI call, with
// the time left before its deadline.
//
//	/  Installing VS Code extension (42s remaining)
//
// On a non-terminal writer Start prints the message once and no goroutine
// runs.
type Spinner struct {
	mu       sync.Mutex
	w        io.Writer
	tty      bool
	message  string
	deadline time.Duration
	started  time.Time
	running  bool
	stop     chan struct{}
	stopped  chan struct{}
	interval time.Duration
}

// NewSpinner returns a stopped spinner. A zero deadline shows elapsed time
// instead of time remaining.
func NewSpinner(w io.Writer, message string, deadline time.Duration) *Spinner {
	return &Spinner{
		w:        w,
		tty:      w != nil && isTerminal(w),
		message:  message,
		deadline: deadline,
		interval: 100 * time.Millisecond,
	}
}

// Start begins the animation. Starting a running spinner does nothing.
func (s *Spinner) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running || s.w == nil {
		return
	}
	s.running = true
	s.started = time.Now()

	if !s.tty {
		fmt.Fprintf(s.w, "%s...\n", s.message)
		return
	}

	s.stop = make(chan struct{})
	s.stopped = make(chan struct{})
	go s.loop(s.stop, s.stopped)
}

func (s *Spinner) loop(stop <-chan struct{}, stopped chan<- struct{}) {
	defer close(stopped)
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for frame := 0; ; frame++ {
		select {
		case <-stop:
			return
		case <-ticker.C:
			s.mu.Lock()
			fmt.Fprintf(s.w, "\r%s  %s", spinnerFrames[frame%len(spinnerFrames)], s.status())
			s.mu.Unlock()
		}
	}
}

// status must be called with s.mu held.
func (s *Spinner) status() string {
	elapsed := time.Since(s.started)
	if s.deadline > 0 {
		left := max(s.deadline-elapsed, 0)
		return fmt.Sprintf("%s (%ds remaining)", s.message, int(left.Seconds()))
	}
	return fmt.Sprintf("%s (%ds elapsed)", s.message, int(elapsed.Seconds()))
}

// Stop ends the animation and clears the line, then prints final when it
// is not empty. Stopping a stopped spinner only prints final.
func (s *Spinner) Stop(final string) {
	s.mu.Lock()
	stop, stopped := s.stop, s.stopped
	wasRunning := s.running
	s.running = false
	s.stop, s.stopped = nil, nil
	s.mu.Unlock()

	if stop != nil {
		close(stop)
		<-stopped
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.w == nil {
		return
	}
	if wasRunning && s.tty {
		fmt.Fprintf(s.w, "\r%s\r", strings.Repeat(" ", len(s.message)+24))
	}
	if final != "" {
		fmt.Fprintln(s.w, final)
	}
}
