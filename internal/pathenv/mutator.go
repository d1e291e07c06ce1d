package pathenv

import (
	"fmt"
	"io"

	"github.com/charmbracelet/log"
)

// Mutator applies segment edits to variables held in a Store.
type Mutator struct {
	store       Store
	list        List
	broadcaster Broadcaster
	logger      *log.Logger

	// snapshots holds each variable's raw value from just before the
	// first write of this run. It is never persisted.
	snapshots map[string]string
}

// NewMutator creates a Mutator. A nil broadcaster or logger is allowed.
func NewMutator(store Store, list List, broadcaster Broadcaster, logger *log.Logger) *Mutator {
	if broadcaster == nil {
		broadcaster = NopBroadcaster{}
	}
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Mutator{
		store:       store,
		list:        list,
		broadcaster: broadcaster,
		logger:      logger,
		snapshots:   make(map[string]string),
	}
}

// EnsureSegmentPresent appends segment to the variable if it is not
// already there. It reports whether a write happened.
func (m *Mutator) EnsureSegmentPresent(name, segment string) (bool, error) {
	current, err := m.store.Get(name)
	if err != nil {
		return false, fmt.Errorf("%w: read %s: %v", ErrPathMutation, name, err)
	}

	next, changed := m.list.Append(current, segment)
	if !changed {
		m.logger.Debug("segment already present", "var", name, "segment", segment)
		return false, nil
	}

	if err := m.write(name, current, next); err != nil {
		return false, err
	}
	m.logger.Info("segment added", "var", name, "segment", segment)
	return true, nil
}

// RemoveSegment drops every exact occurrence of segment from the variable.
// It reports whether a write happened.
func (m *Mutator) RemoveSegment(name, segment string) (bool, error) {
	current, err := m.store.Get(name)
	if err != nil {
		return false, fmt.Errorf("%w: read %s: %v", ErrPathMutation, name, err)
	}

	next, changed := m.list.Remove(current, segment)
	if !changed {
		m.logger.Debug("segment not present", "var", name, "segment", segment)
		return false, nil
	}

	if err := m.write(name, current, next); err != nil {
		return false, err
	}
	m.logger.Info("segment removed", "var", name, "segment", segment)
	return true, nil
}

// Contains reports whether the variable currently holds segment.
func (m *Mutator) Contains(name, segment string) (bool, error) {
	current, err := m.store.Get(name)
	if err != nil {
		return false, fmt.Errorf("%w: read %s: %v", ErrPathMutation, name, err)
	}
	return m.list.Contains(current, segment), nil
}

// Snapshot returns the value the variable had before this Mutator first
// wrote it, and whether such a write happened.
func (m *Mutator) Snapshot(name string) (string, bool) {
	v, ok := m.snapshots[name]
	return v, ok
}

func (m *Mutator) write(name, before, after string) error {
	if _, seen := m.snapshots[name]; !seen {
		m.snapshots[name] = before
	}

	if err := m.store.Set(name, after); err != nil {
		return fmt.Errorf("%w: write %s: %v", ErrPathMutation, name, err)
	}

	// Fire and forget: a failed broadcast only delays visibility.
	if err := m.broadcaster.Broadcast(); err != nil {
		m.logger.Warn("environment change broadcast failed", "var", name, "err", err)
	}
	return nil
}
