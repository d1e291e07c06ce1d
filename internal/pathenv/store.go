// Package pathenv edits a single delimited, user-scoped environment
// variable (normally PATH) in an idempotent and reversible way.
//
// Values are read from and written to a Store. On Windows the store is the
// HKEY_CURRENT_USER\Environment key; elsewhere it is a KEY=VALUE file that
// the login shell sources. After every write a Broadcaster tells the system
// so that new processes see the update.
package pathenv

import (
	"errors"
	"sync"
)

// EnvFileName is the managed environment file under ~/.nebula on systems
// without a user environment registry.
const EnvFileName = "env"

// ErrPathMutation is wrapped by every read or write failure.
var ErrPathMutation = errors.New("path mutation failed")

// Store reads and writes persisted user environment variables.
type Store interface {
	Get(name string) (string, error)
	Set(name, value string) error
}

// Broadcaster announces an environment change to the system.
type Broadcaster interface {
	Broadcast() error
}

// BroadcastFunc adapts a function to Broadcaster.
type BroadcastFunc func() error

// Broadcast calls f.
func (f BroadcastFunc) Broadcast() error { return f() }

// NopBroadcaster does nothing.
type NopBroadcaster struct{}

// Broadcast does nothing.
func (NopBroadcaster) Broadcast() error { return nil }

// MemStore is an in-memory Store. It is used by tests and dry runs.
type MemStore struct {
	mu     sync.Mutex
	values map[string]string
	writes int

	// GetErr and SetErr, when set, are returned by Get and Set.
	GetErr error
	SetErr error
}

// NewMemStore returns a MemStore seeded with values.
func NewMemStore(values map[string]string) *MemStore {
	m := &MemStore{values: make(map[string]string)}
	for k, v := range values {
		m.values[k] = v
	}
	return m
}

// Get returns the stored value, or "" if unset.
func (m *MemStore) Get(name string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.GetErr != nil {
		return "", m.GetErr
	}
	return m.values[name], nil
}

// Set stores value.
func (m *MemStore) Set(name, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.SetErr != nil {
		return m.SetErr
	}
	m.values[name] = value
	m.writes++
	return nil
}

// Writes returns the number of successful Set calls.
func (m *MemStore) Writes() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.writes
}
