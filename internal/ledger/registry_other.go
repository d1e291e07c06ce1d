//go:build !windows

package ledger

import (
	"errors"
	"runtime"
)

// DefaultRegistryPath is the HKEY_CURRENT_USER key holding the ledger on Windows.
const DefaultRegistryPath = `Software\Nebula`

// ErrRegistryUnsupported is returned when the registry backend is asked for
// on a platform without a registry.
var ErrRegistryUnsupported = errors.New("registry ledger backend requires windows, have " + runtime.GOOS)

// NewRegistryBackend always fails outside Windows.
func NewRegistryBackend(path string) (Backend, error) {
	return nil, ErrRegistryUnsupported
}
