//go:build windows

package ledger

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sys/windows/registry"
)

// DefaultRegistryPath is the HKEY_CURRENT_USER key holding the ledger.
const DefaultRegistryPath = `Software\Nebula`

// RegistryBackend stores ledger values under a HKEY_CURRENT_USER key.
//
// The registry has no transactions, so InstallPath acts as the commit
// marker: it is written last and removed first.
type RegistryBackend struct {
	path string
}

// NewRegistryBackend returns a backend rooted at HKCU\path.
func NewRegistryBackend(path string) (*RegistryBackend, error) {
	if path == "" {
		path = DefaultRegistryPath
	}
	return &RegistryBackend{path: path}, nil
}

// Load returns every known value present under the key.
func (r *RegistryBackend) Load(ctx context.Context) (map[string]string, error) {
	values := make(map[string]string)

	k, err := registry.OpenKey(registry.CURRENT_USER, r.path, registry.QUERY_VALUE)
	if errors.Is(err, registry.ErrNotExist) {
		return values, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open HKCU\\%s: %w", r.path, err)
	}
	defer k.Close()

	for _, name := range commitOrder {
		v, _, err := k.GetStringValue(name)
		if errors.Is(err, registry.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", name, err)
		}
		values[name] = v
	}
	return values, nil
}

// Replace applies replaceSteps. ctx is checked once up front; once the
// marker is gone the remaining writes always run so the record is not left
// absent by a cancellation.
func (r *RegistryBackend) Replace(ctx context.Context, values map[string]string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	k, _, err := registry.CreateKey(registry.CURRENT_USER, r.path, registry.SET_VALUE)
	if err != nil {
		return fmt.Errorf("failed to create HKCU\\%s: %w", r.path, err)
	}
	defer k.Close()

	for _, op := range replaceSteps(values) {
		if op.delete {
			if err := k.DeleteValue(op.name); err != nil && !errors.Is(err, registry.ErrNotExist) {
				return fmt.Errorf("failed to delete %s: %w", op.name, err)
			}
			continue
		}
		if err := k.SetStringValue(op.name, op.value); err != nil {
			return fmt.Errorf("failed to set %s: %w", op.name, err)
		}
	}
	return nil
}

// Clear removes the values, InstallPath first, then the key itself.
func (r *RegistryBackend) Clear(ctx context.Context) error {
	k, err := registry.OpenKey(registry.CURRENT_USER, r.path, registry.SET_VALUE)
	if errors.Is(err, registry.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to open HKCU\\%s: %w", r.path, err)
	}

	for i := len(commitOrder) - 1; i >= 0; i-- {
		if err := k.DeleteValue(commitOrder[i]); err != nil && !errors.Is(err, registry.ErrNotExist) {
			k.Close()
			return fmt.Errorf("failed to delete %s: %w", commitOrder[i], err)
		}
	}
	k.Close()

	// DeleteKey fails when the key still has subkeys we do not own; leave it then.
	_ = registry.DeleteKey(registry.CURRENT_USER, r.path)
	return nil
}

// Close is a no-op; keys are opened per call.
func (r *RegistryBackend) Close() error {
	return nil
}
