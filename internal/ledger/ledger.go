// Package ledger persists the record of the current Nebula install.
//
// The ledger is the single source of truth for upgrade decisions. It holds
// four values (install path, product version, extension version and install
// date) in a user-scoped key/value area, so no elevated privileges are
// needed. Two backends exist: SQLite (all platforms) and the Windows
// registry under HKEY_CURRENT_USER.
package ledger

import (
	"context"
	"errors"
	"fmt"
)

// Backend is a small user-scoped key/value area.
type Backend interface {
	// Load returns every stored value. An empty area yields an empty map.
	Load(ctx context.Context) (map[string]string, error)
	// Replace swaps the stored values for values.
	Replace(ctx context.Context, values map[string]string) error
	// Clear removes every stored value.
	Clear(ctx context.Context) error
	Close() error
}

// Ledger reads and writes install records through a Backend.
type Ledger struct {
	backend Backend
}

// New wraps a backend.
func New(backend Backend) *Ledger {
	return &Ledger{backend: backend}
}

// Open opens the ledger for the named backend ("sqlite" or "registry").
// path is the database file for sqlite and the key path for registry.
func Open(backend, path string) (*Ledger, error) {
	switch backend {
	case "", "sqlite":
		b, err := OpenSQLite(path)
		if err != nil {
			return nil, err
		}
		return New(b), nil
	case "registry":
		b, err := NewRegistryBackend(path)
		if err != nil {
			return nil, err
		}
		return New(b), nil
	default:
		return nil, fmt.Errorf("unknown ledger backend %q", backend)
	}
}

// Read returns the current record, or ErrAbsent.
func (l *Ledger) Read(ctx context.Context) (*Record, error) {
	values, err := l.backend.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read ledger: %w", err)
	}
	return recordFromValues(values)
}

// Exists reports whether a record is present. A corrupt record counts as
// present so that callers do not treat it as a fresh machine.
func (l *Ledger) Exists(ctx context.Context) (bool, error) {
	_, err := l.Read(ctx)
	switch {
	case err == nil, errors.Is(err, ErrCorrupt):
		return true, nil
	case errors.Is(err, ErrAbsent):
		return false, nil
	default:
		return false, err
	}
}

// Write replaces the stored record.
func (l *Ledger) Write(ctx context.Context, rec *Record) error {
	if rec == nil || rec.InstallPath == "" {
		return errors.New("install record requires an install path")
	}
	if rec.ProductVersion == "" {
		return errors.New("install record requires a product version")
	}
	if err := l.backend.Replace(ctx, rec.values()); err != nil {
		return fmt.Errorf("failed to write ledger: %w", err)
	}
	return nil
}

// Delete removes the record. Deleting an absent record is not an error.
func (l *Ledger) Delete(ctx context.Context) error {
	if err := l.backend.Clear(ctx); err != nil {
		return fmt.Errorf("failed to delete ledger: %w", err)
	}
	return nil
}

// Close releases the backend.
func (l *Ledger) Close() error {
	return l.backend.Close()
}
