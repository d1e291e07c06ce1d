package payload

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// ConfigBackup is a copy of <root>/config taken before an overwrite.
type ConfigBackup struct {
	root string
	dir  string
}

// BackupConfig copies <root>/config into a temporary directory. It returns
// nil when the root has no config subtree.
func BackupConfig(root string) (*ConfigBackup, error) {
	src := filepath.Join(root, ConfigDirName)
	info, err := os.Stat(src)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to stat config dir: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s is not a directory", src)
	}

	dir, err := os.MkdirTemp("", "nebula-config-backup-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create backup dir: %w", err)
	}
	if err := copyTree(src, dir); err != nil {
		os.RemoveAll(dir)
		return nil, fmt.Errorf("failed to back up config: %w", err)
	}
	return &ConfigBackup{root: root, dir: dir}, nil
}

// Dir returns the backup location.
func (b *ConfigBackup) Dir() string {
	return b.dir
}

// Restore replaces <root>/config with the backup and discards the backup.
// Payload defaults written in between are dropped.
func (b *ConfigBackup) Restore() error {
	dst := filepath.Join(b.root, ConfigDirName)
	if err := os.RemoveAll(dst); err != nil {
		return fmt.Errorf("failed to clear config dir: %w", err)
	}
	if err := copyTree(b.dir, dst); err != nil {
		return fmt.Errorf("failed to restore config (backup kept at %s): %w", b.dir, err)
	}
	return b.Discard()
}

// Discard removes the backup without restoring it.
func (b *ConfigBackup) Discard() error {
	return os.RemoveAll(b.dir)
}
