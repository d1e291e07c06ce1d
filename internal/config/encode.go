package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
)

// fileView is the on-disk shape of Config. Durations are rendered as
// strings so the file round-trips through Load.
type fileView struct {
	InstallDir   string      `toml:"install_dir"`
	PayloadDir   string      `toml:"payload_dir"`
	LogFile      string      `toml:"log_file"`
	MinFreeBytes uint64      `toml:"min_free_bytes"`
	Ledger       ledgerView  `toml:"ledger"`
	Editors      editorsView `toml:"editors"`
}

type ledgerView struct {
	Backend string `toml:"backend"`
	Path    string `toml:"path"`
}

type editorsView struct {
	VSCodeTimeout     string   `toml:"vscode_timeout"`
	ExtensionID       string   `toml:"extension_id"`
	JetBrainsPrefixes []string `toml:"jetbrains_prefixes"`
	PortableRoot      string   `toml:"portable_root"`
}

// Encode renders c as TOML.
func Encode(c *Config) ([]byte, error) {
	view := fileView{
		InstallDir:   c.InstallDir,
		PayloadDir:   c.PayloadDir,
		LogFile:      c.LogFile,
		MinFreeBytes: c.MinFreeBytes,
		Ledger:       ledgerView{Backend: c.Ledger.Backend, Path: c.Ledger.Path},
		Editors: editorsView{
			VSCodeTimeout:     c.Editors.VSCodeTimeout.String(),
			ExtensionID:       c.Editors.ExtensionID,
			JetBrainsPrefixes: c.Editors.JetBrainsPrefixes,
			PortableRoot:      c.Editors.PortableRoot,
		},
	}
	data, err := toml.Marshal(view)
	if err != nil {
		return nil, fmt.Errorf("failed to encode config: %w", err)
	}
	return data, nil
}

// ErrExists is returned by WriteDefault when the file is already present.
var ErrExists = errors.New("config file already exists")

// WriteDefault writes the built-in configuration to path. An existing file
// is kept unless force is set.
func WriteDefault(path string, force bool) error {
	if !force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("%w: %s", ErrExists, path)
		} else if !errors.Is(err, fs.ErrNotExist) {
			return err
		}
	}

	data, err := Encode(Default())
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config dir: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}
