// Package config loads nebula-setup settings from config.toml, the
// environment and defaults.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/nebula-lang/nebula-setup/internal/editors"
)

// EnvPrefix prefixes environment overrides, e.g. NEBULA_SETUP_INSTALL_DIR.
const EnvPrefix = "NEBULA_SETUP"

// FileName is the config file name inside Dir().
const FileName = "config.toml"

// DefaultMinFreeBytes is the free space required on the target volume.
const DefaultMinFreeBytes = 200 << 20

// Config holds every setting. Flags override fields after Load.
type Config struct {
	InstallDir   string        `mapstructure:"install_dir"`
	PayloadDir   string        `mapstructure:"payload_dir"`
	LogFile      string        `mapstructure:"log_file"`
	MinFreeBytes uint64        `mapstructure:"min_free_bytes"`
	Ledger       LedgerConfig  `mapstructure:"ledger"`
	Editors      EditorsConfig `mapstructure:"editors"`

	// File is the config file that was read, empty when none existed.
	File string `mapstructure:"-"`
}

// LedgerConfig selects the install ledger backend.
type LedgerConfig struct {
	Backend string `mapstructure:"backend"`
	Path    string `mapstructure:"path"`
}

// EditorsConfig tunes the extension dispatcher.
type EditorsConfig struct {
	VSCodeTimeout     time.Duration `mapstructure:"vscode_timeout"`
	ExtensionID       string        `mapstructure:"extension_id"`
	JetBrainsPrefixes []string      `mapstructure:"jetbrains_prefixes"`
	PortableRoot      string        `mapstructure:"portable_root"`
}

// Dir returns the nebula-setup config directory: %APPDATA%\nebula-setup on
// Windows, otherwise $XDG_CONFIG_HOME/nebula-setup (default ~/.config).
func Dir() (string, error) {
	var base string
	if runtime.GOOS == "windows" {
		base = os.Getenv("APPDATA")
	} else {
		base = os.Getenv("XDG_CONFIG_HOME")
	}
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		base = filepath.Join(home, ".config")
	}
	return filepath.Join(base, "nebula-setup"), nil
}

// DefaultPath returns Dir()/config.toml.
func DefaultPath() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, FileName), nil
}

// StateDir returns ~/.nebula, home of the sqlite ledger and the PATH env
// file.
func StateDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".nebula"), nil
}

// DefaultInstallDir returns the per-user install root.
func DefaultInstallDir() string {
	home, _ := os.UserHomeDir()
	if runtime.GOOS == "windows" {
		local := os.Getenv("LOCALAPPDATA")
		if local == "" {
			local = filepath.Join(home, "AppData", "Local")
		}
		return filepath.Join(local, "Programs", "Nebula")
	}
	return filepath.Join(home, ".local", "share", "nebula")
}

// DefaultPayloadDir returns payload/ next to the running executable.
func DefaultPayloadDir() string {
	exe, err := os.Executable()
	if err != nil {
		return "payload"
	}
	return filepath.Join(filepath.Dir(exe), "payload")
}

func setDefaults(v *viper.Viper) {
	state, _ := StateDir()

	v.SetDefault("install_dir", DefaultInstallDir())
	v.SetDefault("payload_dir", DefaultPayloadDir())
	v.SetDefault("log_file", "")
	v.SetDefault("min_free_bytes", DefaultMinFreeBytes)
	v.SetDefault("ledger.backend", "sqlite")
	v.SetDefault("ledger.path", filepath.Join(state, "ledger.db"))
	v.SetDefault("editors.vscode_timeout", editors.DefaultVSCodeTimeout.String())
	v.SetDefault("editors.extension_id", editors.DefaultExtensionID)
	v.SetDefault("editors.jetbrains_prefixes", editors.DefaultJetBrainsPrefixes)
	v.SetDefault("editors.portable_root", "")
}

// Load reads configuration. An explicit path must exist; otherwise the
// default config file is optional. Environment variables override the
// file.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.SetConfigType("toml")

	explicit := path != ""
	if !explicit {
		p, err := DefaultPath()
		if err != nil {
			return nil, fmt.Errorf("failed to locate config dir: %w", err)
		}
		path = p
	}
	v.SetConfigFile(path)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	used := path
	if err := v.ReadInConfig(); err != nil {
		if explicit || !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
		used = ""
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	cfg.File = used
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default returns the built-in configuration, ignoring files and env.
func Default() *Config {
	v := viper.New()
	setDefaults(v)
	var cfg Config
	// Defaults always decode.
	_ = v.Unmarshal(&cfg)
	return &cfg
}

// Validate checks values that would otherwise fail late.
func (c *Config) Validate() error {
	switch c.Ledger.Backend {
	case "sqlite", "registry":
	default:
		return fmt.Errorf("invalid ledger.backend %q (want sqlite or registry)", c.Ledger.Backend)
	}
	if c.Editors.VSCodeTimeout <= 0 {
		return fmt.Errorf("editors.vscode_timeout must be positive, got %s", c.Editors.VSCodeTimeout)
	}
	if c.InstallDir == "" {
		return errors.New("install_dir must not be empty")
	}
	return nil
}

// LogPath returns the install log location: log_file when set, otherwise
// install.log inside the install root.
func (c *Config) LogPath() string {
	if c.LogFile != "" {
		return c.LogFile
	}
	return filepath.Join(c.InstallDir, "install.log")
}
