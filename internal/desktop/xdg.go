package desktop

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const (
	mimeType        = "text/x-nebula"
	shortcutName    = "nebula.desktop"
	handlerName     = "nebula-open.desktop"
	mimePackageName = "nebula.xml"
)

// XDG writes freedesktop.org entries under a data home
// ($XDG_DATA_HOME, default ~/.local/share).
type XDG struct {
	DataHome string
}

// NewXDG returns an XDG integrator for home, honouring $XDG_DATA_HOME.
func NewXDG(home string) *XDG {
	data := os.Getenv("XDG_DATA_HOME")
	if data == "" {
		data = filepath.Join(home, ".local", "share")
	}
	return &XDG{DataHome: data}
}

func (x *XDG) shortcutPath() string { return filepath.Join(x.DataHome, "applications", shortcutName) }
func (x *XDG) handlerPath() string  { return filepath.Join(x.DataHome, "applications", handlerName) }
func (x *XDG) mimePath() string     { return filepath.Join(x.DataHome, "mime", "packages", mimePackageName) }

// CreateShortcut writes a launcher entry that opens a terminal running
// the Nebula REPL.
func (x *XDG) CreateShortcut(execPath string) error {
	entry := desktopEntry(map[string]string{
		"Name":       "Nebula",
		"Comment":    "Nebula interactive shell",
		"Exec":       quoteExec(execPath),
		"Terminal":   "true",
		"Categories": "Development;",
	})
	return writeEntry(x.shortcutPath(), entry)
}

// RemoveShortcut deletes the launcher entry if present.
func (x *XDG) RemoveShortcut() (bool, error) {
	return removeFile(x.shortcutPath())
}

// RegisterAssociation declares the Nebula MIME type for *.na and a hidden
// handler entry that runs scripts with execPath.
func (x *XDG) RegisterAssociation(execPath string) error {
	pkg := fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<mime-info xmlns="http://www.freedesktop.org/standards/shared-mime-info">
  <mime-type type="%s">
    <comment>Nebula script</comment>
    <glob pattern="*%s"/>
  </mime-type>
</mime-info>
`, mimeType, Extension)
	if err := writeEntry(x.mimePath(), pkg); err != nil {
		return err
	}

	handler := desktopEntry(map[string]string{
		"Name":      "Nebula script",
		"Exec":      quoteExec(execPath) + " %f",
		"Terminal":  "true",
		"NoDisplay": "true",
		"MimeType":  mimeType + ";",
	})
	return writeEntry(x.handlerPath(), handler)
}

// RemoveAssociation deletes the MIME package and handler if present.
func (x *XDG) RemoveAssociation() (bool, error) {
	a, err := removeFile(x.mimePath())
	if err != nil {
		return a, err
	}
	b, err := removeFile(x.handlerPath())
	return a || b, err
}

// Describe lists the managed entries.
func (x *XDG) Describe() []Artifact {
	return []Artifact{
		{Name: "shortcut", Path: x.shortcutPath(), Present: fileExists(x.shortcutPath())},
		{Name: "association", Path: x.mimePath(), Present: fileExists(x.mimePath())},
	}
}

// desktopEntry renders a [Desktop Entry] group with keys in a fixed order.
func desktopEntry(fields map[string]string) string {
	order := []string{"Name", "Comment", "Exec", "Terminal", "NoDisplay", "MimeType", "Categories"}
	var b strings.Builder
	b.WriteString("[Desktop Entry]\nType=Application\n")
	for _, k := range order {
		if v, ok := fields[k]; ok {
			fmt.Fprintf(&b, "%s=%s\n", k, v)
		}
	}
	return b.String()
}

// quoteExec quotes a path for an Exec key when it contains spaces.
func quoteExec(p string) string {
	if strings.ContainsAny(p, " \t") {
		return `"` + strings.ReplaceAll(p, `"`, `\"`) + `"`
	}
	return p
}

func writeEntry(path, content string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create %s: %w", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
