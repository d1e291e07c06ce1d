//go:build windows

package desktop

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/sys/windows/registry"
)

const (
	progID      = `Nebula.Script`
	classesRoot = `Software\Classes`
)

// Windows registers the association under HKCU\Software\Classes and puts
// an internet shortcut on the user's desktop.
type Windows struct {
	DesktopDir string
}

// Platform returns the integrator for the current OS.
func Platform(home string) Integrator {
	return &Windows{DesktopDir: filepath.Join(home, "Desktop")}
}

func (w *Windows) shortcutPath() string { return filepath.Join(w.DesktopDir, "Nebula.url") }

// CreateShortcut writes a .url file pointing at execPath.
func (w *Windows) CreateShortcut(execPath string) error {
	content := fmt.Sprintf("[InternetShortcut]\r\nURL=file:///%s\r\nIconFile=%s\r\nIconIndex=0\r\n",
		filepath.ToSlash(execPath), execPath)
	if err := os.MkdirAll(w.DesktopDir, 0o755); err != nil {
		return err
	}
	return os.WriteFile(w.shortcutPath(), []byte(content), 0o644)
}

// RemoveShortcut deletes the desktop shortcut if present.
func (w *Windows) RemoveShortcut() (bool, error) {
	return removeFile(w.shortcutPath())
}

// RegisterAssociation maps .na to Nebula.Script and sets its open command.
func (w *Windows) RegisterAssociation(execPath string) error {
	ext, _, err := registry.CreateKey(registry.CURRENT_USER, classesRoot+`\`+Extension, registry.SET_VALUE)
	if err != nil {
		return fmt.Errorf("failed to create %s key: %w", Extension, err)
	}
	defer ext.Close()
	if err := ext.SetStringValue("", progID); err != nil {
		return err
	}

	cmd, _, err := registry.CreateKey(registry.CURRENT_USER, classesRoot+`\`+progID+`\shell\open\command`, registry.SET_VALUE)
	if err != nil {
		return fmt.Errorf("failed to create %s command key: %w", progID, err)
	}
	defer cmd.Close()
	return cmd.SetStringValue("", fmt.Sprintf(`"%s" "%%1"`, execPath))
}

// RemoveAssociation deletes the keys written by RegisterAssociation if the
// extension still points at Nebula.Script.
func (w *Windows) RemoveAssociation() (bool, error) {
	ext, err := registry.OpenKey(registry.CURRENT_USER, classesRoot+`\`+Extension, registry.QUERY_VALUE)
	if errors.Is(err, registry.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	owner, _, err := ext.GetStringValue("")
	ext.Close()
	if err != nil || owner != progID {
		return false, nil
	}

	for _, k := range []string{
		progID + `\shell\open\command`,
		progID + `\shell\open`,
		progID + `\shell`,
		progID,
		Extension,
	} {
		if err := registry.DeleteKey(registry.CURRENT_USER, classesRoot+`\`+k); err != nil && !errors.Is(err, registry.ErrNotExist) {
			return true, fmt.Errorf("failed to delete %s: %w", k, err)
		}
	}
	return true, nil
}

// Describe lists the managed artifacts.
func (w *Windows) Describe() []Artifact {
	assoc := false
	if k, err := registry.OpenKey(registry.CURRENT_USER, classesRoot+`\`+Extension, registry.QUERY_VALUE); err == nil {
		v, _, err := k.GetStringValue("")
		assoc = err == nil && v == progID
		k.Close()
	}
	return []Artifact{
		{Name: "shortcut", Path: w.shortcutPath(), Present: fileExists(w.shortcutPath())},
		{Name: "association", Path: `HKCU\` + classesRoot + `\` + Extension, Present: assoc},
	}
}
