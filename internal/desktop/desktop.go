// Package desktop creates and removes the optional shell integration
// artifacts: a launcher shortcut and the .na file association.
package desktop

import (
	"errors"
	"io/fs"
	"os"
)

// Extension is the script file extension the association claims.
const Extension = ".na"

// Integrator manages shortcut and association artifacts for one user.
// Remove methods report whether anything was removed and are no-ops when
// the artifact is absent.
type Integrator interface {
	CreateShortcut(execPath string) error
	RemoveShortcut() (bool, error)
	RegisterAssociation(execPath string) error
	RemoveAssociation() (bool, error)
	// Describe lists the artifact locations for status output.
	Describe() []Artifact
}

// Artifact is one managed location and whether it currently exists.
type Artifact struct {
	Name    string
	Path    string
	Present bool
}

// removeFile deletes path, reporting false when it did not exist.
func removeFile(path string) (bool, error) {
	err := os.Remove(path)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
