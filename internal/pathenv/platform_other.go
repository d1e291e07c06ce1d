//go:build !windows

package pathenv

import (
	"path/filepath"

	"github.com/nebula-lang/nebula-setup/internal/shell"
)

// PlatformStore returns the user environment store for this OS: a
// KEY=VALUE file under ~/.nebula whose PATH additions the login shell
// picks up through a sourced script.
func PlatformStore(home string) (Store, Broadcaster) {
	dir := filepath.Join(home, ".nebula")
	store := NewFileStore(filepath.Join(dir, EnvFileName))
	hook := &shell.Hook{
		Home:       home,
		ScriptPath: filepath.Join(dir, "env.sh"),
	}
	return store, BroadcastFunc(func() error {
		path, err := store.Get("PATH")
		if err != nil {
			return err
		}
		return hook.Sync(path)
	})
}
