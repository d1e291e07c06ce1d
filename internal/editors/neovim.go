package editors

import (
	"fmt"
	"os"
	"path/filepath"
)

// NeovimHelperPath is the helper file written relative to the Neovim
// config directory. Files in plugin/ are sourced automatically, so the
// user's init.lua / init.vim is never touched.
var NeovimHelperPath = filepath.Join("plugin", "nebula.lua")

const neovimHelper = `-- Installed by nebula-setup. Safe to delete.
vim.filetype.add({
  extension = {
    na = "nebula",
  },
})
`

// installNeovim writes the filetype helper into an existing config
// directory. A missing config directory means Neovim is not set up.
func (d *Dispatcher) installNeovim(t Target) Result {
	dir := t.ConfigDir
	if dir == "" {
		return Result{Kind: t.Kind, Outcome: SkippedNotDetected, Message: "no Neovim config directory"}
	}
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return Result{Kind: t.Kind, Outcome: SkippedNotDetected, Message: fmt.Sprintf("config directory %s does not exist", dir)}
	}

	dst := filepath.Join(dir, NeovimHelperPath)
	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return Result{Kind: t.Kind, Outcome: FailedIgnored, Message: err.Error()}
	}
	if err := os.WriteFile(dst, []byte(neovimHelper), 0644); err != nil {
		return Result{Kind: t.Kind, Outcome: FailedIgnored, Message: err.Error()}
	}
	return Result{Kind: t.Kind, Outcome: Succeeded, Message: "wrote " + dst}
}
