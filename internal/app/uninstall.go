package app

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/nebula-lang/nebula-setup/internal/installer"
	"github.com/nebula-lang/nebula-setup/internal/logging"
)

// uninstallLogName is the default uninstall log, kept outside the root
// that is being removed.
const uninstallLogName = "nebula-uninstall.log"

var (
	uninstallFlagLog        string
	uninstallFlagVerySilent bool
)

var uninstallCmd = &cobra.Command{
	Use:   "uninstall",
	Short: "Remove Nebula and undo the install's changes",
	Long: `Remove every file the installer recorded in uninstall.json, take
Nebula's bin directory out of PATH and remove the desktop shortcut and file
association.

Files you added under the install directory are kept, and so is the
directory itself when it still holds them. Editor integrations are left in
place. If some files cannot be removed the install record is kept so the
uninstall can be run again.`,
	RunE: runUninstall,
}

func init() {
	uninstallCmd.Flags().StringVar(&uninstallFlagLog, "log", "", "uninstall log file (default: nebula-uninstall.log in the temp dir)")
	uninstallCmd.Flags().BoolVar(&uninstallFlagVerySilent, "very-silent", false, "show errors only")

	RootCmd.AddCommand(uninstallCmd)
}

func runUninstall(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	logPath := uninstallFlagLog
	if logPath == "" {
		logPath = filepath.Join(os.TempDir(), uninstallLogName)
	}
	verbosity := currentVerbosity()
	if uninstallFlagVerySilent {
		verbosity = logging.VerySilent
	}

	rs, err := newSession(cmd.Context(), cfg, sessionOptions{verbosity: verbosity, logPath: logPath})
	if err != nil {
		return err
	}
	defer rs.Close()

	rep, err := installer.Uninstall(cmd.Context(), rs.Session)
	if err != nil {
		rs.logError(err)
		return err
	}

	if verbosity == logging.VerySilent {
		return nil
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Removed %d file(s) from %s\n", rep.Removed.Removed, rep.Record.InstallPath)
	if rep.UsedFallback {
		fmt.Fprintln(out, "uninstall.json was missing; removed bin/, lib/std/, LICENSE, README and the log only.")
	}
	if len(rep.Removed.Kept) > 0 {
		fmt.Fprintf(out, "Kept %d directory(ies) that still contain your files.\n", len(rep.Removed.Kept))
	}
	if rep.PathChanged {
		fmt.Fprintf(out, "Removed %s from PATH.\n", installer.BinDir(rep.Record.InstallPath))
	}
	if len(rep.Warnings) > 0 {
		fmt.Fprintf(out, "Finished with %d warning(s); see %s\n", len(rep.Warnings), logPath)
	}
	return nil
}
