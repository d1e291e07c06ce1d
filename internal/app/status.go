package app

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nebula-lang/nebula-setup/internal/installer"
	"github.com/nebula-lang/nebula-setup/internal/logging"
	"github.com/nebula-lang/nebula-setup/internal/output"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the recorded install, PATH entry and editor detection",
	Long: `Show what is installed: the recorded install location and versions,
whether its bin directory is on PATH, the desktop artifacts and the editors
found on this machine. Nothing is changed.`,
	RunE: runStatus,
}

func init() {
	RootCmd.AddCommand(statusCmd)
}

// readOnlyVerbosity keeps probe chatter off the console unless --verbose.
func readOnlyVerbosity() logging.Verbosity {
	if verbose {
		return logging.Verbose
	}
	return logging.Silent
}

func runStatus(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	rs, err := newSession(cmd.Context(), cfg, sessionOptions{verbosity: readOnlyVerbosity()})
	if err != nil {
		return err
	}
	defer rs.Close()

	v := installer.Status(cmd.Context(), rs.Session, pathStoreDescription())
	out := cmd.OutOrStdout()
	fmt.Fprint(out, output.RenderStatus(v, output.Style{Color: output.ColorEnabled(out)}))
	return nil
}
