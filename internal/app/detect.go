package app

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nebula-lang/nebula-setup/internal/editors"
	"github.com/nebula-lang/nebula-setup/internal/output"
)

var detectCmd = &cobra.Command{
	Use:   "detect",
	Short: "Run the environment checks without installing",
	Long: `Run the same checks install runs first: OS version, free disk space at
the install directory and editor detection. Nothing is changed.`,
	RunE: runDetect,
}

func init() {
	RootCmd.AddCommand(detectCmd)
}

func runDetect(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	rs, err := newSession(cmd.Context(), cfg, sessionOptions{verbosity: readOnlyVerbosity()})
	if err != nil {
		return err
	}
	defer rs.Close()

	out := cmd.OutOrStdout()
	st := output.Style{Color: output.ColorEnabled(out)}

	fmt.Fprintf(out, "%-14s %s\n", "Platform", checkResult(rs.Probe.CheckPlatformSupported()))
	fmt.Fprintf(out, "%-14s %s\n", "Disk space", checkResult(rs.Probe.CheckDiskSpace(cfg.InstallDir, cfg.MinFreeBytes)))
	if rec, found, err := rs.Probe.DetectExistingInstall(cmd.Context()); err != nil {
		fmt.Fprintf(out, "%-14s unreadable: %v\n", "Install", err)
	} else if found {
		fmt.Fprintf(out, "%-14s %s at %s\n", "Install", rec.ProductVersion, rec.InstallPath)
	} else {
		fmt.Fprintf(out, "%-14s none\n", "Install")
	}
	fmt.Fprintln(out)

	targets := rs.Probe.DetectEditors()
	fmt.Fprint(out, output.RenderTargets(targets, st))
	for _, t := range targets {
		if t.Kind == editors.Other {
			fmt.Fprintf(out, "\n%s\n", editors.ManualSetupMessage)
		}
	}
	return nil
}

func checkResult(err error) string {
	if err != nil {
		return "fail: " + err.Error()
	}
	return "ok"
}
