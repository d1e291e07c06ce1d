package app

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/nebula-lang/nebula-setup/internal/editors"
	"github.com/nebula-lang/nebula-setup/internal/installer"
	"github.com/nebula-lang/nebula-setup/internal/logging"
	"github.com/nebula-lang/nebula-setup/internal/output"
)

var (
	installFlagSilent       bool
	installFlagVerySilent   bool
	installFlagNoExtensions bool
	installFlagNoPath       bool
	installFlagDir          string
	installFlagLog          string
	installFlagShortcut     bool
	installFlagAssociate    bool
	installFlagEditors      []string
	installFlagDryRun       bool
	installFlagPayload      string
)

var installCmd = &cobra.Command{
	Use:   "install",
	Short: "Install or upgrade Nebula for the current user",
	Long: `Install Nebula, or upgrade the existing install in place.

The installer checks the OS version and free disk space, compares the
recorded install with this build and then:

  fresh install        copies files, adds bin/ to PATH, runs desktop tasks
                       and editor integrations
  same version         recopies files only; PATH and editors are untouched
  new version          recopies files and runs editor integrations again
                       when the extension version changed

The user config under <root>/config is preserved across upgrades.

Editor kinds for --editor: vscode, vscode-portable, neovim, jetbrains, other.

Examples:
  # Show the plan without changing anything
  nebula-setup install --dry-run

  # Unattended install into a custom directory
  nebula-setup install --very-silent --dir ~/tools/nebula

  # Keep PATH alone and skip VS Code
  nebula-setup install --no-path --editor vscode=off`,
	RunE: runInstall,
}

func init() {
	installCmd.Flags().BoolVar(&installFlagSilent, "silent", false, "show only warnings, errors and progress")
	installCmd.Flags().BoolVar(&installFlagVerySilent, "very-silent", false, "show errors only, no progress")
	installCmd.Flags().BoolVar(&installFlagNoExtensions, "no-extensions", false, "skip every editor integration")
	installCmd.Flags().BoolVar(&installFlagNoPath, "no-path", false, "do not add Nebula to PATH")
	installCmd.Flags().StringVar(&installFlagDir, "dir", "", "install directory (default: install_dir from config)")
	installCmd.Flags().StringVar(&installFlagLog, "log", "", "install log file (default: <root>/install.log)")
	installCmd.Flags().BoolVar(&installFlagShortcut, "shortcut", false, "create a desktop shortcut")
	installCmd.Flags().BoolVar(&installFlagAssociate, "associate", false, "associate .na files with Nebula")
	installCmd.Flags().StringArrayVar(&installFlagEditors, "editor", nil, "turn one editor integration on or off, as kind=on|off (repeatable)")
	installCmd.Flags().BoolVar(&installFlagDryRun, "dry-run", false, "show the install plan without changing anything")
	installCmd.Flags().StringVar(&installFlagPayload, "payload", "", "payload directory (default: payload/ next to the executable)")

	RootCmd.AddCommand(installCmd)
}

// parseEditorChoices turns repeated kind=on|off values into selections.
func parseEditorChoices(values []string) (map[editors.Kind]installer.TriState, error) {
	choices := make(map[editors.Kind]installer.TriState, len(values))
	for _, v := range values {
		name, state, ok := strings.Cut(v, "=")
		if !ok {
			return nil, fmt.Errorf("invalid --editor value %q (want kind=on|off)", v)
		}
		kind, err := editors.ParseKind(strings.TrimSpace(name))
		if err != nil {
			return nil, err
		}
		choice, err := installer.ParseChoice(strings.ToLower(strings.TrimSpace(state)))
		if err != nil {
			return nil, fmt.Errorf("--editor %s: %w", name, err)
		}
		choices[kind] = choice
	}
	return choices, nil
}

// boolChoice maps an optional task flag onto a selection. An unset flag
// keeps the task default.
func boolChoice(cmd *cobra.Command, name string, value bool) installer.TriState {
	if !cmd.Flags().Changed(name) {
		return installer.Default
	}
	if value {
		return installer.SelectedOn
	}
	return installer.SelectedOff
}

// installSelection builds the task selection from the install flags.
func installSelection(cmd *cobra.Command) (installer.TaskSelection, error) {
	choices, err := parseEditorChoices(installFlagEditors)
	if err != nil {
		return installer.TaskSelection{}, err
	}
	sel := installer.TaskSelection{
		DesktopShortcut: boolChoice(cmd, "shortcut", installFlagShortcut),
		FileAssociation: boolChoice(cmd, "associate", installFlagAssociate),
		Editors:         choices,
	}
	if installFlagNoPath {
		sel.AddToPath = installer.ForcedOff
	}
	if installFlagNoExtensions {
		for _, k := range editors.AllKinds {
			sel.Editors[k] = installer.ForcedOff
		}
	}
	return sel, nil
}

func installVerbosity() logging.Verbosity {
	switch {
	case installFlagVerySilent:
		return logging.VerySilent
	case installFlagSilent:
		return logging.Silent
	default:
		return currentVerbosity()
	}
}

func runInstall(cmd *cobra.Command, args []string) error {
	sel, err := installSelection(cmd)
	if err != nil {
		return err
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if installFlagPayload != "" {
		cfg.PayloadDir = installFlagPayload
	}
	if installFlagLog != "" {
		cfg.LogFile = installFlagLog
	}
	if installFlagDir != "" {
		cfg.InstallDir = installFlagDir
	}

	verbosity := installVerbosity()
	rs, err := newSession(cmd.Context(), cfg, sessionOptions{
		verbosity:    verbosity,
		installLog:   !installFlagDryRun,
		progress:     true,
		noExtensions: installFlagNoExtensions,
	})
	if err != nil {
		return err
	}
	defer rs.Close()

	rep, err := installer.Install(cmd.Context(), rs.Session, installer.InstallOptions{
		Dir:       installFlagDir,
		Selection: sel,
		DryRun:    installFlagDryRun,
	})
	if err != nil {
		rs.logError(err)
		return err
	}

	out := cmd.OutOrStdout()
	st := output.Style{Color: output.ColorEnabled(out)}
	if rep.DryRun {
		fmt.Fprint(out, output.RenderPlan(rep.Plan, rep.Root, rep.Previous, rs.Build))
		fmt.Fprintln(out)
		fmt.Fprint(out, output.RenderTargets(rep.Targets, st))
		return nil
	}

	for _, r := range rep.Results {
		rs.Log.Info("editor integration", "kind", r.Kind, "outcome", r.Outcome,
			"class", installer.OutcomeClass(r.Outcome), "message", r.Message)
	}
	if verbosity == logging.Normal || verbosity == logging.Verbose {
		if rep.Plan.RunExtensions {
			fmt.Fprint(out, output.RenderResults(rep.Results, st))
		}
		if rep.PathChanged {
			fmt.Fprintf(out, "\nAdded %s to PATH. Open a new terminal to use 'nebula'.\n", installer.BinDir(rep.Root))
		}
		if len(rep.Warnings) > 0 {
			fmt.Fprintf(out, "\nFinished with %d warning(s); see %s\n", len(rep.Warnings), cfg.LogPath())
		}
	}
	return nil
}

// spinnerDispatcher shows a spinner on stderr while editor integrations
// run.
type spinnerDispatcher struct {
	inner   installer.Dispatcher
	timeout time.Duration
	quiet   bool
}

func (d *spinnerDispatcher) Dispatch(ctx context.Context, targets []editors.Target, selected map[editors.Kind]bool) []editors.Result {
	if d.quiet {
		return d.inner.Dispatch(ctx, targets, selected)
	}
	sp := output.NewSpinner(os.Stderr, "Configuring editors", d.timeout)
	sp.Start()
	results := d.inner.Dispatch(ctx, targets, selected)
	attempted := 0
	for _, r := range results {
		if r.Attempted() {
			attempted++
		}
	}
	sp.Stop(fmt.Sprintf("Configured %d editor integration(s)", attempted))
	return results
}
