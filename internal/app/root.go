package app

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var (
	configPath string
	verbose    bool

	// RootCmd is the root command for nebula-setup
	RootCmd = &cobra.Command{
		Use:   "nebula-setup",
		Short: "Install, upgrade and remove the Nebula toolchain",
		Long: `nebula-setup installs the Nebula runtime and standard library for the
current user, adds it to PATH and wires up detected editors.

Running install over an existing install upgrades it in place. The user
config under <root>/config is kept, and editor integrations only run again
when the bundled extension version changed.

Examples:
  # Install with defaults
  nebula-setup install

  # Unattended install without editor integrations
  nebula-setup install --very-silent --no-extensions

  # Turn a single editor off
  nebula-setup install --editor neovim=off

  # Show what is installed
  nebula-setup status

  # Remove everything the installer placed
  nebula-setup uninstall`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintln(cmd.OutOrStdout(), "nebula-setup: Nebula toolchain installer")
			fmt.Fprintln(cmd.OutOrStdout())
			fmt.Fprintln(cmd.OutOrStdout(), "Run 'nebula-setup install' to install or upgrade.")
			fmt.Fprintln(cmd.OutOrStdout(), "Run 'nebula-setup --help' for the full reference.")
			return nil
		},
	}
)

func init() {
	// Global flags
	RootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default: <user config dir>/nebula-setup/config.toml)")
	RootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "show debug output")

	RootCmd.SuggestionsMinimumDistance = 2
}

// Execute runs the root command. ctx is cancelled on SIGINT/SIGTERM.
func Execute(ctx context.Context) error {
	return RootCmd.ExecuteContext(ctx)
}
