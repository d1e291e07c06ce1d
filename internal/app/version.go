package app

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/nebula-lang/nebula-setup/internal/buildinfo"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the bundled Nebula and extension versions",
	Run: func(cmd *cobra.Command, args []string) {
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "nebula-setup %s (commit %s, %s/%s, %s)\n",
			buildinfo.ProductVersion, buildinfo.Commit, runtime.GOOS, runtime.GOARCH, runtime.Version())
		fmt.Fprintf(out, "  runtime    %s\n", buildinfo.ProductVersion)
		fmt.Fprintf(out, "  extensions %s\n", buildinfo.ExtensionVersion)
	},
}

func init() {
	RootCmd.AddCommand(versionCmd)
}
