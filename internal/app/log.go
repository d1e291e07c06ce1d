package app

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/nebula-lang/nebula-setup/internal/config"
	"github.com/nebula-lang/nebula-setup/internal/logwatch"
	"github.com/nebula-lang/nebula-setup/internal/payload"
)

var (
	logFlagFollow bool
	logFlagLines  int
	logFlagPath   string
)

var logCmd = &cobra.Command{
	Use:   "log",
	Short: "Print the install log",
	Long: `Print the end of the install log of the recorded install (or of the
configured install directory when nothing is recorded).

With --follow the command keeps printing lines as they are appended,
which is useful while another terminal runs an unattended install.
Press Ctrl-C to stop.`,
	RunE: runLog,
}

func init() {
	logCmd.Flags().BoolVarP(&logFlagFollow, "follow", "f", false, "keep printing appended lines")
	logCmd.Flags().IntVarP(&logFlagLines, "lines", "n", 40, "number of trailing lines to print (0 for all)")
	logCmd.Flags().StringVar(&logFlagPath, "log", "", "log file to read (default: the install log)")

	RootCmd.AddCommand(logCmd)
}

// installLogPath finds the install log: log_file, else install.log under
// the recorded root, else under install_dir.
func installLogPath(ctx context.Context, cfg *config.Config) string {
	if cfg.LogFile != "" {
		return cfg.LogFile
	}
	if led, err := openLedger(cfg); err == nil {
		defer led.Close()
		if rec, err := led.Read(ctx); err == nil {
			return filepath.Join(rec.InstallPath, payload.LogName)
		}
	}
	return cfg.LogPath()
}

func runLog(cmd *cobra.Command, args []string) error {
	path := logFlagPath
	if path == "" {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		path = installLogPath(cmd.Context(), cfg)
	}

	out := cmd.OutOrStdout()
	if logFlagFollow {
		err := logwatch.Follow(cmd.Context(), path, out)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	}

	lines, err := logwatch.Tail(path, logFlagLines)
	if err != nil {
		return fmt.Errorf("failed to read log: %w", err)
	}
	for _, l := range lines {
		fmt.Fprintln(out, l)
	}
	return nil
}
