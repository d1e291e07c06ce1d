package app

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nebula-lang/nebula-setup/internal/config"
)

var configFlagForce bool

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or create the nebula-setup configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration as TOML",
	Long: `Print the configuration after defaults, the config file and
NEBULA_SETUP_* environment variables have been applied.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		data, err := config.Encode(cfg)
		if err != nil {
			return err
		}
		if cfg.File != "" {
			fmt.Fprintf(cmd.OutOrStdout(), "# loaded from %s\n", cfg.File)
		}
		_, err = cmd.OutOrStdout().Write(data)
		return err
	},
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the config file location",
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := configFilePath()
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), path)
		return nil
	},
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a config file with the default settings",
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := configFilePath()
		if err != nil {
			return err
		}
		if err := config.WriteDefault(path, configFlagForce); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", path)
		return nil
	},
}

func init() {
	configInitCmd.Flags().BoolVar(&configFlagForce, "force", false, "overwrite an existing config file")

	configCmd.AddCommand(configShowCmd, configPathCmd, configInitCmd)
	RootCmd.AddCommand(configCmd)
}

// configFilePath is --config when given, otherwise the default location.
func configFilePath() (string, error) {
	if configPath != "" {
		return configPath, nil
	}
	return config.DefaultPath()
}
