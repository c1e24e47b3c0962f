package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/CrazyNoDota/nomadway-sub000/internal/config"
	"github.com/CrazyNoDota/nomadway-sub000/internal/output"
)

var configCmd = &cobra.Command{
	Use:     "config",
	Short:   "Show or change client configuration",
	GroupID: "system",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the resolved configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		dir, err := config.DefaultDir()
		if err != nil {
			return fail(output.ErrCodeStorage, err)
		}
		cfg, err := config.Load(dir)
		if err != nil {
			return fail(output.ErrCodeStorage, err)
		}
		if flagJSON {
			return output.JSON(cfg)
		}
		output.Info("server:   %s", cfg.ServerURL)
		output.Info("data dir: %s", cfg.DataDir)
		return nil
	},
}

var configSetServerCmd = &cobra.Command{
	Use:   "set-server [url]",
	Short: "Persist the API server URL",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dir, err := config.DefaultDir()
		if err != nil {
			return fail(output.ErrCodeStorage, err)
		}
		cfg, err := config.Load(dir)
		if err != nil {
			return fail(output.ErrCodeStorage, err)
		}
		cfg.ServerURL = args[0]
		if err := config.Save(dir, cfg); err != nil {
			return fail(output.ErrCodeStorage, fmt.Errorf("save config: %w", err))
		}
		output.Success("Server set to %s", args[0])
		return nil
	},
}

func init() {
	configCmd.AddCommand(configShowCmd, configSetServerCmd)
	rootCmd.AddCommand(configCmd)
}
