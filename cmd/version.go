package cmd

import (
	"github.com/spf13/cobra"

	"github.com/CrazyNoDota/nomadway-sub000/internal/output"
)

var versionCmd = &cobra.Command{
	Use:     "version",
	Short:   "Show the client version",
	GroupID: "system",
	RunE: func(cmd *cobra.Command, args []string) error {
		if flagJSON {
			return output.JSON(map[string]string{"version": version})
		}
		output.Info("nomadway %s", version)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
