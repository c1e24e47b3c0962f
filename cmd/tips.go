package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/CrazyNoDota/nomadway-sub000/internal/advisor"
	"github.com/CrazyNoDota/nomadway-sub000/internal/output"
)

var tipsCmd = &cobra.Command{
	Use:     "tips",
	Short:   "Planning suggestions for your current cart",
	GroupID: "planning",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd.Context())
		if err != nil {
			return fail(output.ErrCodeStorage, err)
		}
		defer a.Close()

		tips := advisor.Analyze(a.cart.Items(), time.Now())
		if flagJSON {
			return output.JSON(map[string]any{"suggestions": tips})
		}
		fmt.Print(output.SectionHeader("trip tips"))
		for _, tip := range tips {
			output.Info("%s", output.FormatSuggestion(tip))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(tipsCmd)
}
