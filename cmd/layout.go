package cmd

import (
	"github.com/spf13/cobra"

	"github.com/kilianp07/ehsim/app"
)

var layoutCmd = &cobra.Command{
	Use:   "layout",
	Short: "Inspect the grid layout",
}

var layoutCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Classify the configured devices against the grid layout",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		hh, err := app.LoadHousehold(cfg)
		if err != nil {
			return err
		}
		res, err := hh.Check()
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), res)
	},
}

func init() {
	layoutCmd.AddCommand(layoutCheckCmd)
	rootCmd.AddCommand(layoutCmd)
}
