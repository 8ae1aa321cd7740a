package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/kilianp07/ehsim/app"
	"github.com/kilianp07/ehsim/pkg/export"
)

var decodeOpts struct {
	evaluate bool
	out      string
}

var decodeCmd = &cobra.Command{
	Use:   "decode <vector>",
	Short: "Decode a candidate vector into a device schedule",
	Long: "Decode a candidate vector into a device schedule. Binary vectors are " +
		"strings of 0 and 1, real vectors comma separated genes in [0,1].",
	Args: cobra.ExactArgs(1),
	RunE: decodeVector,
}

func init() {
	decodeCmd.Flags().BoolVar(&decodeOpts.evaluate, "evaluate", false, "also simulate the candidate")
	decodeCmd.Flags().StringVarP(&decodeOpts.out, "out", "o", "", "write the schedule to a file (.csv or .json)")
	rootCmd.AddCommand(decodeCmd)
}

func decodeVector(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	hh, err := app.LoadHousehold(cfg)
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	res, err := hh.Decode(ctx, args[0], decodeOpts.evaluate)
	if err != nil {
		return err
	}
	if decodeOpts.out != "" {
		if err := export.WriteScheduleFile(decodeOpts.out, res.Schedule); err != nil {
			return err
		}
	}
	return printJSON(cmd.OutOrStdout(), res)
}
