package cmd

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/kilianp07/ehsim/core/problem/logging"
)

var historyOpts struct {
	instance string
	limit    int
	best     bool
}

var historyCmd = &cobra.Command{
	Use:   "history [run-id]",
	Short: "List the improving candidates recorded in the evaluation log",
	Args:  cobra.MaximumNArgs(1),
	RunE:  showHistory,
}

func init() {
	historyCmd.Flags().StringVar(&historyOpts.instance, "instance", "", "only records of this optimiser instance")
	historyCmd.Flags().IntVar(&historyOpts.limit, "limit", 0, "return at most this many records")
	historyCmd.Flags().BoolVar(&historyOpts.best, "best", false, "print only the cheapest record of the run")
	rootCmd.AddCommand(historyCmd)
}

func showHistory(cmd *cobra.Command, args []string) (err error) {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cfg.Logging.Backend == "none" {
		return errors.New("logging.backend is none, nothing was recorded")
	}
	store, err := logging.Open(cfg.Logging.Store())
	if err != nil {
		return err
	}
	defer func() { err = errors.Join(err, store.Close()) }()

	var runID string
	if len(args) == 1 {
		runID = args[0]
	}
	if historyOpts.best {
		if runID == "" {
			return errors.New("--best needs a run id")
		}
		rec, err := logging.Best(cmd.Context(), store, runID)
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), rec)
	}
	recs, err := store.Query(cmd.Context(), logging.Query{
		RunID:    runID,
		Instance: historyOpts.instance,
		Limit:    historyOpts.limit,
	})
	if err != nil {
		return err
	}
	return printJSON(cmd.OutOrStdout(), recs)
}
