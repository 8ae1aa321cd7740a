package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/kilianp07/ehsim/app"
	coremon "github.com/kilianp07/ehsim/core/monitoring"
	"github.com/kilianp07/ehsim/infra/logger"
	"github.com/kilianp07/ehsim/pkg/export"
)

var runOpts struct {
	meterOut    string
	scheduleOut string
	timeout     time.Duration
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Optimise the household schedule",
	RunE:  runOptimisation,
}

func init() {
	runCmd.Flags().StringVar(&runOpts.meterOut, "meter", "", "write the meter profile of the winner (.csv, .json or .html)")
	runCmd.Flags().StringVar(&runOpts.scheduleOut, "schedule", "", "write the winning schedule (.csv or .json)")
	runCmd.Flags().DurationVar(&runOpts.timeout, "timeout", 0, "stop the optimisation after this duration")
	rootCmd.AddCommand(runCmd)
}

func runOptimisation(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if runOpts.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, runOpts.timeout)
		defer cancel()
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	defer coremon.Flush(2 * time.Second)
	defer coremon.Recover()
	log := logger.New("main")
	svc, err := app.New(cfg, app.WithLogger(log))
	if err != nil {
		return err
	}
	defer func() {
		if err := svc.Close(); err != nil {
			log.Errorf("service close: %v", err)
		}
	}()

	out, err := svc.Run(ctx)
	if err != nil {
		if ctx.Err() == nil {
			coremon.CaptureException(err, map[string]string{"command": "run", "algorithm": cfg.Optimizer.Algorithm})
		}
		return err
	}
	if runOpts.meterOut != "" {
		if err := export.WriteProfileFile(runOpts.meterOut, out.Evaluation.Meter, svc.Horizon()); err != nil {
			return err
		}
	}
	if runOpts.scheduleOut != "" {
		if err := export.WriteScheduleFile(runOpts.scheduleOut, out.Schedule); err != nil {
			return err
		}
	}
	return printJSON(cmd.OutOrStdout(), struct {
		RunID       string  `json:"run_id"`
		Instance    string  `json:"instance"`
		Evaluations int     `json:"evaluations"`
		Cost        float64 `json:"cost"`
		Vector      string  `json:"vector"`
		Stats       any     `json:"stats"`
	}{out.RunID, out.Instance, out.Evaluations, out.Evaluation.Cost, out.Vector, out.Stats})
}
