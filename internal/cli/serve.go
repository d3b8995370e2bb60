package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"ticksched/internal/driver"
	"ticksched/internal/history"
	"ticksched/internal/sched"
)

func newServeCmd() *cobra.Command {
	var (
		csvPath   string
		historyDB string
		speedup   float64
		tickMS    int
		quantumMS int
		levels    int
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the scheduler daemon",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("csv") {
				cfg.CSVPath = csvPath
			}
			if cmd.Flags().Changed("history") {
				cfg.HistoryDB = historyDB
			}
			if cmd.Flags().Changed("speedup") {
				cfg.Speedup = speedup
			}
			if cmd.Flags().Changed("tick") {
				cfg.TickMS = tickMS
			}
			if cmd.Flags().Changed("quantum") {
				cfg.QuantumMS = quantumMS
			}
			if cmd.Flags().Changed("levels") {
				cfg.Levels = levels
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(ctx, cfg)
		},
	}

	cmd.Flags().StringVar(&csvPath, "csv", "", "Write scheduler events to this CSV file")
	cmd.Flags().StringVar(&historyDB, "history", "", "Record retirements in this SQLite database")
	cmd.Flags().Float64Var(&speedup, "speedup", 1, "Simulated milliseconds per real millisecond")
	cmd.Flags().IntVar(&tickMS, "tick", 100, "Tick length in simulated ms")
	cmd.Flags().IntVar(&quantumMS, "quantum", sched.DefaultQuantumMS, "Time slice in simulated ms (rr, mlfq)")
	cmd.Flags().IntVar(&levels, "levels", sched.DefaultLevels, "Number of feedback levels (mlfq)")

	return cmd
}

// serve wires the scheduler, its sinks and the socket driver, and blocks
// until ctx is cancelled.
func serve(ctx context.Context, cfg sched.Config) error {
	s, err := sched.New(cfg, logger)
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	if cfg.CSVPath != "" {
		if err := s.EnableCSVLogging(cfg.CSVPath); err != nil {
			return err
		}
	}

	if cfg.HistoryDB != "" {
		store, err := history.Open(cfg.HistoryDB, logger)
		if err != nil {
			return err
		}
		if err := store.Migrate(ctx); err != nil {
			store.Close()
			return err
		}
		runID := history.NewRunID()
		s.AddSink(driver.NewHistorySink(store, runID, s.Policy().Name(), logger))
		logger.Info("recording history", "db", cfg.HistoryDB, "run_id", runID)
	}

	logger.Info("scheduler starting",
		"policy", s.Policy().Name(),
		"tick_ms", cfg.TickMS,
		"quantum_ms", cfg.QuantumMS,
		"levels", s.Policy().Levels(),
		"speedup", cfg.Speedup,
	)
	return driver.New(cfg, s, logger).Run(ctx)
}
