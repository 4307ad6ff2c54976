package main

import (
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"
)

func trainCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "train",
		Short: "Train the similarity model from confirmed expenses",
		Long: `Rebuild the similarity model from all confirmed expenses, evaluate it
with cross-validation, and record a metrics snapshot.

With --schedule the command stays in the foreground and retrains on a
cron schedule until interrupted. Overlapping runs are skipped.`,
		RunE: runTrain,
	}

	cmd.Flags().String("schedule", "", `cron schedule for periodic retraining (e.g. "0 3 * * *")`)

	return cmd
}

func runTrain(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	eng, store, err := initEngine(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	trainOnce := func() error {
		snapshot, trainErr := eng.Train(ctx)
		if trainErr != nil {
			return trainErr
		}
		slog.Info("Training snapshot recorded",
			"accuracy", fmt.Sprintf("%.4f", snapshot.Accuracy),
			"samples", snapshot.SampleCount,
			"categories", snapshot.CategoryCount,
			"best", snapshot.BestCategory,
			"worst", snapshot.WorstCategory,
			"notes", snapshot.Notes)
		return nil
	}

	schedule, _ := cmd.Flags().GetString("schedule")
	if schedule == "" {
		return trainOnce()
	}

	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	scheduler := cron.New(cron.WithParser(parser))

	var running atomic.Bool
	_, err = scheduler.AddFunc(schedule, func() {
		if !running.CompareAndSwap(false, true) {
			slog.Info("Training skipped: previous run still in progress")
			return
		}
		defer running.Store(false)

		start := time.Now()
		if trainErr := trainOnce(); trainErr != nil {
			slog.Error("Scheduled training failed", "error", trainErr, "duration", time.Since(start))
			return
		}
		slog.Info("Scheduled training finished", "duration", time.Since(start))
	})
	if err != nil {
		return fmt.Errorf("invalid schedule %q: %w", schedule, err)
	}

	slog.Info("Training scheduler started", "schedule", schedule)
	scheduler.Start()
	<-ctx.Done()

	stopCtx := scheduler.Stop()
	<-stopCtx.Done()
	slog.Info("Training scheduler stopped")
	return nil
}
