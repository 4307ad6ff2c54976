package main

import (
	"fmt"
	"log/slog"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/ledgervoice/ledgervoice/internal/model"
)

func metricsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "metrics",
		Short: "Show model evaluation metrics",
	}

	cmd.AddCommand(metricsLatestCmd())
	cmd.AddCommand(metricsHistoryCmd())

	return cmd
}

func metricsLatestCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "latest",
		Short: "Show the most recent evaluation snapshot",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			eng, store, err := initEngine(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			snapshot, err := eng.LatestMetrics(ctx)
			if err != nil {
				return fmt.Errorf("loading latest snapshot: %w", err)
			}
			if snapshot == nil {
				slog.Info("No training snapshots yet; run 'ledgervoice train' first")
				return nil
			}

			printSnapshot(snapshot)
			return nil
		},
	}
}

func metricsHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recent evaluation snapshots",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			eng, store, err := initEngine(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			limit, _ := cmd.Flags().GetInt("limit")
			snapshots, err := eng.RecentMetrics(ctx, limit)
			if err != nil {
				return fmt.Errorf("loading snapshots: %w", err)
			}
			if len(snapshots) == 0 {
				slog.Info("No training snapshots yet; run 'ledgervoice train' first")
				return nil
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "CREATED\tTYPE\tACCURACY\tSAMPLES\tCATEGORIES\tNOTES")
			for _, s := range snapshots {
				fmt.Fprintf(w, "%s\t%s\t%.4f\t%d\t%d\t%s\n",
					s.CreatedAt.Format("2006-01-02 15:04"),
					s.TrainingType, s.Accuracy, s.SampleCount, s.CategoryCount, s.Notes)
			}
			return w.Flush()
		},
	}

	cmd.Flags().Int("limit", 10, "number of snapshots to show")
	return cmd
}

func printSnapshot(s *model.Snapshot) {
	fmt.Printf("Snapshot from %s (%s)\n", s.CreatedAt.Format("2006-01-02 15:04"), s.TrainingType)
	fmt.Printf("Accuracy: %.4f over %d samples, %d categories\n",
		s.Accuracy, s.SampleCount, s.CategoryCount)
	if len(s.FoldAccuracies) > 0 {
		fmt.Printf("Fold accuracies:")
		for _, a := range s.FoldAccuracies {
			fmt.Printf(" %.4f", a)
		}
		fmt.Println()
	}
	if s.BestCategory != "" {
		fmt.Printf("Best category: %s, worst: %s\n", s.BestCategory, s.WorstCategory)
	}
	if s.Notes != "" {
		fmt.Printf("Notes: %s\n", s.Notes)
	}

	if len(s.PerCategory) > 0 {
		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "CATEGORY\tPRECISION\tRECALL\tF1\tCONFIDENCE\tSUPPORT")
		for _, r := range s.PerCategory {
			fmt.Fprintf(w, "%s\t%.4f\t%.4f\t%.4f\t%.4f\t%d\n",
				r.Category, r.Precision, r.Recall, r.F1, r.MeanConfidence, r.Support)
		}
		_ = w.Flush()
	}

	if len(s.ConfusedPairs) > 0 {
		fmt.Println("Most confused:")
		for _, p := range s.ConfusedPairs {
			fmt.Printf("  %s -> %s (%d)\n", p.True, p.Predicted, p.Count)
		}
	}
}
