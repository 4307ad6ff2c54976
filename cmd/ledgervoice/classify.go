package main

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"
)

func classifyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "classify <text>...",
		Short: "Classify expense text without recording it",
		Long: `Run the similarity model against a piece of expense text and show
the vote and the final decision. Useful for inspecting what the model
would do before recording anything.`,
		Args: cobra.MinimumNArgs(1),
		RunE: runClassify,
	}

	cmd.Flags().String("suggested-category", "", "category suggested by the extraction service")

	return cmd
}

func runClassify(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	eng, store, err := initEngine(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	text := strings.Join(args, " ")
	suggested, _ := cmd.Flags().GetString("suggested-category")

	vote, err := eng.Classify(ctx, text)
	if err != nil {
		return fmt.Errorf("classifying text: %w", err)
	}

	if !vote.Found {
		slog.Info("No prediction", "text", text)
	} else {
		slog.Info("Model vote",
			"text", text,
			"category", vote.Category,
			"confidence", fmt.Sprintf("%.4f", vote.Confidence))
	}

	if suggested != "" {
		decision := eng.Decide(vote, suggested)
		slog.Info("Decision",
			"category", decision.Category,
			"confidence", fmt.Sprintf("%.4f", decision.Confidence),
			"model", decision.MLPrediction,
			"suggested", decision.LLMCategory)
	}
	return nil
}
