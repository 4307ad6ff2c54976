package main

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/ledgervoice/ledgervoice/internal/model"
)

func recordCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "record",
		Short: "Record a new expense",
		Long: `Record an expense line and categorize it immediately.

The transcription is the raw speech-to-text output; the suggested
category comes from the extraction service and is used as a fallback
when the similarity model is unsure or unavailable.`,
		RunE: runRecord,
	}

	cmd.Flags().String("transcription", "", "raw transcription the expense was extracted from")
	cmd.Flags().String("vendor", "", "vendor name")
	cmd.Flags().String("description", "", "short item description")
	cmd.Flags().String("suggested-category", "", "category suggested by the extraction service")
	cmd.Flags().Float64("amount", 0, "expense amount")
	cmd.Flags().String("date", "", "expense date (YYYY-MM-DD, default today)")
	_ = cmd.MarkFlagRequired("transcription")
	_ = cmd.MarkFlagRequired("amount")

	return cmd
}

func runRecord(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	eng, store, err := initEngine(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	transcription, _ := cmd.Flags().GetString("transcription")
	vendor, _ := cmd.Flags().GetString("vendor")
	description, _ := cmd.Flags().GetString("description")
	suggested, _ := cmd.Flags().GetString("suggested-category")
	amount, _ := cmd.Flags().GetFloat64("amount")
	dateStr, _ := cmd.Flags().GetString("date")

	date := time.Now().UTC()
	if dateStr != "" {
		date, err = time.Parse("2006-01-02", dateStr)
		if err != nil {
			return fmt.Errorf("invalid date %q: %w", dateStr, err)
		}
	}

	expense := &model.Expense{
		Date:          date,
		Vendor:        vendor,
		Description:   description,
		Transcription: transcription,
		LLMCategory:   suggested,
		Amount:        amount,
	}

	decision, err := eng.RecordExpense(ctx, expense)
	if err != nil {
		return fmt.Errorf("recording expense: %w", err)
	}

	slog.Info("Expense recorded",
		"id", expense.ID,
		"vendor", expense.Vendor,
		"amount", expense.Amount,
		"category", decision.Category,
		"confidence", decision.Confidence,
		"needs_confirmation", expense.NeedsConfirmation)
	if decision.Degraded {
		slog.Warn("Categorization ran in degraded mode; confirm this expense to train the model")
	}
	return nil
}
