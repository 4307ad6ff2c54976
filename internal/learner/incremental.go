package learner

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ledgervoice/ledgervoice/internal/index"
	"github.com/ledgervoice/ledgervoice/internal/model"
)

// IncrementalUpdate folds a single confirmed expense into the live model
// without a full retrain: re-embed the corrected text and upsert it into the
// main partition under the confirmed category. When no model exists yet the
// confirmation instead triggers a full training pass, which already includes
// the newly confirmed row.
func (t *Trainer) IncrementalUpdate(ctx context.Context, expenseID, category string) error {
	expense, err := t.storage.GetExpense(ctx, expenseID)
	if err != nil {
		return fmt.Errorf("loading expense %s: %w", expenseID, err)
	}

	expense.Vendor = t.corrector.CorrectVendor(expense.Vendor)
	category = t.corrector.ApplyCategory(expense.Description, category)

	if err := t.storage.UpdateExpenseCategory(ctx, expenseID, category, 1.0); err != nil {
		return fmt.Errorf("confirming expense %s: %w", expenseID, err)
	}

	count, err := t.index.Count(ctx, index.MainPartition)
	if err != nil {
		return fmt.Errorf("checking main partition: %w", err)
	}
	if count == 0 {
		slog.Info("no model yet, running full training", "expense_id", expenseID)
		_, err := t.Train(ctx)
		return err
	}

	vector, err := t.embedder.Embed(ctx, expense.TrainingText())
	if err != nil {
		return fmt.Errorf("embedding expense %s: %w", expenseID, err)
	}

	point := model.Point{
		ID:     expense.ID,
		Vector: vector,
		Payload: model.Payload{
			Category: category,
			Amount:   expense.Amount,
			Date:     expense.Date,
		},
	}
	if err := t.index.Upsert(ctx, index.MainPartition, point); err != nil {
		return fmt.Errorf("upserting point %s: %w", expenseID, err)
	}

	slog.Info("incremental update applied",
		"expense_id", expenseID, "category", category)
	return nil
}
