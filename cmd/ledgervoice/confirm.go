package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
)

func confirmCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "confirm <expense-id> <category>",
		Short: "Confirm an expense's category",
		Long: `Confirm the category of a recorded expense. The confirmed sample is
folded into the live model immediately; when no model exists yet the
confirmation triggers a full training run instead.`,
		Args: cobra.ExactArgs(2),
		RunE: runConfirm,
	}
}

func runConfirm(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	eng, store, err := initEngine(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	expenseID, category := args[0], args[1]
	if err := eng.ConfirmExpense(ctx, expenseID, category); err != nil {
		return fmt.Errorf("confirming expense %s: %w", expenseID, err)
	}

	slog.Info("Expense confirmed", "id", expenseID, "category", category)
	return nil
}
