package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/ledgervoice/ledgervoice/internal/common"
	"github.com/ledgervoice/ledgervoice/internal/model"
	"github.com/ledgervoice/ledgervoice/internal/service"
)

const expenseColumns = `id, date, amount, vendor, category, description,
	transcription, confidence, ml_prediction, llm_category, needs_confirmation`

// SaveExpense inserts or replaces an expense record.
func (s *SQLiteStorage) SaveExpense(ctx context.Context, expense *model.Expense) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateExpense(expense); err != nil {
		return err
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO expenses
		(id, date, amount, vendor, category, description, transcription,
		 confidence, ml_prediction, llm_category, needs_confirmation)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		expense.ID, expense.Date, expense.Amount, expense.Vendor,
		expense.Category, expense.Description, expense.Transcription,
		expense.Confidence, expense.MLPrediction, expense.LLMCategory,
		expense.NeedsConfirmation,
	)
	if err != nil {
		return fmt.Errorf("failed to save expense: %w", err)
	}
	return nil
}

// GetExpense retrieves an expense by ID.
func (s *SQLiteStorage) GetExpense(ctx context.Context, id string) (*model.Expense, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(id, "id"); err != nil {
		return nil, err
	}

	row := s.db.QueryRowContext(ctx,
		`SELECT `+expenseColumns+` FROM expenses WHERE id = ?`, id)

	expense, err := scanExpense(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("expense %s: %w", id, common.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get expense: %w", err)
	}
	return expense, nil
}

// GetExpenses returns expenses matching the filter, newest first.
func (s *SQLiteStorage) GetExpenses(ctx context.Context, filter service.ExpenseFilter) ([]model.Expense, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	var conds []string
	var args []any
	if filter.StartDate != nil {
		conds = append(conds, "date >= ?")
		args = append(args, *filter.StartDate)
	}
	if filter.EndDate != nil {
		conds = append(conds, "date <= ?")
		args = append(args, *filter.EndDate)
	}
	if filter.Category != "" {
		conds = append(conds, "category = ?")
		args = append(args, filter.Category)
	}

	query := `SELECT ` + expenseColumns + ` FROM expenses`
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY date DESC"
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
		if filter.Offset > 0 {
			query += " OFFSET ?"
			args = append(args, filter.Offset)
		}
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query expenses: %w", err)
	}
	defer rows.Close()

	return collectExpenses(rows)
}

// GetExpensesForTraining returns all categorized expenses with usable text.
// Malformed rows (missing category or text) are skipped with a warning
// rather than failing the batch.
func (s *SQLiteStorage) GetExpensesForTraining(ctx context.Context) ([]model.Expense, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+expenseColumns+` FROM expenses ORDER BY date`)
	if err != nil {
		return nil, fmt.Errorf("failed to query training expenses: %w", err)
	}
	defer rows.Close()

	all, err := collectExpenses(rows)
	if err != nil {
		return nil, err
	}

	usable := make([]model.Expense, 0, len(all))
	for _, e := range all {
		if strings.TrimSpace(e.Category) == "" || e.TrainingText() == "" {
			slog.Warn("skipping malformed expense record",
				"expense_id", e.ID,
				"has_category", e.Category != "")
			continue
		}
		usable = append(usable, e)
	}
	return usable, nil
}

// UpdateExpenseCategory sets the confirmed category and confidence for one
// expense and clears its confirmation flag.
func (s *SQLiteStorage) UpdateExpenseCategory(ctx context.Context, id, category string, confidence float64) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(id, "id"); err != nil {
		return err
	}
	if err := validateString(category, "category"); err != nil {
		return err
	}
	if confidence < 0 || confidence > 1 {
		return fmt.Errorf("confidence %.4f outside [0,1]", confidence)
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE expenses
		SET category = ?, confidence = ?, needs_confirmation = 0
		WHERE id = ?`,
		category, confidence, id)
	if err != nil {
		return fmt.Errorf("failed to update expense category: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update result: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("expense %s: %w", id, common.ErrNotFound)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanExpense(row rowScanner) (*model.Expense, error) {
	var e model.Expense
	var vendor, category, description, transcription, mlPrediction, llmCategory sql.NullString
	if err := row.Scan(
		&e.ID, &e.Date, &e.Amount, &vendor, &category, &description,
		&transcription, &e.Confidence, &mlPrediction, &llmCategory,
		&e.NeedsConfirmation,
	); err != nil {
		return nil, err
	}
	e.Vendor = vendor.String
	e.Category = category.String
	e.Description = description.String
	e.Transcription = transcription.String
	e.MLPrediction = mlPrediction.String
	e.LLMCategory = llmCategory.String
	return &e, nil
}

func collectExpenses(rows *sql.Rows) ([]model.Expense, error) {
	var expenses []model.Expense
	for rows.Next() {
		e, err := scanExpense(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan expense: %w", err)
		}
		expenses = append(expenses, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating expenses: %w", err)
	}
	return expenses, nil
}
