// Package storage provides the data persistence layer for ledgervoice.
package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ledgervoice/ledgervoice/internal/model"
)

// Validation errors.
var (
	ErrNilContext   = errors.New("context cannot be nil")
	ErrEmptyString  = errors.New("string parameter cannot be empty")
	ErrNilParameter = errors.New("parameter cannot be nil")
)

// validateContext ensures the context is not nil.
func validateContext(ctx context.Context) error {
	if ctx == nil {
		return ErrNilContext
	}
	return nil
}

// validateString ensures a string parameter is not empty.
func validateString(s string, paramName string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("%w: %s", ErrEmptyString, paramName)
	}
	return nil
}

// validateExpense validates a single expense before writing it.
func validateExpense(e *model.Expense) error {
	if e == nil {
		return fmt.Errorf("%w: expense", ErrNilParameter)
	}
	if err := validateString(e.ID, "expense.ID"); err != nil {
		return err
	}
	if e.Date.IsZero() {
		return fmt.Errorf("expense %s: date is required", e.ID)
	}
	if e.Confidence < 0 || e.Confidence > 1 {
		return fmt.Errorf("expense %s: confidence %.4f outside [0,1]", e.ID, e.Confidence)
	}
	return nil
}
