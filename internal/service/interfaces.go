// Package service defines the interfaces for all application services.
package service

import (
	"context"
	"time"

	"github.com/ledgervoice/ledgervoice/internal/model"
)

// ExpenseFilter defines filtering options for expense queries.
type ExpenseFilter struct {
	StartDate *time.Time
	EndDate   *time.Time
	Category  string
	Limit     int
	Offset    int
}

// Storage defines the contract for our persistence layer.
type Storage interface {
	// Expense operations
	SaveExpense(ctx context.Context, expense *model.Expense) error
	GetExpense(ctx context.Context, id string) (*model.Expense, error)
	GetExpenses(ctx context.Context, filter ExpenseFilter) ([]model.Expense, error)
	GetExpensesForTraining(ctx context.Context) ([]model.Expense, error)
	UpdateExpenseCategory(ctx context.Context, id, category string, confidence float64) error

	// Vendor operations
	GetVendor(ctx context.Context, name string) (*model.Vendor, error)
	SaveVendor(ctx context.Context, vendor *model.Vendor) error
	GetVendorNames(ctx context.Context) ([]string, error)

	// Category operations
	GetCategories(ctx context.Context) ([]model.Category, error)
	GetCategoryByName(ctx context.Context, name string) (*model.Category, error)
	CreateCategory(ctx context.Context, name string) (*model.Category, error)

	// Metrics snapshot operations. Snapshots are append-only.
	SaveSnapshot(ctx context.Context, snapshot *model.Snapshot) error
	LatestSnapshot(ctx context.Context) (*model.Snapshot, error)
	RecentSnapshots(ctx context.Context, n int) ([]model.Snapshot, error)

	// Database management
	Migrate(ctx context.Context) error
	Close() error
}

// Embedder converts text into a fixed-dimension vector. Implementations must
// be deterministic for a given model version and free of observable side
// effects.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	Dimension() int
	ModelName() string
}

// Index is the similarity-search contract. Partitions created for
// cross-validation must be released on every exit path; use WithEphemeral.
type Index interface {
	Upsert(ctx context.Context, partition string, point model.Point) error
	Query(ctx context.Context, partition string, vector []float32, k int) ([]model.Neighbor, error)
	CreatePartition(ctx context.Context, name string) error
	DeletePartition(ctx context.Context, name string) error
	Count(ctx context.Context, partition string) (int, error)
	WithEphemeral(ctx context.Context, fn func(partition string) error) error
}

// RetryOptions configures retry behavior for operations.
type RetryOptions struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
}
