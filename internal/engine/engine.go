// Package engine orchestrates expense categorization: it owns the wiring
// between storage, the embedding service, the similarity index, and the
// correction rules, and exposes the operations the commands call.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/ledgervoice/ledgervoice/internal/classifier"
	"github.com/ledgervoice/ledgervoice/internal/common"
	"github.com/ledgervoice/ledgervoice/internal/learner"
	"github.com/ledgervoice/ledgervoice/internal/model"
	"github.com/ledgervoice/ledgervoice/internal/rules"
	"github.com/ledgervoice/ledgervoice/internal/service"
)

// Config holds engine tuning knobs surfaced through the CLI flags.
type Config struct {
	NeighborK             int
	MinSamplesPerCategory int
	Folds                 int
	Seed                  int64
	ShowProgress          bool
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		NeighborK:             classifier.DefaultNeighborK,
		MinSamplesPerCategory: learner.DefaultMinSamplesPerCategory,
		Folds:                 learner.DefaultFolds,
	}
}

// Engine is the categorization facade used by the commands.
type Engine struct {
	storage  service.Storage
	embedder service.Embedder
	index    service.Index
	config   Config
}

// New creates an engine with the given dependencies.
func New(storage service.Storage, embedder service.Embedder, idx service.Index, config Config) *Engine {
	if config.NeighborK <= 0 {
		config.NeighborK = classifier.DefaultNeighborK
	}
	if config.MinSamplesPerCategory <= 0 {
		config.MinSamplesPerCategory = learner.DefaultMinSamplesPerCategory
	}
	if config.Folds <= 0 {
		config.Folds = learner.DefaultFolds
	}
	return &Engine{storage: storage, embedder: embedder, index: idx, config: config}
}

// corrector builds a fresh correction pass from the current known-vendor
// list. Rebuilt per operation so confirmations take effect immediately.
func (e *Engine) corrector(ctx context.Context) *rules.Corrector {
	vendors, err := e.storage.GetVendorNames(ctx)
	if err != nil {
		slog.Warn("could not load vendor names, skipping vendor correction", "error", err)
		vendors = nil
	}
	return rules.NewCorrector(vendors)
}

func (e *Engine) categorizer(ctx context.Context) *classifier.Categorizer {
	return classifier.NewCategorizer(e.embedder, e.index, e.corrector(ctx), e.config.NeighborK)
}

func (e *Engine) trainer(ctx context.Context) *learner.Trainer {
	return learner.NewTrainer(e.storage, e.embedder, e.index, e.corrector(ctx), learner.Options{
		MinSamplesPerCategory: e.config.MinSamplesPerCategory,
		Folds:                 e.config.Folds,
		NeighborK:             e.config.NeighborK,
		Seed:                  e.config.Seed,
		ShowProgress:          e.config.ShowProgress,
	})
}

// Classify returns the raw model vote for a text. Infrastructure failures
// propagate; callers wanting the degradation policy use Categorize.
func (e *Engine) Classify(ctx context.Context, text string) (model.Vote, error) {
	return e.categorizer(ctx).Classify(ctx, classifier.Request{Transcription: text})
}

// Decide applies the decision policy to an already-computed vote.
func (e *Engine) Decide(vote model.Vote, llmCategory string) model.Decision {
	return classifier.Decide(vote, llmCategory)
}

// Categorize runs the full inference pipeline and never fails on
// infrastructure errors.
func (e *Engine) Categorize(ctx context.Context, req classifier.Request) model.Decision {
	return e.categorizer(ctx).Categorize(ctx, req)
}

// RecordExpense persists a new expense line together with its categorization
// decision. The expense is flagged for confirmation unless the model decided
// with high confidence. An empty ID gets a generated one.
func (e *Engine) RecordExpense(ctx context.Context, expense *model.Expense) (model.Decision, error) {
	if expense == nil {
		return model.Decision{}, errors.New("expense is nil")
	}
	if expense.ID == "" {
		expense.ID = uuid.NewString()
	}
	if expense.Date.IsZero() {
		expense.Date = time.Now().UTC()
	}

	categorizer := e.categorizer(ctx)
	expense.Vendor = categorizer.CorrectedVendor(expense.Vendor)

	decision := categorizer.Categorize(ctx, classifier.Request{
		Transcription: expense.Transcription,
		Vendor:        expense.Vendor,
		Description:   expense.Description,
		LLMCategory:   expense.LLMCategory,
	})
	if decision.Degraded {
		slog.Warn("expense recorded with degraded categorization",
			"expense_id", expense.ID, "category", decision.Category)
	}

	expense.Category = decision.Category
	expense.MLPrediction = decision.MLPrediction
	expense.Confidence = decision.Confidence
	expense.NeedsConfirmation = decision.Confidence < classifier.HighConfidence

	if err := e.ensureCategory(ctx, decision.Category); err != nil {
		return model.Decision{}, err
	}
	if err := e.storage.SaveExpense(ctx, expense); err != nil {
		return model.Decision{}, fmt.Errorf("saving expense: %w", err)
	}
	return decision, nil
}

// ConfirmExpense records a user-confirmed category: the expense row is
// updated, the vendor and category taxonomies grow if needed, and the live
// model absorbs the sample.
func (e *Engine) ConfirmExpense(ctx context.Context, expenseID, category string) error {
	if err := e.ensureCategory(ctx, category); err != nil {
		return err
	}

	trainer := e.trainer(ctx)
	if err := trainer.IncrementalUpdate(ctx, expenseID, category); err != nil {
		return err
	}

	expense, err := e.storage.GetExpense(ctx, expenseID)
	if err != nil {
		return fmt.Errorf("reloading expense %s: %w", expenseID, err)
	}
	if expense.Vendor != "" {
		if err := e.storage.SaveVendor(ctx, &model.Vendor{
			Name:     expense.Vendor,
			LastSeen: time.Now().UTC(),
			UseCount: 1,
		}); err != nil {
			slog.Warn("could not record vendor", "vendor", expense.Vendor, "error", err)
		}
	}
	return nil
}

// Train runs a full training pass and returns its snapshot.
func (e *Engine) Train(ctx context.Context) (*model.Snapshot, error) {
	return e.trainer(ctx).Train(ctx)
}

// LatestMetrics returns the most recent snapshot, or nil when none exists.
func (e *Engine) LatestMetrics(ctx context.Context) (*model.Snapshot, error) {
	return e.storage.LatestSnapshot(ctx)
}

// RecentMetrics returns up to n most recent snapshots, newest first.
func (e *Engine) RecentMetrics(ctx context.Context, n int) ([]model.Snapshot, error) {
	return e.storage.RecentSnapshots(ctx, n)
}

// Categories lists the known category taxonomy.
func (e *Engine) Categories(ctx context.Context) ([]model.Category, error) {
	return e.storage.GetCategories(ctx)
}

// AddCategory registers a category by name, returning the stored record.
func (e *Engine) AddCategory(ctx context.Context, name string) (*model.Category, error) {
	return e.storage.CreateCategory(ctx, name)
}

// Vendors lists the known vendor names, most used first.
func (e *Engine) Vendors(ctx context.Context) ([]string, error) {
	return e.storage.GetVendorNames(ctx)
}

// ensureCategory creates the category on first sight. The taxonomy grows
// from generative suggestions and confirmations; it is never hardcoded.
func (e *Engine) ensureCategory(ctx context.Context, name string) error {
	if name == "" {
		return nil
	}
	_, err := e.storage.GetCategoryByName(ctx, name)
	if err == nil {
		return nil
	}
	if !errors.Is(err, common.ErrNotFound) {
		return fmt.Errorf("looking up category %q: %w", name, err)
	}
	if _, err := e.storage.CreateCategory(ctx, name); err != nil {
		return fmt.Errorf("creating category %q: %w", name, err)
	}
	slog.Info("registered new category", "category", name)
	return nil
}
