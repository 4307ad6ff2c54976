package learner

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/schollz/progressbar/v3"

	"github.com/ledgervoice/ledgervoice/internal/common"
	"github.com/ledgervoice/ledgervoice/internal/index"
	"github.com/ledgervoice/ledgervoice/internal/model"
	"github.com/ledgervoice/ledgervoice/internal/rules"
	"github.com/ledgervoice/ledgervoice/internal/service"
)

// DefaultMinSamplesPerCategory is how many confirmed rows a category needs
// before it participates in training.
const DefaultMinSamplesPerCategory = 3

// Options tunes a training run. Zero values fall back to the defaults.
type Options struct {
	MinSamplesPerCategory int
	Folds                 int
	NeighborK             int
	Seed                  int64
	ShowProgress          bool
}

func (o Options) withDefaults() Options {
	if o.MinSamplesPerCategory <= 0 {
		o.MinSamplesPerCategory = DefaultMinSamplesPerCategory
	}
	if o.Folds <= 0 {
		o.Folds = DefaultFolds
	}
	return o
}

// Trainer rebuilds the similarity model from all confirmed expenses and
// records an evaluation snapshot.
type Trainer struct {
	storage   service.Storage
	embedder  service.Embedder
	index     service.Index
	corrector *rules.Corrector
	opts      Options
}

// NewTrainer wires a trainer. The corrector is refreshed by the caller per
// run so the known-vendor list stays current.
func NewTrainer(storage service.Storage, embedder service.Embedder, idx service.Index, corrector *rules.Corrector, opts Options) *Trainer {
	return &Trainer{
		storage:   storage,
		embedder:  embedder,
		index:     idx,
		corrector: corrector,
		opts:      opts.withDefaults(),
	}
}

// Train runs a full training pass: load confirmed expenses, drop categories
// below the sample floor, embed everything once, cross-validate, rebuild the
// main partition, and persist a snapshot. Nothing is persisted when training
// fails; the previous model stays live until the rebuild step.
func (t *Trainer) Train(ctx context.Context) (*model.Snapshot, error) {
	start := time.Now()

	expenses, err := t.storage.GetExpensesForTraining(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading training expenses: %w", err)
	}

	eligible := t.filterEligible(expenses)
	if err := t.requireEnoughCategories(eligible); err != nil {
		return nil, err
	}

	samples, err := t.embedAll(ctx, eligible)
	if err != nil {
		return nil, err
	}

	seed := t.opts.Seed
	if seed == 0 {
		seed = start.UnixNano()
	}
	evaluator := NewEvaluator(t.index, t.opts.Folds, t.opts.NeighborK, seed)
	snapshot, err := evaluator.Evaluate(ctx, samples)
	if err != nil {
		return nil, fmt.Errorf("evaluating model: %w", err)
	}

	if err := t.rebuildMainPartition(ctx, samples); err != nil {
		return nil, err
	}

	snapshot.CreatedAt = time.Now().UTC()
	snapshot.Notes = t.buildNotes(ctx, snapshot)
	if err := t.storage.SaveSnapshot(ctx, snapshot); err != nil {
		return nil, fmt.Errorf("recording training snapshot: %w", err)
	}

	slog.Info("training complete",
		"samples", snapshot.SampleCount,
		"categories", snapshot.CategoryCount,
		"accuracy", snapshot.Accuracy,
		"duration", time.Since(start))
	return snapshot, nil
}

// filterEligible keeps expenses whose (rule-corrected) category clears the
// per-category sample floor.
func (t *Trainer) filterEligible(expenses []model.Expense) []model.Expense {
	byCategory := make(map[string][]model.Expense)
	for _, e := range expenses {
		e.Category = t.corrector.ApplyCategory(e.Description, e.Category)
		byCategory[e.Category] = append(byCategory[e.Category], e)
	}

	var eligible []model.Expense
	for category, rows := range byCategory {
		if len(rows) < t.opts.MinSamplesPerCategory {
			slog.Info("skipping category below sample floor",
				"category", category,
				"samples", len(rows),
				"min", t.opts.MinSamplesPerCategory)
			continue
		}
		eligible = append(eligible, rows...)
	}
	return eligible
}

func (t *Trainer) requireEnoughCategories(eligible []model.Expense) error {
	categories := make(map[string]bool)
	for _, e := range eligible {
		categories[e.Category] = true
	}
	if len(categories) < 2 {
		return fmt.Errorf("%w: %d eligible categories, need at least 2",
			common.ErrInsufficientData, len(categories))
	}
	return nil
}

// embedAll generates a vector per expense, checking the context between rows
// so a long run cancels cleanly.
func (t *Trainer) embedAll(ctx context.Context, expenses []model.Expense) ([]Sample, error) {
	var bar *progressbar.ProgressBar
	if t.opts.ShowProgress {
		bar = progressbar.Default(int64(len(expenses)), "Embedding expenses")
	}

	samples := make([]Sample, 0, len(expenses))
	for _, e := range expenses {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		vector, err := t.embedder.Embed(ctx, e.TrainingText())
		if err != nil {
			return nil, fmt.Errorf("embedding expense %s: %w", e.ID, err)
		}
		samples = append(samples, Sample{
			ID:       e.ID,
			Category: e.Category,
			Point: model.Point{
				ID:     e.ID,
				Vector: vector,
				Payload: model.Payload{
					Category: e.Category,
					Amount:   e.Amount,
					Date:     e.Date,
				},
			},
		})
		if bar != nil {
			_ = bar.Add(1)
		}
	}
	return samples, nil
}

// rebuildMainPartition replaces the live model wholesale so points for
// re-categorized or deleted expenses do not linger.
func (t *Trainer) rebuildMainPartition(ctx context.Context, samples []Sample) error {
	if err := t.index.DeletePartition(ctx, index.MainPartition); err != nil {
		return fmt.Errorf("clearing main partition: %w", err)
	}
	if err := t.index.CreatePartition(ctx, index.MainPartition); err != nil {
		return fmt.Errorf("creating main partition: %w", err)
	}
	for _, s := range samples {
		if err := t.index.Upsert(ctx, index.MainPartition, s.Point); err != nil {
			return fmt.Errorf("upserting point %s: %w", s.ID, err)
		}
	}
	return nil
}

// buildNotes compares this run against the previous snapshot. Failing to
// load the previous snapshot only costs the note, never the run.
func (t *Trainer) buildNotes(ctx context.Context, snapshot *model.Snapshot) string {
	previous, err := t.storage.LatestSnapshot(ctx)
	if err != nil {
		slog.Warn("could not load previous snapshot for notes", "error", err)
		return ""
	}
	if previous == nil {
		return "first training run"
	}
	delta := snapshot.Accuracy - previous.Accuracy
	return fmt.Sprintf("accuracy %+.4f vs previous run (%.4f -> %.4f)",
		delta, previous.Accuracy, snapshot.Accuracy)
}
