// Package learner builds and evaluates the similarity model from confirmed
// expenses.
package learner

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"sort"

	"github.com/ledgervoice/ledgervoice/internal/classifier"
	"github.com/ledgervoice/ledgervoice/internal/common"
	"github.com/ledgervoice/ledgervoice/internal/model"
	"github.com/ledgervoice/ledgervoice/internal/service"
)

// DefaultFolds is the cross-validation fold count.
const DefaultFolds = 5

// Sample is one embedded training row.
type Sample struct {
	ID       string
	Category string
	Point    model.Point
}

// Evaluator scores the model with k-fold cross-validation. Every fold runs
// inside an ephemeral index partition so evaluation never touches the live
// model.
type Evaluator struct {
	index service.Index
	folds int
	k     int
	seed  int64
}

// NewEvaluator returns an evaluator with the given fold count and neighbor k.
// Non-positive values fall back to the defaults. The seed fixes the shuffle
// so repeated evaluations of the same data agree.
func NewEvaluator(idx service.Index, folds, k int, seed int64) *Evaluator {
	if folds <= 0 {
		folds = DefaultFolds
	}
	if k <= 0 {
		k = classifier.DefaultNeighborK
	}
	return &Evaluator{index: idx, folds: folds, k: k, seed: seed}
}

// outcome is one held-out prediction.
type outcome struct {
	trueLabel  string
	predicted  string // LabelUnknown when the vote was empty
	confidence float64
}

// Evaluate runs cross-validation over the samples and aggregates the
// out-of-fold results into a snapshot. Folds that fail on infrastructure
// errors are logged and dropped; the evaluation only fails when no fold
// completed or the context is cancelled.
func (e *Evaluator) Evaluate(ctx context.Context, samples []Sample) (*model.Snapshot, error) {
	if len(samples) < e.folds {
		return nil, fmt.Errorf("%w: %d samples for %d folds",
			common.ErrInsufficientData, len(samples), e.folds)
	}

	shuffled := make([]Sample, len(samples))
	copy(shuffled, samples)
	rng := rand.New(rand.NewSource(e.seed))
	rng.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})

	var (
		outcomes       []outcome
		foldAccuracies []float64
	)
	for fold := 0; fold < e.folds; fold++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		train, held := splitFold(shuffled, e.folds, fold)
		foldOutcomes, err := e.evaluateFold(ctx, train, held)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			slog.Warn("dropping failed cross-validation fold",
				"fold", fold, "held_out", len(held), "error", err)
			continue
		}

		correct := 0
		for _, o := range foldOutcomes {
			if o.predicted == o.trueLabel {
				correct++
			}
		}
		foldAccuracies = append(foldAccuracies, float64(correct)/float64(len(foldOutcomes)))
		outcomes = append(outcomes, foldOutcomes...)
	}

	if len(foldAccuracies) == 0 {
		return nil, fmt.Errorf("evaluating model: all %d folds failed: %w",
			e.folds, common.ErrIndexUnavailable)
	}

	return aggregate(samples, outcomes, foldAccuracies), nil
}

// splitFold returns the train and held-out partitions for the given fold.
// The remainder samples go to the earlier folds, matching the usual k-fold
// split.
func splitFold(samples []Sample, folds, fold int) (train, held []Sample) {
	n := len(samples)
	size := n / folds
	extra := n % folds

	start := fold*size + min(fold, extra)
	end := start + size
	if fold < extra {
		end++
	}

	held = samples[start:end]
	train = make([]Sample, 0, n-len(held))
	train = append(train, samples[:start]...)
	train = append(train, samples[end:]...)
	return train, held
}

func (e *Evaluator) evaluateFold(ctx context.Context, train, held []Sample) ([]outcome, error) {
	var outcomes []outcome
	err := e.index.WithEphemeral(ctx, func(partition string) error {
		for _, s := range train {
			if err := e.index.Upsert(ctx, partition, s.Point); err != nil {
				return fmt.Errorf("loading fold partition: %w", err)
			}
		}
		for _, s := range held {
			neighbors, err := e.index.Query(ctx, partition, s.Point.Vector, e.k)
			if err != nil {
				return fmt.Errorf("querying fold partition: %w", err)
			}
			vote := classifier.Vote(neighbors)
			o := outcome{trueLabel: s.Category, predicted: model.LabelUnknown}
			if vote.Found {
				o.predicted = vote.Category
				o.confidence = vote.Confidence
			}
			outcomes = append(outcomes, o)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return outcomes, nil
}

// aggregate folds the out-of-fold outcomes into the snapshot statistics.
func aggregate(samples []Sample, outcomes []outcome, foldAccuracies []float64) *model.Snapshot {
	categories := make(map[string]bool)
	for _, s := range samples {
		categories[s.Category] = true
	}
	trueLabels := make([]string, 0, len(categories))
	for c := range categories {
		trueLabels = append(trueLabels, c)
	}
	sort.Strings(trueLabels)

	// Columns cover every true label plus anything the classifier predicted,
	// with Unknown always last.
	labels := append([]string(nil), trueLabels...)
	seen := make(map[string]bool, len(labels))
	for _, l := range labels {
		seen[l] = true
	}
	for _, o := range outcomes {
		if o.predicted != model.LabelUnknown && !seen[o.predicted] {
			labels = append(labels, o.predicted)
			seen[o.predicted] = true
		}
	}
	sort.Strings(labels)
	labels = append(labels, model.LabelUnknown)

	col := make(map[string]int, len(labels))
	for i, l := range labels {
		col[l] = i
	}
	row := make(map[string]int, len(trueLabels))
	for i, l := range trueLabels {
		row[l] = i
	}

	matrix := make([][]int, len(trueLabels))
	for i := range matrix {
		matrix[i] = make([]int, len(labels))
	}

	confidenceSums := make(map[string]float64)
	correctTotal := 0
	for _, o := range outcomes {
		matrix[row[o.trueLabel]][col[o.predicted]]++
		confidenceSums[o.trueLabel] += o.confidence
		if o.predicted == o.trueLabel {
			correctTotal++
		}
	}

	reports := make([]model.CategoryReport, 0, len(trueLabels))
	for _, label := range trueLabels {
		r := row[label]
		support := 0
		for _, n := range matrix[r] {
			support += n
		}
		truePositives := matrix[r][col[label]]
		predictedTotal := 0
		for i := range matrix {
			predictedTotal += matrix[i][col[label]]
		}

		report := model.CategoryReport{Category: label, Support: support}
		if predictedTotal > 0 {
			report.Precision = float64(truePositives) / float64(predictedTotal)
		}
		if support > 0 {
			report.Recall = float64(truePositives) / float64(support)
			report.Accuracy = report.Recall
			report.MeanConfidence = confidenceSums[label] / float64(support)
		}
		if report.Precision+report.Recall > 0 {
			report.F1 = 2 * report.Precision * report.Recall / (report.Precision + report.Recall)
		}
		reports = append(reports, report)
	}

	byF1 := append([]model.CategoryReport(nil), reports...)
	sort.SliceStable(byF1, func(i, j int) bool {
		if byF1[i].F1 != byF1[j].F1 {
			return byF1[i].F1 > byF1[j].F1
		}
		return byF1[i].Category < byF1[j].Category
	})
	top := make([]string, 0, 3)
	for i := 0; i < len(byF1) && i < 3; i++ {
		top = append(top, byF1[i].Category)
	}

	snapshot := &model.Snapshot{
		TrainingType:   model.TrainingFull,
		Labels:         labels,
		FoldAccuracies: foldAccuracies,
		Matrix:         matrix,
		PerCategory:    reports,
		TopCategories:  top,
		ConfusedPairs:  confusedPairs(trueLabels, labels, matrix, 5),
		Accuracy:       float64(correctTotal) / float64(len(outcomes)),
		SampleCount:    len(samples),
		CategoryCount:  len(trueLabels),
	}
	if len(byF1) > 0 {
		snapshot.BestCategory = byF1[0].Category
		snapshot.WorstCategory = byF1[len(byF1)-1].Category
	}
	return snapshot
}

// confusedPairs lists the most frequent off-diagonal (true, predicted) cells,
// largest first. Ties order by true then predicted label so output is stable.
func confusedPairs(trueLabels, labels []string, matrix [][]int, limit int) []model.ConfusedPair {
	var pairs []model.ConfusedPair
	for i, trueLabel := range trueLabels {
		for j, predicted := range labels {
			if predicted == trueLabel || matrix[i][j] == 0 {
				continue
			}
			pairs = append(pairs, model.ConfusedPair{
				True:      trueLabel,
				Predicted: predicted,
				Count:     matrix[i][j],
			})
		}
	}
	sort.SliceStable(pairs, func(i, j int) bool {
		if pairs[i].Count != pairs[j].Count {
			return pairs[i].Count > pairs[j].Count
		}
		if pairs[i].True != pairs[j].True {
			return pairs[i].True < pairs[j].True
		}
		return pairs[i].Predicted < pairs[j].Predicted
	})
	if len(pairs) > limit {
		pairs = pairs[:limit]
	}
	return pairs
}
