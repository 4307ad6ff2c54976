package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/ledgervoice/ledgervoice/internal/model"
)

// snapshotDetail is the JSON document stored alongside the scalar snapshot
// columns. Kept as one blob because snapshots are written once and read whole.
type snapshotDetail struct {
	Labels         []string               `json:"labels"`
	FoldAccuracies []float64              `json:"fold_accuracies"`
	Matrix         [][]int                `json:"matrix"`
	PerCategory    []model.CategoryReport `json:"per_category"`
	TopCategories  []string               `json:"top_categories"`
	ConfusedPairs  []model.ConfusedPair   `json:"confused_pairs"`
	BestCategory   string                 `json:"best_category"`
	WorstCategory  string                 `json:"worst_category"`
}

// SaveSnapshot appends one metrics snapshot. Snapshots are immutable once
// written; there is deliberately no update path.
func (s *SQLiteStorage) SaveSnapshot(ctx context.Context, snapshot *model.Snapshot) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if snapshot == nil {
		return fmt.Errorf("%w: snapshot", ErrNilParameter)
	}

	detail, err := json.Marshal(snapshotDetail{
		Labels:         snapshot.Labels,
		FoldAccuracies: snapshot.FoldAccuracies,
		Matrix:         snapshot.Matrix,
		PerCategory:    snapshot.PerCategory,
		TopCategories:  snapshot.TopCategories,
		ConfusedPairs:  snapshot.ConfusedPairs,
		BestCategory:   snapshot.BestCategory,
		WorstCategory:  snapshot.WorstCategory,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot detail: %w", err)
	}

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO metrics_snapshots
		(created_at, training_type, accuracy, sample_count, category_count, detail, notes)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		snapshot.CreatedAt, string(snapshot.TrainingType), snapshot.Accuracy,
		snapshot.SampleCount, snapshot.CategoryCount, string(detail), snapshot.Notes,
	)
	if err != nil {
		return fmt.Errorf("failed to save snapshot: %w", err)
	}

	if id, err := res.LastInsertId(); err == nil {
		snapshot.ID = id
	}
	return nil
}

// LatestSnapshot returns the most recent snapshot, or nil when none exists.
func (s *SQLiteStorage) LatestSnapshot(ctx context.Context) (*model.Snapshot, error) {
	snapshots, err := s.RecentSnapshots(ctx, 1)
	if err != nil {
		return nil, err
	}
	if len(snapshots) == 0 {
		return nil, nil
	}
	return &snapshots[0], nil
}

// RecentSnapshots returns the n most recent snapshots, newest first.
func (s *SQLiteStorage) RecentSnapshots(ctx context.Context, n int) ([]model.Snapshot, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if n <= 0 {
		return nil, fmt.Errorf("snapshot count must be positive, got %d", n)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, created_at, training_type, accuracy, sample_count,
		       category_count, detail, notes
		FROM metrics_snapshots
		ORDER BY created_at DESC, id DESC
		LIMIT ?`, n)
	if err != nil {
		return nil, fmt.Errorf("failed to query snapshots: %w", err)
	}
	defer rows.Close()

	var snapshots []model.Snapshot
	for rows.Next() {
		var snap model.Snapshot
		var trainingType, detailJSON string
		var notes sql.NullString
		if err := rows.Scan(&snap.ID, &snap.CreatedAt, &trainingType,
			&snap.Accuracy, &snap.SampleCount, &snap.CategoryCount,
			&detailJSON, &notes); err != nil {
			return nil, fmt.Errorf("failed to scan snapshot: %w", err)
		}

		var detail snapshotDetail
		if err := json.Unmarshal([]byte(detailJSON), &detail); err != nil {
			return nil, fmt.Errorf("failed to unmarshal snapshot %d detail: %w", snap.ID, err)
		}

		snap.TrainingType = model.TrainingType(trainingType)
		snap.Notes = notes.String
		snap.Labels = detail.Labels
		snap.FoldAccuracies = detail.FoldAccuracies
		snap.Matrix = detail.Matrix
		snap.PerCategory = detail.PerCategory
		snap.TopCategories = detail.TopCategories
		snap.ConfusedPairs = detail.ConfusedPairs
		snap.BestCategory = detail.BestCategory
		snap.WorstCategory = detail.WorstCategory

		snapshots = append(snapshots, snap)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating snapshots: %w", err)
	}
	return snapshots, nil
}
