package model

import "time"

// TrainingType distinguishes how a metrics snapshot was produced.
type TrainingType string

// Training type constants.
const (
	TrainingFull        TrainingType = "full"
	TrainingIncremental TrainingType = "incremental"
)

// LabelUnknown is the confusion-matrix column used when the classifier
// returned no prediction for a held-out sample. Keeping the column makes row
// sums equal the true sample counts.
const LabelUnknown = "Unknown"

// CategoryReport holds per-category diagnostics derived from the out-of-fold
// confusion matrix.
type CategoryReport struct {
	Category       string
	Precision      float64
	Recall         float64
	F1             float64
	Accuracy       float64
	MeanConfidence float64
	Support        int
}

// ConfusedPair is a (true, predicted) miscategorization counted across all
// folds.
type ConfusedPair struct {
	True      string
	Predicted string
	Count     int
}

// Snapshot is one immutable evaluation record. Snapshots are append-only:
// once written they are never mutated.
type Snapshot struct {
	CreatedAt      time.Time
	TrainingType   TrainingType
	Notes          string
	BestCategory   string
	WorstCategory  string
	Labels         []string // confusion matrix labels, "Unknown" last
	FoldAccuracies []float64
	Matrix         [][]int // rows = true labels (eligible categories), cols = Labels
	PerCategory    []CategoryReport
	TopCategories  []string // top 3 by F1
	ConfusedPairs  []ConfusedPair
	Accuracy       float64
	SampleCount    int
	CategoryCount  int
	ID             int64
}
