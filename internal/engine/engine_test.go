package engine

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ledgervoice/ledgervoice/internal/common"
	"github.com/ledgervoice/ledgervoice/internal/index"
	"github.com/ledgervoice/ledgervoice/internal/model"
	"github.com/ledgervoice/ledgervoice/internal/storage"
)

// wordEmbedder returns a fixed vector per keyword so votes are deterministic.
type wordEmbedder struct {
	err error
}

func (w *wordEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	if w.err != nil {
		return nil, w.err
	}
	for word, vec := range map[string][]float32{
		"grocery": {1, 0, 0},
		"taxi":    {0, 1, 0},
		"coffee":  {0, 0, 1},
	} {
		if contains(text, word) {
			return vec, nil
		}
	}
	return []float32{0.5, 0.5, 0.5}, nil
}

func (w *wordEmbedder) Dimension() int    { return 3 }
func (w *wordEmbedder) ModelName() string { return "test" }

func contains(text, word string) bool {
	for i := 0; i+len(word) <= len(text); i++ {
		if text[i:i+len(word)] == word {
			return true
		}
	}
	return false
}

func newTestEngine(t *testing.T) (*Engine, *storage.SQLiteStorage, *wordEmbedder) {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	store, err := storage.NewSQLiteStorage(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	require.NoError(t, store.Migrate(context.Background()))

	embedder := &wordEmbedder{}
	idx, err := index.NewStore(store.DB(), embedder.Dimension())
	require.NoError(t, err)

	cfg := DefaultConfig()
	cfg.Seed = 42
	return New(store, embedder, idx, cfg), store, embedder
}

func seedConfirmed(t *testing.T, e *Engine, category, word string, n int) {
	t.Helper()
	ctx := context.Background()
	for i := 0; i < n; i++ {
		expense := &model.Expense{
			ID:            fmt.Sprintf("%s-%d", word, i),
			Date:          time.Date(2026, 5, 1+i, 0, 0, 0, 0, time.UTC),
			Vendor:        "Shop",
			Category:      category,
			Transcription: fmt.Sprintf("paid for %s item %d", word, i),
			Amount:        12,
		}
		require.NoError(t, e.storage.SaveExpense(ctx, expense))
	}
}

func TestEngineTrainThenClassify(t *testing.T) {
	e, _, _ := newTestEngine(t)
	ctx := context.Background()
	seedConfirmed(t, e, "Groceries", "grocery", 6)
	seedConfirmed(t, e, "Transport", "taxi", 6)

	snapshot, err := e.Train(ctx)
	require.NoError(t, err)
	assert.Equal(t, 12, snapshot.SampleCount)
	assert.InDelta(t, 1.0, snapshot.Accuracy, 1e-9)

	vote, err := e.Classify(ctx, "grocery shopping for the weekend")
	require.NoError(t, err)
	require.True(t, vote.Found)
	assert.Equal(t, "Groceries", vote.Category)
	assert.InDelta(t, 1.0, vote.Confidence, 1e-9)

	d := e.Decide(vote, "Dining")
	assert.Equal(t, "Groceries", d.Category)
}

func TestEngineRecordExpenseHighConfidence(t *testing.T) {
	e, store, _ := newTestEngine(t)
	ctx := context.Background()
	seedConfirmed(t, e, "Groceries", "grocery", 6)
	seedConfirmed(t, e, "Transport", "taxi", 6)
	_, err := e.Train(ctx)
	require.NoError(t, err)

	expense := &model.Expense{
		Vendor:        "Corner Shop",
		Transcription: "grocery run this morning",
		LLMCategory:   "Shopping",
		Amount:        34.5,
	}
	decision, err := e.RecordExpense(ctx, expense)
	require.NoError(t, err)

	assert.Equal(t, "Groceries", decision.Category)
	assert.False(t, decision.Degraded)
	assert.NotEmpty(t, expense.ID)

	saved, err := store.GetExpense(ctx, expense.ID)
	require.NoError(t, err)
	assert.Equal(t, "Groceries", saved.Category)
	assert.False(t, saved.NeedsConfirmation)

	// First sight of the category registered it.
	cat, err := store.GetCategoryByName(ctx, "Groceries")
	require.NoError(t, err)
	assert.Equal(t, "Groceries", cat.Name)
}

func TestEngineRecordExpenseDegradedWhenEmbeddingDown(t *testing.T) {
	e, store, embedder := newTestEngine(t)
	ctx := context.Background()
	embedder.err = fmt.Errorf("dial tcp: %w", common.ErrEmbeddingUnavailable)

	expense := &model.Expense{
		Vendor:        "Cafe",
		Transcription: "four dollars for coffee",
		LLMCategory:   "Dining",
		Amount:        4,
	}
	decision, err := e.RecordExpense(ctx, expense)
	require.NoError(t, err)

	// Recording never fails on infrastructure errors: the suggestion is used
	// with zero confidence and the row is flagged for confirmation.
	assert.True(t, decision.Degraded)
	assert.Equal(t, "Dining", decision.Category)
	assert.Zero(t, decision.Confidence)

	saved, err := store.GetExpense(ctx, expense.ID)
	require.NoError(t, err)
	assert.True(t, saved.NeedsConfirmation)
}

func TestEngineConfirmExpense(t *testing.T) {
	e, store, _ := newTestEngine(t)
	ctx := context.Background()
	seedConfirmed(t, e, "Groceries", "grocery", 6)
	seedConfirmed(t, e, "Transport", "taxi", 6)
	_, err := e.Train(ctx)
	require.NoError(t, err)

	expense := &model.Expense{
		ID:            "pending-1",
		Vendor:        "Cafe Aroma",
		Transcription: "coffee with a client",
		LLMCategory:   "Dining",
		Amount:        7.5,
	}
	require.NoError(t, store.SaveExpense(ctx, expense))

	require.NoError(t, e.ConfirmExpense(ctx, "pending-1", "Dining"))

	saved, err := store.GetExpense(ctx, "pending-1")
	require.NoError(t, err)
	assert.Equal(t, "Dining", saved.Category)
	assert.InDelta(t, 1.0, saved.Confidence, 1e-9)

	// The model now knows about coffee.
	vote, err := e.Classify(ctx, "coffee downtown")
	require.NoError(t, err)
	require.True(t, vote.Found)
	assert.Equal(t, "Dining", vote.Category)

	// The confirmed vendor joined the known list.
	vendors, err := e.Vendors(ctx)
	require.NoError(t, err)
	assert.Contains(t, vendors, "Cafe Aroma")
}

func TestEngineLatestMetricsEmpty(t *testing.T) {
	e, _, _ := newTestEngine(t)
	snapshot, err := e.LatestMetrics(context.Background())
	require.NoError(t, err)
	assert.Nil(t, snapshot)
}

func TestEngineMetricsHistory(t *testing.T) {
	e, _, _ := newTestEngine(t)
	ctx := context.Background()
	seedConfirmed(t, e, "Groceries", "grocery", 6)
	seedConfirmed(t, e, "Transport", "taxi", 6)

	_, err := e.Train(ctx)
	require.NoError(t, err)
	_, err = e.Train(ctx)
	require.NoError(t, err)

	latest, err := e.LatestMetrics(ctx)
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Contains(t, latest.Notes, "vs previous run")

	history, err := e.RecentMetrics(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, history, 2)
}

func TestEngineTrainInsufficientData(t *testing.T) {
	e, _, _ := newTestEngine(t)
	seedConfirmed(t, e, "Groceries", "grocery", 6)

	_, err := e.Train(context.Background())
	require.ErrorIs(t, err, common.ErrInsufficientData)
}
