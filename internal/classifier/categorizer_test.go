package classifier

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ledgervoice/ledgervoice/internal/common"
	"github.com/ledgervoice/ledgervoice/internal/model"
	"github.com/ledgervoice/ledgervoice/internal/rules"
)

type stubEmbedder struct {
	vector []float32
	err    error
	calls  int
}

func (s *stubEmbedder) Embed(_ context.Context, _ string) ([]float32, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.vector, nil
}

func (s *stubEmbedder) Dimension() int    { return len(s.vector) }
func (s *stubEmbedder) ModelName() string { return "stub" }

type stubIndex struct {
	neighbors []model.Neighbor
	err       error
}

func (s *stubIndex) Upsert(_ context.Context, _ string, _ model.Point) error { return nil }

func (s *stubIndex) Query(_ context.Context, _ string, _ []float32, _ int) ([]model.Neighbor, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.neighbors, nil
}

func (s *stubIndex) CreatePartition(_ context.Context, _ string) error { return nil }
func (s *stubIndex) DeletePartition(_ context.Context, _ string) error { return nil }
func (s *stubIndex) Count(_ context.Context, _ string) (int, error)    { return 0, nil }

func (s *stubIndex) WithEphemeral(ctx context.Context, fn func(string) error) error {
	return fn("ephemeral")
}

func newTestCategorizer(embedder *stubEmbedder, idx *stubIndex, vendors []string) *Categorizer {
	return NewCategorizer(embedder, idx, rules.NewCorrector(vendors), 5)
}

func TestCategorizeHighConfidence(t *testing.T) {
	embedder := &stubEmbedder{vector: []float32{1, 0}}
	idx := &stubIndex{neighbors: []model.Neighbor{
		neighbor("Transport", 0.95),
		neighbor("Transport", 0.9),
		neighbor("Transport", 0.85),
	}}
	c := newTestCategorizer(embedder, idx, nil)

	d := c.Categorize(context.Background(), Request{
		Transcription: "taxi to the airport",
		Vendor:        "City Cab",
		LLMCategory:   "Travel",
	})

	assert.Equal(t, "Transport", d.Category)
	assert.Equal(t, "Transport", d.MLPrediction)
	assert.Equal(t, "Travel", d.LLMCategory)
	assert.InDelta(t, 1.0, d.Confidence, 1e-9)
	assert.False(t, d.Degraded)
}

func TestCategorizeMidConfidenceKeepsSuggestion(t *testing.T) {
	embedder := &stubEmbedder{vector: []float32{1, 0}}
	idx := &stubIndex{neighbors: []model.Neighbor{
		neighbor("Transport", 0.6),
		neighbor("Groceries", 0.4),
	}}
	c := newTestCategorizer(embedder, idx, nil)

	d := c.Categorize(context.Background(), Request{
		Transcription: "something ambiguous",
		LLMCategory:   "Travel",
	})

	assert.Equal(t, "Travel", d.Category)
	assert.Equal(t, "Transport", d.MLPrediction)
	assert.InDelta(t, 0.6, d.Confidence, 1e-9)
}

func TestCategorizeDegradesWhenEmbeddingDown(t *testing.T) {
	embedder := &stubEmbedder{err: fmt.Errorf("dial tcp: %w", common.ErrEmbeddingUnavailable)}
	c := newTestCategorizer(embedder, &stubIndex{}, nil)

	d := c.Categorize(context.Background(), Request{
		Transcription: "twenty dollars at the pharmacy",
		LLMCategory:   "Health",
	})

	assert.Equal(t, "Health", d.Category)
	assert.Zero(t, d.Confidence)
	assert.True(t, d.Degraded)
	// One retry, then degrade.
	assert.Equal(t, 2, embedder.calls)
}

func TestCategorizeDegradesWhenIndexDown(t *testing.T) {
	embedder := &stubEmbedder{vector: []float32{1, 0}}
	idx := &stubIndex{err: fmt.Errorf("query: %w", common.ErrIndexUnavailable)}
	c := newTestCategorizer(embedder, idx, nil)

	d := c.Categorize(context.Background(), Request{
		Transcription: "lunch downtown",
		LLMCategory:   "Dining",
	})

	assert.Equal(t, "Dining", d.Category)
	assert.Zero(t, d.Confidence)
	assert.True(t, d.Degraded)
}

func TestCategorizeTermRuleShortCircuits(t *testing.T) {
	// The model must not be consulted when a term rule matches.
	embedder := &stubEmbedder{err: fmt.Errorf("should not be called")}
	c := newTestCategorizer(embedder, &stubIndex{}, nil)

	d := c.Categorize(context.Background(), Request{
		Transcription: "three euros for a cucumber",
		Description:   "cucumber",
		LLMCategory:   "Dining",
	})

	assert.Equal(t, "Groceries", d.Category)
	assert.InDelta(t, 1.0, d.Confidence, 1e-9)
	assert.Zero(t, embedder.calls)
}

func TestCategorizeCorrectsVendorBeforeEmbedding(t *testing.T) {
	embedder := &stubEmbedder{vector: []float32{1, 0}}
	idx := &stubIndex{neighbors: []model.Neighbor{neighbor("Groceries", 0.9)}}
	c := newTestCategorizer(embedder, idx, []string{"Whole Foods"})

	assert.Equal(t, "Whole Foods", c.CorrectedVendor("Whole Fods"))

	d := c.Categorize(context.Background(), Request{
		Transcription: "weekly shop",
		Vendor:        "Whole Fods",
		LLMCategory:   "Groceries",
	})
	require.True(t, d.Confidence > 0)
}

func TestClassifyEmptyText(t *testing.T) {
	embedder := &stubEmbedder{vector: []float32{1, 0}}
	c := newTestCategorizer(embedder, &stubIndex{}, nil)

	vote, err := c.Classify(context.Background(), Request{})
	require.NoError(t, err)
	assert.False(t, vote.Found)
	assert.Zero(t, embedder.calls)
}
