package classifier

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ledgervoice/ledgervoice/internal/model"
)

func TestDecide(t *testing.T) {
	tests := []struct {
		name string
		vote model.Vote
		llm  string
		want model.Decision
	}{
		{
			name: "high confidence trusts the model",
			vote: model.Vote{Category: "Groceries", Confidence: 0.92, Found: true},
			llm:  "Dining",
			want: model.Decision{
				Category:     "Groceries",
				MLPrediction: "Groceries",
				LLMCategory:  "Dining",
				Confidence:   0.92,
			},
		},
		{
			name: "exactly at the high threshold",
			vote: model.Vote{Category: "Groceries", Confidence: 0.85, Found: true},
			llm:  "Dining",
			want: model.Decision{
				Category:     "Groceries",
				MLPrediction: "Groceries",
				LLMCategory:  "Dining",
				Confidence:   0.85,
			},
		},
		{
			name: "mid confidence keeps the suggestion but surfaces confidence",
			vote: model.Vote{Category: "Groceries", Confidence: 0.6, Found: true},
			llm:  "Dining",
			want: model.Decision{
				Category:     "Dining",
				MLPrediction: "Groceries",
				LLMCategory:  "Dining",
				Confidence:   0.6,
			},
		},
		{
			name: "low confidence discards the model entirely",
			vote: model.Vote{Category: "Groceries", Confidence: 0.2, Found: true},
			llm:  "Dining",
			want: model.Decision{
				Category:     "Dining",
				MLPrediction: "Groceries",
				LLMCategory:  "Dining",
				Confidence:   0,
			},
		},
		{
			name: "no vote falls back to suggestion",
			vote: model.Vote{},
			llm:  "Dining",
			want: model.Decision{
				Category:    "Dining",
				LLMCategory: "Dining",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Decide(tt.vote, tt.llm))
		})
	}
}

func TestDecideIsTotal(t *testing.T) {
	// Every confidence in [0,1] yields a usable category.
	for conf := 0.0; conf <= 1.0; conf += 0.05 {
		d := Decide(model.Vote{Category: "A", Confidence: conf, Found: true}, "B")
		assert.NotEmpty(t, d.Category)
		assert.GreaterOrEqual(t, d.Confidence, 0.0)
		assert.LessOrEqual(t, d.Confidence, 1.0)
	}
}

func TestDecideDegraded(t *testing.T) {
	d := DecideDegraded("Dining")
	assert.Equal(t, "Dining", d.Category)
	assert.Equal(t, "Dining", d.LLMCategory)
	assert.Zero(t, d.Confidence)
	assert.True(t, d.Degraded)
	assert.Empty(t, d.MLPrediction)
}
