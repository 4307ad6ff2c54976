package classifier

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ledgervoice/ledgervoice/internal/model"
)

func neighbor(category string, similarity float64) model.Neighbor {
	return model.Neighbor{
		Payload:    model.Payload{Category: category},
		Similarity: similarity,
	}
}

func TestVote(t *testing.T) {
	tests := []struct {
		name           string
		neighbors      []model.Neighbor
		wantCategory   string
		wantConfidence float64
		wantFound      bool
	}{
		{
			name: "unanimous",
			neighbors: []model.Neighbor{
				neighbor("Groceries", 0.9),
				neighbor("Groceries", 0.8),
				neighbor("Groceries", 0.7),
			},
			wantCategory:   "Groceries",
			wantConfidence: 1.0,
			wantFound:      true,
		},
		{
			name: "weighted majority",
			neighbors: []model.Neighbor{
				neighbor("Groceries", 0.9),
				neighbor("Groceries", 0.6),
				neighbor("Transport", 0.5),
			},
			wantCategory:   "Groceries",
			wantConfidence: 1.5 / 2.0,
			wantFound:      true,
		},
		{
			name: "similarity outweighs count",
			neighbors: []model.Neighbor{
				neighbor("Transport", 0.95),
				neighbor("Groceries", 0.3),
				neighbor("Groceries", 0.3),
				neighbor("Groceries", 0.3),
			},
			wantCategory:   "Transport",
			wantConfidence: 0.95 / 1.85,
			wantFound:      true,
		},
		{
			name: "tie breaks to lexicographically smaller",
			neighbors: []model.Neighbor{
				neighbor("Transport", 0.5),
				neighbor("Groceries", 0.5),
			},
			wantCategory:   "Groceries",
			wantConfidence: 0.5,
			wantFound:      true,
		},
		{
			name:      "no neighbors",
			neighbors: nil,
			wantFound: false,
		},
		{
			name: "zero similarity ignored",
			neighbors: []model.Neighbor{
				neighbor("Groceries", 0),
			},
			wantFound: false,
		},
		{
			name: "empty category ignored",
			neighbors: []model.Neighbor{
				neighbor("", 0.9),
				neighbor("Transport", 0.4),
			},
			wantCategory:   "Transport",
			wantConfidence: 1.0,
			wantFound:      true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Vote(tt.neighbors)
			assert.Equal(t, tt.wantFound, got.Found)
			if !tt.wantFound {
				return
			}
			assert.Equal(t, tt.wantCategory, got.Category)
			assert.InDelta(t, tt.wantConfidence, got.Confidence, 1e-9)
			assert.GreaterOrEqual(t, got.Confidence, 0.0)
			assert.LessOrEqual(t, got.Confidence, 1.0)
		})
	}
}
