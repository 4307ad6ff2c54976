// Package classifier turns nearest-neighbor matches into category decisions.
package classifier

import (
	"sort"

	"github.com/ledgervoice/ledgervoice/internal/model"
)

// DefaultNeighborK is how many nearest neighbors participate in a vote.
const DefaultNeighborK = 5

// Vote tallies neighbors into a category prediction. Each neighbor
// contributes its cosine similarity to its category's score; the winner's
// confidence is its score normalized by the total, so confidence stays in
// [0,1] regardless of k. No neighbors means no prediction.
func Vote(neighbors []model.Neighbor) model.Vote {
	scores := make(map[string]float64)
	total := 0.0
	for _, n := range neighbors {
		if n.Payload.Category == "" || n.Similarity <= 0 {
			continue
		}
		scores[n.Payload.Category] += n.Similarity
		total += n.Similarity
	}
	if total == 0 {
		return model.Vote{}
	}

	categories := make([]string, 0, len(scores))
	for c := range scores {
		categories = append(categories, c)
	}
	// Deterministic winner when scores tie.
	sort.Strings(categories)

	best := categories[0]
	for _, c := range categories[1:] {
		if scores[c] > scores[best] {
			best = c
		}
	}

	return model.Vote{
		Category:   best,
		Confidence: scores[best] / total,
		Found:      true,
	}
}
