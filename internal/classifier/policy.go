package classifier

import "github.com/ledgervoice/ledgervoice/internal/model"

// Confidence thresholds for the decision policy. At or above HighConfidence
// the model prediction is trusted outright; between LowConfidence and
// HighConfidence the generative suggestion is kept but the model's confidence
// is surfaced for review; below LowConfidence the model is ignored entirely.
const (
	HighConfidence = 0.85
	LowConfidence  = 0.3
)

// Decide merges the model vote with the generative suggestion. llmCategory
// is always a usable fallback: when the vote is absent or weak the decision
// carries it with zero confidence so downstream review logic treats it as
// unverified.
func Decide(vote model.Vote, llmCategory string) model.Decision {
	d := model.Decision{
		LLMCategory: llmCategory,
		Category:    llmCategory,
	}
	if !vote.Found {
		return d
	}

	d.MLPrediction = vote.Category
	switch {
	case vote.Confidence >= HighConfidence:
		d.Category = vote.Category
		d.Confidence = vote.Confidence
	case vote.Confidence >= LowConfidence:
		d.Confidence = vote.Confidence
	default:
		// Confidence stays 0: the suggestion is unverified.
	}
	return d
}

// DecideDegraded is the fallback when embedding or index infrastructure is
// unavailable. The generative suggestion is used as-is and the decision is
// flagged so callers can warn the user.
func DecideDegraded(llmCategory string) model.Decision {
	return model.Decision{
		Category:    llmCategory,
		LLMCategory: llmCategory,
		Degraded:    true,
	}
}
