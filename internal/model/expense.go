// Package model defines the core domain models used throughout the application.
package model

import "time"

// Expense represents a single recorded expense line. The ID is immutable;
// Category and Confidence are only mutated by confirmation or by the
// incremental update path.
type Expense struct {
	Date              time.Time
	ID                string
	Vendor            string
	Category          string
	Description       string
	Transcription     string // Raw speech-to-text output the line was extracted from
	MLPrediction      string // Category predicted by the voting classifier
	LLMCategory       string // Category suggested by the generative extraction service
	Amount            float64
	Confidence        float64
	NeedsConfirmation bool
}

// TrainingText returns the canonical text used for embedding generation:
// transcription, vendor, and description joined into one string.
func (e *Expense) TrainingText() string {
	return CanonicalText(e.Transcription, e.Vendor, e.Description)
}
