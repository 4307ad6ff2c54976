package model

import "time"

// Vendor is a known merchant spelling. The vendor list is dynamic: every
// confirmed expense upserts its (corrected) vendor, and the corrector uses
// the list to fix transcription misspellings before embedding.
type Vendor struct {
	LastSeen time.Time
	Name     string
	UseCount int
}
