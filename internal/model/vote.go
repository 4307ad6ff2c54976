package model

// Vote is the result of weighted k-NN voting. Found is false when the index
// returned no neighbors; Confidence is always a defined value in [0,1] and is
// 0.0 in that case, never omitted.
type Vote struct {
	Category   string
	Confidence float64
	Found      bool
}

// Decision is the reconciled output of the decision policy. MLPrediction and
// LLMCategory are preserved for observability regardless of which one won.
type Decision struct {
	Category     string
	MLPrediction string
	LLMCategory  string
	Confidence   float64
	Degraded     bool
}
