package classifier

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/ledgervoice/ledgervoice/internal/common"
	"github.com/ledgervoice/ledgervoice/internal/index"
	"github.com/ledgervoice/ledgervoice/internal/model"
	"github.com/ledgervoice/ledgervoice/internal/rules"
	"github.com/ledgervoice/ledgervoice/internal/service"
)

// Request is one expense awaiting categorization. LLMCategory is the
// generative suggestion the capture pipeline attached; it is the fallback
// whenever the model cannot produce a trustworthy prediction.
type Request struct {
	Transcription string
	Vendor        string
	Description   string
	LLMCategory   string
}

// Categorizer runs the full per-expense pipeline: vendor correction, text
// canonicalization, term rules, then embed, nearest-neighbor vote, and the
// decision policy.
type Categorizer struct {
	embedder  service.Embedder
	index     service.Index
	corrector *rules.Corrector
	k         int
}

// NewCategorizer wires the pipeline. k defaults to DefaultNeighborK when
// non-positive.
func NewCategorizer(embedder service.Embedder, idx service.Index, corrector *rules.Corrector, k int) *Categorizer {
	if k <= 0 {
		k = DefaultNeighborK
	}
	return &Categorizer{
		embedder:  embedder,
		index:     idx,
		corrector: corrector,
		k:         k,
	}
}

// Classify returns the raw model vote for a request without applying the
// decision policy. Infrastructure failures propagate as errors.
func (c *Categorizer) Classify(ctx context.Context, req Request) (model.Vote, error) {
	text := model.CanonicalText(req.Transcription, req.Vendor, req.Description)
	if text == "" {
		return model.Vote{}, nil
	}

	vector, err := c.embed(ctx, text)
	if err != nil {
		return model.Vote{}, err
	}

	neighbors, err := c.query(ctx, vector)
	if err != nil {
		return model.Vote{}, err
	}

	return Vote(neighbors), nil
}

// Categorize runs the whole pipeline and always returns a usable decision.
// Transient infrastructure failures never surface as errors: the decision
// degrades to the generative suggestion with zero confidence and a warning
// is logged.
func (c *Categorizer) Categorize(ctx context.Context, req Request) model.Decision {
	req.Vendor = c.corrector.CorrectVendor(req.Vendor)

	if category, ok := c.corrector.CorrectCategory(req.Description); ok {
		// Term rules are authoritative; skip the model entirely.
		return model.Decision{
			Category:    category,
			LLMCategory: req.LLMCategory,
			Confidence:  1.0,
		}
	}

	vote, err := c.Classify(ctx, req)
	if err != nil {
		if common.IsTransient(err) {
			slog.Warn("categorization degraded, falling back to suggestion",
				"vendor", req.Vendor,
				"suggestion", req.LLMCategory,
				"error", err)
			return DecideDegraded(req.LLMCategory)
		}
		slog.Error("categorization failed, falling back to suggestion",
			"vendor", req.Vendor,
			"error", err)
		return DecideDegraded(req.LLMCategory)
	}

	return Decide(vote, req.LLMCategory)
}

// CorrectedVendor exposes the vendor pass for callers that persist the
// expense before categorizing it.
func (c *Categorizer) CorrectedVendor(vendor string) string {
	return c.corrector.CorrectVendor(vendor)
}

func (c *Categorizer) embed(ctx context.Context, text string) ([]float32, error) {
	var vector []float32
	err := common.WithRetry(ctx, func() error {
		var embedErr error
		vector, embedErr = c.embedder.Embed(ctx, text)
		return embedErr
	}, service.RetryOptions{
		MaxAttempts:  2,
		InitialDelay: 200 * time.Millisecond,
	})
	if err != nil {
		return nil, fmt.Errorf("embedding text: %w", err)
	}
	return vector, nil
}

func (c *Categorizer) query(ctx context.Context, vector []float32) ([]model.Neighbor, error) {
	neighbors, err := c.index.Query(ctx, index.MainPartition, vector, c.k)
	if err != nil {
		return nil, fmt.Errorf("querying index: %w", err)
	}
	return neighbors, nil
}
