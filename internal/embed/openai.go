package embed

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/ledgervoice/ledgervoice/internal/common"
)

const defaultOpenAIBaseURL = "https://api.openai.com/v1"

// openAIEmbedder calls an OpenAI-compatible /embeddings endpoint. For a fixed
// model the output is deterministic, so the same canonical text always maps
// to the same vector.
type openAIEmbedder struct {
	client    *http.Client
	baseURL   string
	apiKey    string
	model     string
	dimension int
}

type embedRequest struct {
	Model string `json:"model"`
	Input string `json:"input"`
}

type embedResponse struct {
	Data []struct {
		Embedding []float32 `json:"embedding"`
	} `json:"data"`
}

func newOpenAIEmbedder(cfg Config) (*openAIEmbedder, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%w: embedding.api_key", common.ErrMissingConfig)
	}

	baseURL := strings.TrimSpace(cfg.BaseURL)
	if baseURL == "" {
		baseURL = defaultOpenAIBaseURL
	}

	return &openAIEmbedder{
		client:    &http.Client{Timeout: 30 * time.Second},
		baseURL:   strings.TrimRight(baseURL, "/"),
		apiKey:    cfg.APIKey,
		model:     cfg.Model,
		dimension: cfg.Dimension,
	}, nil
}

// Embed converts text to a vector. Transport and service failures are wrapped
// in ErrEmbeddingUnavailable so callers can degrade instead of failing.
func (e *openAIEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	body, err := json.Marshal(embedRequest{Model: e.model, Input: text})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal embed request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.baseURL+"/embeddings", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build embed request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+e.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrEmbeddingUnavailable, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("%w: %s: %s", common.ErrEmbeddingUnavailable,
			resp.Status, strings.TrimSpace(string(msg)))
	}

	var out embedResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("%w: malformed response: %v", common.ErrEmbeddingUnavailable, err)
	}
	if len(out.Data) == 0 {
		return nil, fmt.Errorf("%w: response has no embeddings", common.ErrEmbeddingUnavailable)
	}

	vector := out.Data[0].Embedding
	if len(vector) != e.dimension {
		return nil, fmt.Errorf("embedding dimension mismatch: expected %d, got %d",
			e.dimension, len(vector))
	}
	return vector, nil
}

// Dimension returns the fixed vector size for this model version.
func (e *openAIEmbedder) Dimension() int {
	return e.dimension
}

// ModelName returns the configured embedding model identifier.
func (e *openAIEmbedder) ModelName() string {
	return e.model
}
