// Package embed turns canonical expense text into fixed-dimension vectors.
package embed

import (
	"fmt"
	"strings"

	"github.com/ledgervoice/ledgervoice/internal/common"
	"github.com/ledgervoice/ledgervoice/internal/service"
)

// Config holds embedding provider settings. Validation happens here, at
// construction time: a missing key or model is a startup failure, never a
// mid-request one.
type Config struct {
	Provider  string
	BaseURL   string
	APIKey    string
	Model     string
	Dimension int
}

// NewEmbedder creates the configured embedding provider.
func NewEmbedder(cfg Config) (service.Embedder, error) {
	if cfg.Model == "" {
		return nil, fmt.Errorf("%w: embedding.model", common.ErrMissingConfig)
	}
	if cfg.Dimension <= 0 {
		return nil, fmt.Errorf("%w: embedding.dimension must be positive", common.ErrInvalidConfig)
	}

	switch strings.ToLower(cfg.Provider) {
	case "", "openai":
		return newOpenAIEmbedder(cfg)
	default:
		return nil, fmt.Errorf("%w: unsupported embedding provider %q", common.ErrInvalidConfig, cfg.Provider)
	}
}
