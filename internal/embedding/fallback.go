package embedding

import (
	"context"

	"go.uber.org/zap"

	"github.com/kailas-cloud/reguwatch/internal/domain"
	"github.com/kailas-cloud/reguwatch/internal/metrics"
)

// FallbackEmbedder wraps a primary embedder and recovers every failure
// with the deterministic hash embedding. Embed never returns an error,
// and the output is always exactly `dimensions` wide: provider vectors
// of the wrong size are truncated or zero-padded.
type FallbackEmbedder struct {
	primary    domain.Embedder
	fallback   *HashEmbedder
	dimensions int
	logger     *zap.Logger
}

// NewFallbackEmbedder creates the recovery decorator. primary may be nil,
// in which case every call is served by the hash fallback.
func NewFallbackEmbedder(primary domain.Embedder, dimensions int, logger *zap.Logger) *FallbackEmbedder {
	return &FallbackEmbedder{
		primary:    primary,
		fallback:   NewHashEmbedder(dimensions),
		dimensions: dimensions,
		logger:     logger,
	}
}

// Embed implements domain.Embedder and never fails.
func (f *FallbackEmbedder) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	if f.primary != nil {
		result, err := f.primary.Embed(ctx, text)
		if err == nil && len(result.Embedding) > 0 {
			result.Embedding = clampDimensions(result.Embedding, f.dimensions)
			return result, nil
		}
		if err != nil {
			f.logger.Warn("embedding provider failed, using hash fallback", zap.Error(err))
		}
	}

	metrics.EmbeddingFallbacksTotal.Inc()
	return domain.EmbeddingResult{Embedding: f.fallback.Vector(text)}, nil
}

// HealthCheck delegates to the primary provider when it supports one.
func (f *FallbackEmbedder) HealthCheck(ctx context.Context) error {
	if hc, ok := f.primary.(domain.HealthChecker); ok {
		return hc.HealthCheck(ctx)
	}
	return nil
}

// clampDimensions truncates or zero-pads vec to exactly dim entries.
func clampDimensions(vec []float32, dim int) []float32 {
	if len(vec) == dim {
		return vec
	}
	out := make([]float32, dim)
	copy(out, vec)
	return out
}
