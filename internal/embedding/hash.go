package embedding

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"math"

	"github.com/kailas-cloud/reguwatch/internal/domain"
)

// HashEmbedder is the deterministic fallback embedding provider. It maps
// a SHA-256 digest of the text onto the first positions of the vector,
// zero-pads the rest and L2-normalizes. A pure function of the input:
// identical text yields bit-identical vectors across calls and restarts,
// which keeps the index internally consistent when the real provider is
// down.
type HashEmbedder struct {
	dimensions int
}

// NewHashEmbedder creates a fallback embedder producing vectors of the
// given dimension.
func NewHashEmbedder(dimensions int) *HashEmbedder {
	return &HashEmbedder{dimensions: dimensions}
}

// Embed implements domain.Embedder. It never fails.
func (h *HashEmbedder) Embed(_ context.Context, text string) (domain.EmbeddingResult, error) {
	return domain.EmbeddingResult{Embedding: h.Vector(text)}, nil
}

// Vector computes the deterministic embedding for text.
func (h *HashEmbedder) Vector(text string) []float32 {
	digest := sha256.Sum256([]byte(text))

	vec := make([]float32, h.dimensions)
	// Consume the digest as big-endian uint16 pairs; positions beyond
	// the digest stay zero.
	n := len(digest) / 2
	if n > h.dimensions {
		n = h.dimensions
	}
	for i := 0; i < n; i++ {
		vec[i] = float32(binary.BigEndian.Uint16(digest[i*2 : i*2+2]))
	}

	return l2Normalize(vec)
}

// Dimensions returns the output vector size.
func (h *HashEmbedder) Dimensions() int { return h.dimensions }

func l2Normalize(vec []float32) []float32 {
	var sum float64
	for _, v := range vec {
		sum += float64(v) * float64(v)
	}
	norm := math.Sqrt(sum) + 1e-8
	for i := range vec {
		vec[i] = float32(float64(vec[i]) / norm)
	}
	return vec
}
