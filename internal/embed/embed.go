// Package embed provides text embedding generation and similarity computation.
package embed

import (
	"context"
	"math"
)

// Embedder generates vector embeddings from text.
type Embedder interface {
	// Available returns true if the embedding service is accessible.
	Available() bool
	// Embed generates a vector embedding for the given text.
	Embed(ctx context.Context, text string) ([]float32, error)
}

// BatchEmbedder extends Embedder with batch embedding support.
// Implementations can embed multiple texts in a single API call for efficiency.
// When EmbedBatch returns nil error, the result slice must have the same length
// as the input texts slice, with result[i] corresponding to texts[i].
type BatchEmbedder interface {
	Embedder
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

// CosineSimilarity computes similarity between two embeddings.
// Returns 1.0 for identical vectors, 0.0 for orthogonal vectors.
// Returns 0.0 if vectors have different lengths or either is zero-length.
func CosineSimilarity(a, b []float32) float32 {
	if len(a) != len(b) || len(a) == 0 {
		return 0.0
	}

	var dotProduct, normA, normB float64
	for i := range a {
		dotProduct += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	// Handle zero vectors
	if normA == 0 || normB == 0 {
		return 0.0
	}

	return float32(dotProduct / (math.Sqrt(normA) * math.Sqrt(normB)))
}

// MeanPool combines chunk embeddings into one vector by weighted average,
// then renormalizes to unit length. weights may be nil for a plain mean;
// otherwise it must be the same length as vecs. Vectors of mismatched
// dimension or an all-zero result pool to nil.
func MeanPool(vecs [][]float32, weights []float64) []float32 {
	if len(vecs) == 0 {
		return nil
	}
	dim := len(vecs[0])
	if dim == 0 {
		return nil
	}
	if weights != nil && len(weights) != len(vecs) {
		weights = nil
	}

	acc := make([]float64, dim)
	var wsum float64
	for i, v := range vecs {
		if len(v) != dim {
			return nil
		}
		w := 1.0
		if weights != nil {
			w = weights[i]
			if w <= 0 {
				continue
			}
		}
		wsum += w
		for j, x := range v {
			acc[j] += w * float64(x)
		}
	}
	if wsum == 0 {
		return nil
	}

	pooled := make([]float32, dim)
	for j := range acc {
		pooled[j] = float32(acc[j] / wsum)
	}
	return Normalize(pooled)
}

// Normalize scales v to unit length. Zero vectors return nil.
func Normalize(v []float32) []float32 {
	var norm float64
	for _, x := range v {
		norm += float64(x) * float64(x)
	}
	if norm == 0 {
		return nil
	}
	norm = math.Sqrt(norm)

	out := make([]float32, len(v))
	for i, x := range v {
		out[i] = float32(float64(x) / norm)
	}
	return out
}
