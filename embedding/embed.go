// Package embedding turns text into fixed-length vectors.
//
// Two strategies implement Embedder: APIEmbedder calls an external embedding
// endpoint, and Synthetic derives a deterministic hash-based vector locally.
// Provider combines them and never fails: when no API is configured, or the
// call fails, it returns the synthetic vector.
package embedding

import "context"

// DefaultDimension matches the vectors stored on existing documents.
const DefaultDimension = 1536

// Embedder converts text into a dense float32 vector.
type Embedder interface {
	// Embed returns the embedding vector for a single text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// Dimension returns the dimensionality of the output vectors.
	Dimension() int
}
