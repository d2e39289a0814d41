// Package rag holds the retrieval engine: the pre-embedded chunk collection,
// the loader that reads it from static storage, and the cosine-similarity
// ranker that selects the top-k chunks for a query vector.
// The embedding backend is consumed through the Embedder interface so the
// engine never depends on a specific provider.
package rag

import (
	"context"
)

// Chunk is one pre-embedded passage of the policy document. Chunks are
// immutable once loaded; callers must not modify Embedding in place.
type Chunk struct {
	// ID is the stable chunk identifier (e.g. "chunk_0042").
	ID string `json:"chunk_id"`

	// Section is the human-readable source section label.
	Section string `json:"section"`

	// Text is the raw chunk body.
	Text string `json:"text"`

	// TokenCount is informational only; it is never used for ranking.
	TokenCount int `json:"token_count"`

	// Embedding is the precomputed vector for Text.
	Embedding []float32 `json:"embedding"`

	// EmbeddingDim must equal len(Embedding).
	EmbeddingDim int `json:"embedding_dim"`

	// IsPremiumTable marks tabular premium-rate chunks that are excluded from
	// default retrieval.
	IsPremiumTable bool `json:"is_premium_table"`

	// Priority is "low" for premium tables and "high" otherwise. Informational.
	Priority string `json:"priority,omitempty"`
}

// RankedChunk is a chunk scored against one query. It is produced fresh for
// every query and never persisted.
type RankedChunk struct {
	// ID is the identifier of the source chunk.
	ID string `json:"chunk_id"`

	// Section is the source section label.
	Section string `json:"section"`

	// Text is the chunk body.
	Text string `json:"text"`

	// Similarity is the cosine similarity to the query, in [-1, 1].
	Similarity float64 `json:"similarity"`
}

// Embedder converts text into dense vector embeddings.
// Implementations must be safe to call from multiple goroutines.
type Embedder interface {
	// Embed converts a batch of texts into their corresponding embeddings.
	// The returned slice is parallel to the input slice.
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// ChunkLoader reads the full chunk collection from storage.
// Implementations must be safe to call from multiple goroutines.
type ChunkLoader interface {
	// Load returns every chunk in storage order.
	Load(ctx context.Context) ([]Chunk, error)
}
