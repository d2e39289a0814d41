package rag

import (
	"fmt"
	"math"
	"sort"
)

const (
	// DefaultTopK is the number of chunks retrieved per query when the caller
	// does not ask for a specific count.
	DefaultTopK = 3

	// DefaultExcludePremiumTables is the premium-table filter used by default
	// retrieval.
	DefaultExcludePremiumTables = true
)

// CosineSimilarity returns the cosine of the angle between a and b.
// It returns ErrDimensionMismatch when the lengths differ and exactly 0 when
// either vector has zero norm. Accumulation is done in float64 and the result
// is clamped to [-1, 1].
func CosineSimilarity(a, b []float32) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("rag: %w: %d vs %d", ErrDimensionMismatch, len(a), len(b))
	}

	var dot, normA, normB float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		normA += x * x
		normB += y * y
	}
	if normA == 0 || normB == 0 {
		return 0, nil
	}

	sim := dot / (math.Sqrt(normA) * math.Sqrt(normB))
	return math.Max(-1, math.Min(1, sim)), nil
}

// Rank scores every eligible chunk against query and returns at most topK
// results, highest similarity first. Chunks with equal similarity keep their
// input order. When excludePremiumTables is true, premium-table chunks are
// skipped before scoring. topK <= 0 yields an empty result.
func Rank(query []float32, chunks []Chunk, topK int, excludePremiumTables bool) ([]RankedChunk, error) {
	if topK <= 0 {
		return []RankedChunk{}, nil
	}

	ranked := make([]RankedChunk, 0, len(chunks))
	for _, c := range chunks {
		if excludePremiumTables && c.IsPremiumTable {
			continue
		}
		sim, err := CosineSimilarity(query, c.Embedding)
		if err != nil {
			return nil, fmt.Errorf("rag: rank chunk %q: %w", c.ID, err)
		}
		ranked = append(ranked, RankedChunk{
			ID:         c.ID,
			Section:    c.Section,
			Text:       c.Text,
			Similarity: sim,
		})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Similarity > ranked[j].Similarity
	})

	if topK < len(ranked) {
		ranked = ranked[:topK]
	}
	return ranked, nil
}
