package answer

import "errors"

var (
	// ErrEmbedding is returned when the embedding API fails or returns an
	// empty vector for the question.
	ErrEmbedding = errors.New("embedding failed")

	// ErrGeneration is returned when the generation API fails or returns
	// empty text.
	ErrGeneration = errors.New("generation failed")
)
