package server

import (
	"context"
	"errors"
	"fmt"

	"github.com/54b3r/policyai-go/internal/rag"
)

// connectionChecker is satisfied by *answer.Service.
type connectionChecker interface {
	CheckConnection(ctx context.Context) bool
}

// EmbeddingPinger probes the embedding backend with a single short embed
// request. Generation is not probed because it consumes output tokens.
type EmbeddingPinger struct {
	checker connectionChecker
}

// NewEmbeddingPinger constructs an EmbeddingPinger around svc.
func NewEmbeddingPinger(svc connectionChecker) *EmbeddingPinger {
	return &EmbeddingPinger{checker: svc}
}

// Name returns the dependency label used in readiness responses.
func (p *EmbeddingPinger) Name() string { return "embedding" }

// Ping reports whether the embedding backend returned a usable vector.
func (p *EmbeddingPinger) Ping(ctx context.Context) error {
	if !p.checker.CheckConnection(ctx) {
		return errors.New("embedding backend did not return a vector")
	}
	return nil
}

// ChunkStorePinger checks that the chunk collection can be loaded and is
// not empty.
type ChunkStorePinger struct {
	loader rag.ChunkLoader
}

// NewChunkStorePinger constructs a ChunkStorePinger for loader.
func NewChunkStorePinger(loader rag.ChunkLoader) *ChunkStorePinger {
	return &ChunkStorePinger{loader: loader}
}

// Name returns the dependency label used in readiness responses.
func (p *ChunkStorePinger) Name() string { return "chunks" }

// Ping loads the collection and fails when it is unreadable or empty.
func (p *ChunkStorePinger) Ping(ctx context.Context) error {
	chunks, err := p.loader.Load(ctx)
	if err != nil {
		return fmt.Errorf("load failed: %w", err)
	}
	if len(chunks) == 0 {
		return errors.New("chunk collection is empty")
	}
	return nil
}
