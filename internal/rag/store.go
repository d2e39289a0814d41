package rag

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"sync"
	"time"
)

// DefaultChunksPath is the well-known location of the embedded chunk file
// produced by the ingestion pipeline.
const DefaultChunksPath = "data/processed/embeddings.json"

// StoreConfig holds the settings for a FileStore.
type StoreConfig struct {
	// Path is the chunk file location. Defaults to DefaultChunksPath.
	Path string

	// Cache enables a read-through cache keyed by the file's modification
	// time and size. When false every Load re-reads and re-parses the file.
	Cache bool
}

// StoreConfigFromEnv resolves a StoreConfig from CHUNKS_PATH and CHUNKS_CACHE.
func StoreConfigFromEnv() *StoreConfig {
	path := os.Getenv("CHUNKS_PATH")
	if path == "" {
		path = DefaultChunksPath
	}
	return &StoreConfig{
		Path:  path,
		Cache: strings.EqualFold(os.Getenv("CHUNKS_CACHE"), "true"),
	}
}

// FileStore implements ChunkLoader over a JSON array of chunk records.
// It is safe for concurrent use.
type FileStore struct {
	// path is the chunk file location.
	path string

	// cache enables the modification-time cache.
	cache bool

	// mu guards the cached snapshot below.
	mu sync.Mutex
	// cached is the last parsed collection; shared read-only between callers.
	cached []Chunk
	// cachedMod and cachedSize identify the file version cached was parsed from.
	cachedMod  time.Time
	cachedSize int64
}

// NewFileStore constructs a FileStore from cfg. A nil cfg uses the defaults.
func NewFileStore(cfg *StoreConfig) *FileStore {
	if cfg == nil {
		cfg = &StoreConfig{}
	}
	path := cfg.Path
	if path == "" {
		path = DefaultChunksPath
	}
	return &FileStore{path: path, cache: cfg.Cache}
}

// Path returns the chunk file location this store reads.
func (s *FileStore) Path() string { return s.path }

// Load reads the whole chunk collection in storage order.
// It returns ErrStorageNotFound when the file is absent and ErrMalformedData
// when the content is not a consistent chunk collection.
func (s *FileStore) Load(ctx context.Context) ([]Chunk, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("rag: load chunks: %w", err)
	}

	info, err := os.Stat(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("rag: %w: %s", ErrStorageNotFound, s.path)
		}
		return nil, fmt.Errorf("rag: stat %s: %w", s.path, err)
	}

	if !s.cache {
		return s.read()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cached != nil && info.ModTime().Equal(s.cachedMod) && info.Size() == s.cachedSize {
		return s.cached, nil
	}

	chunks, err := s.read()
	if err != nil {
		return nil, err
	}
	s.cached = chunks
	s.cachedMod = info.ModTime()
	s.cachedSize = info.Size()
	return chunks, nil
}

// read loads and validates the chunk file without touching the cache.
func (s *FileStore) read() ([]Chunk, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("rag: %w: %s", ErrStorageNotFound, s.path)
		}
		return nil, fmt.Errorf("rag: read %s: %w", s.path, err)
	}
	return ParseChunks(data)
}

// ParseChunks decodes a JSON array of chunk records and validates the
// collection invariants: every record has an id and a non-empty embedding,
// embedding_dim matches the vector length, and all records share one
// dimension.
func ParseChunks(data []byte) ([]Chunk, error) {
	var chunks []Chunk
	if err := json.Unmarshal(data, &chunks); err != nil {
		return nil, fmt.Errorf("rag: %w: %w", ErrMalformedData, err)
	}
	if chunks == nil {
		// A literal "null" decodes without error but is not a collection.
		return nil, fmt.Errorf("rag: %w: expected a JSON array of chunks", ErrMalformedData)
	}

	dim := 0
	for i, c := range chunks {
		if c.ID == "" {
			return nil, fmt.Errorf("rag: %w: record %d has no chunk_id", ErrMalformedData, i)
		}
		if len(c.Embedding) == 0 {
			return nil, fmt.Errorf("rag: %w: chunk %q has no embedding", ErrMalformedData, c.ID)
		}
		if c.EmbeddingDim != len(c.Embedding) {
			return nil, fmt.Errorf("rag: %w: chunk %q declares embedding_dim %d but has %d values",
				ErrMalformedData, c.ID, c.EmbeddingDim, len(c.Embedding))
		}
		if i == 0 {
			dim = c.EmbeddingDim
		} else if c.EmbeddingDim != dim {
			return nil, fmt.Errorf("rag: %w: chunk %q has dimension %d, collection uses %d",
				ErrMalformedData, c.ID, c.EmbeddingDim, dim)
		}
	}
	return chunks, nil
}
