package ingestion

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/54b3r/policyai-go/internal/rag"
)

// Default file locations, relative to the working directory.
const (
	DefaultInputPath    = "data/processed/chunks.json"
	DefaultMetadataPath = "data/processed/chunks_metadata.json"
)

// previewLen is the number of characters kept in a metadata text preview.
const previewLen = 200

// ErrInvalidInput marks an unreadable or malformed chunker output file.
var ErrInvalidInput = errors.New("invalid chunk input")

// Metadata is the lightweight summary record written next to the embeddings.
type Metadata struct {
	ID           string `json:"chunk_id"`
	Section      string `json:"section"`
	TextPreview  string `json:"text_preview"`
	TokenCount   int    `json:"token_count"`
	EmbeddingDim int    `json:"embedding_dim"`
}

// LoadInput reads the chunker output at path. Every record needs a chunk_id.
func LoadInput(path string) ([]InputChunk, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("ingestion: read %s: %w", path, err)
	}

	var inputs []InputChunk
	if err := json.Unmarshal(data, &inputs); err != nil {
		return nil, fmt.Errorf("ingestion: %w: %s: %w", ErrInvalidInput, path, err)
	}
	if inputs == nil {
		return nil, fmt.Errorf("ingestion: %w: %s: expected a JSON array", ErrInvalidInput, path)
	}
	for i, in := range inputs {
		if in.ID == "" {
			return nil, fmt.Errorf("ingestion: %w: %s: record %d has no chunk_id", ErrInvalidInput, path, i)
		}
	}
	return inputs, nil
}

// BuildMetadata derives the summary records for chunks.
func BuildMetadata(chunks []rag.Chunk) []Metadata {
	out := make([]Metadata, 0, len(chunks))
	for _, c := range chunks {
		out = append(out, Metadata{
			ID:           c.ID,
			Section:      c.Section,
			TextPreview:  Preview(c.Text),
			TokenCount:   c.TokenCount,
			EmbeddingDim: c.EmbeddingDim,
		})
	}
	return out
}

// Preview returns the first 200 characters of text followed by "...".
func Preview(text string) string {
	r := []rune(text)
	if len(r) > previewLen {
		r = r[:previewLen]
	}
	return string(r) + "..."
}

// WriteJSON writes v as indented JSON to path via a temp file and rename, so
// readers never see a partial file.
func WriteJSON(path string, v any) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("ingestion: create %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("ingestion: create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := tmp.Chmod(0o644); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("ingestion: chmod temp file: %w", err)
	}

	enc := json.NewEncoder(tmp)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("ingestion: encode %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("ingestion: close temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("ingestion: write %s: %w", path, err)
	}
	return nil
}
