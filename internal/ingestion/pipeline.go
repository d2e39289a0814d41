// Package ingestion builds the pre-embedded chunk collection read by the
// retrieval engine. It takes the chunker output (chunk records without
// vectors), embeds each chunk through a rag.Embedder at a paced rate and
// produces the rag.Chunk records written to the embeddings file.
// The pipeline is invoked by the `policyai embed` CLI command.
package ingestion

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/time/rate"

	"github.com/54b3r/policyai-go/internal/logging"
	"github.com/54b3r/policyai-go/internal/rag"
)

// DefaultRatePerSecond paces embedding calls to two per second.
const DefaultRatePerSecond = 2.0

// Priority labels written to each chunk.
const (
	PriorityHigh = "high"
	PriorityLow  = "low"
)

// ErrNoEmbeddings is returned when not a single chunk could be embedded.
var ErrNoEmbeddings = errors.New("no chunks were embedded")

// InputChunk is one record of the chunker output.
type InputChunk struct {
	ID             string `json:"chunk_id"`
	Section        string `json:"section"`
	Text           string `json:"text"`
	TokenCount     int    `json:"token_count"`
	IsPremiumTable bool   `json:"is_premium_table"`
}

// Config holds the pipeline settings.
type Config struct {
	// RatePerSecond caps embedding calls. Zero means DefaultRatePerSecond;
	// a negative value disables pacing.
	RatePerSecond float64

	// IncludePremiumTables embeds premium-rate table chunks too. They are
	// skipped by default since retrieval excludes them.
	IncludePremiumTables bool
}

// Outcome is the per-chunk result reported to the progress callback.
type Outcome string

const (
	OutcomeEmbedded Outcome = "embedded"
	OutcomeSkipped  Outcome = "skipped"
	OutcomeFailed   Outcome = "failed"
)

// Event describes one processed input chunk.
type Event struct {
	// Index is 1-based.
	Index   int
	Total   int
	ChunkID string
	Outcome Outcome
}

// Report summarises a pipeline run.
type Report struct {
	// Chunks are the embedded records in input order.
	Chunks []rag.Chunk
	// Skipped counts premium-table chunks left out.
	Skipped int
	// Failed lists IDs of chunks whose embedding failed.
	Failed []string
}

// Pipeline embeds chunker output one chunk at a time.
type Pipeline struct {
	embedder rag.Embedder
	limiter  *rate.Limiter
	cfg      *Config
}

// NewPipeline constructs a Pipeline for the given embedder.
func NewPipeline(embedder rag.Embedder, cfg *Config) (*Pipeline, error) {
	if embedder == nil {
		return nil, fmt.Errorf("ingestion: embedder must not be nil")
	}
	if cfg == nil {
		cfg = &Config{}
	}
	if cfg.RatePerSecond == 0 {
		cfg.RatePerSecond = DefaultRatePerSecond
	}

	limit := rate.Inf
	if cfg.RatePerSecond > 0 {
		limit = rate.Limit(cfg.RatePerSecond)
	}

	return &Pipeline{
		embedder: embedder,
		limiter:  rate.NewLimiter(limit, 1),
		cfg:      cfg,
	}, nil
}

// Run embeds every input chunk. A chunk whose embedding fails is logged,
// recorded in Report.Failed and skipped. Run returns ErrNoEmbeddings when the
// output would be empty, and the context error if ctx ends mid-run.
func (p *Pipeline) Run(ctx context.Context, inputs []InputChunk, progress func(Event)) (*Report, error) {
	log := logging.FromContext(ctx)
	if progress == nil {
		progress = func(Event) {}
	}

	report := &Report{Chunks: make([]rag.Chunk, 0, len(inputs))}
	dim := 0

	for i, in := range inputs {
		ev := Event{Index: i + 1, Total: len(inputs), ChunkID: in.ID}

		if in.IsPremiumTable && !p.cfg.IncludePremiumTables {
			report.Skipped++
			ev.Outcome = OutcomeSkipped
			progress(ev)
			continue
		}

		if err := p.limiter.Wait(ctx); err != nil {
			return report, fmt.Errorf("ingestion: %w", err)
		}

		vec, err := p.embedOne(ctx, in.Text)
		if err == nil && dim != 0 && len(vec) != dim {
			err = fmt.Errorf("%w: got %d, want %d", rag.ErrDimensionMismatch, len(vec), dim)
		}
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return report, fmt.Errorf("ingestion: %w", ctxErr)
			}
			log.Warn("ingestion: failed to embed chunk",
				slog.String("chunk_id", in.ID),
				slog.Any("error", err),
			)
			report.Failed = append(report.Failed, in.ID)
			ev.Outcome = OutcomeFailed
			progress(ev)
			continue
		}
		dim = len(vec)

		report.Chunks = append(report.Chunks, toChunk(in, vec))
		ev.Outcome = OutcomeEmbedded
		progress(ev)
	}

	log.Info("ingestion: run complete",
		slog.Int("embedded", len(report.Chunks)),
		slog.Int("skipped", report.Skipped),
		slog.Int("failed", len(report.Failed)),
	)

	if len(report.Chunks) == 0 {
		return report, fmt.Errorf("ingestion: %w (%d failed, %d skipped)", ErrNoEmbeddings, len(report.Failed), report.Skipped)
	}
	return report, nil
}

// embedOne embeds a single text and rejects empty vectors.
func (p *Pipeline) embedOne(ctx context.Context, text string) ([]float32, error) {
	vecs, err := p.embedder.Embed(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	if len(vecs) == 0 || len(vecs[0]) == 0 {
		return nil, errors.New("embedder returned an empty vector")
	}
	return vecs[0], nil
}

// toChunk builds the stored record for an embedded input.
func toChunk(in InputChunk, vec []float32) rag.Chunk {
	priority := PriorityHigh
	if in.IsPremiumTable {
		priority = PriorityLow
	}
	return rag.Chunk{
		ID:             in.ID,
		Section:        in.Section,
		Text:           in.Text,
		TokenCount:     in.TokenCount,
		Embedding:      vec,
		EmbeddingDim:   len(vec),
		IsPremiumTable: in.IsPremiumTable,
		Priority:       priority,
	}
}
