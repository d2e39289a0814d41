// Package answer orchestrates a single grounded policy answer: embed the
// question, load and rank the chunk collection, build the instruction prompt
// and call the generation model. Every step runs strictly after the previous
// one; a failure at any step fails the whole query and no partial answer is
// returned.
package answer

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/54b3r/policyai-go/internal/budget"
	"github.com/54b3r/policyai-go/internal/logging"
	"github.com/54b3r/policyai-go/internal/prompt"
	"github.com/54b3r/policyai-go/internal/rag"
)

// DefaultTemperature is the sampling temperature used for generation when the
// caller does not set one. A low value keeps answers factual and repeatable.
const DefaultTemperature float32 = 0.1

// probeText is embedded by CheckConnection.
const probeText = "test"

// Generator produces answer text for a fully rendered prompt.
type Generator interface {
	Generate(ctx context.Context, prompt string, temperature float32) (string, error)
}

// Config holds the collaborators and tuning for a Service.
type Config struct {
	// Embedder converts the question into a query vector. Required.
	Embedder rag.Embedder

	// Loader supplies the chunk collection on every query. Required.
	Loader rag.ChunkLoader

	// Generator produces the final answer from the prompt. Required.
	Generator Generator

	// Temperature is passed to the Generator. Zero uses DefaultTemperature.
	Temperature float32

	// DefaultTopK is used when Options.TopK is zero. Zero uses rag.DefaultTopK.
	DefaultTopK int

	// MaxPromptTokens is the estimated prompt size above which a warning is
	// logged. Zero uses budget.DefaultMaxPromptTokens.
	MaxPromptTokens int
}

// Options are the per-query knobs.
type Options struct {
	// TopK is the number of chunks to retrieve. Zero means the service
	// default; a negative value retrieves nothing.
	TopK int

	// Mode selects the instruction template.
	Mode prompt.Mode
}

// Source is one chunk the answer was grounded on.
type Source struct {
	ChunkID    string  `json:"chunk_id"`
	Section    string  `json:"section"`
	Similarity float64 `json:"similarity"`
}

// Result is a generated answer and the chunks that supported it, in ranking
// order.
type Result struct {
	Answer  string   `json:"answer"`
	Sources []Source `json:"sources"`
}

// Service answers policy questions. It holds no per-query state and is safe
// for concurrent use when its collaborators are.
type Service struct {
	embedder        rag.Embedder
	loader          rag.ChunkLoader
	generator       Generator
	temperature     float32
	defaultTopK     int
	maxPromptTokens int
}

// New constructs a Service from cfg.
func New(cfg *Config) (*Service, error) {
	if cfg == nil {
		return nil, fmt.Errorf("answer: config must not be nil")
	}
	if cfg.Embedder == nil {
		return nil, fmt.Errorf("answer: Embedder must not be nil")
	}
	if cfg.Loader == nil {
		return nil, fmt.Errorf("answer: Loader must not be nil")
	}
	if cfg.Generator == nil {
		return nil, fmt.Errorf("answer: Generator must not be nil")
	}

	temp := cfg.Temperature
	if temp == 0 {
		temp = DefaultTemperature
	}
	topK := cfg.DefaultTopK
	if topK <= 0 {
		topK = rag.DefaultTopK
	}
	maxTokens := cfg.MaxPromptTokens
	if maxTokens <= 0 {
		maxTokens = budget.DefaultMaxPromptTokens
	}

	return &Service{
		embedder:        cfg.Embedder,
		loader:          cfg.Loader,
		generator:       cfg.Generator,
		temperature:     temp,
		defaultTopK:     topK,
		maxPromptTokens: maxTokens,
	}, nil
}

// Answer runs the full retrieval and generation sequence for question.
// Storage and dimension errors from the rag package are returned wrapped so
// errors.Is still matches their sentinels.
func (s *Service) Answer(ctx context.Context, question string, opts Options) (*Result, error) {
	logger := logging.FromContext(ctx)
	start := time.Now()

	topK := opts.TopK
	if topK == 0 {
		topK = s.defaultTopK
	}
	mode := opts.Mode
	if mode == "" {
		mode = prompt.ModeStandard
	}

	vectors, err := s.embedder.Embed(ctx, []string{question})
	if err != nil {
		return nil, fmt.Errorf("answer: %w: %w", ErrEmbedding, err)
	}
	if len(vectors) == 0 || len(vectors[0]) == 0 {
		return nil, fmt.Errorf("answer: %w: empty vector returned", ErrEmbedding)
	}
	query := vectors[0]

	chunks, err := s.loader.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("answer: load chunks: %w", err)
	}

	ranked, err := rag.Rank(query, chunks, topK, rag.DefaultExcludePremiumTables)
	if err != nil {
		return nil, fmt.Errorf("answer: %w", err)
	}

	p := prompt.Build(question, ranked, mode)
	if tokens, over := budget.Exceeds(p, s.maxPromptTokens); over {
		logger.Warn("budget: prompt exceeds token budget",
			slog.Int("estimated_tokens", tokens),
			slog.Int("max_tokens", s.maxPromptTokens),
		)
	}

	text, err := s.generator.Generate(ctx, p, s.temperature)
	if err != nil {
		return nil, fmt.Errorf("answer: %w: %w", ErrGeneration, err)
	}
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("answer: %w: empty response", ErrGeneration)
	}

	sources := make([]Source, len(ranked))
	for i, r := range ranked {
		sources[i] = Source{ChunkID: r.ID, Section: r.Section, Similarity: r.Similarity}
	}

	logger.Debug("answer: completed",
		slog.Int("chunks", len(chunks)),
		slog.Int("sources", len(sources)),
		slog.String("mode", string(mode)),
		slog.Duration("duration", time.Since(start)),
	)

	return &Result{Answer: text, Sources: sources}, nil
}

// CheckConnection embeds a short probe string and reports whether the
// embedding API answered with a non-empty vector. Failures are logged and
// reported as false; it never returns an error.
func (s *Service) CheckConnection(ctx context.Context) (ok bool) {
	logger := logging.FromContext(ctx)
	defer func() {
		if r := recover(); r != nil {
			logger.Warn("answer: connection check panicked", slog.Any("panic", r))
			ok = false
		}
	}()

	vectors, err := s.embedder.Embed(ctx, []string{probeText})
	if err != nil {
		logger.Warn("answer: connection check failed", slog.Any("error", err))
		return false
	}
	if len(vectors) == 0 || len(vectors[0]) == 0 {
		logger.Warn("answer: connection check returned an empty vector")
		return false
	}
	return true
}
