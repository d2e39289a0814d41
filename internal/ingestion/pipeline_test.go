package ingestion

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/54b3r/policyai-go/internal/rag"
)

// scriptedEmbedder returns a vector derived from the text length and fails
// for texts listed in failFor.
type scriptedEmbedder struct {
	mu      sync.Mutex
	dim     int
	failFor map[string]bool
	dimFor  map[string]int
	calls   []string
}

func (e *scriptedEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.calls = append(e.calls, texts...)

	out := make([][]float32, len(texts))
	for i, t := range texts {
		if e.failFor[t] {
			return nil, errors.New("quota exceeded")
		}
		dim := e.dim
		if d, ok := e.dimFor[t]; ok {
			dim = d
		}
		v := make([]float32, dim)
		for j := range v {
			v[j] = float32(len(t) + j)
		}
		out[i] = v
	}
	return out, nil
}

func sampleInputs() []InputChunk {
	return []InputChunk{
		{ID: "chunk_0000", Section: "Definitions", Text: "Hospital means an institution...", TokenCount: 6},
		{ID: "chunk_0001", Section: "Premium Chart", Text: "PREMIUM TABLE 18-35 ...", TokenCount: 5, IsPremiumTable: true},
		{ID: "chunk_0002", Section: "Exclusions", Text: "Cosmetic surgery is excluded.", TokenCount: 5},
	}
}

func newTestPipeline(t *testing.T, e rag.Embedder, cfg *Config) *Pipeline {
	t.Helper()
	if cfg == nil {
		cfg = &Config{}
	}
	if cfg.RatePerSecond == 0 {
		cfg.RatePerSecond = -1
	}
	p, err := NewPipeline(e, cfg)
	require.NoError(t, err)
	return p
}

func TestNewPipeline_RequiresEmbedder(t *testing.T) {
	t.Parallel()

	_, err := NewPipeline(nil, nil)
	assert.Error(t, err)
}

func TestNewPipeline_DefaultRate(t *testing.T) {
	t.Parallel()

	cfg := &Config{}
	p, err := NewPipeline(&scriptedEmbedder{dim: 2}, cfg)
	require.NoError(t, err)
	assert.Equal(t, DefaultRatePerSecond, cfg.RatePerSecond)
	assert.InDelta(t, DefaultRatePerSecond, float64(p.limiter.Limit()), 1e-9)
}

func TestRun_SkipsPremiumTablesByDefault(t *testing.T) {
	t.Parallel()

	e := &scriptedEmbedder{dim: 4}
	var events []Event
	report, err := newTestPipeline(t, e, nil).Run(context.Background(), sampleInputs(), func(ev Event) {
		events = append(events, ev)
	})
	require.NoError(t, err)

	require.Len(t, report.Chunks, 2)
	assert.Equal(t, 1, report.Skipped)
	assert.Empty(t, report.Failed)
	assert.Equal(t, "chunk_0000", report.Chunks[0].ID)
	assert.Equal(t, "chunk_0002", report.Chunks[1].ID)
	assert.NotContains(t, e.calls, "PREMIUM TABLE 18-35 ...")

	for _, c := range report.Chunks {
		assert.Equal(t, 4, c.EmbeddingDim)
		assert.Len(t, c.Embedding, 4)
		assert.Equal(t, PriorityHigh, c.Priority)
		assert.False(t, c.IsPremiumTable)
	}

	require.Len(t, events, 3)
	assert.Equal(t, Event{Index: 2, Total: 3, ChunkID: "chunk_0001", Outcome: OutcomeSkipped}, events[1])
	assert.Equal(t, OutcomeEmbedded, events[2].Outcome)
}

func TestRun_IncludePremiumTables(t *testing.T) {
	t.Parallel()

	report, err := newTestPipeline(t, &scriptedEmbedder{dim: 3}, &Config{IncludePremiumTables: true}).
		Run(context.Background(), sampleInputs(), nil)
	require.NoError(t, err)

	require.Len(t, report.Chunks, 3)
	assert.Zero(t, report.Skipped)
	premium := report.Chunks[1]
	assert.True(t, premium.IsPremiumTable)
	assert.Equal(t, PriorityLow, premium.Priority)
}

func TestRun_FailedChunksAreSkipped(t *testing.T) {
	t.Parallel()

	e := &scriptedEmbedder{dim: 3, failFor: map[string]bool{"Cosmetic surgery is excluded.": true}}
	var failed []string
	report, err := newTestPipeline(t, e, nil).Run(context.Background(), sampleInputs(), func(ev Event) {
		if ev.Outcome == OutcomeFailed {
			failed = append(failed, ev.ChunkID)
		}
	})
	require.NoError(t, err)

	require.Len(t, report.Chunks, 1)
	assert.Equal(t, []string{"chunk_0002"}, report.Failed)
	assert.Equal(t, []string{"chunk_0002"}, failed)
}

func TestRun_DimensionDriftCountsAsFailure(t *testing.T) {
	t.Parallel()

	e := &scriptedEmbedder{dim: 3, dimFor: map[string]int{"Cosmetic surgery is excluded.": 5}}
	report, err := newTestPipeline(t, e, nil).Run(context.Background(), sampleInputs(), nil)
	require.NoError(t, err)

	require.Len(t, report.Chunks, 1)
	assert.Equal(t, []string{"chunk_0002"}, report.Failed)
}

func TestRun_AllFailed(t *testing.T) {
	t.Parallel()

	inputs := sampleInputs()
	fail := map[string]bool{}
	for _, in := range inputs {
		fail[in.Text] = true
	}
	report, err := newTestPipeline(t, &scriptedEmbedder{dim: 3, failFor: fail}, nil).Run(context.Background(), inputs, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNoEmbeddings)
	assert.Len(t, report.Failed, 2)
	assert.Equal(t, 1, report.Skipped)
}

func TestRun_EmptyInput(t *testing.T) {
	t.Parallel()

	_, err := newTestPipeline(t, &scriptedEmbedder{dim: 3}, nil).Run(context.Background(), nil, nil)
	assert.ErrorIs(t, err, ErrNoEmbeddings)
}

func TestRun_ContextCancelled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newTestPipeline(t, &scriptedEmbedder{dim: 3}, &Config{RatePerSecond: 1}).Run(ctx, sampleInputs(), nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRun_Paced(t *testing.T) {
	t.Parallel()

	inputs := []InputChunk{
		{ID: "a", Text: "a"},
		{ID: "b", Text: "b"},
		{ID: "c", Text: "c"},
	}
	start := time.Now()
	_, err := newTestPipeline(t, &scriptedEmbedder{dim: 2}, &Config{RatePerSecond: 20}).Run(context.Background(), inputs, nil)
	require.NoError(t, err)

	// First call is immediate, the next two wait 50ms each.
	assert.GreaterOrEqual(t, time.Since(start), 90*time.Millisecond)
}

func TestPreview(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "short...", Preview("short"))

	long := strings.Repeat("ä", 250)
	got := Preview(long)
	assert.True(t, strings.HasSuffix(got, "..."))
	assert.Equal(t, 203, len([]rune(got)))
}
