package embedder

import (
	"context"
	"errors"
	"strings"
	"testing"

	"google.golang.org/genai"
)

// fakeModels stands in for *genai.Models.
type fakeModels struct {
	resp *genai.EmbedContentResponse
	err  error

	model    string
	contents []*genai.Content
	config   *genai.EmbedContentConfig
}

func (f *fakeModels) EmbedContent(_ context.Context, model string, contents []*genai.Content, config *genai.EmbedContentConfig) (*genai.EmbedContentResponse, error) {
	f.model = model
	f.contents = contents
	f.config = config
	return f.resp, f.err
}

func TestGeminiEmbedder_Embed(t *testing.T) {
	t.Parallel()

	fake := &fakeModels{resp: &genai.EmbedContentResponse{
		Embeddings: []*genai.ContentEmbedding{
			{Values: []float32{0.1, 0.2}},
			{Values: []float32{0.3, 0.4}},
		},
	}}
	e := &GeminiEmbedder{models: fake, model: "text-embedding-004", taskType: "RETRIEVAL_QUERY", dimensions: 2}

	got, err := e.Embed(context.Background(), []string{"Is maternity covered?", "Cataract waiting period"})
	if err != nil {
		t.Fatalf("Embed() unexpected error: %v", err)
	}
	if len(got) != 2 || got[1][1] != 0.4 {
		t.Errorf("Embed() = %v", got)
	}
	if fake.model != "text-embedding-004" {
		t.Errorf("model = %q", fake.model)
	}
	if len(fake.contents) != 2 || fake.contents[0].Parts[0].Text != "Is maternity covered?" {
		t.Errorf("contents not passed through: %+v", fake.contents)
	}
	if fake.config.TaskType != "RETRIEVAL_QUERY" {
		t.Errorf("TaskType = %q", fake.config.TaskType)
	}
	if fake.config.OutputDimensionality == nil || *fake.config.OutputDimensionality != 2 {
		t.Errorf("OutputDimensionality = %v, want 2", fake.config.OutputDimensionality)
	}
}

func TestGeminiEmbedder_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		fake    *fakeModels
		wantErr string
	}{
		{"api error", &fakeModels{err: errors.New("API key not valid")}, "API key not valid"},
		{"nil response", &fakeModels{}, "expected 1 embeddings, got 0"},
		{"missing embedding", &fakeModels{resp: &genai.EmbedContentResponse{Embeddings: []*genai.ContentEmbedding{nil}}}, "missing"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			e := &GeminiEmbedder{models: tc.fake, model: "text-embedding-004"}
			_, err := e.Embed(context.Background(), []string{"q"})
			if err == nil || !strings.Contains(err.Error(), tc.wantErr) {
				t.Errorf("Embed() error = %v, want substring %q", err, tc.wantErr)
			}
		})
	}
}

func TestGeminiEmbedder_NoDimensionsLeavesDefault(t *testing.T) {
	t.Parallel()

	fake := &fakeModels{resp: &genai.EmbedContentResponse{Embeddings: []*genai.ContentEmbedding{{Values: []float32{1}}}}}
	e := &GeminiEmbedder{models: fake, model: "text-embedding-004"}
	if _, err := e.Embed(context.Background(), []string{"q"}); err != nil {
		t.Fatalf("Embed() unexpected error: %v", err)
	}
	if fake.config.OutputDimensionality != nil {
		t.Errorf("OutputDimensionality should be unset, got %d", *fake.config.OutputDimensionality)
	}
}
