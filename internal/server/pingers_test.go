package server

import (
	"context"
	"errors"
	"testing"

	"github.com/54b3r/policyai-go/internal/rag"
)

type fakeChecker struct{ ok bool }

func (f fakeChecker) CheckConnection(context.Context) bool { return f.ok }

type fakeLoader struct {
	chunks []rag.Chunk
	err    error
}

func (f fakeLoader) Load(context.Context) ([]rag.Chunk, error) { return f.chunks, f.err }

func TestEmbeddingPinger(t *testing.T) {
	t.Parallel()

	p := NewEmbeddingPinger(fakeChecker{ok: true})
	if p.Name() != "embedding" {
		t.Errorf("Name: got %q", p.Name())
	}
	if err := p.Ping(context.Background()); err != nil {
		t.Errorf("healthy: expected nil, got %v", err)
	}
	if err := NewEmbeddingPinger(fakeChecker{}).Ping(context.Background()); err == nil {
		t.Error("unhealthy: expected error")
	}
}

func TestChunkStorePinger(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name    string
		loader  fakeLoader
		wantErr error
		fails   bool
	}{
		{"loaded", fakeLoader{chunks: []rag.Chunk{{ID: "chunk_0000"}}}, nil, false},
		{"empty", fakeLoader{chunks: []rag.Chunk{}}, nil, true},
		{"missing file", fakeLoader{err: rag.ErrStorageNotFound}, rag.ErrStorageNotFound, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			err := NewChunkStorePinger(tc.loader).Ping(context.Background())
			if (err != nil) != tc.fails {
				t.Fatalf("Ping() error = %v, want failure %v", err, tc.fails)
			}
			if tc.wantErr != nil && !errors.Is(err, tc.wantErr) {
				t.Errorf("expected %v in chain, got %v", tc.wantErr, err)
			}
		})
	}
}
