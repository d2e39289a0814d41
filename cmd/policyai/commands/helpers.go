package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/54b3r/policyai-go/internal/answer"
	"github.com/54b3r/policyai-go/internal/embedder"
	"github.com/54b3r/policyai-go/internal/provider"
	"github.com/54b3r/policyai-go/internal/rag"
	"github.com/54b3r/policyai-go/internal/store"
)

// defaultAskTimeout bounds a single question when ASK_TIMEOUT is unset.
const defaultAskTimeout = 2 * time.Minute

// components bundles what the ask, serve and check commands need.
type components struct {
	service  *answer.Service
	loader   *rag.FileStore
	provider string
	model    string
}

// buildEmbedder validates the embedding settings and constructs the embedder.
func buildEmbedder(ctx context.Context, log *slog.Logger) (rag.Embedder, embedder.Settings, error) {
	settings := embedder.SettingsFromEnv()
	if err := embedder.Preflight(log, settings, os.Getenv("EMBEDDING_PROVIDER") != ""); err != nil {
		return nil, settings, err
	}
	emb, err := embedder.New(ctx, settings)
	if err != nil {
		return nil, settings, fmt.Errorf("failed to initialise embedder: %w", err)
	}
	log.Info("embedder initialised",
		slog.String("backend", settings.Backend),
		slog.String("model", settings.Model),
	)
	return emb, settings, nil
}

// buildComponents wires the embedder, chunk store, generator and answer
// service from the environment.
func buildComponents(ctx context.Context, log *slog.Logger) (*components, error) {
	emb, _, err := buildEmbedder(ctx, log)
	if err != nil {
		return nil, err
	}

	loader := rag.NewFileStore(rag.StoreConfigFromEnv())

	providerCfg := provider.ConfigFromEnv()
	gen, err := provider.NewGenerator(ctx, providerCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialise model provider: %w", err)
	}
	log.Info("provider initialised",
		slog.String("backend", string(providerCfg.Backend)),
		slog.String("model", providerCfg.ModelName()),
	)

	svc, err := answer.New(&answer.Config{
		Embedder:        emb,
		Loader:          loader,
		Generator:       gen,
		Temperature:     providerCfg.Tuning.Temperature,
		DefaultTopK:     getEnvInt("RETRIEVAL_TOP_K", rag.DefaultTopK),
		MaxPromptTokens: getEnvInt("MAX_PROMPT_TOKENS", 0),
	})
	if err != nil {
		return nil, err
	}

	return &components{
		service:  svc,
		loader:   loader,
		provider: string(providerCfg.Backend),
		model:    providerCfg.ModelName(),
	}, nil
}

// openHistory opens the query history store named by POLICYAI_HISTORY_DB.
// History is optional: failures are logged and history is disabled. The
// returned close function is always safe to call.
func openHistory(log *slog.Logger) (store.HistoryStore, func()) {
	noop := func() {}

	path, err := store.ResolveDBPath(os.Getenv("POLICYAI_HISTORY_DB"))
	if err != nil {
		log.Warn("history: could not resolve database path, disabling", slog.Any("error", err))
		return nil, noop
	}
	if path == "" {
		log.Info("history: disabled via POLICYAI_HISTORY_DB=disabled")
		return nil, noop
	}

	hs, err := store.Open(path)
	if err != nil {
		log.Warn("history: failed to open store, disabling", slog.Any("error", err))
		return nil, noop
	}
	log.Debug("history: store opened", slog.String("path", path))
	return hs, func() { _ = hs.Close() }
}

// askTimeout reads ASK_TIMEOUT as a Go duration.
func askTimeout() time.Duration {
	raw := os.Getenv("ASK_TIMEOUT")
	if raw == "" {
		return defaultAskTimeout
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		slog.Warn("invalid ASK_TIMEOUT, using default", slog.String("value", raw))
		return defaultAskTimeout
	}
	return d
}

// getEnvInt returns the env var parsed as int, or fallback.
func getEnvInt(key string, fallback int) int {
	if v, err := strconv.Atoi(strings.TrimSpace(os.Getenv(key))); err == nil {
		return v
	}
	return fallback
}

// getEnvFloat returns the env var parsed as float64, or fallback.
func getEnvFloat(key string, fallback float64) float64 {
	if v, err := strconv.ParseFloat(strings.TrimSpace(os.Getenv(key)), 64); err == nil {
		return v
	}
	return fallback
}
