package embedder

import (
	"fmt"
	"log/slog"
	"strings"
)

// knownChatModelPrefixes contains name fragments that identify chat/completion
// models which are not suitable for embedding.
var knownChatModelPrefixes = []string{
	"gpt-4",
	"gpt-3.5",
	"gpt-35",
	"o1",
	"o3",
	"gemini-1",
	"gemini-2",
	"llama3",
	"llama2",
	"llama-3",
	"llama-2",
	"mistral",
	"mixtral",
	"gemma",
	"phi-",
	"phi3",
	"claude",
	"command-r",
	"deepseek",
	"qwen",
	"doubao",
}

// looksLikeChatModel returns true when the model name resembles a known
// chat/completion model rather than a dedicated embedding model.
func looksLikeChatModel(model string) bool {
	lower := strings.ToLower(model)
	for _, prefix := range knownChatModelPrefixes {
		if strings.Contains(lower, prefix) {
			return true
		}
	}
	return false
}

// Validate returns an error naming the missing environment variable when the
// settings cannot produce a working embedder.
func (s Settings) Validate() error {
	switch s.Backend {
	case "ollama":
		if s.Endpoint == "" {
			return fmt.Errorf("embedder: ollama requires OLLAMA_HOST or EMBEDDING_ENDPOINT")
		}
	case "openai":
		if s.APIKey == "" {
			return fmt.Errorf("embedder: openai requires OPENAI_API_KEY or EMBEDDING_API_KEY")
		}
	case "azure":
		if s.APIKey == "" {
			return fmt.Errorf("embedder: azure requires AZURE_OPENAI_API_KEY or EMBEDDING_API_KEY")
		}
		if s.Endpoint == "" {
			return fmt.Errorf("embedder: azure requires AZURE_OPENAI_ENDPOINT or EMBEDDING_ENDPOINT")
		}
	case "gemini":
		if s.APIKey == "" {
			return fmt.Errorf("embedder: gemini requires GOOGLE_API_KEY, GEMINI_API_KEY or EMBEDDING_API_KEY")
		}
	case "ark":
		return fmt.Errorf("embedder: ark has no embedding backend; set EMBEDDING_PROVIDER to gemini, openai, azure or ollama")
	default:
		return fmt.Errorf("embedder: unknown backend %q (valid values: gemini, openai, azure, ollama)", s.Backend)
	}
	if s.Model == "" {
		return fmt.Errorf("embedder: EMBEDDING_MODEL must not be empty")
	}
	if s.Dimensions < 0 {
		return fmt.Errorf("embedder: EMBEDDING_DIMENSIONS must not be negative, got %d", s.Dimensions)
	}
	return nil
}

// Preflight validates the settings and logs warnings for configurations that
// work but are probably mistakes. Call it at startup so operators get a clear
// error before the first question is embedded.
func Preflight(log *slog.Logger, s Settings, explicitProvider bool) error {
	if err := s.Validate(); err != nil {
		return err
	}

	if !explicitProvider && s.Backend != "gemini" {
		log.Warn("embedder: EMBEDDING_PROVIDER is not set, inheriting MODEL_PROVIDER as embedding backend",
			slog.String("backend", s.Backend),
			slog.String("hint", "the chunk file must have been embedded with the same backend and model"),
		)
	}

	if looksLikeChatModel(s.Model) {
		log.Warn("embedder: EMBEDDING_MODEL looks like a chat model, not an embedding model",
			slog.String("model", s.Model),
			slog.String("hint", "use a dedicated embedding model e.g. text-embedding-004, nomic-embed-text, text-embedding-3-small"),
		)
	}
	return nil
}
