// Package embedder provides implementations of the rag.Embedder interface for
// converting text into dense vector embeddings. OpenAI, Azure OpenAI and
// Ollama are called over plain HTTP; Gemini goes through the genai SDK.
//
// The embedding model used for questions must be the one that produced the
// stored chunk embeddings. A different model of the same dimension is not
// detected and silently degrades retrieval.
package embedder

import (
	"context"
	"os"
	"strconv"

	"github.com/54b3r/policyai-go/internal/rag"
)

// Default embedding models per backend.
const (
	defaultOllamaModel = "nomic-embed-text"
	defaultOpenAIModel = "text-embedding-3-small"
	defaultGeminiModel = "text-embedding-004"
)

// Settings is the resolved embedding configuration.
type Settings struct {
	Backend    string
	Model      string
	APIKey     string
	Endpoint   string
	APIVersion string
	Dimensions int
	TaskType   string
}

// SettingsFromEnv resolves embedding settings using cascading defaults that
// inherit from the chat provider configuration when embedding-specific
// overrides are not set.
//
// Resolution order:
//
//  1. EMBEDDING_PROVIDER, else MODEL_PROVIDER, else gemini
//  2. Per-backend credentials are inherited from the chat provider's env vars
//  3. EMBEDDING_MODEL overrides the default model for the resolved backend
//  4. EMBEDDING_API_KEY overrides the inherited API key
//  5. EMBEDDING_ENDPOINT overrides the inherited endpoint
//  6. EMBEDDING_DIMENSIONS requests a specific vector size (0 = model default)
//  7. EMBEDDING_TASK_TYPE sets the Gemini task type hint
func SettingsFromEnv() Settings {
	backend := os.Getenv("EMBEDDING_PROVIDER")
	if backend == "" {
		backend = getEnvOrDefault("MODEL_PROVIDER", "gemini")
	}

	s := Settings{
		Backend:    backend,
		APIKey:     os.Getenv("EMBEDDING_API_KEY"),
		Endpoint:   os.Getenv("EMBEDDING_ENDPOINT"),
		Dimensions: getEnvInt("EMBEDDING_DIMENSIONS", 0),
		TaskType:   os.Getenv("EMBEDDING_TASK_TYPE"),
	}

	switch backend {
	case "ollama":
		s.Model = getEnvOrDefault("EMBEDDING_MODEL", defaultOllamaModel)
		if s.Endpoint == "" {
			s.Endpoint = getEnvOrDefault("OLLAMA_HOST", "http://localhost:11434")
		}
	case "openai":
		s.Model = getEnvOrDefault("EMBEDDING_MODEL", defaultOpenAIModel)
		if s.APIKey == "" {
			s.APIKey = os.Getenv("OPENAI_API_KEY")
		}
		if s.Endpoint == "" {
			s.Endpoint = getEnvOrDefault("OPENAI_BASE_URL", "https://api.openai.com/v1")
		}
	case "azure":
		s.Model = getEnvOrDefault("EMBEDDING_MODEL", defaultOpenAIModel)
		if s.APIKey == "" {
			s.APIKey = os.Getenv("AZURE_OPENAI_API_KEY")
		}
		if s.Endpoint == "" {
			s.Endpoint = os.Getenv("AZURE_OPENAI_ENDPOINT")
		}
		s.APIVersion = getEnvOrDefault("AZURE_OPENAI_API_VERSION", "2024-02-01")
	case "gemini":
		s.Model = getEnvOrDefault("EMBEDDING_MODEL", defaultGeminiModel)
		if s.APIKey == "" {
			s.APIKey = getEnvOrDefault("GOOGLE_API_KEY", os.Getenv("GEMINI_API_KEY"))
		}
	default:
		s.Model = os.Getenv("EMBEDDING_MODEL")
	}
	return s
}

// NewFromEnv constructs a rag.Embedder from environment configuration.
func NewFromEnv(ctx context.Context) (rag.Embedder, error) {
	return New(ctx, SettingsFromEnv())
}

// New constructs a rag.Embedder from explicit settings.
func New(ctx context.Context, s Settings) (rag.Embedder, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}

	switch s.Backend {
	case "ollama":
		return NewOllamaEmbedder(&OllamaConfig{Host: s.Endpoint, Model: s.Model}), nil
	case "openai":
		return NewOpenAIEmbedder(&OpenAIConfig{
			BaseURL:    s.Endpoint,
			APIKey:     s.APIKey,
			Model:      s.Model,
			Dimensions: s.Dimensions,
		}), nil
	case "azure":
		return NewOpenAIEmbedder(&OpenAIConfig{
			BaseURL:    s.Endpoint + "/openai",
			APIKey:     s.APIKey,
			Model:      s.Model,
			Dimensions: s.Dimensions,
			Azure:      true,
			APIVersion: s.APIVersion,
		}), nil
	default:
		return NewGeminiEmbedder(ctx, &GeminiConfig{
			APIKey:     s.APIKey,
			Model:      s.Model,
			TaskType:   s.TaskType,
			Dimensions: s.Dimensions,
		})
	}
}

// getEnvOrDefault returns the value of the named environment variable, or
// fallback if the variable is unset or empty.
func getEnvOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// getEnvInt returns the integer value of the named environment variable, or
// fallback if the variable is unset, empty, or not parseable.
func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}
