package provider

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"github.com/54b3r/policyai-go/internal/budget"
	"github.com/54b3r/policyai-go/internal/logging"
)

// Generator adapts an eino chat model to the single-prompt generation call
// used by the answer service. The prompt is sent as one user message.
type Generator struct {
	chat             model.BaseChatModel
	name             string
	fixedTemperature bool
}

// NewGenerator validates cfg, builds the backend chat model and wraps it.
func NewGenerator(ctx context.Context, cfg *Config) (*Generator, error) {
	chat, err := New(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return &Generator{
		chat:             chat,
		name:             string(cfg.Backend) + "/" + cfg.ModelName(),
		fixedTemperature: cfg.fixedTemperature(),
	}, nil
}

// NewGeneratorFromModel wraps an already constructed chat model.
func NewGeneratorFromModel(chat model.BaseChatModel, name string) *Generator {
	return &Generator{chat: chat, name: name}
}

// Name returns "<backend>/<model>" for logs and diagnostics.
func (g *Generator) Name() string { return g.name }

// Generate sends prompt to the model and returns the response text.
func (g *Generator) Generate(ctx context.Context, prompt string, temperature float32) (string, error) {
	var opts []model.Option
	if !g.fixedTemperature {
		opts = append(opts, model.WithTemperature(temperature))
	}

	log := logging.FromContext(ctx)
	msgs := []*schema.Message{schema.UserMessage(prompt)}
	log.Debug("provider: generate",
		slog.String("model", g.name),
		slog.Int("estimated_prompt_tokens", budget.EstimateMessages(msgs)),
	)

	msg, err := g.chat.Generate(ctx, msgs, opts...)
	if err != nil {
		return "", fmt.Errorf("provider: generate with %s: %w", g.name, err)
	}
	if msg == nil {
		return "", nil
	}
	if msg.ResponseMeta != nil && msg.ResponseMeta.Usage != nil {
		log.Debug("provider: usage",
			slog.String("model", g.name),
			slog.Int("prompt_tokens", msg.ResponseMeta.Usage.PromptTokens),
			slog.Int("completion_tokens", msg.ResponseMeta.Usage.CompletionTokens),
		)
	}
	return msg.Content, nil
}
