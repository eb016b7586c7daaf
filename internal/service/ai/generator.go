package ai

import (
	"context"
	"fmt"
	"strings"

	"github.com/zhouzirui/mock-interview/backend/internal/config"
	"github.com/zhouzirui/mock-interview/backend/internal/model/conversation"
)

// Generation parameters are fixed for every provider.
const (
	Temperature     float32 = 0.7
	TopP            float32 = 0.8
	TopK            float32 = 40
	MaxOutputTokens         = 300
)

// Provider names accepted by AI_PROVIDER.
const (
	ProviderGemini = "gemini"
	ProviderArk    = "ark"
)

// Generator answers question given the prior turns of a session.
type Generator interface {
	Generate(ctx context.Context, history []conversation.Turn, question string) (string, error)
}

// NewGenerator builds the generator named by cfg.Provider.
func NewGenerator(ctx context.Context, cfg config.AIConfig) (Generator, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Provider)) {
	case "", ProviderGemini:
		return NewGeminiGenerator(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
	case ProviderArk:
		chatModel, err := cfg.NewChatModel(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to create chat model: %w", err)
		}
		return NewChainGenerator(ctx, chatModel)
	default:
		return nil, fmt.Errorf("unknown ai provider %q", cfg.Provider)
	}
}
