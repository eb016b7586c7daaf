package ai

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"

	"github.com/zhouzirui/mock-interview/backend/internal/model/conversation"
)

// ChainGenerator runs history and question through an eino prompt -> chat model chain.
type ChainGenerator struct {
	chain compose.Runnable[map[string]any, *schema.Message]
}

// NewChainGenerator compiles the chain around chatModel.
func NewChainGenerator(ctx context.Context, chatModel model.BaseChatModel) (*ChainGenerator, error) {
	template := prompt.FromMessages(
		schema.FString,
		schema.MessagesPlaceholder("history", true),
		schema.UserMessage("{query}"),
	)

	chain := compose.NewChain[map[string]any, *schema.Message]()
	chain.AppendChatTemplate(template)
	chain.AppendChatModel(chatModel)

	runnable, err := chain.Compile(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to compile chat chain: %w", err)
	}
	return &ChainGenerator{chain: runnable}, nil
}

// Generate implements Generator. Top-k has no common eino option and is left to the model default.
func (g *ChainGenerator) Generate(ctx context.Context, history []conversation.Turn, question string) (string, error) {
	input := map[string]any{
		"history": historyMessages(history),
		"query":   question,
	}

	resp, err := g.chain.Invoke(ctx, input, compose.WithChatModelOption(
		model.WithTemperature(Temperature),
		model.WithTopP(TopP),
		model.WithMaxTokens(MaxOutputTokens),
	))
	if err != nil {
		return "", fmt.Errorf("failed to run AI chain: %w", err)
	}
	return resp.Content, nil
}

func historyMessages(turns []conversation.Turn) []*schema.Message {
	history := make([]*schema.Message, 0, len(turns))
	for _, turn := range turns {
		switch turn.Role {
		case conversation.RoleUser:
			history = append(history, schema.UserMessage(turn.Text))
		case conversation.RoleModel:
			history = append(history, schema.AssistantMessage(turn.Text, nil))
		}
	}
	return history
}
