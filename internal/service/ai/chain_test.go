package ai

import (
	"context"
	"errors"
	"testing"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zhouzirui/mock-interview/backend/internal/model/conversation"
)

type fakeChatModel struct {
	reply    string
	err      error
	messages []*schema.Message
	options  *model.Options
}

func (f *fakeChatModel) Generate(_ context.Context, input []*schema.Message, opts ...model.Option) (*schema.Message, error) {
	f.messages = input
	f.options = model.GetCommonOptions(&model.Options{}, opts...)
	if f.err != nil {
		return nil, f.err
	}
	return schema.AssistantMessage(f.reply, nil), nil
}

func (f *fakeChatModel) Stream(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	msg, err := f.Generate(ctx, input, opts...)
	if err != nil {
		return nil, err
	}
	return schema.StreamReaderFromArray([]*schema.Message{msg}), nil
}

func TestChainGeneratorSendsHistoryAndFixedParams(t *testing.T) {
	fake := &fakeChatModel{reply: "I led a team of five engineers."}
	gen, err := NewChainGenerator(context.Background(), fake)
	require.NoError(t, err)

	history := []conversation.Turn{
		conversation.UserTurn("You are Alex."),
		conversation.ModelTurn("I understand."),
	}
	answer, err := gen.Generate(context.Background(), history, "Tell me about {leadership}")
	require.NoError(t, err)
	assert.Equal(t, "I led a team of five engineers.", answer)

	require.Len(t, fake.messages, 3)
	assert.Equal(t, schema.User, fake.messages[0].Role)
	assert.Equal(t, "You are Alex.", fake.messages[0].Content)
	assert.Equal(t, schema.Assistant, fake.messages[1].Role)
	assert.Equal(t, schema.User, fake.messages[2].Role)
	assert.Equal(t, "Tell me about {leadership}", fake.messages[2].Content)

	require.NotNil(t, fake.options.Temperature)
	assert.InDelta(t, 0.7, *fake.options.Temperature, 1e-6)
	require.NotNil(t, fake.options.TopP)
	assert.InDelta(t, 0.8, *fake.options.TopP, 1e-6)
	require.NotNil(t, fake.options.MaxTokens)
	assert.Equal(t, 300, *fake.options.MaxTokens)
}

func TestChainGeneratorPropagatesModelError(t *testing.T) {
	gen, err := NewChainGenerator(context.Background(), &fakeChatModel{err: errors.New("quota exceeded")})
	require.NoError(t, err)

	_, err = gen.Generate(context.Background(), nil, "Why us?")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "quota exceeded")
}
