package ai

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"

	"github.com/zhouzirui/mock-interview/backend/internal/model/conversation"
)

type fakeModels struct {
	reply    string
	err      error
	model    string
	contents []*genai.Content
	config   *genai.GenerateContentConfig
}

func (f *fakeModels) GenerateContent(_ context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	f.model, f.contents, f.config = model, contents, config
	if f.err != nil {
		return nil, f.err
	}
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{Content: genai.NewContentFromText(f.reply, genai.RoleModel)}},
	}, nil
}

func TestGeminiGeneratorBuildsMultiTurnRequest(t *testing.T) {
	fake := &fakeModels{reply: "My greatest strength is curiosity."}
	gen := newGeminiGenerator(fake, "")

	history := []conversation.Turn{
		conversation.UserTurn("You are Alex."),
		conversation.ModelTurn("I understand."),
	}
	answer, err := gen.Generate(context.Background(), history, "What is your greatest strength?")
	require.NoError(t, err)
	assert.Equal(t, "My greatest strength is curiosity.", answer)

	assert.Equal(t, DefaultGeminiModel, fake.model)
	require.Len(t, fake.contents, 3)
	assert.Equal(t, string(genai.RoleUser), fake.contents[0].Role)
	assert.Equal(t, string(genai.RoleModel), fake.contents[1].Role)
	assert.Equal(t, "What is your greatest strength?", fake.contents[2].Parts[0].Text)

	assert.InDelta(t, 0.7, *fake.config.Temperature, 1e-6)
	assert.InDelta(t, 0.8, *fake.config.TopP, 1e-6)
	assert.InDelta(t, 40, *fake.config.TopK, 1e-6)
	assert.EqualValues(t, 300, fake.config.MaxOutputTokens)
}

func TestGeminiGeneratorWrapsErrors(t *testing.T) {
	gen := newGeminiGenerator(&fakeModels{err: errors.New("503")}, "gemini-2.0-flash")

	_, err := gen.Generate(context.Background(), nil, "Why us?")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "gemini generate content")
}

func TestNewGeminiGeneratorRequiresKey(t *testing.T) {
	_, err := NewGeminiGenerator(context.Background(), "", "")
	require.Error(t, err)
}
