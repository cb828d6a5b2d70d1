package service

import (
	"careerchat/internal/config"
	"careerchat/internal/model"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"google.golang.org/genai"
)

type fakeModels struct {
	reply    string
	err      error
	gotModel string
	gotCfg   *genai.GenerateContentConfig
	gotTurns []*genai.Content
}

func (f *fakeModels) GenerateContent(ctx context.Context, model string, contents []*genai.Content, cfg *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	f.gotModel = model
	f.gotCfg = cfg
	f.gotTurns = contents
	if f.err != nil {
		return nil, f.err
	}
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{Role: genai.RoleModel, Parts: []*genai.Part{{Text: f.reply}}},
		}},
	}, nil
}

func newFakeGemini(models *fakeModels) *GeminiGenerator {
	return newGeminiGenerator(models, config.AIConfig{Model: "gemini-test", Timeout: time.Second, Temperature: 0.2}, zap.NewNop())
}

func TestGeminiGenerator_ConstrainsType(t *testing.T) {
	models := &fakeModels{reply: `{"type":"multiple_choice","optionId":"b","message":"Nice","question":"Next?","options":[{"id":"a","label":"A"},{"id":"b","label":"B"}]}`}
	g := newFakeGemini(models)

	answer, err := g.Generate(context.Background(), GenerationRequest{
		SessionID:    "s1",
		Required:     model.AnswerTypeMultipleChoice,
		SectionKey:   "interestExploration",
		SectionTitle: "Interest Exploration",
		Submission:   model.SubmitAnswerRequest{Payload: model.AnswerPayload{Text: "the second one"}},
		History: []model.TranscriptEntry{
			{Sequence: 1, Type: model.AnswerTypeText, Payload: model.AnswerPayload{Text: "hello", Question: "Tell me about you"}},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, model.AnswerTypeMultipleChoice, answer.Type)
	assert.Equal(t, "b", answer.Payload.OptionID)
	assert.Len(t, answer.Payload.Options, 2)

	assert.Equal(t, "gemini-test", models.gotModel)
	require.NotNil(t, models.gotCfg.ResponseSchema)
	assert.Equal(t, []string{"multiple_choice"}, models.gotCfg.ResponseSchema.Properties["type"].Enum)
	assert.Contains(t, models.gotCfg.ResponseSchema.Required, "optionId")
	assert.Equal(t, "application/json", models.gotCfg.ResponseMIMEType)
	// model question, user reply, current prompt
	assert.Len(t, models.gotTurns, 3)
}

func TestGeminiGenerator_WrongTypeIsReturnedNotHidden(t *testing.T) {
	g := newFakeGemini(&fakeModels{reply: `{"type":"text","text":"free prose","message":"ok"}`})

	answer, err := g.Generate(context.Background(), GenerationRequest{Required: model.AnswerTypeRanking})
	require.NoError(t, err)
	assert.Equal(t, model.AnswerTypeText, answer.Type)
}

func TestGeminiGenerator_InvalidOutput(t *testing.T) {
	tests := []struct {
		name  string
		reply string
	}{
		{"not json", `I think the answer is B`},
		{"unknown type", `{"type":"essay","text":"x"}`},
		{"missing payload", `{"type":"ranking","message":"ok"}`},
		{"empty ranking", `{"type":"ranking","items":[]}`},
		{"option without label", `{"type":"multiple_choice","optionId":"a","options":[{"id":"a"}]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := newFakeGemini(&fakeModels{reply: tt.reply})
			_, err := g.Generate(context.Background(), GenerationRequest{Required: model.AnswerTypeRanking})
			require.ErrorIs(t, err, ErrInvalidGeneration)
		})
	}
}

func TestGeminiGenerator_UpstreamError(t *testing.T) {
	boom := errors.New("quota exceeded")
	g := newFakeGemini(&fakeModels{err: boom})
	_, err := g.Generate(context.Background(), GenerationRequest{Required: model.AnswerTypeText})
	require.ErrorIs(t, err, boom)
}

func TestGeminiGenerator_CancelledContext(t *testing.T) {
	g := newFakeGemini(&fakeModels{err: errors.New("request aborted")})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := g.Generate(ctx, GenerationRequest{Required: model.AnswerTypeText})
	require.ErrorIs(t, err, context.Canceled)
}

func TestNewGeminiGenerator_RequiresKey(t *testing.T) {
	_, err := NewGeminiGenerator(context.Background(), config.AIConfig{}, zap.NewNop())
	require.Error(t, err)
}

func TestPassthroughGenerator(t *testing.T) {
	var g PassthroughGenerator
	answer, err := g.Generate(context.Background(), GenerationRequest{
		Required:   model.AnswerTypeRanking,
		Submission: model.SubmitAnswerRequest{Payload: model.AnswerPayload{Items: []string{"b", "a"}}},
	})
	require.NoError(t, err)
	assert.Equal(t, model.AnswerTypeRanking, answer.Type)
	assert.Equal(t, []string{"b", "a"}, answer.Payload.Items)
}
