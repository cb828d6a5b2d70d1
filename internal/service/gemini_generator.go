package service

import (
	"careerchat/internal/config"
	"careerchat/internal/logger"
	"careerchat/internal/model"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"go.uber.org/zap"
	"google.golang.org/genai"
)

const systemPrompt = `You run a conversational career assessment.
Each turn you turn the user's latest reply into one structured answer and write the next assistant message.
Reply with JSON only. The "type" field must equal the required answer type you are given.
- text: put the user's reply in "text".
- multiple_choice: pick the option the user chose and put its id in "optionId"; include the "options" you offered.
- ranking: put the user's ordering, most preferred first, in "items".
Always write a short, friendly "message" and the next "question" for the user.`

// contentGenerator is the slice of the genai client the generator uses
type contentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// GeminiGenerator produces answers with Gemini structured output. Decoding is constrained
// to the required type and the result is validated before it is returned.
type GeminiGenerator struct {
	models      contentGenerator
	model       string
	timeout     time.Duration
	temperature float32
	logger      *zap.Logger
}

// NewGeminiGenerator creates a generator backed by the Gemini API
func NewGeminiGenerator(ctx context.Context, cfg config.AIConfig, logger *zap.Logger) (*GeminiGenerator, error) {
	if !cfg.IsEnabled() {
		return nil, fmt.Errorf("gemini API key is required")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create Gemini client: %w", err)
	}
	return newGeminiGenerator(client.Models, cfg, logger), nil
}

func newGeminiGenerator(models contentGenerator, cfg config.AIConfig, logger *zap.Logger) *GeminiGenerator {
	return &GeminiGenerator{
		models:      models,
		model:       cfg.Model,
		timeout:     cfg.Timeout,
		temperature: float32(cfg.Temperature),
		logger:      logger,
	}
}

func (g *GeminiGenerator) Name() string { return "gemini:" + g.model }

func (g *GeminiGenerator) Generate(ctx context.Context, req GenerationRequest) (*model.Answer, error) {
	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	temp := g.temperature
	cfg := &genai.GenerateContentConfig{
		Temperature:       &temp,
		SystemInstruction: &genai.Content{Parts: []*genai.Part{{Text: systemPrompt}}},
		ResponseMIMEType:  "application/json",
		ResponseSchema:    responseSchema(req.Required),
	}

	contents, err := buildContents(req)
	if err != nil {
		return nil, err
	}

	started := time.Now()
	resp, err := g.models.GenerateContent(ctx, g.model, contents, cfg)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("gemini generate: %w", err)
	}

	raw := strings.TrimSpace(resp.Text())
	g.logger.Debug("gemini answer",
		zap.String("session_id", req.SessionID),
		zap.String("required_type", string(req.Required)),
		zap.Int("attempt", req.Attempt),
		zap.Duration("took", time.Since(started)),
		zap.String("raw", logger.Truncate(raw, 300)))

	return parseTurnJSON([]byte(raw))
}

// responseSchema is the decoding constraint sent to Gemini: the type enum holds only the required type
func responseSchema(required model.AnswerType) *genai.Schema {
	str := &genai.Schema{Type: genai.TypeString}
	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"type":     {Type: genai.TypeString, Enum: []string{string(required)}},
			"text":     str,
			"optionId": str,
			"items":    {Type: genai.TypeArray, Items: str},
			"message":  str,
			"question": str,
			"options": {
				Type: genai.TypeArray,
				Items: &genai.Schema{
					Type:       genai.TypeObject,
					Properties: map[string]*genai.Schema{"id": str, "label": str},
					Required:   []string{"id", "label"},
				},
			},
		},
		Required: []string{"type", "message", payloadField(required)},
	}
}

func payloadField(t model.AnswerType) string {
	switch t {
	case model.AnswerTypeMultipleChoice:
		return "optionId"
	case model.AnswerTypeRanking:
		return "items"
	default:
		return "text"
	}
}

func buildContents(req GenerationRequest) ([]*genai.Content, error) {
	out := make([]*genai.Content, 0, len(req.History)*2+1)
	for _, e := range req.History {
		if e.Payload.Question != "" || e.Payload.Message != "" {
			out = append(out, &genai.Content{
				Role:  genai.RoleModel,
				Parts: []*genai.Part{{Text: strings.TrimSpace(e.Payload.Message + "\n" + e.Payload.Question)}},
			})
		}
		userText := e.Payload.Text
		if e.Type == model.AnswerTypeMultipleChoice {
			userText = e.Payload.OptionID
		} else if e.Type == model.AnswerTypeRanking {
			userText = strings.Join(e.Payload.Items, " > ")
		}
		out = append(out, &genai.Content{Role: genai.RoleUser, Parts: []*genai.Part{{Text: userText}}})
	}

	submission, err := json.Marshal(req.Submission.Payload)
	if err != nil {
		return nil, fmt.Errorf("encode submission: %w", err)
	}
	prompt := fmt.Sprintf("Section: %s (question %d)\nRequired answer type: %s\nUser reply: %s",
		req.SectionTitle, req.Index+1, req.Required, submission)
	if len(req.Persona) > 0 {
		prompt += "\nPersona: " + string(req.Persona)
	}
	out = append(out, &genai.Content{Role: genai.RoleUser, Parts: []*genai.Part{{Text: prompt}}})
	return out, nil
}

// turnSchema validates generator output. It accepts every answer type so that a wrong
// type reaches the coordinator as a contract violation rather than a parse failure.
const turnSchema = `{
  "type": "object",
  "required": ["type"],
  "properties": {
    "type": {"enum": ["text", "multiple_choice", "ranking"]},
    "text": {"type": "string"},
    "optionId": {"type": "string"},
    "items": {"type": "array", "items": {"type": "string"}},
    "message": {"type": "string"},
    "question": {"type": "string"},
    "options": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["id", "label"],
        "properties": {"id": {"type": "string"}, "label": {"type": "string"}}
      }
    }
  },
  "allOf": [
    {"if": {"properties": {"type": {"const": "text"}}}, "then": {"required": ["text"], "properties": {"text": {"minLength": 1}}}},
    {"if": {"properties": {"type": {"const": "multiple_choice"}}}, "then": {"required": ["optionId"], "properties": {"optionId": {"minLength": 1}}}},
    {"if": {"properties": {"type": {"const": "ranking"}}}, "then": {"required": ["items"], "properties": {"items": {"minItems": 1}}}}
  ]
}`

var (
	turnSchemaOnce     sync.Once
	turnSchemaCompiled *jsonschema.Schema
	turnSchemaErr      error
)

func compiledTurnSchema() (*jsonschema.Schema, error) {
	turnSchemaOnce.Do(func() {
		doc, err := jsonschema.UnmarshalJSON(strings.NewReader(turnSchema))
		if err != nil {
			turnSchemaErr = fmt.Errorf("parse turn schema: %w", err)
			return
		}
		c := jsonschema.NewCompiler()
		if err := c.AddResource("schema://turn.json", doc); err != nil {
			turnSchemaErr = fmt.Errorf("add turn schema: %w", err)
			return
		}
		turnSchemaCompiled, turnSchemaErr = c.Compile("schema://turn.json")
	})
	return turnSchemaCompiled, turnSchemaErr
}

// ErrInvalidGeneration wraps generator output that is not a well-formed answer
var ErrInvalidGeneration = errors.New("invalid generated answer")

// validateTurnJSON checks raw generator output against the turn schema
func validateTurnJSON(raw []byte) error {
	schema, err := compiledTurnSchema()
	if err != nil {
		return err
	}
	doc, err := jsonschema.UnmarshalJSON(strings.NewReader(string(raw)))
	if err != nil {
		return fmt.Errorf("%w: not JSON: %v", ErrInvalidGeneration, err)
	}
	if err := schema.Validate(doc); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidGeneration, err)
	}
	return nil
}

type turnJSON struct {
	Type model.AnswerType `json:"type"`
	model.AnswerPayload
}

func parseTurnJSON(raw []byte) (*model.Answer, error) {
	if err := validateTurnJSON(raw); err != nil {
		return nil, err
	}
	var t turnJSON
	if err := json.Unmarshal(raw, &t); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidGeneration, err)
	}
	return &model.Answer{Type: t.Type, Payload: t.AnswerPayload}, nil
}
