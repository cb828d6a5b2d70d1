package service

import (
	"careerchat/internal/model"
	"context"
	"encoding/json"
	"fmt"
)

// GenerationRequest is everything a generator may use to produce one answer
type GenerationRequest struct {
	SessionID    string
	Required     model.AnswerType // hard constraint on the produced answer's type
	SectionKey   string
	SectionTitle string
	Index        int // 0-based position within the section
	Attempt      int // 1-based
	Submission   model.SubmitAnswerRequest
	History      []model.TranscriptEntry
	Persona      json.RawMessage
}

// Generator produces the structured answer for the current turn
type Generator interface {
	Generate(ctx context.Context, req GenerationRequest) (*model.Answer, error)
	Name() string
}

// GenerationContractError means the generator kept producing an answer of the wrong type
type GenerationContractError struct {
	SessionID string
	Required  model.AnswerType
	Got       model.AnswerType
	Attempts  int
	Err       error // last generator error, if the final attempt failed outright
}

func (e *GenerationContractError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("generator failed for session %s after %d attempts (required %s): %v",
			e.SessionID, e.Attempts, e.Required, e.Err)
	}
	return fmt.Sprintf("generator produced %q for session %s after %d attempts, required %q",
		e.Got, e.SessionID, e.Attempts, e.Required)
}

func (e *GenerationContractError) Unwrap() error {
	return e.Err
}

// PassthroughGenerator records the client's answer as submitted. Used when no AI backend is configured.
type PassthroughGenerator struct{}

func (PassthroughGenerator) Name() string { return "passthrough" }

func (PassthroughGenerator) Generate(ctx context.Context, req GenerationRequest) (*model.Answer, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	t := req.Submission.Type
	if t == "" {
		t = req.Required
	}
	return &model.Answer{Type: t, Payload: req.Submission.Payload}, nil
}
