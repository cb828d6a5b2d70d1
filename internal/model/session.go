package model

import (
	"encoding/json"
	"time"
)

// Session is the full stored record for one assessment session.
// Assessment is owned by the progression engine; everything else is session plumbing.
type Session struct {
	ID         string          `json:"id"`
	Assessment AssessmentState `json:"assessment"`
	Persona    json.RawMessage `json:"persona,omitempty"`    // Opaque, written by the persona collaborator
	LastTurnID string          `json:"lastTurnId,omitempty"` // Idempotency key of the last applied turn
	Version    int64           `json:"version"`              // Incremented on every successful save
	CreatedAt  time.Time       `json:"createdAt"`
	UpdatedAt  time.Time       `json:"updatedAt"`
}

// Clone returns a deep copy of the session
func (s *Session) Clone() *Session {
	out := *s
	out.Assessment = s.Assessment.Clone()
	if s.Persona != nil {
		out.Persona = append(json.RawMessage(nil), s.Persona...)
	}
	return &out
}

// SubmitAnswerRequest is the client body for one turn
type SubmitAnswerRequest struct {
	Type         AnswerType    `json:"type"`
	Payload      AnswerPayload `json:"payload"`
	ClientTurnID string        `json:"clientTurnId,omitempty"`
}

// TurnResult is returned after a turn so the caller can prompt the next step without another round trip
type TurnResult struct {
	Answer    *Answer         `json:"answer,omitempty"` // nil when nothing was recorded
	State     AssessmentState `json:"state"`
	Next      AnswerType      `json:"next"`
	Progress  Progress        `json:"progress"`
	Complete  bool            `json:"complete"`
	Duplicate bool            `json:"duplicate,omitempty"` // Resubmission of an already applied turn
}

// SessionView is the read model for GET /sessions/{id}
type SessionView struct {
	SessionID string          `json:"sessionId"`
	State     AssessmentState `json:"state"`
	Next      AnswerType      `json:"next"`
	Progress  Progress        `json:"progress"`
	Persona   json.RawMessage `json:"persona,omitempty"`
}

// CreateSessionResponse is returned when a session is started
type CreateSessionResponse struct {
	SessionID string     `json:"sessionId"`
	Token     string     `json:"token"`
	Next      AnswerType `json:"next"`
	Progress  Progress   `json:"progress"`
}
