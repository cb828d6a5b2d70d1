package model

import (
	"encoding/json"
	"time"
)

// TranscriptEntry is one recorded turn, persisted for history and the results page
type TranscriptEntry struct {
	ID         string        `json:"id" bson:"_id"`
	SessionID  string        `json:"sessionId" bson:"sessionId"`
	Sequence   int           `json:"sequence" bson:"sequence"` // 1-based, equals totalAnswered after the turn
	Section    string        `json:"section" bson:"section"`
	Type       AnswerType    `json:"type" bson:"type"`
	Payload    AnswerPayload `json:"payload" bson:"payload"`
	RecordedAt time.Time     `json:"recordedAt" bson:"recordedAt"`
}

// AssessmentResult is the summary stored once a session reaches the summary section
type AssessmentResult struct {
	SessionID     string             `json:"sessionId" bson:"sessionId"`
	SectionCounts map[string]int     `json:"sectionCounts" bson:"sectionCounts"`
	TypeCounts    map[AnswerType]int `json:"typeCounts" bson:"typeCounts"`
	TotalAnswered int                `json:"totalAnswered" bson:"totalAnswered"`
	Persona       json.RawMessage    `json:"persona,omitempty" bson:"persona,omitempty"`
	CompletedAt   time.Time          `json:"completedAt" bson:"completedAt"`
}
