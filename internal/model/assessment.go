package model

// AnswerType is the structural shape a turn's answer must take
type AnswerType string

const (
	AnswerTypeText           AnswerType = "text"            // Free text
	AnswerTypeMultipleChoice AnswerType = "multiple_choice" // One selected option id
	AnswerTypeRanking        AnswerType = "ranking"         // Ordered item list

	// AnswerTypeComplete is never recorded; it signals that no further answers are required
	AnswerTypeComplete AnswerType = "complete"
)

// AnswerTypes lists the recordable answer types in a stable order
var AnswerTypes = []AnswerType{AnswerTypeMultipleChoice, AnswerTypeRanking, AnswerTypeText}

// Valid reports whether t is a recordable answer type
func (t AnswerType) Valid() bool {
	switch t {
	case AnswerTypeText, AnswerTypeMultipleChoice, AnswerTypeRanking:
		return true
	}
	return false
}

// SectionSummary is the terminal section marker reached after the last catalog section
const SectionSummary = "summary"

// AssessmentState is the per-session progression record
type AssessmentState struct {
	CurrentSection string             `json:"currentSection" bson:"currentSection"`
	SectionCounts  map[string]int     `json:"sectionCounts" bson:"sectionCounts"`
	TypeCounts     map[AnswerType]int `json:"typeCounts" bson:"typeCounts"`
	TotalAnswered  int                `json:"totalAnswered" bson:"totalAnswered"`
	LastAnswerType *AnswerType        `json:"lastAnswerType" bson:"lastAnswerType"` // null until the first answer
}

// Clone returns a deep copy of the state
func (s AssessmentState) Clone() AssessmentState {
	out := AssessmentState{
		CurrentSection: s.CurrentSection,
		SectionCounts:  make(map[string]int, len(s.SectionCounts)),
		TypeCounts:     make(map[AnswerType]int, len(s.TypeCounts)),
		TotalAnswered:  s.TotalAnswered,
	}
	for k, v := range s.SectionCounts {
		out.SectionCounts[k] = v
	}
	for k, v := range s.TypeCounts {
		out.TypeCounts[k] = v
	}
	if s.LastAnswerType != nil {
		t := *s.LastAnswerType
		out.LastAnswerType = &t
	}
	return out
}

// Option is a selectable choice presented with a multiple-choice question
type Option struct {
	ID    string `json:"id" bson:"id"`
	Label string `json:"label" bson:"label"`
}

// AnswerPayload is the type-specific content of an answer. The progression engine never inspects it.
type AnswerPayload struct {
	Text     string   `json:"text,omitempty" bson:"text,omitempty"`         // text
	OptionID string   `json:"optionId,omitempty" bson:"optionId,omitempty"` // multiple_choice
	Items    []string `json:"items,omitempty" bson:"items,omitempty"`       // ranking

	// Assistant content produced alongside the recorded answer
	Message  string   `json:"message,omitempty" bson:"message,omitempty"`
	Question string   `json:"question,omitempty" bson:"question,omitempty"`
	Options  []Option `json:"options,omitempty" bson:"options,omitempty"`
}

// Answer is one recorded turn
type Answer struct {
	Type    AnswerType    `json:"type" bson:"type"`
	Payload AnswerPayload `json:"payload" bson:"payload"`
}

// SectionProgress is the derived progress of one catalog section
type SectionProgress struct {
	Key       string  `json:"key"`
	Title     string  `json:"title"`
	Completed int     `json:"completed"`
	Required  int     `json:"required"`
	Progress  float64 `json:"progress"` // 0-1
}

// Progress is a read-only view computed from the canonical counts
type Progress struct {
	QuestionsCompleted int               `json:"questionsCompleted"`
	TotalQuestions     int               `json:"totalQuestions"`
	SectionKey         string            `json:"sectionKey"`
	SectionTitle       string            `json:"sectionTitle"`
	SectionProgress    float64           `json:"sectionProgress"` // 0-1
	PercentComplete    float64           `json:"percentComplete"` // 0-100
	Sections           []SectionProgress `json:"sections"`
}
