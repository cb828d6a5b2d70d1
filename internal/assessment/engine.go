package assessment

import (
	"careerchat/internal/model"
)

// Engine is the progression state machine. It holds no per-session state:
// every operation takes a state value and returns a new one.
type Engine struct {
	catalog *Catalog
}

// NewEngine creates an engine over catalog
func NewEngine(catalog *Catalog) *Engine {
	return &Engine{catalog: catalog}
}

// Catalog returns the engine's catalog
func (e *Engine) Catalog() *Catalog {
	return e.catalog
}

// NewState returns the empty initial state: first section, every count present and zero
func (e *Engine) NewState() model.AssessmentState {
	st := model.AssessmentState{
		CurrentSection: e.catalog.First(),
		SectionCounts:  make(map[string]int, len(e.catalog.sections)),
		TypeCounts:     make(map[model.AnswerType]int, len(model.AnswerTypes)),
	}
	for _, s := range e.catalog.sections {
		st.SectionCounts[s.Key] = 0
	}
	for _, t := range model.AnswerTypes {
		st.TypeCounts[t] = 0
	}
	return st
}

// RequiredType returns the type the next answer must have, or AnswerTypeComplete
func (e *Engine) RequiredType(st model.AssessmentState) (model.AnswerType, error) {
	if st.CurrentSection == model.SectionSummary {
		return model.AnswerTypeComplete, nil
	}
	return e.catalog.RequiredType(st.CurrentSection, st.SectionCounts[st.CurrentSection])
}

// IsComplete reports whether the state reached the summary section
func (e *Engine) IsComplete(st model.AssessmentState) bool {
	return st.CurrentSection == model.SectionSummary
}

// Apply records answer and returns the next state. On error the input is returned untouched
// and no new state exists.
func (e *Engine) Apply(st model.AssessmentState, answer model.Answer) (model.AssessmentState, error) {
	required, err := e.RequiredType(st)
	if err != nil {
		return st, err
	}
	if required == model.AnswerTypeComplete {
		return st, ErrAlreadyComplete
	}
	if answer.Type != required {
		return st, &TypeMismatchError{Section: st.CurrentSection, Required: required, Got: answer.Type}
	}

	section, _ := e.catalog.Section(st.CurrentSection)
	next := st.Clone()
	if next.SectionCounts == nil {
		next.SectionCounts = make(map[string]int)
	}
	if next.TypeCounts == nil {
		next.TypeCounts = make(map[model.AnswerType]int)
	}

	next.SectionCounts[section.Key]++
	next.TypeCounts[answer.Type]++
	next.TotalAnswered++
	t := answer.Type
	next.LastAnswerType = &t

	if next.SectionCounts[section.Key] == section.RequiredCount {
		following, err := e.catalog.NextSection(section.Key)
		if err != nil {
			return st, err
		}
		next.CurrentSection = following
	}
	return next, nil
}

// Progress derives the progress view from the canonical counts
func (e *Engine) Progress(st model.AssessmentState) model.Progress {
	p := model.Progress{
		QuestionsCompleted: st.TotalAnswered,
		TotalQuestions:     e.catalog.total,
		SectionKey:         st.CurrentSection,
		Sections:           make([]model.SectionProgress, 0, len(e.catalog.sections)),
	}
	if p.TotalQuestions > 0 {
		p.PercentComplete = float64(st.TotalAnswered) / float64(p.TotalQuestions) * 100
	}

	for _, s := range e.catalog.sections {
		done := st.SectionCounts[s.Key]
		p.Sections = append(p.Sections, model.SectionProgress{
			Key:       s.Key,
			Title:     s.Title,
			Completed: done,
			Required:  s.RequiredCount,
			Progress:  float64(done) / float64(s.RequiredCount),
		})
	}

	if st.CurrentSection == model.SectionSummary {
		p.SectionTitle = "Summary"
		p.SectionProgress = 1
		return p
	}
	if s, ok := e.catalog.Section(st.CurrentSection); ok {
		p.SectionTitle = s.Title
		p.SectionProgress = float64(st.SectionCounts[s.Key]) / float64(s.RequiredCount)
	}
	return p
}
