// Package assessment holds the section catalog and the progression engine that
// decides which answer type a session needs next and records answers.
package assessment

import (
	"careerchat/internal/model"
	"fmt"
)

// TotalQuestions is the number of answers a complete assessment records
const TotalQuestions = 10

// Section is one catalog entry
type Section struct {
	Key           string
	Title         string
	RequiredCount int
	TypeSequence  []model.AnswerType // index within section -> required type
}

// Catalog is the immutable, ordered table of sections. Safe for concurrent use.
type Catalog struct {
	sections []Section
	index    map[string]int
	total    int
}

var defaultCatalog = MustCatalog(TotalQuestions, []Section{
	{
		Key:           "introduction",
		Title:         "Introduction",
		RequiredCount: 1,
		TypeSequence:  []model.AnswerType{model.AnswerTypeText},
	},
	{
		Key:           "interestExploration",
		Title:         "Interest Exploration",
		RequiredCount: 2,
		TypeSequence:  []model.AnswerType{model.AnswerTypeMultipleChoice, model.AnswerTypeMultipleChoice},
	},
	{
		Key:           "workStyle",
		Title:         "Work Style",
		RequiredCount: 2,
		TypeSequence:  []model.AnswerType{model.AnswerTypeMultipleChoice, model.AnswerTypeRanking},
	},
	{
		Key:           "technicalAptitude",
		Title:         "Technical Aptitude",
		RequiredCount: 2,
		TypeSequence:  []model.AnswerType{model.AnswerTypeMultipleChoice, model.AnswerTypeRanking},
	},
	{
		Key:           "careerValues",
		Title:         "Career Values",
		RequiredCount: 3,
		TypeSequence:  []model.AnswerType{model.AnswerTypeMultipleChoice, model.AnswerTypeMultipleChoice, model.AnswerTypeText},
	},
}...)

// DefaultCatalog returns the fixed ten-question career assessment catalog
func DefaultCatalog() *Catalog {
	return defaultCatalog
}

// NewCatalog validates the sections and builds a catalog.
// total is the expected sum of all required counts.
func NewCatalog(total int, sections ...Section) (*Catalog, error) {
	if len(sections) == 0 {
		return nil, fmt.Errorf("catalog has no sections")
	}

	c := &Catalog{
		sections: make([]Section, 0, len(sections)),
		index:    make(map[string]int, len(sections)),
	}
	for i, s := range sections {
		if s.Key == "" {
			return nil, fmt.Errorf("section %d has an empty key", i)
		}
		if s.Key == model.SectionSummary {
			return nil, fmt.Errorf("section key %q is reserved", s.Key)
		}
		if _, dup := c.index[s.Key]; dup {
			return nil, fmt.Errorf("duplicate section key %q", s.Key)
		}
		if s.RequiredCount <= 0 {
			return nil, fmt.Errorf("section %q: required count must be positive, got %d", s.Key, s.RequiredCount)
		}
		if len(s.TypeSequence) != s.RequiredCount {
			return nil, fmt.Errorf("section %q: type sequence has %d entries, required count is %d",
				s.Key, len(s.TypeSequence), s.RequiredCount)
		}
		for j, t := range s.TypeSequence {
			if !t.Valid() {
				return nil, fmt.Errorf("section %q: invalid answer type %q at index %d", s.Key, t, j)
			}
		}

		s.TypeSequence = append([]model.AnswerType(nil), s.TypeSequence...)
		c.index[s.Key] = i
		c.sections = append(c.sections, s)
		c.total += s.RequiredCount
	}

	if c.total != total {
		return nil, fmt.Errorf("catalog requires %d answers, expected %d", c.total, total)
	}
	return c, nil
}

// MustCatalog is NewCatalog that panics on an invalid table
func MustCatalog(total int, sections ...Section) *Catalog {
	c, err := NewCatalog(total, sections...)
	if err != nil {
		panic(err)
	}
	return c
}

// Sections returns a copy of the sections in order
func (c *Catalog) Sections() []Section {
	out := make([]Section, len(c.sections))
	for i, s := range c.sections {
		s.TypeSequence = append([]model.AnswerType(nil), s.TypeSequence...)
		out[i] = s
	}
	return out
}

// Section looks up a section by key
func (c *Catalog) Section(key string) (Section, bool) {
	i, ok := c.index[key]
	if !ok {
		return Section{}, false
	}
	return c.sections[i], true
}

// First returns the key of the first section
func (c *Catalog) First() string {
	return c.sections[0].Key
}

// TotalQuestions returns the sum of all section counts
func (c *Catalog) TotalQuestions() int {
	return c.total
}

// RequiredType returns the answer type required at index within section
func (c *Catalog) RequiredType(section string, index int) (model.AnswerType, error) {
	s, ok := c.Section(section)
	if !ok {
		return "", &UnknownSectionError{Section: section}
	}
	if index < 0 || index >= s.RequiredCount {
		return "", &OutOfRangeError{Section: section, Index: index, Count: s.RequiredCount}
	}
	return s.TypeSequence[index], nil
}

// IsLastIndex reports whether index is the final question of section
func (c *Catalog) IsLastIndex(section string, index int) bool {
	s, ok := c.Section(section)
	if !ok {
		return false
	}
	return index == s.RequiredCount-1
}

// NextSection returns the section after key in catalog order, or the summary marker after the last one.
// The summary marker maps to itself.
func (c *Catalog) NextSection(key string) (string, error) {
	if key == model.SectionSummary {
		return model.SectionSummary, nil
	}
	i, ok := c.index[key]
	if !ok {
		return "", &UnknownSectionError{Section: key}
	}
	if i+1 >= len(c.sections) {
		return model.SectionSummary, nil
	}
	return c.sections[i+1].Key, nil
}

// position returns the catalog index of key; summary sorts after every section
func (c *Catalog) position(key string) (int, bool) {
	if key == model.SectionSummary {
		return len(c.sections), true
	}
	i, ok := c.index[key]
	return i, ok
}
