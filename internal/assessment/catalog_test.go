package assessment

import (
	"careerchat/internal/model"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultCatalog_Table(t *testing.T) {
	c := DefaultCatalog()

	want := []struct {
		key   string
		types []model.AnswerType
	}{
		{"introduction", []model.AnswerType{model.AnswerTypeText}},
		{"interestExploration", []model.AnswerType{model.AnswerTypeMultipleChoice, model.AnswerTypeMultipleChoice}},
		{"workStyle", []model.AnswerType{model.AnswerTypeMultipleChoice, model.AnswerTypeRanking}},
		{"technicalAptitude", []model.AnswerType{model.AnswerTypeMultipleChoice, model.AnswerTypeRanking}},
		{"careerValues", []model.AnswerType{model.AnswerTypeMultipleChoice, model.AnswerTypeMultipleChoice, model.AnswerTypeText}},
	}

	sections := c.Sections()
	require.Len(t, sections, len(want))
	for i, w := range want {
		assert.Equal(t, w.key, sections[i].Key)
		assert.Equal(t, len(w.types), sections[i].RequiredCount)
		assert.Equal(t, w.types, sections[i].TypeSequence)
	}
	assert.Equal(t, 10, c.TotalQuestions())
	assert.Equal(t, "introduction", c.First())
}

func TestCatalog_RequiredType(t *testing.T) {
	c := DefaultCatalog()

	got, err := c.RequiredType("workStyle", 1)
	require.NoError(t, err)
	assert.Equal(t, model.AnswerTypeRanking, got)

	_, err = c.RequiredType("workStyle", 2)
	var oor *OutOfRangeError
	require.ErrorAs(t, err, &oor)
	assert.Equal(t, "workStyle", oor.Section)
	assert.Equal(t, 2, oor.Index)
	assert.Equal(t, 2, oor.Count)

	_, err = c.RequiredType("workStyle", -1)
	require.ErrorAs(t, err, &oor)

	_, err = c.RequiredType("hobbies", 0)
	var unknown *UnknownSectionError
	require.ErrorAs(t, err, &unknown)
}

func TestCatalog_IsLastIndex(t *testing.T) {
	c := DefaultCatalog()
	assert.True(t, c.IsLastIndex("introduction", 0))
	assert.False(t, c.IsLastIndex("careerValues", 1))
	assert.True(t, c.IsLastIndex("careerValues", 2))
	assert.False(t, c.IsLastIndex("nope", 0))
}

func TestCatalog_NextSectionOrder(t *testing.T) {
	c := DefaultCatalog()

	var order []string
	key := c.First()
	for key != model.SectionSummary {
		order = append(order, key)
		next, err := c.NextSection(key)
		require.NoError(t, err)
		key = next
	}
	assert.Equal(t, []string{"introduction", "interestExploration", "workStyle", "technicalAptitude", "careerValues"}, order)

	next, err := c.NextSection(model.SectionSummary)
	require.NoError(t, err)
	assert.Equal(t, model.SectionSummary, next)

	_, err = c.NextSection("bogus")
	require.Error(t, err)
}

func TestNewCatalog_Rejects(t *testing.T) {
	text := []model.AnswerType{model.AnswerTypeText}

	tests := []struct {
		name     string
		total    int
		sections []Section
	}{
		{"empty", 0, nil},
		{"wrong total", 2, []Section{{Key: "a", RequiredCount: 1, TypeSequence: text}}},
		{"count mismatch", 2, []Section{{Key: "a", RequiredCount: 2, TypeSequence: text}}},
		{"duplicate key", 2, []Section{
			{Key: "a", RequiredCount: 1, TypeSequence: text},
			{Key: "a", RequiredCount: 1, TypeSequence: text},
		}},
		{"reserved key", 1, []Section{{Key: model.SectionSummary, RequiredCount: 1, TypeSequence: text}}},
		{"invalid type", 1, []Section{{Key: "a", RequiredCount: 1, TypeSequence: []model.AnswerType{model.AnswerTypeComplete}}}},
		{"zero count", 0, []Section{{Key: "a"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewCatalog(tt.total, tt.sections...)
			require.Error(t, err)
		})
	}
}

func TestCatalog_SectionsReturnsCopy(t *testing.T) {
	c := DefaultCatalog()
	sections := c.Sections()
	sections[0].TypeSequence[0] = model.AnswerTypeRanking

	got, err := c.RequiredType("introduction", 0)
	require.NoError(t, err)
	assert.Equal(t, model.AnswerTypeText, got)
}
