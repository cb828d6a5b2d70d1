package model

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleState() AssessmentState {
	last := AnswerTypeRanking
	return AssessmentState{
		CurrentSection: "technicalAptitude",
		SectionCounts: map[string]int{
			"introduction":        1,
			"interestExploration": 2,
			"workStyle":           2,
			"technicalAptitude":   0,
			"careerValues":        0,
		},
		TypeCounts: map[AnswerType]int{
			AnswerTypeMultipleChoice: 3,
			AnswerTypeRanking:        1,
			AnswerTypeText:           1,
		},
		TotalAnswered:  5,
		LastAnswerType: &last,
	}
}

func TestAssessmentState_JSONLayout(t *testing.T) {
	data, err := json.Marshal(sampleState())
	require.NoError(t, err)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.ElementsMatch(t,
		[]string{"currentSection", "sectionCounts", "typeCounts", "totalAnswered", "lastAnswerType"},
		keys(raw))
	assert.Equal(t, "ranking", raw["lastAnswerType"])

	empty := sampleState()
	empty.LastAnswerType = nil
	data, err = json.Marshal(empty)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"lastAnswerType":null`)
}

func TestSession_RoundTrip(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	for _, st := range []AssessmentState{sampleState(), {CurrentSection: "introduction", SectionCounts: map[string]int{}, TypeCounts: map[AnswerType]int{}}} {
		in := &Session{
			ID:         "s1",
			Assessment: st,
			Persona:    json.RawMessage(`{"archetype":"builder"}`),
			LastTurnID: "turn-4",
			Version:    7,
			CreatedAt:  now,
			UpdatedAt:  now,
		}

		data, err := json.Marshal(in)
		require.NoError(t, err)

		var out Session
		require.NoError(t, json.Unmarshal(data, &out))
		assert.Equal(t, in, &out)
	}
}

func TestAssessmentState_CloneIsDeep(t *testing.T) {
	st := sampleState()
	c := st.Clone()
	assert.Equal(t, st, c)

	c.SectionCounts["technicalAptitude"] = 1
	c.TypeCounts[AnswerTypeText] = 9
	*c.LastAnswerType = AnswerTypeText

	assert.Equal(t, 0, st.SectionCounts["technicalAptitude"])
	assert.Equal(t, 1, st.TypeCounts[AnswerTypeText])
	assert.Equal(t, AnswerTypeRanking, *st.LastAnswerType)
}

func TestSession_CloneCopiesPersona(t *testing.T) {
	s := &Session{ID: "s1", Assessment: sampleState(), Persona: json.RawMessage(`{"a":1}`)}
	c := s.Clone()
	c.Persona[2] = 'b'
	assert.Equal(t, `{"a":1}`, string(s.Persona))
}

func TestAnswerType_Valid(t *testing.T) {
	assert.True(t, AnswerTypeText.Valid())
	assert.True(t, AnswerTypeMultipleChoice.Valid())
	assert.True(t, AnswerTypeRanking.Valid())
	assert.False(t, AnswerTypeComplete.Valid())
	assert.False(t, AnswerType("").Valid())
}

func keys(m map[string]any) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}
