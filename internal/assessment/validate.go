package assessment

import (
	"careerchat/internal/model"
	"errors"
	"fmt"
)

// Invariant names reported by Validate
const (
	InvariantSectionTotal     = "section_total"     // sum(sectionCounts) == totalAnswered
	InvariantTypeTotal        = "type_total"        // sum(typeCounts) == totalAnswered
	InvariantSectionMax       = "section_max"       // 0 <= sectionCounts[s] <= requiredCount
	InvariantUnknownSection   = "unknown_section"   // every key is in the catalog
	InvariantSectionOrder     = "section_order"     // earlier sections full, later sections empty
	InvariantTypeDistribution = "type_distribution" // type counts match the catalog prefix
	InvariantAnswerType       = "answer_type"       // type keys are recordable types
)

// Violation is one broken invariant
type Violation struct {
	Invariant string `json:"invariant"`
	Detail    string `json:"detail"`
}

// ValidationResult lists every violated invariant of a state
type ValidationResult struct {
	Violations []Violation `json:"violations"`
}

// OK reports whether no invariant is violated
func (r ValidationResult) OK() bool {
	return len(r.Violations) == 0
}

// Err joins the violations into one error, nil when OK
func (r ValidationResult) Err() error {
	if r.OK() {
		return nil
	}
	errs := make([]error, len(r.Violations))
	for i, v := range r.Violations {
		errs[i] = fmt.Errorf("%s: %s", v.Invariant, v.Detail)
	}
	return errors.Join(errs...)
}

func (r *ValidationResult) add(invariant, format string, args ...any) {
	r.Violations = append(r.Violations, Violation{Invariant: invariant, Detail: fmt.Sprintf(format, args...)})
}

// Validate recomputes the cross-invariants of a state loaded from an external store
func (e *Engine) Validate(st model.AssessmentState) ValidationResult {
	var res ValidationResult

	sectionSum := 0
	for key, n := range st.SectionCounts {
		sectionSum += n
		s, ok := e.catalog.Section(key)
		if !ok {
			res.add(InvariantUnknownSection, "section count for unknown section %q", key)
			continue
		}
		if n < 0 || n > s.RequiredCount {
			res.add(InvariantSectionMax, "section %q count %d outside [0, %d]", key, n, s.RequiredCount)
		}
	}
	if sectionSum != st.TotalAnswered {
		res.add(InvariantSectionTotal, "section counts sum to %d, totalAnswered is %d", sectionSum, st.TotalAnswered)
	}

	typeSum := 0
	for t, n := range st.TypeCounts {
		typeSum += n
		if !t.Valid() {
			res.add(InvariantAnswerType, "type count for unrecordable type %q", t)
		}
		if n < 0 {
			res.add(InvariantTypeTotal, "type %q count %d is negative", t, n)
		}
	}
	if typeSum != st.TotalAnswered {
		res.add(InvariantTypeTotal, "type counts sum to %d, totalAnswered is %d", typeSum, st.TotalAnswered)
	}

	current, ok := e.catalog.position(st.CurrentSection)
	if !ok {
		res.add(InvariantUnknownSection, "current section %q is not in the catalog", st.CurrentSection)
		return res
	}

	expected := make(map[model.AnswerType]int, len(model.AnswerTypes))
	for i, s := range e.catalog.sections {
		n := st.SectionCounts[s.Key]
		switch {
		case i < current && n != s.RequiredCount:
			res.add(InvariantSectionOrder, "section %q precedes current section %q but has %d of %d answers",
				s.Key, st.CurrentSection, n, s.RequiredCount)
		case i > current && n != 0:
			res.add(InvariantSectionOrder, "section %q follows current section %q but has %d answers",
				s.Key, st.CurrentSection, n)
		case i == current && n >= s.RequiredCount:
			res.add(InvariantSectionOrder, "current section %q is already full (%d answers)", s.Key, n)
		}
		for j := 0; j < n && j < s.RequiredCount; j++ {
			expected[s.TypeSequence[j]]++
		}
	}

	for _, t := range model.AnswerTypes {
		if st.TypeCounts[t] != expected[t] {
			res.add(InvariantTypeDistribution, "type %q count %d, section counts imply %d", t, st.TypeCounts[t], expected[t])
		}
	}
	return res
}
