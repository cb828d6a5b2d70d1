package assessment

import (
	"careerchat/internal/model"
	"errors"
	"fmt"
)

// ErrAlreadyComplete is returned when an answer is applied after the summary section was reached
var ErrAlreadyComplete = errors.New("assessment already complete")

// OutOfRangeError means a section index exceeded the catalog. It indicates state corruption.
type OutOfRangeError struct {
	Section string
	Index   int
	Count   int
}

func (e *OutOfRangeError) Error() string {
	return fmt.Sprintf("section %q: question index %d out of range (count %d)", e.Section, e.Index, e.Count)
}

// UnknownSectionError means a state referenced a section key the catalog does not have
type UnknownSectionError struct {
	Section string
}

func (e *UnknownSectionError) Error() string {
	return fmt.Sprintf("unknown section %q", e.Section)
}

// TypeMismatchError means Apply was called with an answer of the wrong type for the current position
type TypeMismatchError struct {
	Section  string
	Required model.AnswerType
	Got      model.AnswerType
}

func (e *TypeMismatchError) Error() string {
	return fmt.Sprintf("section %q requires a %s answer, got %s", e.Section, e.Required, e.Got)
}
