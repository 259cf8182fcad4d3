package course

import (
	"errors"
	"strings"
)

var (
	// ErrUnitNotFound indicates an update referenced a unit id that does not
	// exist in the tree.
	ErrUnitNotFound = errors.New("unit not found")
	// ErrLessonNotFound indicates an update referenced a lesson id that does
	// not exist in the tree.
	ErrLessonNotFound = errors.New("lesson not found")
	// ErrInvalidOrder indicates a reorder specification did not cover the
	// full tree or referenced unknown ids.
	ErrInvalidOrder = errors.New("invalid reorder specification")
	// ErrNotAssessment indicates assessment content was set on a non-assessment unit.
	ErrNotAssessment = errors.New("unit is not an assessment")
)

// ValidationErrors accumulates every problem found during a multi-step
// operation so callers can report them all at once.
type ValidationErrors []error

func (v ValidationErrors) Error() string {
	msgs := make([]string, 0, len(v))
	for _, err := range v {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}

func (v ValidationErrors) Unwrap() []error { return v }
