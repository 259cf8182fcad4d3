package models

import (
	"time"

	"gorm.io/datatypes"
)

// Student represents a learner enrolled in a single course namespace.
type Student struct {
	ID         uint              `gorm:"primaryKey" json:"id"`
	Namespace  string            `gorm:"size:128;uniqueIndex:idx_student_ns_email;not null" json:"namespace"`
	Email      string            `gorm:"size:255;uniqueIndex:idx_student_ns_email;not null" json:"email"`
	UserID     string            `gorm:"size:128;index" json:"user_id"`
	Name       string            `gorm:"size:255;not null" json:"name"`
	IsEnrolled bool              `gorm:"index;default:true" json:"is_enrolled"`
	Scores     datatypes.JSONMap `gorm:"type:json" json:"scores"`
	EnrolledOn time.Time         `gorm:"index" json:"enrolled_on"`
	CreatedAt  time.Time         `json:"created_at"`
	UpdatedAt  time.Time         `json:"updated_at"`
}

// Score returns the recorded best score for an assessment, if any.
func (s *Student) Score(assessmentID string) (int, bool) {
	if s.Scores == nil {
		return 0, false
	}
	raw, ok := s.Scores[assessmentID]
	if !ok {
		return 0, false
	}
	switch v := raw.(type) {
	case float64:
		return int(v), true
	case int:
		return v, true
	default:
		return 0, false
	}
}

// SetScore records a score for an assessment, keeping only the best ever seen.
func (s *Student) SetScore(assessmentID string, score int) {
	if s.Scores == nil {
		s.Scores = datatypes.JSONMap{}
	}
	if existing, ok := s.Score(assessmentID); ok && existing >= score {
		return
	}
	s.Scores[assessmentID] = score
}
