package models

import (
	"time"

	"gorm.io/datatypes"
)

// StudentAnswers holds the latest raw answers a student submitted per
// assessment. Answers are overwritten on resubmission, not versioned.
type StudentAnswers struct {
	ID        uint              `gorm:"primaryKey" json:"id"`
	StudentID uint              `gorm:"uniqueIndex;not null" json:"student_id"`
	Data      datatypes.JSONMap `gorm:"type:json" json:"data"`
	UpdatedOn time.Time         `gorm:"index" json:"updated_on"`
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`
}

// SetAnswer stores the latest answers for an assessment.
func (a *StudentAnswers) SetAnswer(assessmentID string, answers interface{}) {
	if a.Data == nil {
		a.Data = datatypes.JSONMap{}
	}
	a.Data[assessmentID] = answers
}
