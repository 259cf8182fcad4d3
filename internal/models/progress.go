package models

import (
	"time"

	"gorm.io/datatypes"
)

// StudentProgress stores per-student completion state for one course
// namespace. The value map is keyed by the progress tracker's composite
// keys (units, lessons, activity blocks, assessments).
type StudentProgress struct {
	ID        uint              `gorm:"primaryKey" json:"id"`
	Namespace string            `gorm:"size:128;uniqueIndex:idx_progress_ns_student;not null" json:"namespace"`
	StudentID uint              `gorm:"uniqueIndex:idx_progress_ns_student;not null" json:"student_id"`
	Value     datatypes.JSONMap `gorm:"type:json" json:"value"`
	UpdatedOn time.Time         `gorm:"index" json:"updated_on"`
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`
}
