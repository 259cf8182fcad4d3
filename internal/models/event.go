package models

import (
	"time"

	"gorm.io/datatypes"
)

// Event is an append-only record of a student-facing action, useful for
// tracking submission history and analytics.
type Event struct {
	ID          uint              `gorm:"primaryKey" json:"id"`
	ReferenceID string            `gorm:"size:64;uniqueIndex" json:"reference_id"`
	Namespace   string            `gorm:"size:128;index" json:"namespace"`
	Source      string            `gorm:"size:64;not null" json:"source"`
	UserID      string            `gorm:"size:128;index" json:"user_id"`
	Data        datatypes.JSONMap `gorm:"type:json" json:"data"`
	RecordedOn  time.Time         `gorm:"index" json:"recorded_on"`
}
