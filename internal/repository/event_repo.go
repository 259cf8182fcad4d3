package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/widya-lms/widya-core/internal/models"
)

// EventRepository appends student-facing action records.
type EventRepository interface {
	Record(ctx context.Context, namespace, source, userID string, data datatypes.JSONMap) error
	CountBySource(ctx context.Context, namespace, source string) (int64, error)
}

type eventRepository struct {
	db *gorm.DB
}

// NewEventRepository constructs an event repository.
func NewEventRepository(db *gorm.DB) EventRepository {
	return &eventRepository{db: db}
}

func (r *eventRepository) Record(ctx context.Context, namespace, source, userID string, data datatypes.JSONMap) error {
	event := models.Event{
		ReferenceID: uuid.NewString(),
		Namespace:   namespace,
		Source:      source,
		UserID:      userID,
		Data:        data,
		RecordedOn:  time.Now().UTC(),
	}
	return r.db.WithContext(ctx).Create(&event).Error
}

func (r *eventRepository) CountBySource(ctx context.Context, namespace, source string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Event{}).
		Where("namespace = ? AND source = ?", namespace, source).
		Count(&count).Error
	return count, err
}
