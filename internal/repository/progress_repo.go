package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/widya-lms/widya-core/internal/models"
)

// ProgressRepository persists per-student progress records. It satisfies the
// progress tracker's Store interface.
type ProgressRepository interface {
	Load(ctx context.Context, namespace string, studentID uint) (*models.StudentProgress, error)
	Save(ctx context.Context, record *models.StudentProgress) error
}

type progressRepository struct {
	db *gorm.DB
}

// NewProgressRepository constructs a progress repository.
func NewProgressRepository(db *gorm.DB) ProgressRepository {
	return &progressRepository{db: db}
}

func (r *progressRepository) Load(ctx context.Context, namespace string, studentID uint) (*models.StudentProgress, error) {
	var record models.StudentProgress
	err := r.db.WithContext(ctx).
		Where("namespace = ? AND student_id = ?", namespace, studentID).
		First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &record, nil
}

func (r *progressRepository) Save(ctx context.Context, record *models.StudentProgress) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "namespace"}, {Name: "student_id"}},
			UpdateAll: true,
		}).
		Save(record).Error
}
