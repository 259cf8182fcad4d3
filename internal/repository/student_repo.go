package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/widya-lms/widya-core/internal/models"
)

var (
	// ErrStudentNotFound indicates no enrolled student matched the lookup.
	ErrStudentNotFound = errors.New("student not found")
	// ErrTransactionFailed indicates a student update transaction failed
	// after its automatic retry.
	ErrTransactionFailed = errors.New("student update transaction failed")
)

// StudentRepository persists students, their answers and the transactional
// scope spanning both.
type StudentRepository interface {
	Create(ctx context.Context, student *models.Student) error
	GetEnrolledByEmail(ctx context.Context, namespace, email string) (models.Student, error)
	GetByID(ctx context.Context, id uint) (models.Student, error)
	// UpdateStudentAndAnswers runs fn inside a transaction holding row locks
	// on the student and their answers record, so both updates land or
	// neither does. Transactions against different students never block each
	// other; transactions against the same student serialize. A conflicting
	// transaction is retried once before ErrTransactionFailed surfaces.
	UpdateStudentAndAnswers(ctx context.Context, studentID uint, fn func(student *models.Student, answers *models.StudentAnswers) error) error
}

type studentRepository struct {
	db *gorm.DB
}

// NewStudentRepository constructs a student repository.
func NewStudentRepository(db *gorm.DB) StudentRepository {
	return &studentRepository{db: db}
}

func (r *studentRepository) Create(ctx context.Context, student *models.Student) error {
	return r.db.WithContext(ctx).Create(student).Error
}

func (r *studentRepository) GetEnrolledByEmail(ctx context.Context, namespace, email string) (models.Student, error) {
	var student models.Student
	err := r.db.WithContext(ctx).
		Where("namespace = ? AND email = ? AND is_enrolled = ?", namespace, email, true).
		First(&student).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Student{}, ErrStudentNotFound
		}
		return models.Student{}, err
	}
	return student, nil
}

func (r *studentRepository) GetByID(ctx context.Context, id uint) (models.Student, error) {
	var student models.Student
	err := r.db.WithContext(ctx).First(&student, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Student{}, ErrStudentNotFound
		}
		return models.Student{}, err
	}
	return student, nil
}

func (r *studentRepository) UpdateStudentAndAnswers(ctx context.Context, studentID uint, fn func(student *models.Student, answers *models.StudentAnswers) error) error {
	var lastErr error
	for attempt := 0; attempt < 2; attempt++ {
		lastErr = r.runStudentTransaction(ctx, studentID, fn)
		if lastErr == nil {
			return nil
		}
		if errors.Is(lastErr, ErrStudentNotFound) {
			return lastErr
		}
	}
	return fmt.Errorf("%w: %v", ErrTransactionFailed, lastErr)
}

func (r *studentRepository) runStudentTransaction(ctx context.Context, studentID uint, fn func(student *models.Student, answers *models.StudentAnswers) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var student models.Student
		err := lockForUpdate(tx).First(&student, studentID).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrStudentNotFound
			}
			return err
		}

		var answers models.StudentAnswers
		err = lockForUpdate(tx).
			Where("student_id = ?", studentID).
			First(&answers).Error
		if err != nil {
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return err
			}
			answers = models.StudentAnswers{StudentID: studentID}
		}

		if err := fn(&student, &answers); err != nil {
			return err
		}

		if err := tx.Save(&student).Error; err != nil {
			return err
		}
		return tx.Save(&answers).Error
	})
}

// lockForUpdate row-locks the selected records so same-student transactions
// serialize. SQLite serializes writers on its own and rejects FOR UPDATE.
func lockForUpdate(tx *gorm.DB) *gorm.DB {
	if tx.Dialector.Name() == "sqlite" {
		return tx
	}
	return tx.Clauses(clause.Locking{Strength: "UPDATE"})
}
