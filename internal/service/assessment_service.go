package service

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"gorm.io/datatypes"

	"github.com/widya-lms/widya-core/internal/course"
	"github.com/widya-lms/widya-core/internal/models"
	"github.com/widya-lms/widya-core/internal/progress"
	"github.com/widya-lms/widya-core/internal/repository"
)

// ErrAssessmentNotFound indicates a submission named an assessment the
// course tree does not contain.
var ErrAssessmentNotFound = errors.New("assessment not found")

// SubmitRequest is one assessment submission.
type SubmitRequest struct {
	AssessmentKey string      `validate:"required"`
	Score         float64     `validate:"gte=0,lte=100"`
	Answers       interface{} `validate:"-"`
}

// SubmitResult reports the outcome of a submission.
type SubmitResult struct {
	AssessmentKey    string `json:"assessment_key"`
	Title            string `json:"title"`
	Score            int    `json:"score"`
	IsLastAssessment bool   `json:"is_last_assessment"`
	OverallScore     *int   `json:"overall_score,omitempty"`
}

// AssessmentService handles assessment submissions: latest answers and the
// monotonic best score land in one transaction, then the submission event
// and the progress counter are recorded.
type AssessmentService interface {
	Submit(ctx context.Context, c *course.Course, tracker *progress.Tracker, email string, req SubmitRequest) (SubmitResult, error)
}

type assessmentService struct {
	students  repository.StudentRepository
	events    repository.EventRepository
	validator *validator.Validate
	logger    zerolog.Logger
}

// NewAssessmentService constructs the submission service.
func NewAssessmentService(
	students repository.StudentRepository,
	events repository.EventRepository,
	validate *validator.Validate,
	logger zerolog.Logger,
) AssessmentService {
	return &assessmentService{
		students:  students,
		events:    events,
		validator: validate,
		logger:    logger.With().Str("component", "assessment_service").Logger(),
	}
}

func (s *assessmentService) Submit(ctx context.Context, c *course.Course, tracker *progress.Tracker, email string, req SubmitRequest) (SubmitResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return SubmitResult{}, err
	}

	unit, err := c.FindUnitByAssessmentKey(ctx, req.AssessmentKey)
	if err != nil {
		return SubmitResult{}, err
	}
	if unit == nil {
		s.logger.Error().Str("assessment", req.AssessmentKey).Msg("no such assessment")
		return SubmitResult{}, ErrAssessmentNotFound
	}

	namespace := c.AppContext().Namespace()
	student, err := s.students.GetEnrolledByEmail(ctx, namespace, email)
	if err != nil {
		return SubmitResult{}, err
	}

	score := int(math.Round(req.Score))

	err = s.students.UpdateStudentAndAnswers(ctx, student.ID, func(student *models.Student, answers *models.StudentAnswers) error {
		answers.SetAnswer(req.AssessmentKey, req.Answers)
		answers.UpdatedOn = time.Now().UTC()
		student.SetScore(req.AssessmentKey, score)
		return nil
	})
	if err != nil {
		return SubmitResult{}, err
	}

	// Useful for tracking multiple submissions and history.
	if err := s.events.Record(ctx, namespace, "submit-assessment", student.Email, datatypes.JSONMap{
		"type":   "assessment-" + req.AssessmentKey,
		"values": req.Answers,
	}); err != nil {
		s.logger.Warn().Err(err).Msg("failed to record submission event")
	}

	if err := tracker.PutAssessmentCompleted(ctx, &student, req.AssessmentKey); err != nil {
		return SubmitResult{}, err
	}

	// Reload: the transaction above changed the student's scores.
	student, err = s.students.GetByID(ctx, student.ID)
	if err != nil {
		return SubmitResult{}, err
	}

	overall, err := c.GetOverallScore(ctx, &student)
	if err != nil {
		return SubmitResult{}, err
	}
	isLast, err := c.IsLastAssessment(ctx, unit)
	if err != nil {
		return SubmitResult{}, err
	}

	best, _ := student.Score(req.AssessmentKey)
	return SubmitResult{
		AssessmentKey:    req.AssessmentKey,
		Title:            unit.Title,
		Score:            best,
		IsLastAssessment: isLast,
		OverallScore:     overall,
	}, nil
}
