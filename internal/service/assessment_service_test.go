package service

import (
	"context"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/widya-lms/widya-core/internal/course"
	"github.com/widya-lms/widya-core/internal/models"
	"github.com/widya-lms/widya-core/internal/progress"
	"github.com/widya-lms/widya-core/internal/repository"
	"github.com/widya-lms/widya-core/internal/sites"
)

type submitFixture struct {
	service AssessmentService
	course  *course.Course
	tracker *progress.Tracker
	events  repository.EventRepository
	first   *course.Unit
	last    *course.Unit
}

func setupSubmitFixture(t *testing.T, namespace string) *submitFixture {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.Student{},
		&models.StudentAnswers{},
		&models.StudentProgress{},
		&models.FileEntity{},
		&models.Event{},
	))

	registry, err := sites.NewRegistry("course:/"+namespace+"::"+namespace, sites.Dependencies{
		DB:     db,
		Logger: zerolog.Nop(),
	})
	require.NoError(t, err)

	c := course.New(registry.GetCourseForPrefix("/"+namespace), zerolog.Nop())
	ctx := context.Background()
	first, err := c.AddAssessment(ctx)
	require.NoError(t, err)
	first.Title = "Pre-course assessment"
	first.Weight = 10
	last, err := c.AddAssessment(ctx)
	require.NoError(t, err)
	last.Weight = 30

	students := repository.NewStudentRepository(db)
	require.NoError(t, students.Create(ctx, &models.Student{
		Namespace:  namespace,
		Email:      "alice@example.com",
		Name:       "Alice",
		IsEnrolled: true,
	}))

	events := repository.NewEventRepository(db)
	tracker := progress.NewTracker(c, repository.NewProgressRepository(db), zerolog.Nop())

	return &submitFixture{
		service: NewAssessmentService(students, events, validator.New(validator.WithRequiredStructEnabled()), zerolog.Nop()),
		course:  c,
		tracker: tracker,
		events:  events,
		first:   first,
		last:    last,
	}
}

func TestSubmitRecordsScoreProgressAndEvent(t *testing.T) {
	f := setupSubmitFixture(t, "ns_submit")
	ctx := context.Background()

	result, err := f.service.Submit(ctx, f.course, f.tracker, "alice@example.com", SubmitRequest{
		AssessmentKey: f.first.AssessmentKey(),
		Score:         65.4,
		Answers:       map[string]interface{}{"q1": "42"},
	})
	require.NoError(t, err)

	require.Equal(t, "Pre-course assessment", result.Title)
	require.Equal(t, 65, result.Score, "submitted scores are rounded to integers")
	require.False(t, result.IsLastAssessment)
	require.NotNil(t, result.OverallScore)
	require.Equal(t, (65*10)/40, *result.OverallScore)

	count, err := f.events.CountBySource(ctx, "ns_submit", "submit-assessment")
	require.NoError(t, err)
	require.Equal(t, int64(1), count)
}

func TestSubmitKeepsBestScore(t *testing.T) {
	f := setupSubmitFixture(t, "ns_submit_best")
	ctx := context.Background()
	key := f.first.AssessmentKey()

	_, err := f.service.Submit(ctx, f.course, f.tracker, "alice@example.com", SubmitRequest{AssessmentKey: key, Score: 80})
	require.NoError(t, err)

	result, err := f.service.Submit(ctx, f.course, f.tracker, "alice@example.com", SubmitRequest{AssessmentKey: key, Score: 50})
	require.NoError(t, err)
	require.Equal(t, 80, result.Score, "a worse resubmission never lowers the recorded best")

	count, err := f.events.CountBySource(ctx, "ns_submit_best", "submit-assessment")
	require.NoError(t, err)
	require.Equal(t, int64(2), count, "every submission is recorded, best or not")
}

func TestSubmitLastAssessmentReportsOverall(t *testing.T) {
	f := setupSubmitFixture(t, "ns_submit_last")
	ctx := context.Background()

	_, err := f.service.Submit(ctx, f.course, f.tracker, "alice@example.com", SubmitRequest{
		AssessmentKey: f.first.AssessmentKey(), Score: 65})
	require.NoError(t, err)

	result, err := f.service.Submit(ctx, f.course, f.tracker, "alice@example.com", SubmitRequest{
		AssessmentKey: f.last.AssessmentKey(), Score: 100})
	require.NoError(t, err)
	require.True(t, result.IsLastAssessment)
	require.NotNil(t, result.OverallScore)
	require.Equal(t, (65*10+100*30)/40, *result.OverallScore)
}

func TestSubmitUnknownAssessmentFails(t *testing.T) {
	f := setupSubmitFixture(t, "ns_submit_unknown")

	_, err := f.service.Submit(context.Background(), f.course, f.tracker, "alice@example.com", SubmitRequest{
		AssessmentKey: "no-such-assessment", Score: 50})
	require.ErrorIs(t, err, ErrAssessmentNotFound)
}

func TestSubmitValidatesRequest(t *testing.T) {
	f := setupSubmitFixture(t, "ns_submit_invalid")
	ctx := context.Background()

	_, err := f.service.Submit(ctx, f.course, f.tracker, "alice@example.com", SubmitRequest{
		AssessmentKey: f.first.AssessmentKey(), Score: 150})
	require.Error(t, err)

	_, err = f.service.Submit(ctx, f.course, f.tracker, "alice@example.com", SubmitRequest{Score: 50})
	require.Error(t, err)
}

func TestSubmitUnenrolledStudentFails(t *testing.T) {
	f := setupSubmitFixture(t, "ns_submit_stranger")

	_, err := f.service.Submit(context.Background(), f.course, f.tracker, "stranger@example.com", SubmitRequest{
		AssessmentKey: f.first.AssessmentKey(), Score: 50})
	require.ErrorIs(t, err, repository.ErrStudentNotFound)
}
