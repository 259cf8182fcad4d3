package progress

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/datatypes"

	"github.com/widya-lms/widya-core/internal/course"
	"github.com/widya-lms/widya-core/internal/models"
)

// Completion statuses. Transitions are monotonic; a tracked entity never
// regresses to an earlier status.
const (
	StatusNotStarted = 0
	StatusInProgress = 1
	StatusCompleted  = 2
)

// assessmentAttemptCap bounds the per-assessment submission counter.
const assessmentAttemptCap = 1000

// Store persists per-student progress records.
type Store interface {
	Load(ctx context.Context, namespace string, studentID uint) (*models.StudentProgress, error)
	Save(ctx context.Context, record *models.StudentProgress) error
}

// Tracker maintains a student's completion state machine over the course
// tree. Updates naming an unknown unit, lesson or block id are silently
// ignored: stale or malicious client-supplied ids are tolerated, not errors.
type Tracker struct {
	course *course.Course
	store  Store
	logger zerolog.Logger
}

// NewTracker builds a tracker over a course and a progress store.
func NewTracker(c *course.Course, store Store, logger zerolog.Logger) *Tracker {
	return &Tracker{
		course: c,
		store:  store,
		logger: logger.With().Str("component", "progress_tracker").Logger(),
	}
}

// GetOrCreateProgress returns the student's progress record, creating an
// empty one lazily on first access.
func (t *Tracker) GetOrCreateProgress(ctx context.Context, student *models.Student) (*models.StudentProgress, error) {
	record, err := t.store.Load(ctx, t.course.AppContext().Namespace(), student.ID)
	if err != nil {
		return nil, err
	}
	if record == nil {
		record = &models.StudentProgress{
			Namespace: t.course.AppContext().Namespace(),
			StudentID: student.ID,
			Value:     datatypes.JSONMap{},
		}
	}
	if record.Value == nil {
		record.Value = datatypes.JSONMap{}
	}
	return record, nil
}

// PutBlockCompleted marks one interactive block complete and rolls the
// lesson and unit statuses forward.
func (t *Tracker) PutBlockCompleted(ctx context.Context, student *models.Student, unitID, lessonID, blockID int) error {
	lesson, err := t.validLesson(ctx, unitID, lessonID)
	if err != nil || lesson == nil {
		return err
	}
	blocks, err := t.ActivityBlocks(ctx, lessonID)
	if err != nil {
		return err
	}
	if !containsBlock(blocks, blockID) {
		return nil
	}

	record, err := t.GetOrCreateProgress(ctx, student)
	if err != nil {
		return err
	}

	record.Value[blockKey(unitID, lessonID, blockID)] = true

	completed := true
	for _, id := range blocks {
		if !isTrue(record.Value, blockKey(unitID, lessonID, id)) {
			completed = false
			break
		}
	}
	if completed {
		raiseStatus(record.Value, activityKey(unitID, lessonID), StatusCompleted)
	} else {
		raiseStatus(record.Value, activityKey(unitID, lessonID), StatusInProgress)
	}

	if err := t.rollUpUnit(ctx, record, unitID); err != nil {
		return err
	}
	return t.save(ctx, record)
}

// PutActivityAccessed records a visit to a lesson's activity page. A lesson
// whose activity defines no interactive blocks completes on first access;
// one with blocks is unaffected by mere access.
func (t *Tracker) PutActivityAccessed(ctx context.Context, student *models.Student, unitID, lessonID int) error {
	lesson, err := t.validLesson(ctx, unitID, lessonID)
	if err != nil || lesson == nil {
		return err
	}
	blocks, err := t.ActivityBlocks(ctx, lessonID)
	if err != nil {
		return err
	}
	if len(blocks) > 0 {
		return nil
	}
	return t.PutActivityCompleted(ctx, student, unitID, lessonID)
}

// PutActivityCompleted marks a lesson's activity complete outright.
func (t *Tracker) PutActivityCompleted(ctx context.Context, student *models.Student, unitID, lessonID int) error {
	lesson, err := t.validLesson(ctx, unitID, lessonID)
	if err != nil || lesson == nil {
		return err
	}

	record, err := t.GetOrCreateProgress(ctx, student)
	if err != nil {
		return err
	}
	raiseStatus(record.Value, activityKey(unitID, lessonID), StatusCompleted)

	if err := t.rollUpUnit(ctx, record, unitID); err != nil {
		return err
	}
	return t.save(ctx, record)
}

// PutAssessmentCompleted bumps the bounded distinct-submission counter for
// an assessment, independent of the score achieved.
func (t *Tracker) PutAssessmentCompleted(ctx context.Context, student *models.Student, assessmentKey string) error {
	unit, err := t.course.FindUnitByAssessmentKey(ctx, assessmentKey)
	if err != nil || unit == nil {
		return err
	}

	record, err := t.GetOrCreateProgress(ctx, student)
	if err != nil {
		return err
	}

	key := assessmentProgressKey(assessmentKey)
	count := intValue(record.Value, key)
	if count < assessmentAttemptCap {
		count++
	}
	record.Value[key] = count

	return t.save(ctx, record)
}

// GetUnitProgress reports the status of every top-level node, keyed by the
// unit id's decimal string.
func (t *Tracker) GetUnitProgress(ctx context.Context, student *models.Student) (map[string]int, error) {
	units, err := t.course.GetUnits(ctx)
	if err != nil {
		return nil, err
	}
	record, err := t.GetOrCreateProgress(ctx, student)
	if err != nil {
		return nil, err
	}

	result := make(map[string]int, len(units))
	for _, unit := range units {
		status := StatusNotStarted
		switch unit.Type {
		case course.UnitTypeAssessment:
			if t.IsAssessmentCompleted(record, unit.AssessmentKey()) {
				status = StatusCompleted
			}
		case course.UnitTypeUnit:
			status = intValue(record.Value, unitKey(unit.UnitID))
		}
		result[strconv.Itoa(unit.UnitID)] = status
	}
	return result, nil
}

// GetLessonProgress reports the activity status of every lesson in a unit,
// keyed by lesson id.
func (t *Tracker) GetLessonProgress(ctx context.Context, student *models.Student, unitID int) (map[int]int, error) {
	lessons, err := t.course.GetLessons(ctx, unitID)
	if err != nil {
		return nil, err
	}
	record, err := t.GetOrCreateProgress(ctx, student)
	if err != nil {
		return nil, err
	}

	result := make(map[int]int, len(lessons))
	for _, lesson := range lessons {
		result[lesson.LessonID] = intValue(record.Value, activityKey(unitID, lesson.LessonID))
	}
	return result, nil
}

// GetActivityStatus returns a lesson's activity status, or nil when the
// unit/lesson pair is not part of the tree.
func (t *Tracker) GetActivityStatus(ctx context.Context, record *models.StudentProgress, unitID, lessonID int) (*int, error) {
	lesson, err := t.validLesson(ctx, unitID, lessonID)
	if err != nil || lesson == nil {
		return nil, err
	}
	status := intValue(record.Value, activityKey(unitID, lessonID))
	return &status, nil
}

// GetAssessmentStatus returns the submission counter for an assessment, or
// nil when no such assessment exists.
func (t *Tracker) GetAssessmentStatus(ctx context.Context, record *models.StudentProgress, assessmentKey string) (*int, error) {
	unit, err := t.course.FindUnitByAssessmentKey(ctx, assessmentKey)
	if err != nil || unit == nil {
		return nil, err
	}
	count := intValue(record.Value, assessmentProgressKey(assessmentKey))
	return &count, nil
}

// IsAssessmentCompleted reports whether the assessment was ever submitted.
func (t *Tracker) IsAssessmentCompleted(record *models.StudentProgress, assessmentKey string) bool {
	return intValue(record.Value, assessmentProgressKey(assessmentKey)) > 0
}

// IsBlockCompleted reports whether one interactive block was ever completed.
func (t *Tracker) IsBlockCompleted(record *models.StudentProgress, unitID, lessonID, blockID int) bool {
	return isTrue(record.Value, blockKey(unitID, lessonID, blockID))
}

// ActivityBlocks returns the distinct interactive block ids defined by a
// lesson's activity content. A missing or non-interactive activity yields
// no blocks.
func (t *Tracker) ActivityBlocks(ctx context.Context, lessonID int) ([]int, error) {
	entity, err := t.course.AppContext().FS().Open(ctx, t.course.ActivityFilename(lessonID))
	if err != nil {
		return nil, err
	}
	if entity == nil {
		return nil, nil
	}

	var doc struct {
		Blocks []int `json:"blocks"`
	}
	if err := json.Unmarshal(entity.Data, &doc); err != nil {
		// Activity content that is not a structured document has no
		// trackable blocks.
		return nil, nil
	}
	return doc.Blocks, nil
}

// rollUpUnit recomputes a unit's aggregate status: completed only when every
// lesson that has activity content is completed; lessons without activity
// content do not gate completion.
func (t *Tracker) rollUpUnit(ctx context.Context, record *models.StudentProgress, unitID int) error {
	lessons, err := t.course.GetLessons(ctx, unitID)
	if err != nil {
		return err
	}

	completed := true
	for _, lesson := range lessons {
		if !lesson.HasActivity {
			continue
		}
		if intValue(record.Value, activityKey(unitID, lesson.LessonID)) != StatusCompleted {
			completed = false
			break
		}
	}

	if completed {
		raiseStatus(record.Value, unitKey(unitID), StatusCompleted)
	} else {
		raiseStatus(record.Value, unitKey(unitID), StatusInProgress)
	}
	return nil
}

func (t *Tracker) validLesson(ctx context.Context, unitID, lessonID int) (*course.Lesson, error) {
	unit, err := t.course.FindUnitByID(ctx, unitID)
	if err != nil || unit == nil || unit.Type != course.UnitTypeUnit {
		return nil, err
	}
	lesson, err := t.course.FindLessonByID(ctx, lessonID)
	if err != nil || lesson == nil || lesson.UnitID != unitID {
		return nil, err
	}
	return lesson, nil
}

func (t *Tracker) save(ctx context.Context, record *models.StudentProgress) error {
	record.UpdatedOn = time.Now().UTC()
	return t.store.Save(ctx, record)
}

func unitKey(unitID int) string {
	return fmt.Sprintf("u.%d", unitID)
}

func activityKey(unitID, lessonID int) string {
	return fmt.Sprintf("u.%d.l.%d", unitID, lessonID)
}

func blockKey(unitID, lessonID, blockID int) string {
	return fmt.Sprintf("u.%d.l.%d.b.%d", unitID, lessonID, blockID)
}

func assessmentProgressKey(assessmentKey string) string {
	return "s." + assessmentKey
}

func containsBlock(blocks []int, blockID int) bool {
	for _, id := range blocks {
		if id == blockID {
			return true
		}
	}
	return false
}

func intValue(m datatypes.JSONMap, key string) int {
	switch v := m[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	case json.Number:
		n, _ := v.Int64()
		return int(n)
	default:
		return 0
	}
}

func isTrue(m datatypes.JSONMap, key string) bool {
	v, ok := m[key].(bool)
	return ok && v
}

func raiseStatus(m datatypes.JSONMap, key string, status int) {
	if intValue(m, key) < status {
		m[key] = status
	}
}
