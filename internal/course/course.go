package course

import (
	"context"
	"fmt"

	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"

	"github.com/widya-lms/widya-core/internal/sites"
	"github.com/widya-lms/widya-core/internal/vfs"
)

// Course is the in-memory course tree bound to one course context. It loads
// lazily, mutates only in memory and persists atomically on Save. Content
// files belonging to deleted nodes stay resolvable until Save flushes the
// pending-deletion set; that bounded staleness window is an accepted
// invariant, not a bug.
type Course struct {
	appContext *sites.Context
	logger     zerolog.Logger

	titlePolicy *bluemonday.Policy
	richPolicy  *bluemonday.Policy

	loaded         bool
	version        string
	nextID         int
	units          []*Unit
	lessons        []*Lesson
	pendingDeletes []string
}

// New binds a course to its context. Nothing is read until the first
// operation that needs the tree.
func New(appContext *sites.Context, logger zerolog.Logger) *Course {
	return &Course{
		appContext:  appContext,
		logger:      logger.With().Str("component", "course").Str("namespace", appContext.Namespace()).Logger(),
		titlePolicy: bluemonday.StrictPolicy(),
		richPolicy:  bluemonday.UGCPolicy(),
	}
}

// AppContext returns the context this course is bound to.
func (c *Course) AppContext() *sites.Context { return c.appContext }

// Version reports the schema version of the loaded tree.
func (c *Course) Version() string { return c.version }

// Load reads the course tree from the content store. A serialized document
// loads as version 1.3; a store carrying only the legacy tabular files loads
// as version 1.2; an empty store yields an empty 1.3 course.
func (c *Course) Load(ctx context.Context) error {
	if c.loaded {
		return nil
	}

	fs := c.appContext.FS()

	entity, err := fs.Open(ctx, DocumentPath)
	if err != nil {
		return fmt.Errorf("load course: %w", err)
	}
	if entity != nil {
		doc, err := parseDocument(entity.Data)
		if err != nil {
			return err
		}
		c.version = doc.Version
		c.nextID = doc.NextID
		c.units = doc.Units
		c.lessons = doc.Lessons
		c.loaded = true
		return nil
	}

	units, lessons, found, err := loadTabularModel(ctx, fs)
	if err != nil {
		return err
	}
	if found {
		c.version = ModelVersion12
		c.units = units
		c.lessons = lessons
		c.nextID = maxNodeID(units, lessons) + 1
		c.loaded = true
		return nil
	}

	c.version = ModelVersion13
	c.nextID = 1
	c.loaded = true
	return nil
}

// Save serializes the whole tree atomically and then sweeps the content
// files queued for deletion. Partial-tree saves do not exist.
func (c *Course) Save(ctx context.Context) error {
	if err := c.Load(ctx); err != nil {
		return err
	}

	doc := &document{
		Version: ModelVersion13,
		NextID:  c.nextID,
		Units:   c.units,
		Lessons: c.lessons,
	}
	data, err := serializeDocument(doc)
	if err != nil {
		return fmt.Errorf("save course: %w", err)
	}
	if err := c.appContext.FS().Put(ctx, DocumentPath, data, vfs.PutOptions{}); err != nil {
		return fmt.Errorf("save course: %w", err)
	}
	c.version = ModelVersion13

	for _, path := range c.pendingDeletes {
		if err := c.appContext.FS().Delete(ctx, path); err != nil {
			return fmt.Errorf("sweep %s: %w", path, err)
		}
	}
	c.pendingDeletes = nil
	return nil
}

// GetUnits returns the top-level nodes in tree order.
func (c *Course) GetUnits(ctx context.Context) ([]*Unit, error) {
	if err := c.Load(ctx); err != nil {
		return nil, err
	}
	return c.units, nil
}

// GetLessons returns a unit's lessons in tree order.
func (c *Course) GetLessons(ctx context.Context, unitID int) ([]*Lesson, error) {
	if err := c.Load(ctx); err != nil {
		return nil, err
	}
	var out []*Lesson
	for _, lesson := range c.lessons {
		if lesson.UnitID == unitID {
			out = append(out, lesson)
		}
	}
	return out, nil
}

// FindUnitByID returns the unit with the given id, or nil when absent.
func (c *Course) FindUnitByID(ctx context.Context, unitID int) (*Unit, error) {
	if err := c.Load(ctx); err != nil {
		return nil, err
	}
	for _, unit := range c.units {
		if unit.UnitID == unitID {
			return unit, nil
		}
	}
	return nil, nil
}

// FindLessonByID returns the lesson with the given id, or nil when absent.
func (c *Course) FindLessonByID(ctx context.Context, lessonID int) (*Lesson, error) {
	if err := c.Load(ctx); err != nil {
		return nil, err
	}
	for _, lesson := range c.lessons {
		if lesson.LessonID == lessonID {
			return lesson, nil
		}
	}
	return nil, nil
}

// FindUnitByAssessmentKey resolves the assessment identifier scores are
// recorded under, or nil when no assessment carries it.
func (c *Course) FindUnitByAssessmentKey(ctx context.Context, key string) (*Unit, error) {
	if err := c.Load(ctx); err != nil {
		return nil, err
	}
	for _, unit := range c.units {
		if unit.Type == UnitTypeAssessment && unit.AssessmentKey() == key {
			return unit, nil
		}
	}
	return nil, nil
}

// AddUnit appends a new lesson-container unit with a fresh unique id.
func (c *Course) AddUnit(ctx context.Context) (*Unit, error) {
	return c.addUnit(ctx, UnitTypeUnit, "New Unit")
}

// AddLink appends a new external-link unit.
func (c *Course) AddLink(ctx context.Context) (*Unit, error) {
	return c.addUnit(ctx, UnitTypeLink, "New Link")
}

// AddAssessment appends a new assessment unit.
func (c *Course) AddAssessment(ctx context.Context) (*Unit, error) {
	return c.addUnit(ctx, UnitTypeAssessment, "New Assessment")
}

func (c *Course) addUnit(ctx context.Context, unitType, title string) (*Unit, error) {
	if err := c.Load(ctx); err != nil {
		return nil, err
	}
	unit := &Unit{
		UnitID: c.allocateID(),
		Type:   unitType,
		Title:  title,
	}
	c.units = append(c.units, unit)
	return unit, nil
}

// AddLesson appends a new lesson to a unit.
func (c *Course) AddLesson(ctx context.Context, unit *Unit) (*Lesson, error) {
	if err := c.Load(ctx); err != nil {
		return nil, err
	}
	lesson := &Lesson{
		LessonID: c.allocateID(),
		UnitID:   unit.UnitID,
		Title:    "New Lesson",
	}
	c.lessons = append(c.lessons, lesson)
	return lesson, nil
}

// UpdateUnit replaces the stored fields of an existing unit. Author-supplied
// text is sanitized before it lands in the tree.
func (c *Course) UpdateUnit(ctx context.Context, updated *Unit) error {
	existing, err := c.FindUnitByID(ctx, updated.UnitID)
	if err != nil {
		return err
	}
	if existing == nil {
		return fmt.Errorf("%w: %d", ErrUnitNotFound, updated.UnitID)
	}
	existing.Title = c.titlePolicy.Sanitize(updated.Title)
	existing.ReleaseDate = updated.ReleaseDate
	existing.NowAvailable = updated.NowAvailable
	existing.Href = updated.Href
	existing.Weight = updated.Weight
	return nil
}

// UpdateLesson replaces the stored fields of an existing lesson.
func (c *Course) UpdateLesson(ctx context.Context, updated *Lesson) error {
	existing, err := c.FindLessonByID(ctx, updated.LessonID)
	if err != nil {
		return err
	}
	if existing == nil {
		return fmt.Errorf("%w: %d", ErrLessonNotFound, updated.LessonID)
	}
	existing.Title = c.titlePolicy.Sanitize(updated.Title)
	existing.Objectives = c.richPolicy.Sanitize(updated.Objectives)
	existing.VideoID = updated.VideoID
	existing.Notes = updated.Notes
	existing.NowAvailable = updated.NowAvailable
	existing.HasActivity = updated.HasActivity
	existing.ActivityTitle = c.titlePolicy.Sanitize(updated.ActivityTitle)
	return nil
}

// DeleteUnit removes a unit, cascading over its lessons and queueing their
// content files for the deletion sweep on the next Save. It reports false
// when the id did not exist.
func (c *Course) DeleteUnit(ctx context.Context, unitID int) (bool, error) {
	unit, err := c.FindUnitByID(ctx, unitID)
	if err != nil {
		return false, err
	}
	if unit == nil {
		return false, nil
	}

	lessons, err := c.GetLessons(ctx, unitID)
	if err != nil {
		return false, err
	}
	for _, lesson := range lessons {
		if _, err := c.DeleteLesson(ctx, lesson.LessonID); err != nil {
			return false, err
		}
	}

	if unit.Type == UnitTypeAssessment {
		c.pendingDeletes = append(c.pendingDeletes, c.AssessmentFilename(unit.UnitID))
	}

	for i, u := range c.units {
		if u.UnitID == unitID {
			c.units = append(c.units[:i], c.units[i+1:]...)
			break
		}
	}
	return true, nil
}

// DeleteLesson removes a lesson and queues its activity file for the next
// deletion sweep. It reports false when the id did not exist.
func (c *Course) DeleteLesson(ctx context.Context, lessonID int) (bool, error) {
	lesson, err := c.FindLessonByID(ctx, lessonID)
	if err != nil {
		return false, err
	}
	if lesson == nil {
		return false, nil
	}

	c.pendingDeletes = append(c.pendingDeletes, c.ActivityFilename(lesson.LessonID))

	for i, l := range c.lessons {
		if l.LessonID == lessonID {
			c.lessons = append(c.lessons[:i], c.lessons[i+1:]...)
			break
		}
	}
	return true, nil
}

// LessonOrder references a lesson inside a reorder specification.
type LessonOrder struct {
	ID int `json:"id"`
}

// UnitOrder references a unit and the new order of its lessons.
type UnitOrder struct {
	ID      int           `json:"id"`
	Lessons []LessonOrder `json:"lessons,omitempty"`
}

// ReorderUnits replaces the full top-level order and, per unit entry, its
// children order. A specification that misses or invents any unit or lesson
// id is rejected whole with the accumulated problems.
func (c *Course) ReorderUnits(ctx context.Context, order []UnitOrder) error {
	if err := c.Load(ctx); err != nil {
		return err
	}

	var problems ValidationErrors

	unitByID := map[int]*Unit{}
	for _, unit := range c.units {
		unitByID[unit.UnitID] = unit
	}
	lessonByID := map[int]*Lesson{}
	lessonCount := map[int]int{}
	for _, lesson := range c.lessons {
		lessonByID[lesson.LessonID] = lesson
		lessonCount[lesson.UnitID]++
	}

	var newUnits []*Unit
	var newLessons []*Lesson
	seenUnits := map[int]bool{}

	for _, entry := range order {
		unit, ok := unitByID[entry.ID]
		if !ok {
			problems = append(problems, fmt.Errorf("%w: unknown unit %d", ErrInvalidOrder, entry.ID))
			continue
		}
		if seenUnits[entry.ID] {
			problems = append(problems, fmt.Errorf("%w: unit %d listed twice", ErrInvalidOrder, entry.ID))
			continue
		}
		seenUnits[entry.ID] = true
		newUnits = append(newUnits, unit)

		if len(entry.Lessons) != lessonCount[entry.ID] {
			problems = append(problems, fmt.Errorf(
				"%w: unit %d lists %d lessons, has %d",
				ErrInvalidOrder, entry.ID, len(entry.Lessons), lessonCount[entry.ID]))
			continue
		}
		seenLessons := map[int]bool{}
		for _, lessonEntry := range entry.Lessons {
			lesson, ok := lessonByID[lessonEntry.ID]
			if !ok || lesson.UnitID != entry.ID {
				problems = append(problems, fmt.Errorf(
					"%w: lesson %d does not belong to unit %d", ErrInvalidOrder, lessonEntry.ID, entry.ID))
				continue
			}
			if seenLessons[lessonEntry.ID] {
				problems = append(problems, fmt.Errorf(
					"%w: lesson %d listed twice", ErrInvalidOrder, lessonEntry.ID))
				continue
			}
			seenLessons[lessonEntry.ID] = true
			newLessons = append(newLessons, lesson)
		}
	}

	if len(order) != len(c.units) {
		problems = append(problems, fmt.Errorf(
			"%w: %d units listed, tree has %d", ErrInvalidOrder, len(order), len(c.units)))
	}
	if len(problems) > 0 {
		return problems
	}

	c.units = newUnits
	c.lessons = newLessons
	return nil
}

// MoveLessonTo reassigns a lesson to another unit, placing it last among the
// destination's lessons.
func (c *Course) MoveLessonTo(ctx context.Context, lesson *Lesson, unit *Unit) error {
	if err := c.Load(ctx); err != nil {
		return err
	}
	existing, err := c.FindLessonByID(ctx, lesson.LessonID)
	if err != nil {
		return err
	}
	if existing == nil {
		return fmt.Errorf("%w: %d", ErrLessonNotFound, lesson.LessonID)
	}

	for i, l := range c.lessons {
		if l.LessonID == lesson.LessonID {
			c.lessons = append(c.lessons[:i], c.lessons[i+1:]...)
			break
		}
	}
	existing.UnitID = unit.UnitID
	c.lessons = append(c.lessons, existing)
	return nil
}

// AssessmentFilename returns the content path backing an assessment.
func (c *Course) AssessmentFilename(unitID int) string {
	return fmt.Sprintf("/assets/js/assessment-%d.js", unitID)
}

// ActivityFilename returns the content path backing a lesson's activity.
func (c *Course) ActivityFilename(lessonID int) string {
	return fmt.Sprintf("/assets/js/activity-%d.js", lessonID)
}

// SetAssessmentContent stores the content file backing an assessment,
// inheriting the assessment's availability as the draft flag.
func (c *Course) SetAssessmentContent(ctx context.Context, unit *Unit, content string) error {
	if unit.Type != UnitTypeAssessment {
		return fmt.Errorf("%w: %d", ErrNotAssessment, unit.UnitID)
	}
	return c.appContext.FS().PutText(
		ctx, c.AssessmentFilename(unit.UnitID), content,
		vfs.PutOptions{IsDraft: !unit.NowAvailable})
}

// SetActivityContent stores the content file backing a lesson's activity.
func (c *Course) SetActivityContent(ctx context.Context, lesson *Lesson, content string) error {
	return c.appContext.FS().PutText(
		ctx, c.ActivityFilename(lesson.LessonID), content,
		vfs.PutOptions{IsDraft: !lesson.NowAvailable})
}

// IsLastAssessment reports whether a unit is the last assessment in tree order.
func (c *Course) IsLastAssessment(ctx context.Context, unit *Unit) (bool, error) {
	if err := c.Load(ctx); err != nil {
		return false, err
	}
	last := -1
	for _, u := range c.units {
		if u.Type == UnitTypeAssessment {
			last = u.UnitID
		}
	}
	return last == unit.UnitID, nil
}

func (c *Course) allocateID() int {
	id := c.nextID
	c.nextID++
	return id
}

func maxNodeID(units []*Unit, lessons []*Lesson) int {
	max := 0
	for _, unit := range units {
		if unit.UnitID > max {
			max = unit.UnitID
		}
	}
	for _, lesson := range lessons {
		if lesson.LessonID > max {
			max = lesson.LessonID
		}
	}
	return max
}
