package course

import (
	"context"
	"fmt"

	"github.com/widya-lms/widya-core/internal/sites"
	"github.com/widya-lms/widya-core/internal/vfs"
)

type stagedFile struct {
	path    string
	data    []byte
	isDraft bool
}

// ImportFrom copies every unit, lesson and assessment from a source course
// context into this course, remapping node ids into this course's id space
// starting after its current maximum, and copying associated content files
// verbatim. All content is read before anything is written, so a failed read
// persists nothing; problems are accumulated and returned as a list so the
// caller can report them all at once. Returns a snapshot of the source tree.
func (c *Course) ImportFrom(ctx context.Context, src *sites.Context) (*Course, []error) {
	srcCourse := New(src, c.logger)
	if err := srcCourse.Load(ctx); err != nil {
		return nil, []error{err}
	}
	if err := c.Load(ctx); err != nil {
		return nil, []error{err}
	}

	var errs []error
	var staged []stagedFile
	var newUnits []*Unit
	var newLessons []*Lesson

	for _, srcUnit := range srcCourse.units {
		unit := *srcUnit
		unit.UnitID = c.allocateID()
		newUnits = append(newUnits, &unit)

		if srcUnit.Type == UnitTypeAssessment {
			if file, err := readContentFile(ctx, src, srcCourse.AssessmentFilename(srcUnit.UnitID)); err != nil {
				errs = append(errs, fmt.Errorf("import assessment %d: %w", srcUnit.UnitID, err))
			} else if file != nil {
				staged = append(staged, stagedFile{
					path:    c.AssessmentFilename(unit.UnitID),
					data:    file.Data,
					isDraft: file.Metadata.IsDraft,
				})
			}
		}

		for _, srcLesson := range srcCourse.lessons {
			if srcLesson.UnitID != srcUnit.UnitID {
				continue
			}
			lesson := *srcLesson
			lesson.LessonID = c.allocateID()
			lesson.UnitID = unit.UnitID
			newLessons = append(newLessons, &lesson)

			if !srcLesson.HasActivity {
				continue
			}
			if file, err := readContentFile(ctx, src, srcCourse.ActivityFilename(srcLesson.LessonID)); err != nil {
				errs = append(errs, fmt.Errorf("import activity %d: %w", srcLesson.LessonID, err))
			} else if file != nil {
				staged = append(staged, stagedFile{
					path:    c.ActivityFilename(lesson.LessonID),
					data:    file.Data,
					isDraft: file.Metadata.IsDraft,
				})
			}
		}
	}

	if len(errs) > 0 {
		return srcCourse, errs
	}

	written := make([]string, 0, len(staged))
	for _, file := range staged {
		if err := c.appContext.FS().Put(ctx, file.path, file.data, vfs.PutOptions{IsDraft: file.isDraft}); err != nil {
			errs = append(errs, fmt.Errorf("import copy %s: %w", file.path, err))
			// Undo what landed so a failed import persists nothing.
			for _, path := range written {
				if delErr := c.appContext.FS().Delete(ctx, path); delErr != nil {
					errs = append(errs, fmt.Errorf("rollback %s: %w", path, delErr))
				}
			}
			return srcCourse, errs
		}
		written = append(written, file.path)
	}

	c.units = append(c.units, newUnits...)
	c.lessons = append(c.lessons, newLessons...)
	return srcCourse, nil
}

func readContentFile(ctx context.Context, src *sites.Context, path string) (*vfs.Entity, error) {
	return src.FS().Open(ctx, path)
}
