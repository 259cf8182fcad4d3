package course

import (
	"context"
	"encoding/csv"
	"fmt"
	"strconv"
	"strings"

	"github.com/widya-lms/widya-core/internal/vfs"
)

// Legacy tabular model files, consumed only when a course is created from a
// version-1.2 template snapshot.
const (
	UnitTablePath   = "/data/unit.csv"
	LessonTablePath = "/data/lesson.csv"
)

var (
	unitTableHeader = []string{
		"id", "type", "unit_id", "title", "release_date", "now_available"}
	lessonTableHeader = []string{
		"unit_id", "unit_title", "lesson_id", "lesson_title", "lesson_activity",
		"lesson_activity_name", "lesson_notes", "lesson_video_id", "lesson_objectives"}
)

// loadTabularModel reads the two ordered tables of the legacy course format.
// found is false when the store carries no unit table at all.
func loadTabularModel(ctx context.Context, fs *vfs.FileSystem) (units []*Unit, lessons []*Lesson, found bool, err error) {
	unitEntity, err := fs.Open(ctx, UnitTablePath)
	if err != nil || unitEntity == nil {
		return nil, nil, false, err
	}

	units, err = parseUnitTable(unitEntity.Data)
	if err != nil {
		return nil, nil, true, err
	}

	lessonEntity, err := fs.Open(ctx, LessonTablePath)
	if err != nil {
		return nil, nil, true, err
	}
	if lessonEntity != nil {
		lessons, err = parseLessonTable(lessonEntity.Data)
		if err != nil {
			return nil, nil, true, err
		}
	}

	return units, lessons, true, nil
}

func parseUnitTable(data []byte) ([]*Unit, error) {
	rows, err := parseTable(data, unitTableHeader, UnitTablePath)
	if err != nil {
		return nil, err
	}

	units := make([]*Unit, 0, len(rows))
	for _, row := range rows {
		id, err := strconv.Atoi(row["id"])
		if err != nil {
			return nil, fmt.Errorf("%w: unit id %q", ErrDocumentMalformed, row["id"])
		}
		unitType := strings.ToUpper(strings.TrimSpace(row["type"]))
		switch unitType {
		case UnitTypeUnit, UnitTypeLink, UnitTypeAssessment:
		default:
			return nil, fmt.Errorf("%w: unit type %q", ErrDocumentMalformed, row["type"])
		}
		unit := &Unit{
			UnitID:       id,
			Type:         unitType,
			Title:        row["title"],
			ReleaseDate:  row["release_date"],
			NowAvailable: parseTableBool(row["now_available"]),
		}
		// Legacy assessments are keyed by a string id like "Pre".
		if key := strings.TrimSpace(row["unit_id"]); key != "" && key != row["id"] {
			unit.Key = key
		}
		units = append(units, unit)
	}
	return units, nil
}

func parseLessonTable(data []byte) ([]*Lesson, error) {
	rows, err := parseTable(data, lessonTableHeader, LessonTablePath)
	if err != nil {
		return nil, err
	}

	lessons := make([]*Lesson, 0, len(rows))
	for _, row := range rows {
		unitID, err := strconv.Atoi(row["unit_id"])
		if err != nil {
			return nil, fmt.Errorf("%w: lesson unit_id %q", ErrDocumentMalformed, row["unit_id"])
		}
		lessonID, err := strconv.Atoi(row["lesson_id"])
		if err != nil {
			return nil, fmt.Errorf("%w: lesson_id %q", ErrDocumentMalformed, row["lesson_id"])
		}
		lessons = append(lessons, &Lesson{
			LessonID:      lessonID,
			UnitID:        unitID,
			Title:         row["lesson_title"],
			Objectives:    row["lesson_objectives"],
			VideoID:       row["lesson_video_id"],
			Notes:         row["lesson_notes"],
			NowAvailable:  true,
			HasActivity:   parseTableBool(row["lesson_activity"]),
			ActivityTitle: row["lesson_activity_name"],
		})
	}
	return lessons, nil
}

func parseTable(data []byte, header []string, path string) ([]map[string]string, error) {
	reader := csv.NewReader(strings.NewReader(string(data)))
	reader.FieldsPerRecord = len(header)

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrDocumentMalformed, path, err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%w: %s: missing header", ErrDocumentMalformed, path)
	}
	for i, name := range header {
		if strings.TrimSpace(records[0][i]) != name {
			return nil, fmt.Errorf("%w: %s: column %d is %q, want %q",
				ErrDocumentMalformed, path, i, records[0][i], name)
		}
	}

	rows := make([]map[string]string, 0, len(records)-1)
	for _, record := range records[1:] {
		row := make(map[string]string, len(header))
		for i, name := range header {
			row[name] = record[i]
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func parseTableBool(value string) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "yes", "true", "1":
		return true
	default:
		return false
	}
}
