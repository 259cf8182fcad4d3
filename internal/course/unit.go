package course

import "strconv"

// Unit type tags, preserved across serialization and import.
const (
	UnitTypeUnit       = "U"
	UnitTypeLink       = "O"
	UnitTypeAssessment = "A"
)

// Unit is one top-level node of the course tree: a lesson container, an
// external link, or an assessment. Assessments carry a weight used by the
// overall-score computation; zero weight excludes them from it.
type Unit struct {
	UnitID       int    `json:"id"`
	Type         string `json:"type"`
	Key          string `json:"key,omitempty"`
	Title        string `json:"title"`
	ReleaseDate  string `json:"release_date,omitempty"`
	NowAvailable bool   `json:"now_available"`
	Href         string `json:"href,omitempty"`
	Weight       int    `json:"weight,omitempty"`
}

// AssessmentKey is the identifier scores and progress are recorded under.
// Courses imported from the legacy tabular format keep their string keys
// (e.g. "Pre"); otherwise the numeric unit id is used.
func (u *Unit) AssessmentKey() string {
	if u.Key != "" {
		return u.Key
	}
	return strconv.Itoa(u.UnitID)
}

// Lesson belongs to exactly one unit. HasActivity marks lessons whose
// interactive content gates unit completion.
type Lesson struct {
	LessonID      int    `json:"id"`
	UnitID        int    `json:"unit_id"`
	Title         string `json:"title"`
	Objectives    string `json:"objectives,omitempty"`
	VideoID       string `json:"video_id,omitempty"`
	Notes         string `json:"notes,omitempty"`
	NowAvailable  bool   `json:"now_available"`
	HasActivity   bool   `json:"activity"`
	ActivityTitle string `json:"activity_title,omitempty"`
}
