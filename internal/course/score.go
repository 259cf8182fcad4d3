package course

import (
	"context"

	"github.com/widya-lms/widya-core/internal/models"
)

// ScoreEntry is one assessment's standing for a student.
type ScoreEntry struct {
	ID     string `json:"id"`
	Title  string `json:"title"`
	Weight int    `json:"weight"`
	Score  int    `json:"score"`
}

// GetScore returns a student's recorded best for an assessment.
func (c *Course) GetScore(student *models.Student, assessmentKey string) (int, bool) {
	return student.Score(assessmentKey)
}

// GetAllScores reports every assessment in tree order with the student's
// best recorded score, zero when the student never submitted.
func (c *Course) GetAllScores(ctx context.Context, student *models.Student) ([]ScoreEntry, error) {
	if err := c.Load(ctx); err != nil {
		return nil, err
	}
	var entries []ScoreEntry
	for _, unit := range c.units {
		if unit.Type != UnitTypeAssessment {
			continue
		}
		score, _ := student.Score(unit.AssessmentKey())
		entries = append(entries, ScoreEntry{
			ID:     unit.AssessmentKey(),
			Title:  unit.Title,
			Weight: unit.Weight,
			Score:  score,
		})
	}
	return entries, nil
}

// GetOverallScore computes the weighted average of the student's best
// scores over assessments carrying nonzero weight, truncated to an integer.
// It returns nil when no assessment carries weight: there is no result.
func (c *Course) GetOverallScore(ctx context.Context, student *models.Student) (*int, error) {
	if err := c.Load(ctx); err != nil {
		return nil, err
	}

	totalWeight := 0
	weightedSum := 0
	for _, unit := range c.units {
		if unit.Type != UnitTypeAssessment || unit.Weight <= 0 {
			continue
		}
		totalWeight += unit.Weight
		score, _ := student.Score(unit.AssessmentKey())
		weightedSum += score * unit.Weight
	}
	if totalWeight == 0 {
		return nil, nil
	}

	overall := weightedSum / totalWeight
	return &overall, nil
}
