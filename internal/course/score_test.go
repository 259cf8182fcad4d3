package course

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"

	"github.com/widya-lms/widya-core/internal/models"
)

func TestOverallScoreIsNilWithoutWeights(t *testing.T) {
	c := newTestCourse(t, "ns_score_nil")
	ctx := context.Background()

	_, err := c.AddAssessment(ctx)
	require.NoError(t, err)

	student := &models.Student{Scores: datatypes.JSONMap{"1": float64(90)}}
	overall, err := c.GetOverallScore(ctx, student)
	require.NoError(t, err)
	require.Nil(t, overall, "no weighted assessment means no overall score")
}

func TestOverallScoreTruncatesWeightedAverage(t *testing.T) {
	c := newTestCourse(t, "ns_score_avg")
	ctx := context.Background()

	light, err := c.AddAssessment(ctx)
	require.NoError(t, err)
	light.Weight = 10
	heavy, err := c.AddAssessment(ctx)
	require.NoError(t, err)
	heavy.Weight = 30

	student := &models.Student{Scores: datatypes.JSONMap{
		light.AssessmentKey(): float64(1),
		heavy.AssessmentKey(): float64(3),
	}}

	overall, err := c.GetOverallScore(ctx, student)
	require.NoError(t, err)
	require.NotNil(t, overall)
	require.Equal(t, 2, *overall, "(1*10 + 3*30) / 40 truncates to 2")
}

func TestOverallScoreTreatsMissingScoresAsZero(t *testing.T) {
	c := newTestCourse(t, "ns_score_missing")
	ctx := context.Background()

	scored, err := c.AddAssessment(ctx)
	require.NoError(t, err)
	scored.Weight = 50
	unscored, err := c.AddAssessment(ctx)
	require.NoError(t, err)
	unscored.Weight = 50

	student := &models.Student{Scores: datatypes.JSONMap{scored.AssessmentKey(): float64(80)}}
	overall, err := c.GetOverallScore(ctx, student)
	require.NoError(t, err)
	require.NotNil(t, overall)
	require.Equal(t, 40, *overall)
}

func TestGetAllScoresFollowsTreeOrder(t *testing.T) {
	c := newTestCourse(t, "ns_score_all")
	ctx := context.Background()

	pre, err := c.AddAssessment(ctx)
	require.NoError(t, err)
	pre.Title = "Pre-course"
	pre.Weight = 10
	_, err = c.AddUnit(ctx)
	require.NoError(t, err)
	post, err := c.AddAssessment(ctx)
	require.NoError(t, err)
	post.Title = "Post-course"

	student := &models.Student{Scores: datatypes.JSONMap{pre.AssessmentKey(): float64(70)}}
	entries, err := c.GetAllScores(ctx, student)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	require.Equal(t, "Pre-course", entries[0].Title)
	require.Equal(t, 70, entries[0].Score)
	require.Equal(t, 10, entries[0].Weight)
	require.Equal(t, "Post-course", entries[1].Title)
	require.Equal(t, 0, entries[1].Score, "never-submitted assessments score zero")
}
