package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
)

func TestStudentSetScoreKeepsBest(t *testing.T) {
	student := Student{}

	_, ok := student.Score("Pre")
	require.False(t, ok)

	student.SetScore("Pre", 60)
	student.SetScore("Pre", 40)
	score, ok := student.Score("Pre")
	require.True(t, ok)
	require.Equal(t, 60, score, "a lower score never replaces the best")

	student.SetScore("Pre", 90)
	score, _ = student.Score("Pre")
	require.Equal(t, 90, score)
}

func TestStudentScoreReadsPersistedJSON(t *testing.T) {
	// Scores loaded from the datastore arrive as JSON numbers.
	var scores datatypes.JSONMap
	require.NoError(t, json.Unmarshal([]byte(`{"Pre": 85}`), &scores))

	student := Student{Scores: scores}
	score, ok := student.Score("Pre")
	require.True(t, ok)
	require.Equal(t, 85, score)
}

func TestStudentAnswersOverwriteOnResubmit(t *testing.T) {
	answers := StudentAnswers{}
	answers.SetAnswer("Pre", map[string]interface{}{"q1": "first"})
	answers.SetAnswer("Pre", map[string]interface{}{"q1": "second"})

	latest, ok := answers.Data["Pre"].(map[string]interface{})
	require.True(t, ok)
	require.Equal(t, "second", latest["q1"])
}
