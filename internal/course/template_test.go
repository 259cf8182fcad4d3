package course

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/widya-lms/widya-core/internal/vfs"
)

const sampleUnitTable = `id,type,unit_id,title,release_date,now_available
1,U,1,Introduction,2026-09-01,yes
2,A,Pre,Pre-course assessment,,no
3,O,3,Reference link,,yes
`

const sampleLessonTable = `unit_id,unit_title,lesson_id,lesson_title,lesson_activity,lesson_activity_name,lesson_notes,lesson_video_id,lesson_objectives
1,Introduction,4,Welcome,yes,Try it,notes,abc123,Learn the basics
1,Introduction,5,History,no,,,,"Background, in brief"
`

func putTabularCourse(t *testing.T, namespace string) *Course {
	t.Helper()
	appContext := newTestContext(t, namespace)
	ctx := context.Background()
	require.NoError(t, appContext.FS().PutText(ctx, UnitTablePath, sampleUnitTable, vfs.PutOptions{}))
	require.NoError(t, appContext.FS().PutText(ctx, LessonTablePath, sampleLessonTable, vfs.PutOptions{}))
	return New(appContext, zerolog.Nop())
}

func TestLegacyTabularLoad(t *testing.T) {
	c := putTabularCourse(t, "ns_tabular")
	ctx := context.Background()

	require.NoError(t, c.Load(ctx))
	require.Equal(t, ModelVersion12, c.Version())

	units, err := c.GetUnits(ctx)
	require.NoError(t, err)
	require.Len(t, units, 3)
	require.Equal(t, UnitTypeUnit, units[0].Type)
	require.True(t, units[0].NowAvailable)
	require.Equal(t, UnitTypeAssessment, units[1].Type)
	require.Equal(t, "Pre", units[1].Key, "legacy string assessment keys survive")
	require.Equal(t, "Pre", units[1].AssessmentKey())
	require.Equal(t, UnitTypeLink, units[2].Type)
	require.Empty(t, units[2].Key, "numeric unit_id equal to id is not a key")

	lessons, err := c.GetLessons(ctx, 1)
	require.NoError(t, err)
	require.Len(t, lessons, 2)
	require.True(t, lessons[0].HasActivity)
	require.Equal(t, "Try it", lessons[0].ActivityTitle)
	require.False(t, lessons[1].HasActivity)
	require.Equal(t, "Background, in brief", lessons[1].Objectives)
}

func TestLegacyCourseAllocatesBeyondExistingIDs(t *testing.T) {
	c := putTabularCourse(t, "ns_tabular_ids")
	ctx := context.Background()

	unit, err := c.AddUnit(ctx)
	require.NoError(t, err)
	require.Equal(t, 6, unit.UnitID, "fresh ids start past the legacy maximum")
}

func TestLegacySaveUpgradesVersion(t *testing.T) {
	c := putTabularCourse(t, "ns_tabular_upgrade")
	ctx := context.Background()

	require.NoError(t, c.Load(ctx))
	require.NoError(t, c.Save(ctx))
	require.Equal(t, ModelVersion13, c.Version())

	reloaded := New(c.AppContext(), zerolog.Nop())
	require.NoError(t, reloaded.Load(ctx))
	require.Equal(t, ModelVersion13, reloaded.Version())

	units, err := reloaded.GetUnits(ctx)
	require.NoError(t, err)
	require.Len(t, units, 3)
	require.Equal(t, "Pre", units[1].AssessmentKey())
}

func TestParseUnitTableRejectsBadRows(t *testing.T) {
	_, err := parseUnitTable([]byte("id,type,unit_id,title,release_date,now_available\nx,U,1,T,,yes\n"))
	require.ErrorIs(t, err, ErrDocumentMalformed)

	_, err = parseUnitTable([]byte("id,type,unit_id,title,release_date,now_available\n1,Z,1,T,,yes\n"))
	require.ErrorIs(t, err, ErrDocumentMalformed)

	_, err = parseUnitTable([]byte("wrong,header,row,entirely,misses,columns\n"))
	require.ErrorIs(t, err, ErrDocumentMalformed)
}
