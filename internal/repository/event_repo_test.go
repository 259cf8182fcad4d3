package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"

	"github.com/widya-lms/widya-core/internal/models"
)

func TestEventRepositoryRecordAndCount(t *testing.T) {
	db := setupTestDB(t)
	repo := NewEventRepository(db)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		err := repo.Record(ctx, "ns_events", "submit-assessment", "alice@example.com", datatypes.JSONMap{
			"type": "assessment-Pre",
		})
		require.NoError(t, err)
	}
	require.NoError(t, repo.Record(ctx, "ns_events", "visit-page", "alice@example.com", nil))

	count, err := repo.CountBySource(ctx, "ns_events", "submit-assessment")
	require.NoError(t, err)
	require.Equal(t, int64(2), count)

	count, err = repo.CountBySource(ctx, "ns_events_other", "submit-assessment")
	require.NoError(t, err)
	require.Zero(t, count)

	var events []models.Event
	require.NoError(t, db.Where("namespace = ?", "ns_events").Find(&events).Error)
	require.Len(t, events, 3)
	require.NotEqual(t, events[0].ReferenceID, events[1].ReferenceID)
	require.False(t, events[0].RecordedOn.IsZero())
}
