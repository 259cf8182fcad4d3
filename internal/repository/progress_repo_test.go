package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"

	"github.com/widya-lms/widya-core/internal/models"
)

func TestProgressRepositoryLoadAbsentReturnsNil(t *testing.T) {
	repo := NewProgressRepository(setupTestDB(t))

	record, err := repo.Load(context.Background(), "ns_progress_absent", 1)
	require.NoError(t, err)
	require.Nil(t, record)
}

func TestProgressRepositorySaveThenLoad(t *testing.T) {
	repo := NewProgressRepository(setupTestDB(t))
	ctx := context.Background()

	record := &models.StudentProgress{
		Namespace: "ns_progress_save",
		StudentID: 7,
		Value:     datatypes.JSONMap{"u.1": float64(2), "u.1.l.2.b.3": true},
		UpdatedOn: time.Now().UTC(),
	}
	require.NoError(t, repo.Save(ctx, record))

	loaded, err := repo.Load(ctx, "ns_progress_save", 7)
	require.NoError(t, err)
	require.NotNil(t, loaded)
	require.Equal(t, float64(2), loaded.Value["u.1"])
	require.Equal(t, true, loaded.Value["u.1.l.2.b.3"])
}

func TestProgressRepositorySaveUpserts(t *testing.T) {
	repo := NewProgressRepository(setupTestDB(t))
	ctx := context.Background()

	first := &models.StudentProgress{
		Namespace: "ns_progress_upsert",
		StudentID: 7,
		Value:     datatypes.JSONMap{"u.1": float64(1)},
	}
	require.NoError(t, repo.Save(ctx, first))

	loaded, err := repo.Load(ctx, "ns_progress_upsert", 7)
	require.NoError(t, err)
	loaded.Value["u.1"] = float64(2)
	require.NoError(t, repo.Save(ctx, loaded))

	reloaded, err := repo.Load(ctx, "ns_progress_upsert", 7)
	require.NoError(t, err)
	require.Equal(t, float64(2), reloaded.Value["u.1"])
	require.Equal(t, loaded.ID, reloaded.ID, "saving again must not duplicate the row")
}
