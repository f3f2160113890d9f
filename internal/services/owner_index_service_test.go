package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/digitalhippo/hippo-backend/internal/models"
	"github.com/digitalhippo/hippo-backend/internal/store"
)

func TestResyncOwnerIndex(t *testing.T) {
	ctx := context.Background()
	records := store.NewMemoryStore()

	user, err := records.Create(ctx, models.CollectionUsers, models.JSONB{"email": "seller@example.com"})
	require.NoError(t, err)
	clean, err := records.Create(ctx, models.CollectionUsers, models.JSONB{"email": "clean@example.com"})
	require.NoError(t, err)

	var ids []string
	for i := 0; i < 2; i++ {
		rec, err := records.Create(ctx, models.CollectionProducts, models.JSONB{"user": user.ID})
		require.NoError(t, err)
		ids = append(ids, rec.ID)
	}
	// the index knows one product twice and one that no longer exists
	_, err = records.Update(ctx, models.CollectionUsers, user.ID, models.JSONB{"products": []string{"stale", ids[0], ids[0]}})
	require.NoError(t, err)
	file, err := records.Create(ctx, models.CollectionProductFiles, models.JSONB{"user": user.ID})
	require.NoError(t, err)

	svc := NewOwnerIndexService(records)

	report, err := svc.Resync(ctx, true)
	require.NoError(t, err)
	assert.Equal(t, 2, report.UsersScanned)
	assert.Equal(t, 1, report.UsersUpdated)
	assert.Equal(t, 2, report.Added)
	assert.Equal(t, 1, report.Removed)

	unchanged, _ := records.FindByID(ctx, models.CollectionUsers, user.ID)
	assert.Equal(t, []string{"stale", ids[0], ids[0]}, models.RefsFrom(unchanged.Fields["products"]))

	_, err = svc.Resync(ctx, false)
	require.NoError(t, err)

	fixed, _ := records.FindByID(ctx, models.CollectionUsers, user.ID)
	assert.Equal(t, []string{ids[0], ids[1]}, models.RefsFrom(fixed.Fields["products"]))
	assert.Equal(t, []string{file.ID}, models.RefsFrom(fixed.Fields["product_files"]))

	untouched, _ := records.FindByID(ctx, models.CollectionUsers, clean.ID)
	assert.NotContains(t, untouched.Fields, "products")

	report, err = svc.Resync(ctx, false)
	require.NoError(t, err)
	assert.Zero(t, report.UsersUpdated)
}
