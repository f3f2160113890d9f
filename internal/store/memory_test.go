package store

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/digitalhippo/hippo-backend/internal/models"
)

func TestMemoryStoreCRUD(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	rec, err := s.Create(ctx, models.CollectionProducts, models.JSONB{"name": "Icons", "price": 12, "id": "client-chosen"})
	require.NoError(t, err)
	assert.NotEqual(t, "client-chosen", rec.ID)
	assert.Equal(t, rec.ID, rec.Fields["id"])
	assert.NotEmpty(t, rec.Fields["createdAt"])
	assert.Equal(t, float64(12), rec.Fields["price"])

	updated, err := s.Update(ctx, models.CollectionProducts, rec.ID, models.JSONB{"price": 15.5})
	require.NoError(t, err)
	assert.Equal(t, "Icons", updated.Fields["name"])
	assert.Equal(t, 15.5, updated.Fields["price"])

	got, err := s.FindByID(ctx, models.CollectionProducts, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, updated.Fields, got.Fields)

	require.NoError(t, s.Delete(ctx, models.CollectionProducts, rec.ID))
	_, err = s.FindByID(ctx, models.CollectionProducts, rec.ID)
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.True(t, errors.Is(s.Delete(ctx, models.CollectionProducts, rec.ID), ErrNotFound))
}

func TestMemoryStoreReturnsCopies(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	rec, err := s.Create(ctx, models.CollectionUsers, models.JSONB{"email": "a@example.com", "products": []string{"p1"}})
	require.NoError(t, err)

	rec.Fields["email"] = "mutated@example.com"
	got, err := s.FindByID(ctx, models.CollectionUsers, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, "a@example.com", got.Fields["email"])
	assert.Equal(t, []interface{}{"p1"}, got.Fields["products"])
}

func TestMemoryStoreEmailConflict(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	_, err := s.Create(ctx, models.CollectionUsers, models.JSONB{"email": "a@example.com"})
	require.NoError(t, err)
	other, err := s.Create(ctx, models.CollectionUsers, models.JSONB{"email": "b@example.com"})
	require.NoError(t, err)

	_, err = s.Create(ctx, models.CollectionUsers, models.JSONB{"email": "a@example.com"})
	assert.True(t, errors.Is(err, ErrConflict))

	_, err = s.Update(ctx, models.CollectionUsers, other.ID, models.JSONB{"email": "a@example.com"})
	assert.True(t, errors.Is(err, ErrConflict))
}

func TestMemoryStoreFind(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	var ids []string
	for _, seed := range []models.JSONB{
		{"user": "u1", "products": []string{"p1", "p2"}, "_isPaid": false},
		{"user": "u2", "products": []string{"p2"}, "_isPaid": true},
		{"user": "u1", "products": []string{"p3"}, "_isPaid": true},
	} {
		rec, err := s.Create(ctx, models.CollectionOrders, seed)
		require.NoError(t, err)
		ids = append(ids, rec.ID)
	}

	tests := []struct {
		name   string
		filter Filter
		want   []string
	}{
		{"no filter", nil, ids},
		{"scalar equals", Filter{Where("user", Equals, "u1")}, []string{ids[0], ids[2]}},
		{"list contains", Filter{Where("products", Equals, "p2")}, []string{ids[0], ids[1]}},
		{"list overlaps", Filter{Where("products", In, []string{"p3", "p9"})}, []string{ids[2]}},
		{"id in", Filter{Where("id", In, []interface{}{ids[1], ids[2]})}, []string{ids[1], ids[2]}},
		{"empty in", Filter{Where("id", In, []string{})}, []string{}},
		{"bool equals", Filter{Where("_isPaid", Equals, true)}, []string{ids[1], ids[2]}},
		{"conjunction", Filter{Where("user", Equals, "u1"), Where("_isPaid", Equals, true)}, []string{ids[2]}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			recs, total, err := s.Find(ctx, models.CollectionOrders, tt.filter, FindOptions{})
			require.NoError(t, err)
			assert.Equal(t, int64(len(tt.want)), total)
			got := make([]string, 0, len(recs))
			for _, r := range recs {
				got = append(got, r.ID)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestMemoryStorePagingAndSort(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	for _, price := range []float64{30, 10, 20, 50, 40} {
		_, err := s.Create(ctx, models.CollectionProducts, models.JSONB{"price": price})
		require.NoError(t, err)
	}

	recs, total, err := s.Find(ctx, models.CollectionProducts, nil, FindOptions{Page: 2, Limit: 2, Sort: "price"})
	require.NoError(t, err)
	assert.Equal(t, int64(5), total)
	require.Len(t, recs, 2)
	assert.Equal(t, float64(30), recs[0].Fields["price"])
	assert.Equal(t, float64(40), recs[1].Fields["price"])

	recs, _, err = s.Find(ctx, models.CollectionProducts, nil, FindOptions{Page: 1, Limit: 1, Sort: "price", Desc: true})
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, float64(50), recs[0].Fields["price"])

	recs, _, err = s.Find(ctx, models.CollectionProducts, nil, FindOptions{Page: 9, Limit: 2})
	require.NoError(t, err)
	assert.Empty(t, recs)
}
