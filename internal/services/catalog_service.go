// internal/services/catalog_service.go
package services

import (
	"context"

	"github.com/digitalhippo/hippo-backend/internal/access"
	"github.com/digitalhippo/hippo-backend/internal/models"
	"github.com/digitalhippo/hippo-backend/internal/store"
	"github.com/digitalhippo/hippo-backend/internal/utils"
)

const maxInfiniteLimit = 100

// CatalogService serves the public storefront. Listings run with server
// privileges but are projected as an anonymous reader would see them.
type CatalogService struct {
	engine *Engine
}

type InfiniteQuery struct {
	Limit    int    `json:"limit" validate:"min=1,max=100"`
	Cursor   int    `json:"cursor" validate:"omitempty,min=1"`
	Category string `json:"category,omitempty" validate:"omitempty,product_category"`
	Sort     string `json:"sort,omitempty" validate:"omitempty,oneof=asc desc"`
}

type InfiniteResult struct {
	Items    []store.Record `json:"items"`
	NextPage *int           `json:"nextPage"`
}

func NewCatalogService(engine *Engine) *CatalogService {
	return &CatalogService{engine: engine}
}

// Infinite returns one page of approved products, newest first unless
// sorted ascending.
func (s *CatalogService) Infinite(ctx context.Context, q *InfiniteQuery) (*InfiniteResult, error) {
	if q.Limit == 0 {
		q.Limit = 10
	}
	if err := utils.ValidateStruct(q); err != nil {
		return nil, err
	}
	page := q.Cursor
	if page < 1 {
		page = 1
	}

	filter := store.Filter{store.Where("approvedForSale", store.Equals, string(models.ApprovalApproved))}
	if q.Category != "" {
		filter = filter.And(store.Where("category", store.Equals, q.Category))
	}

	records, total, err := s.engine.Find(ctx, access.System, models.CollectionProducts, filter, store.FindOptions{
		Page:  page,
		Limit: q.Limit,
		Sort:  "createdAt",
		Desc:  q.Sort != "asc",
	})
	if err != nil {
		return nil, err
	}

	items := make([]store.Record, 0, len(records))
	for _, rec := range records {
		items = append(items, s.engine.Redact(access.Anonymous, rec))
	}

	result := &InfiniteResult{Items: items}
	if int64(page*q.Limit) < total {
		next := page + 1
		result.NextPage = &next
	}
	return result, nil
}

// Categories returns the product category catalogue.
func (s *CatalogService) Categories() ([]models.ProductCategory, error) {
	return models.ProductCategories()
}
