// internal/handlers/collections.go
package handlers

import (
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/digitalhippo/hippo-backend/internal/i18n"
	"github.com/digitalhippo/hippo-backend/internal/models"
	"github.com/digitalhippo/hippo-backend/internal/services"
	"github.com/digitalhippo/hippo-backend/internal/session"
	"github.com/digitalhippo/hippo-backend/internal/store"
	"github.com/digitalhippo/hippo-backend/internal/utils"
)

// CollectionHandler exposes every registered collection as a REST resource.
// Access control happens in the engine; handlers only translate HTTP.
type CollectionHandler struct {
	engine *services.Engine
}

// WithCollection fixes the collection for routes whose path names it
// literally instead of through the :collection parameter.
func WithCollection(slug models.Collection) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Params = append(c.Params, gin.Param{Key: "collection", Value: string(slug)})
		c.Next()
	}
}

func NewCollectionHandler(engine *services.Engine) *CollectionHandler {
	return &CollectionHandler{engine: engine}
}

// GET /api/:collection
func (h *CollectionHandler) List(c *gin.Context) {
	slug := models.Collection(c.Param("collection"))
	params := utils.GetPaginationParams(c)

	filter, err := parseWhere(c)
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	records, total, err := h.engine.Find(c.Request.Context(), session.CurrentActor(c), slug, filter, store.FindOptions{
		Page:  params.Page,
		Limit: params.Limit,
		Sort:  utils.SortField(params, h.engine.SortFields(slug)),
		Desc:  params.Order == "desc",
	})
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	utils.PaginatedResponse(c, utils.CreatePaginationResult(records, total, params))
}

// GET /api/:collection/:id
func (h *CollectionHandler) Get(c *gin.Context) {
	rec, err := h.engine.FindByID(c.Request.Context(), session.CurrentActor(c), models.Collection(c.Param("collection")), c.Param("id"))
	if err != nil {
		utils.HandleError(c, err)
		return
	}
	utils.SuccessResponse(c, rec)
}

// POST /api/:collection
func (h *CollectionHandler) Create(c *gin.Context) {
	data, ok := bindDocument(c)
	if !ok {
		return
	}

	rec, err := h.engine.Create(c.Request.Context(), session.CurrentActor(c), models.Collection(c.Param("collection")), data)
	if err != nil {
		utils.HandleError(c, err)
		return
	}
	utils.CreatedResponse(c, rec)
}

// PATCH /api/:collection/:id
func (h *CollectionHandler) Update(c *gin.Context) {
	data, ok := bindDocument(c)
	if !ok {
		return
	}

	rec, err := h.engine.Update(c.Request.Context(), session.CurrentActor(c), models.Collection(c.Param("collection")), c.Param("id"), data)
	if err != nil {
		utils.HandleError(c, err)
		return
	}
	utils.SuccessResponse(c, rec)
}

// DELETE /api/:collection/:id
func (h *CollectionHandler) Delete(c *gin.Context) {
	id := c.Param("id")
	if err := h.engine.Delete(c.Request.Context(), session.CurrentActor(c), models.Collection(c.Param("collection")), id); err != nil {
		utils.HandleError(c, err)
		return
	}
	utils.SuccessResponse(c, gin.H{"id": id})
}

func bindDocument(c *gin.Context) (models.JSONB, bool) {
	var data models.JSONB
	if err := c.ShouldBindJSON(&data); err != nil {
		lang := utils.GetLangFromContext(c)
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "input"), err.Error())
		return nil, false
	}
	return data, true
}

// parseWhere reads where[field][operator]=value query parameters. Values
// for "in" may be repeated or comma separated.
func parseWhere(c *gin.Context) (store.Filter, error) {
	var filter store.Filter
	for key, values := range c.Request.URL.Query() {
		if !strings.HasPrefix(key, "where[") {
			continue
		}

		parts := strings.Split(strings.TrimSuffix(strings.TrimPrefix(key, "where["), "]"), "][")
		if len(parts) != 2 || parts[0] == "" {
			return nil, fmt.Errorf("malformed query parameter %q: %w", key, store.ErrInvalidQuery)
		}

		field, op := parts[0], store.Operator(parts[1])
		switch op {
		case store.Equals:
			filter = filter.And(store.Where(field, op, values[len(values)-1]))
		case store.In:
			var list []string
			for _, v := range values {
				for _, item := range strings.Split(v, ",") {
					if item = strings.TrimSpace(item); item != "" {
						list = append(list, item)
					}
				}
			}
			filter = filter.And(store.Where(field, op, list))
		default:
			return nil, fmt.Errorf("unsupported operator %q on %s: %w", op, field, store.ErrInvalidQuery)
		}
	}
	return filter, nil
}
