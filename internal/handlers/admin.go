// internal/handlers/admin.go
package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/digitalhippo/hippo-backend/internal/services"
	"github.com/digitalhippo/hippo-backend/internal/utils"
)

type AdminHandler struct {
	ownerIndexService *services.OwnerIndexService
}

func NewAdminHandler(ownerIndexService *services.OwnerIndexService) *AdminHandler {
	return &AdminHandler{ownerIndexService: ownerIndexService}
}

// POST /api/admin/owner-index/resync?dry_run=true
func (h *AdminHandler) ResyncOwnerIndex(c *gin.Context) {
	report, err := h.ownerIndexService.Resync(c.Request.Context(), c.Query("dry_run") == "true")
	if err != nil {
		utils.HandleError(c, err)
		return
	}
	utils.SuccessResponse(c, report)
}
