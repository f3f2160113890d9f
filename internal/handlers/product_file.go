// internal/handlers/product_file.go
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/digitalhippo/hippo-backend/internal/i18n"
	"github.com/digitalhippo/hippo-backend/internal/services"
	"github.com/digitalhippo/hippo-backend/internal/session"
	"github.com/digitalhippo/hippo-backend/internal/utils"
)

type ProductFileHandler struct {
	storageService *services.StorageService
}

func NewProductFileHandler(storageService *services.StorageService) *ProductFileHandler {
	return &ProductFileHandler{storageService: storageService}
}

// POST /api/product_files/upload
func (h *ProductFileHandler) Upload(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	fileHeader, err := c.FormFile("file")
	if err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyUploadMissingFile), nil)
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		utils.HandleError(c, err)
		return
	}
	defer file.Close()

	rec, err := h.storageService.UploadProductFile(c.Request.Context(), session.CurrentActor(c), services.Upload{
		Filename:    fileHeader.Filename,
		ContentType: fileHeader.Header.Get("Content-Type"),
		Size:        fileHeader.Size,
		Body:        file,
	})
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	utils.CreatedResponse(c, rec)
}

// GET /api/product_files/:id/download
func (h *ProductFileHandler) Download(c *gin.Context) {
	dl, err := h.storageService.Download(c.Request.Context(), session.CurrentActor(c), c.Param("id"))
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	if dl.Path != "" {
		if dl.MimeType != "" {
			c.Header("Content-Type", dl.MimeType)
		}
		c.FileAttachment(dl.Path, dl.Filename)
		return
	}
	if c.Query("redirect") == "true" {
		c.Redirect(http.StatusFound, dl.URL)
		return
	}
	utils.SuccessResponse(c, gin.H{"url": dl.URL})
}
