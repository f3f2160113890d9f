// internal/handlers/auth.go
package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/digitalhippo/hippo-backend/internal/config"
	"github.com/digitalhippo/hippo-backend/internal/i18n"
	"github.com/digitalhippo/hippo-backend/internal/rpc"
	"github.com/digitalhippo/hippo-backend/internal/services"
	"github.com/digitalhippo/hippo-backend/internal/session"
	"github.com/digitalhippo/hippo-backend/internal/utils"
)

type AuthHandler struct {
	authService *services.AuthService
	cfg         *config.Config
}

func NewAuthHandler(authService *services.AuthService, cfg *config.Config) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		cfg:         cfg,
	}
}

// GET /api/users/me
func (h *AuthHandler) Me(c *gin.Context) {
	user, err := h.authService.Me(c.Request.Context(), session.CurrentActor(c))
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{"user": user})
}

// POST /api/users/logout
func (h *AuthHandler) Logout(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	// Tokens are stateless; dropping the cookie ends the browser session.
	rpc.ClearSessionCookie(c, h.cfg)
	utils.SuccessResponse(c, gin.H{
		"message": i18n.T(lang, i18n.KeyAuthLogoutSuccess),
	})
}
