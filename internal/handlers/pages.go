// internal/handlers/pages.go
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/digitalhippo/hippo-backend/internal/session"
	"github.com/digitalhippo/hippo-backend/internal/utils"
)

// Page guards run in front of the storefront pages served by the front end.
// They only redirect; the pages themselves are not rendered here.

// RequireSignedIn sends anonymous visitors to the sign-in page, remembering
// where they came from.
func RequireSignedIn(origin string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if session.CurrentActor(c).IsAnonymous() {
			c.Redirect(http.StatusFound, "/sign-in?origin="+origin)
			c.Abort()
			return
		}
		c.Next()
	}
}

// RedirectSignedIn keeps signed-in users off the sign-in and sign-up pages.
func RedirectSignedIn() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !session.CurrentActor(c).IsAnonymous() {
			c.Redirect(http.StatusFound, "/")
			c.Abort()
			return
		}
		c.Next()
	}
}

// Page is the terminal handler for a guarded page. The front end renders
// the page; a 200 here tells it the visitor may see it.
func Page(c *gin.Context) {
	utils.SuccessResponse(c, gin.H{"page": c.Request.URL.Path})
}
