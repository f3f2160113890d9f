// internal/middleware/auth.go
package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/digitalhippo/hippo-backend/internal/session"
	"github.com/digitalhippo/hippo-backend/internal/utils"
)

// Authenticate resolves the request's actor once and stores it on the
// request context. Requests without a valid session continue as Anonymous.
func Authenticate(resolver *session.Resolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, err := resolver.Resolve(c.Request.Context(), c.Request)
		if err != nil {
			logrus.WithError(err).Error("Failed to resolve session")
			utils.InternalErrorResponse(c, "")
			c.Abort()
			return
		}

		c.Request = c.Request.WithContext(session.WithActor(c.Request.Context(), actor))
		if actor.ID != "" {
			c.Set("user_id", actor.ID)
		}
		c.Next()
	}
}

// RequireActor aborts anonymous requests with 401.
func RequireActor() gin.HandlerFunc {
	return func(c *gin.Context) {
		if session.CurrentActor(c).IsAnonymous() {
			utils.UnauthorizedResponse(c, "")
			c.Abort()
			return
		}
		c.Next()
	}
}

func AdminRequired() gin.HandlerFunc {
	return gin.HandlerFunc(func(c *gin.Context) {
		actor := session.CurrentActor(c)
		if actor.IsAnonymous() {
			utils.UnauthorizedResponse(c, "")
			c.Abort()
			return
		}
		if !actor.IsAdmin() {
			utils.ForbiddenResponse(c, "")
			c.Abort()
			return
		}
		c.Next()
	})
}
