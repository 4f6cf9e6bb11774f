package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"infosec-dashboard/internal/auth"
	"infosec-dashboard/internal/transport/http/response"
)

const ContextUserIDKey = "user_id"

// RequireSession rejects requests while no user is signed in.
func RequireSession(provider auth.SessionProvider) gin.HandlerFunc {
	return func(c *gin.Context) {
		session := provider.CurrentSession()
		if !session.Authenticated {
			response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "sign in required")
			c.Abort()
			return
		}
		c.Set(ContextUserIDKey, session.User.ID)
		c.Next()
	}
}
