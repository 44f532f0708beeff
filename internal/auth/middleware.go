package auth

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/mlevchik/mnemo/internal/database/users"
)

const userContextKey = "auth_user"

// TokenMiddleware authenticates requests with "Authorization: Bearer
// <token>" against the user database. Installed only when AUTH_MODE is
// "token"; the default mode leaves the API open for local use.
func TokenMiddleware(repo *users.Repository) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
			return
		}

		user, err := repo.ByToken(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		c.Set(userContextKey, user)
		c.Next()
	}
}
