package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/hirewire/warden/internal/services"
)

// AdminIDKey is where the authenticated admin id is stored in the gin context.
const AdminIDKey = "adminID"

// AuthRequired validates the Authorization bearer token and places the admin
// id in the context for audit trails.
func AuthRequired(auth *services.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
			return
		}

		adminID, err := auth.Verify(strings.TrimPrefix(header, "Bearer "))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		c.Set(AdminIDKey, adminID)
		c.Next()
	}
}
