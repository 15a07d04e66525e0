package middleware

import (
	"net/http"

	"github.com/cardtracker/cardtracker/web/entity"

	"github.com/gin-gonic/gin"
)

// RequireRole lets the request through when the caller holds any of roles.
// It must run after AuthRequired.
func RequireRole(roles ...string) gin.HandlerFunc {
	allowed := make(map[string]bool)
	for _, r := range roles {
		allowed[r] = true
	}
	return func(c *gin.Context) {
		if _, exists := c.Get(KeyRoles); !exists {
			c.AbortWithStatusJSON(http.StatusUnauthorized, entity.Msg{Message: "No token"})
			return
		}
		for _, r := range GetRoles(c) {
			if allowed[r] {
				c.Next()
				return
			}
		}
		c.AbortWithStatusJSON(http.StatusForbidden, entity.Msg{Message: "Not authorized"})
	}
}
