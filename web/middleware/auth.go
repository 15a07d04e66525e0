package middleware

import (
	"net/http"
	"strings"

	"github.com/cardtracker/cardtracker/web/entity"
	"github.com/cardtracker/cardtracker/web/service"

	"github.com/gin-gonic/gin"
)

// Keys under which AuthRequired stores the caller in the gin context.
const (
	KeyUserId   = "user_id"
	KeyUsername = "username"
	KeyRoles    = "roles"
)

// TokenParser validates a bearer token and returns its claims.
type TokenParser interface {
	ParseToken(token string) (*service.Claims, error)
}

// AuthRequired rejects requests without a valid bearer token.
func AuthRequired(parser TokenParser) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		scheme, token, ok := strings.Cut(header, " ")
		if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, entity.Msg{Message: "No token"})
			return
		}

		claims, err := parser.ParseToken(strings.TrimSpace(token))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, entity.Msg{Message: "Invalid token"})
			return
		}
		// ParseToken already checked the subject is numeric
		userId, _ := claims.UserId()

		c.Set(KeyUserId, userId)
		c.Set(KeyUsername, claims.Username)
		c.Set(KeyRoles, claims.Roles)
		c.Next()
	}
}

// GetUserId returns the caller set by AuthRequired.
func GetUserId(c *gin.Context) int {
	return c.GetInt(KeyUserId)
}

func GetRoles(c *gin.Context) []string {
	return c.GetStringSlice(KeyRoles)
}

// HasRole reports whether the caller holds role.
func HasRole(c *gin.Context, role string) bool {
	for _, r := range GetRoles(c) {
		if r == role {
			return true
		}
	}
	return false
}
