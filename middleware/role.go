// Package middleware file: middleware/role.go
package middleware

import (
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"

	"school-trips/logger"
	"school-trips/models"
)

// RoleRequired restricts a route to the given roles. The session role is
// set at login; anything else gets a JSON 403.
// Usage:
//
//	admin.Use(middleware.RoleRequired(models.RoleDireccion, models.RoleAdmin))
func RoleRequired(roles ...models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		session := sessions.Default(c)
		raw := session.Get("role")

		role, ok := raw.(string)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "No autenticado"})
			c.Abort()
			return
		}

		for _, allowed := range roles {
			if models.Role(role) == allowed {
				c.Next()
				return
			}
		}

		logger.Warn.Printf("RoleRequired: role %q rejected for %s", role, c.Request.URL.Path)
		c.JSON(http.StatusForbidden, gin.H{"error": "Permiso denegado"})
		c.Abort()
	}
}
