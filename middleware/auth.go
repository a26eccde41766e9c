// Package middleware provides request filters and security checks for the application.
// File: middleware/auth.go
package middleware

import (
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"

	"school-trips/logger"
)

// -------------- authentication middleware --------------

// AuthRequired ensures the request carries a logged-in session.
// The session must hold a "userID" set by the login handler; requests
// without one get a JSON 401 and are aborted.
// Usage:
//
//	router.Use(AuthRequired)
func AuthRequired(c *gin.Context) {
	session := sessions.Default(c)
	userID := session.Get("userID")

	// block request if user session is missing
	if userID == nil {
		logger.Warn.Printf("AuthRequired: no user in session for %s", c.Request.URL.Path)
		c.JSON(http.StatusUnauthorized, gin.H{"error": "No autenticado"})
		c.Abort()
		return
	}

	logger.Debug.Println("[AuthRequired] user authenticated - proceeding with request")
	c.Next()
}
