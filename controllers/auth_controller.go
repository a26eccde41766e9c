// Package controllers controllers/auth_controller.go
package controllers

import (
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"

	"school-trips/logger"
	"school-trips/models"
	"school-trips/store"
)

// AuthController handles login, logout and the current-user lookup.
type AuthController struct {
	Store *store.Store
}

// NewAuthController initializes a new instance of AuthController.
func NewAuthController(st *store.Store) *AuthController {
	return &AuthController{Store: st}
}

// ComparePasswords checks if the given password matches the hashed password.
func ComparePasswords(hashedPassword, plainPassword string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(plainPassword))
	return err == nil
}

// sanitize strips the password hash before a user record leaves the
// server.
func sanitize(u models.User) models.User {
	u.Password = ""
	return u
}

// Login authenticates a user and stores their identity in the session.
func (ac *AuthController) Login(c *gin.Context) {
	var creds struct {
		Username string `json:"username" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&creds); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "username and password are required"})
		return
	}

	user, ok := ac.Store.FindUserByUsername(creds.Username)
	if !ok || !ComparePasswords(user.Password, creds.Password) {
		logger.Warn.Printf("Login: failed attempt for username %q", creds.Username)
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		return
	}

	session := sessions.Default(c)
	session.Set("userID", user.ID)
	session.Set("role", string(user.Role))
	if err := session.Save(); err != nil {
		logger.Error.Printf("Login: failed to save session: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "session error"})
		return
	}

	logger.Info.Printf("Login: %s (%s) signed in", user.Username, user.Role)
	c.JSON(http.StatusOK, gin.H{"success": true, "user": sanitize(user)})
}

// Logout clears the session.
func (ac *AuthController) Logout(c *gin.Context) {
	session := sessions.Default(c)
	session.Clear()
	if err := session.Save(); err != nil {
		logger.Error.Printf("Logout: error saving session: %v", err)
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// Me returns the logged-in user, mirroring the roster "me" probe the
// frontend fires on startup.
func (ac *AuthController) Me(c *gin.Context) {
	session := sessions.Default(c)
	userID, _ := session.Get("userID").(string)
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "not logged in"})
		return
	}

	snap, err := ac.Store.Snapshot()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "snapshot failed"})
		return
	}
	for _, u := range snap.Users {
		if u.ID == userID {
			c.JSON(http.StatusOK, gin.H{"success": true, "user": sanitize(u)})
			return
		}
	}
	c.JSON(http.StatusUnauthorized, gin.H{"error": "unknown user"})
}
