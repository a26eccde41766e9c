// Package controllers controllers/roster_controller.go
package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"school-trips/logger"
	"school-trips/services"
)

// RosterController relays the external roster collaborator so browser
// clients can reach it without cross-origin trouble.
type RosterController struct {
	Service services.RosterServiceInterface
}

// NewRosterController initializes a new instance of RosterController.
func NewRosterController(service services.RosterServiceInterface) *RosterController {
	return &RosterController{Service: service}
}

// ProxyUsers relays the authoritative staff list.
func (rc *RosterController) ProxyUsers(c *gin.Context) {
	users, err := rc.Service.FetchUsers()
	if err != nil {
		logger.Warn.Printf("ProxyUsers: roster unavailable: %v", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "roster unavailable"})
		return
	}
	c.JSON(http.StatusOK, users)
}

// ProxyClasses relays the authoritative class list.
func (rc *RosterController) ProxyClasses(c *gin.Context) {
	classes, err := rc.Service.FetchClasses()
	if err != nil {
		logger.Warn.Printf("ProxyClasses: roster unavailable: %v", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "roster unavailable"})
		return
	}
	c.JSON(http.StatusOK, classes)
}

// ProxyStudents relays the authoritative student list.
func (rc *RosterController) ProxyStudents(c *gin.Context) {
	students, err := rc.Service.FetchStudents()
	if err != nil {
		logger.Warn.Printf("ProxyStudents: roster unavailable: %v", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "roster unavailable"})
		return
	}
	c.JSON(http.StatusOK, students)
}
