// Package controllers provides HTTP handlers for various admin operations.
// File: controllers/admin_controller.go
package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"school-trips/logger"
	"school-trips/services"
	"school-trips/store"
)

// ---------------- Admin Controller ----------------

// AdminController provides DIRECCION-only operations: off-site backups
// of the database document.
type AdminController struct {
	Store  *store.Store
	Backup *services.BackupService
}

// NewAdminController initializes a new instance of AdminController.
func NewAdminController(st *store.Store, backup *services.BackupService) *AdminController {
	return &AdminController{Store: st, Backup: backup}
}

// TriggerBackup snapshots the database and uploads it to S3.
func (ac *AdminController) TriggerBackup(c *gin.Context) {
	if ac.Backup == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "backups are not configured"})
		return
	}

	snap, err := ac.Store.Snapshot()
	if err != nil {
		logger.Error.Printf("TriggerBackup: snapshot failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "snapshot failed"})
		return
	}

	key, err := ac.Backup.Upload(snap)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": "backup upload failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "key": key})
}
