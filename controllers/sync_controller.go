// Package controllers provides the HTTP handlers of the sync server.
// File: controllers/sync_controller.go
package controllers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"

	"school-trips/logger"
	"school-trips/models"
	"school-trips/store"
	"school-trips/websocket"
)

// SyncController exposes the generic entity sync surface backed by the
// JSON store. Every successful write is broadcast on the event channel
// so other clients invalidate their caches.
type SyncController struct {
	Store *store.Store
	Hub   *websocket.Hub
}

// NewSyncController initializes a new instance of SyncController.
func NewSyncController(st *store.Store, hub *websocket.Hub) *SyncController {
	return &SyncController{Store: st, Hub: hub}
}

// sourceSocket reads the writer's channel id off the request so the
// broadcast can carry it for echo suppression.
func sourceSocket(c *gin.Context) string {
	return c.GetHeader("x-socket-id")
}

// sessionRole reads the role the login handler stored in the session.
// ok is false when the request never passed the session middleware.
func sessionRole(c *gin.Context) (models.Role, bool) {
	if _, exists := c.Get(sessions.DefaultKey); !exists {
		return "", false
	}
	role, _ := sessions.Default(c).Get("role").(string)
	return models.Role(role), true
}

// entityWriteAllowed enforces the entity-level role rules at the REST
// surface, independent of the client-boundary checks: treasury never
// writes participations, and only management touches user records.
func entityWriteAllowed(role models.Role, entity string) bool {
	switch entity {
	case models.EntityParticipations:
		return role != models.RoleTesoreria
	case models.EntityUsers:
		return role == models.RoleDireccion || role == models.RoleAdmin
	}
	return true
}

// rejectEntityWrite aborts with a 403 when the session role may not
// write the entity.
func rejectEntityWrite(c *gin.Context, entity string) bool {
	role, ok := sessionRole(c)
	if !ok {
		return false
	}
	if entityWriteAllowed(role, entity) {
		return false
	}
	logger.Warn.Printf("sync: role %q rejected for %s write", role, entity)
	c.JSON(http.StatusForbidden, gin.H{"error": "Permiso denegado"})
	return true
}

// GetDB returns the full database snapshot.
func (sc *SyncController) GetDB(c *gin.Context) {
	data, err := sc.Store.SnapshotJSON()
	if err != nil {
		logger.Error.Printf("GetDB: snapshot failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "snapshot failed"})
		return
	}
	c.Data(http.StatusOK, "application/json", data)
}

// SyncEntity upserts one entity by id.
func (sc *SyncController) SyncEntity(c *gin.Context) {
	entity := c.Param("entity")
	if !models.KnownEntity(entity) {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown entity"})
		return
	}
	if rejectEntityWrite(c, entity) {
		return
	}

	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unreadable body"})
		return
	}
	if err := sc.Store.Upsert(entity, body); err != nil {
		logger.Error.Printf("SyncEntity: upsert %s failed: %v", entity, err)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	sc.Hub.BroadcastUpdate(models.DBUpdate{
		Entity:         entity,
		Action:         models.ActionUpdate,
		SourceSocketID: sourceSocket(c),
	})
	go websocket.PublishStoreWriteBacklog(sc.Store.WriteBacklog())
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// SyncEntityBulk upserts an ordered batch of entities in one call.
// Later records win on duplicate ids.
func (sc *SyncController) SyncEntityBulk(c *gin.Context) {
	entity := c.Param("entity")
	if !models.KnownEntity(entity) {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown entity"})
		return
	}
	if rejectEntityWrite(c, entity) {
		return
	}

	var raws []json.RawMessage
	if err := c.ShouldBindJSON(&raws); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "body must be an array of entities"})
		return
	}
	count, err := sc.Store.BulkUpsert(entity, raws)
	if err != nil {
		logger.Error.Printf("SyncEntityBulk: bulk upsert %s failed: %v", entity, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	sc.Hub.BroadcastUpdate(models.DBUpdate{
		Entity:         entity,
		Action:         models.ActionBulkUpdate,
		Count:          count,
		SourceSocketID: sourceSocket(c),
	})
	go websocket.PublishStoreWriteBacklog(sc.Store.WriteBacklog())
	c.JSON(http.StatusOK, gin.H{"success": true, "count": count})
}

// DeleteEntity removes one entity by id.
func (sc *SyncController) DeleteEntity(c *gin.Context) {
	entity := c.Param("entity")
	id := c.Param("id")
	if !models.KnownEntity(entity) {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown entity"})
		return
	}
	if rejectEntityWrite(c, entity) {
		return
	}

	if err := sc.Store.Delete(entity, id); err != nil {
		logger.Error.Printf("DeleteEntity: delete %s/%s failed: %v", entity, id, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	sc.Hub.BroadcastUpdate(models.DBUpdate{
		Entity:         entity,
		Action:         models.ActionDelete,
		ID:             id,
		SourceSocketID: sourceSocket(c),
	})
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// Restore replaces the whole database from a backup payload. The
// payload must contain at least the users and excursions collections.
func (sc *SyncController) Restore(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unreadable body"})
		return
	}
	if err := sc.Store.Restore(body); err != nil {
		if errors.Is(err, store.ErrBadSnapshot) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Formato inválido"})
			return
		}
		logger.Error.Printf("Restore: failed: %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	sc.Hub.BroadcastUpdate(models.DBUpdate{
		Entity:         "all",
		Action:         models.ActionRestore,
		SourceSocketID: sourceSocket(c),
	})
	c.JSON(http.StatusOK, gin.H{"success": true})
}
