// Package websocket - websocket/broadcast.go
package websocket

import (
	"encoding/json"

	"school-trips/logger"
	"school-trips/models"
)

// Run listens for messages on the broadcast channel and distributes
// them to every connection. Clients drop events carrying their own
// socket id, so the hub never filters by originator.
func (h *Hub) Run() {
	for msg := range h.broadcast {
		h.mu.Lock()
		for c := range h.connections {
			select {
			case c.send <- msg:
			default:
				logger.Warn.Printf("Dropping broadcast message for connection %v", c.conn.RemoteAddr())
			}
		}
		h.mu.Unlock()
	}
}

// BroadcastUpdate tells every client that a write happened against the
// given entity. SourceSocketID identifies the writer for echo
// suppression.
func (h *Hub) BroadcastUpdate(update models.DBUpdate) {
	update.Type = "db_update"
	msg, err := json.Marshal(update)
	if err != nil {
		logger.Error.Printf("Error marshalling db_update: %v", err)
		return
	}
	logger.Debug.Printf("Broadcasting db_update: entity=%s action=%s source=%s", update.Entity, update.Action, update.SourceSocketID)
	h.broadcast <- msg
}

// SendBroadcastMessage allows raw byte data to be sent over the broadcast channel.
func (h *Hub) SendBroadcastMessage(data []byte) {
	h.broadcast <- data
}
