// Package client - client/sync.go
//
// The sync protocol: bootstrap fetch with roster merge and seed
// fallback, optimistic background writes tagged with the socket id,
// and a full resync whenever a foreign db_update arrives.
package client

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"school-trips/logger"
	"school-trips/models"
	"school-trips/store"
	ws "school-trips/websocket"
)

// socketConn is the slice of *websocket.Conn the client needs; tests
// substitute their own implementation.
type socketConn interface {
	ReadMessage() (int, []byte, error)
	SetReadDeadline(t time.Time) error
	Close() error
}

// dialSocket opens the event channel and waits for the hello frame
// carrying the socket id. Overridable in tests.
var dialSocket = func(url string) (socketConn, string, error) {
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		return nil, "", err
	}
	if err := conn.SetReadDeadline(time.Now().Add(10 * time.Second)); err != nil {
		_ = conn.Close()
		return nil, "", err
	}
	var hello struct {
		Type     string `json:"type"`
		SocketID string `json:"socketId"`
	}
	_, msg, err := conn.ReadMessage()
	if err != nil {
		_ = conn.Close()
		return nil, "", err
	}
	if err := json.Unmarshal(msg, &hello); err != nil || hello.Type != "hello" {
		_ = conn.Close()
		return nil, "", fmt.Errorf("unexpected first frame from event channel: %s", msg)
	}
	_ = conn.SetReadDeadline(time.Time{})
	return conn, hello.SocketID, nil
}

// connectSocket attaches the event channel. Failure is logged, not
// fatal: the cache still works, it just never hears about foreign
// writes.
func (c *Client) connectSocket() {
	if c.cfg.SocketURL == "" {
		return
	}
	conn, socketID, err := dialSocket(c.cfg.SocketURL)
	if err != nil {
		logger.Warn.Printf("client: event channel unavailable: %v", err)
		return
	}
	c.mu.Lock()
	c.conn = conn
	c.socketID = socketID
	c.mu.Unlock()
	logger.Info.Printf("client: event channel connected, socketId=%s", socketID)
}

// readLoop consumes db_update events until the connection drops.
func (c *Client) readLoop() {
	defer c.wg.Done()

	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()
	if conn == nil {
		return
	}

	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			select {
			case <-c.closed:
			default:
				logger.Warn.Printf("client: event channel closed: %v", err)
				c.mu.Lock()
				c.state = StateDisconnected
				c.mu.Unlock()
			}
			return
		}

		var update models.DBUpdate
		if err := json.Unmarshal(msg, &update); err != nil {
			logger.Debug.Printf("client: ignoring malformed event frame: %s", msg)
			continue
		}
		if update.Type != "db_update" {
			continue
		}
		c.handleUpdate(update)
	}
}

// handleUpdate applies the invalidation rule: my own echo is dropped
// (the optimistic write already happened); everything else reloads the
// whole snapshot.
func (c *Client) handleUpdate(update models.DBUpdate) {
	c.mu.Lock()
	own := c.socketID != "" && update.SourceSocketID == c.socketID
	c.mu.Unlock()

	if own {
		logger.Debug.Printf("client: suppressing own db_update echo (entity=%s action=%s)", update.Entity, update.Action)
		return
	}

	logger.Info.Printf("client: foreign db_update (entity=%s action=%s), resyncing", update.Entity, update.Action)
	c.mu.Lock()
	c.state = StateResyncing
	c.mu.Unlock()

	started := c.now()
	c.bootstrap()
	go ws.PublishResyncLatency(float64(c.now().Sub(started).Milliseconds()))
}

// ------------------- bootstrap -------------------

// login exchanges the configured credentials for a session cookie on
// the HTTP client's jar. Failure is logged, not fatal: bootstrap then
// runs unauthenticated and falls back to the offline seed.
func (c *Client) login() {
	if c.cfg.Username == "" {
		return
	}

	creds, err := json.Marshal(map[string]string{
		"username": c.cfg.Username,
		"password": c.cfg.Password,
	})
	if err != nil {
		logger.Error.Printf("client: cannot marshal credentials: %v", err)
		return
	}

	resp, err := c.http.Post(c.cfg.BaseURL+"/login", "application/json", bytes.NewReader(creds))
	if err != nil {
		logger.Error.Printf("client: login failed: %v", err)
		return
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		logger.Error.Printf("client: login rejected for %q: status %d", c.cfg.Username, resp.StatusCode)
		return
	}
	logger.Info.Printf("client: logged in as %q", c.cfg.Username)
}

// bootstrap loads the full snapshot, merges the roster collaborator
// and notifies subscribers. On failure the cache keeps whatever it
// already had, seeding the reference cycles when empty.
func (c *Client) bootstrap() {
	snap, err := c.fetchSnapshot()
	if err != nil {
		logger.Error.Printf("client: bootstrap fetch failed: %v", err)
		c.mu.Lock()
		if len(c.snap.Cycles) == 0 {
			c.snap.Cycles = append([]models.Cycle(nil), store.SeedCycles...)
		}
		c.state = StateSynced
		c.mu.Unlock()
		c.notify()
		return
	}

	if c.cfg.RosterURL != "" {
		c.mergeRoster(&snap)
	}

	c.mu.Lock()
	c.snap = snap
	c.state = StateSynced
	c.mu.Unlock()
	c.notify()
}

// fetchSnapshot pulls GET /api/db.
func (c *Client) fetchSnapshot() (models.Snapshot, error) {
	var snap models.Snapshot
	resp, err := c.http.Get(c.cfg.BaseURL + "/api/db")
	if err != nil {
		return snap, err
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		return snap, fmt.Errorf("GET /api/db: status %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(&snap); err != nil {
		return snap, err
	}
	return snap, nil
}

// mergeRoster folds the authoritative roster records into the
// snapshot. A roster user never clobbers a local record that already
// carries a password (local admin accounts win), and the class↔tutor
// back-references are recomputed afterwards from the TUTOR users.
func (c *Client) mergeRoster(snap *models.Snapshot) {
	var rosterUsers []models.User
	var rosterClasses []models.ClassGroup
	var rosterStudents []models.Student

	if err := c.fetchRoster("/users", &rosterUsers); err != nil {
		logger.Warn.Printf("client: roster users unavailable: %v", err)
		return
	}
	if err := c.fetchRoster("/classes", &rosterClasses); err != nil {
		logger.Warn.Printf("client: roster classes unavailable: %v", err)
	}
	if err := c.fetchRoster("/students", &rosterStudents); err != nil {
		logger.Warn.Printf("client: roster students unavailable: %v", err)
	}

	snap.Users = mergeUsers(snap.Users, rosterUsers)
	snap.Classes = mergeByID(snap.Classes, rosterClasses, func(cl models.ClassGroup) string { return cl.ID })
	snap.Students = mergeByID(snap.Students, rosterStudents, func(s models.Student) string { return s.ID })
	RelinkTutors(snap)
}

// fetchRoster pulls one roster collection.
func (c *Client) fetchRoster(path string, out any) error {
	resp, err := c.http.Get(c.cfg.RosterURL + path)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("roster %s: status %d", path, resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// mergeUsers upserts roster users, skipping ids whose local record has
// a non-empty password.
func mergeUsers(local, roster []models.User) []models.User {
	byID := make(map[string]int, len(local))
	for i, u := range local {
		byID[u.ID] = i
	}
	for _, ru := range roster {
		if i, ok := byID[ru.ID]; ok {
			if local[i].Password != "" {
				continue
			}
			local[i] = ru
			continue
		}
		byID[ru.ID] = len(local)
		local = append(local, ru)
	}
	return local
}

// mergeByID upserts roster records over the local slice, preserving
// local insertion order.
func mergeByID[T any](local, roster []T, id func(T) string) []T {
	byID := make(map[string]int, len(local))
	for i, item := range local {
		byID[id(item)] = i
	}
	for _, r := range roster {
		if i, ok := byID[id(r)]; ok {
			local[i] = r
			continue
		}
		byID[id(r)] = len(local)
		local = append(local, r)
	}
	return local
}

// RelinkTutors recomputes every class's tutor back-reference by
// scanning the TUTOR users. A class nobody tutors keeps its previous
// reference only if that user still exists as its tutor.
func RelinkTutors(snap *models.Snapshot) {
	tutorByClass := make(map[string]string)
	for _, u := range snap.Users {
		if u.Role == models.RoleTutor && u.ClassID != "" {
			tutorByClass[u.ClassID] = u.ID
		}
	}
	for i := range snap.Classes {
		if tutorID, ok := tutorByClass[snap.Classes[i].ID]; ok {
			snap.Classes[i].TutorID = tutorID
		}
	}
}

// ------------------- background writes -------------------

// apiCall performs one REST call. Network failures are logged and
// swallowed: the optimistic local state stands until the next resync.
func (c *Client) apiCall(method, path string, body any) {
	run := func() {
		var payload io.Reader
		if body != nil {
			data, err := json.Marshal(body)
			if err != nil {
				logger.Error.Printf("client: cannot marshal %s %s payload: %v", method, path, err)
				return
			}
			payload = bytes.NewReader(data)
		}

		req, err := http.NewRequest(method, c.cfg.BaseURL+path, payload)
		if err != nil {
			logger.Error.Printf("client: bad request for %s %s: %v", method, path, err)
			return
		}
		req.Header.Set("Content-Type", "application/json")
		if id := c.SocketID(); id != "" {
			req.Header.Set("x-socket-id", id)
		}

		resp, err := c.http.Do(req)
		if err != nil {
			logger.Error.Printf("client: API error [%s %s]: %v", method, path, err)
			return
		}
		_ = resp.Body.Close()
		if resp.StatusCode >= 400 {
			logger.Error.Printf("client: API error [%s %s]: status %d", method, path, resp.StatusCode)
		}
	}

	if c.cfg.SynchronousWrites {
		run()
		return
	}
	go run()
}

// syncItem upserts one entity on the server in the background.
func (c *Client) syncItem(entity string, item any) {
	c.apiCall(http.MethodPost, "/api/sync/"+entity, item)
}

// bulkSync upserts an ordered batch in one call.
func (c *Client) bulkSync(entity string, items any) {
	c.apiCall(http.MethodPost, "/api/sync/"+entity+"/bulk", items)
}

// deleteItem removes one entity on the server in the background.
func (c *Client) deleteItem(entity, id string) {
	c.apiCall(http.MethodDelete, "/api/sync/"+entity+"/"+id, nil)
}
