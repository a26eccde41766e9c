// Package client implements the local data cache every UI instance
// works against: an in-memory mirror of the six server collections,
// a subscription mechanism for change notifications, optimistic writes
// pushed to the server in the background, and a WebSocket listener
// that triggers a full resync whenever another client writes.
// File: client/client.go
package client

import (
	"net/http"
	"net/http/cookiejar"
	"sync"
	"time"

	"school-trips/models"
)

// State describes where the sync protocol currently is.
type State string

const (
	StateDisconnected State = "DISCONNECTED"
	StateConnecting   State = "CONNECTING"
	StateSynced       State = "SYNCED"
	StateResyncing    State = "RESYNCING"
)

// Config wires a client to its server.
type Config struct {
	// BaseURL is the REST root, e.g. "http://localhost:3005".
	BaseURL string
	// SocketURL is the event channel, e.g. "ws://localhost:3005/ws".
	// Empty disables the channel; the cache then only refreshes on
	// explicit mutations.
	SocketURL string
	// RosterURL points at the external roster collaborator merged in
	// at bootstrap. Empty skips the merge.
	RosterURL string
	// Username and Password authenticate against POST /login before
	// the first snapshot fetch. The protected /api routes require the
	// resulting session cookie; leaving them empty only works against
	// an unprotected server.
	Username string
	Password string
	// HTTPClient overrides the default client, mainly for tests.
	HTTPClient *http.Client
	// SynchronousWrites makes every background sync call block until
	// the server answered. Intended for tests.
	SynchronousWrites bool
}

// Client is the handle returned by Open. All methods are safe for
// concurrent use; reads serve straight from memory.
type Client struct {
	cfg  Config
	http *http.Client

	mu       sync.Mutex
	state    State
	socketID string
	snap     models.Snapshot

	listeners  map[int]func()
	nextListID int

	conn      socketConn
	closed    chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup

	// injectable for tests
	now func() time.Time
}

// Open connects the event channel, bootstraps the cache from the
// server (merging the roster source) and returns the live handle.
// A server that cannot be reached is not an error: the cache falls
// back to the built-in reference data and stays usable offline.
func Open(cfg Config) *Client {
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		// the session cookie from /login must ride along on every
		// subsequent /api call
		jar, _ := cookiejar.New(nil)
		httpClient = &http.Client{Timeout: 10 * time.Second, Jar: jar}
	}

	c := &Client{
		cfg:       cfg,
		http:      httpClient,
		state:     StateConnecting,
		listeners: make(map[int]func()),
		closed:    make(chan struct{}),
		now:       time.Now,
	}

	// log in first so the snapshot fetch carries a session cookie,
	// then open the event channel before the fetch so no db_update
	// slips between the two
	c.login()
	c.connectSocket()
	c.bootstrap()

	if c.conn != nil {
		c.wg.Add(1)
		go c.readLoop()
	}
	return c
}

// Close tears the socket down and stops the listener goroutine.
// Closing an already-closed client is a no-op.
func (c *Client) Close() {
	c.closeOnce.Do(func() {
		c.mu.Lock()
		conn := c.conn
		c.conn = nil
		c.state = StateDisconnected
		c.mu.Unlock()

		close(c.closed)
		if conn != nil {
			_ = conn.Close()
		}
		c.wg.Wait()
	})
}

// State reports the sync protocol state.
func (c *Client) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// SocketID returns the channel id the server assigned, or "" when the
// event channel is down.
func (c *Client) SocketID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.socketID
}

// ------------------- subscriptions -------------------

// Subscribe registers a callback fired after every cache mutation,
// local or remote. The returned function unsubscribes.
func (c *Client) Subscribe(fn func()) func() {
	c.mu.Lock()
	id := c.nextListID
	c.nextListID++
	c.listeners[id] = fn
	c.mu.Unlock()

	return func() {
		c.mu.Lock()
		delete(c.listeners, id)
		c.mu.Unlock()
	}
}

// notify invokes every subscriber exactly once. Callbacks run outside
// the lock so they may read the cache freely.
func (c *Client) notify() {
	c.mu.Lock()
	fns := make([]func(), 0, len(c.listeners))
	for _, fn := range c.listeners {
		fns = append(fns, fn)
	}
	c.mu.Unlock()

	for _, fn := range fns {
		fn()
	}
}

// ------------------- read accessors -------------------
// Getters hand out copies so callers never observe a slice mutating
// underneath them.

// GetUsers returns the cached users.
func (c *Client) GetUsers() []models.User {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]models.User(nil), c.snap.Users...)
}

// GetCycles returns the cached cycles.
func (c *Client) GetCycles() []models.Cycle {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]models.Cycle(nil), c.snap.Cycles...)
}

// GetClasses returns the cached classes.
func (c *Client) GetClasses() []models.ClassGroup {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]models.ClassGroup(nil), c.snap.Classes...)
}

// GetStudents returns the cached students.
func (c *Client) GetStudents() []models.Student {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]models.Student(nil), c.snap.Students...)
}

// GetExcursions returns the cached excursions.
func (c *Client) GetExcursions() []models.Excursion {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]models.Excursion(nil), c.snap.Excursions...)
}

// GetParticipations returns the cached participations.
func (c *Client) GetParticipations() []models.Participation {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]models.Participation(nil), c.snap.Participations...)
}

// ExportSnapshot copies the whole cache, e.g. for a backup download.
func (c *Client) ExportSnapshot() models.Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return models.Snapshot{
		Users:          append([]models.User(nil), c.snap.Users...),
		Cycles:         append([]models.Cycle(nil), c.snap.Cycles...),
		Classes:        append([]models.ClassGroup(nil), c.snap.Classes...),
		Students:       append([]models.Student(nil), c.snap.Students...),
		Excursions:     append([]models.Excursion(nil), c.snap.Excursions...),
		Participations: append([]models.Participation(nil), c.snap.Participations...),
	}
}
