// Package store persists the full school database as a single JSON
// document on disk. All file writes funnel through one writer goroutine
// so concurrent handlers can never interleave partial writes.
// File: store/store.go
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"school-trips/logger"
	"school-trips/models"
)

// document is the on-disk layout: six id-keyed collections kept as raw
// JSON so the sync endpoints stay generic across entity kinds.
type document struct {
	Users          []json.RawMessage `json:"users"`
	Cycles         []json.RawMessage `json:"cycles"`
	Classes        []json.RawMessage `json:"classes"`
	Students       []json.RawMessage `json:"students"`
	Excursions     []json.RawMessage `json:"excursions"`
	Participations []json.RawMessage `json:"participations"`
}

// collection returns a pointer to the named slice, or nil for an
// unknown entity.
func (d *document) collection(name string) *[]json.RawMessage {
	switch name {
	case models.EntityUsers:
		return &d.Users
	case models.EntityCycles:
		return &d.Cycles
	case models.EntityClasses:
		return &d.Classes
	case models.EntityStudents:
		return &d.Students
	case models.EntityExcursions:
		return &d.Excursions
	case models.EntityParticipations:
		return &d.Participations
	}
	return nil
}

// ErrUnknownEntity is returned for entity names outside the six
// collections.
var ErrUnknownEntity = errors.New("unknown entity")

// ErrBadSnapshot is returned when a restore payload is missing the
// users or excursions keys.
var ErrBadSnapshot = errors.New("snapshot must contain users and excursions")

type writeReq struct {
	data []byte
	done chan error
}

// Store owns the JSON document. Reads take the lock; mutations take the
// lock, re-marshal and queue the bytes for the writer goroutine.
type Store struct {
	path string

	mu  sync.RWMutex
	doc document

	jobs chan writeReq
	quit chan struct{}
	wg   sync.WaitGroup
}

// Open loads the database file, seeding it with the initial data when
// it does not exist yet, and starts the writer goroutine.
func Open(path string) (*Store, error) {
	s := &Store{
		path: path,
		jobs: make(chan writeReq, 64),
		quit: make(chan struct{}),
	}

	data, err := os.ReadFile(path) // #nosec G304
	switch {
	case errors.Is(err, os.ErrNotExist):
		s.doc = seedDocument()
		seeded, merr := json.MarshalIndent(&s.doc, "", "  ")
		if merr != nil {
			return nil, merr
		}
		if derr := os.MkdirAll(filepath.Dir(path), 0o750); derr != nil {
			return nil, derr
		}
		if werr := os.WriteFile(path, seeded, 0600); werr != nil {
			return nil, werr
		}
		logger.Info.Printf("store: created %s with seed data", path)
	case err != nil:
		return nil, err
	default:
		if uerr := json.Unmarshal(data, &s.doc); uerr != nil {
			// a corrupt file falls back to the seed, matching the
			// original server behaviour
			logger.Error.Printf("store: %s is corrupt (%v), falling back to seed data", path, uerr)
			s.doc = seedDocument()
		}
	}

	s.wg.Add(1)
	go s.writeLoop()
	return s, nil
}

// Close drains pending writes and stops the writer goroutine.
func (s *Store) Close() {
	close(s.quit)
	s.wg.Wait()
}

// writeLoop is the single owner of the database file.
func (s *Store) writeLoop() {
	defer s.wg.Done()
	for {
		select {
		case req := <-s.jobs:
			req.done <- os.WriteFile(s.path, req.data, 0600)
		case <-s.quit:
			// flush whatever is still queued
			for {
				select {
				case req := <-s.jobs:
					req.done <- os.WriteFile(s.path, req.data, 0600)
				default:
					return
				}
			}
		}
	}
}

// persistLocked marshals the current document and hands it to the
// writer. Caller must hold s.mu.
func (s *Store) persistLocked() error {
	data, err := json.MarshalIndent(&s.doc, "", "  ")
	if err != nil {
		return err
	}
	req := writeReq{data: data, done: make(chan error, 1)}
	s.jobs <- req
	return <-req.done
}

// WriteBacklog reports how many persisted snapshots are still queued.
func (s *Store) WriteBacklog() int {
	return len(s.jobs)
}

// ------------------- reads -------------------

// SnapshotJSON returns the full database document as JSON.
func (s *Store) SnapshotJSON() ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return json.Marshal(&s.doc)
}

// Snapshot decodes the document into typed collections.
func (s *Store) Snapshot() (models.Snapshot, error) {
	data, err := s.SnapshotJSON()
	if err != nil {
		return models.Snapshot{}, err
	}
	var snap models.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return models.Snapshot{}, err
	}
	return snap, nil
}

// FindUserByUsername looks a user up for login.
func (s *Store) FindUserByUsername(username string) (models.User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, raw := range s.doc.Users {
		var u models.User
		if err := json.Unmarshal(raw, &u); err != nil {
			continue
		}
		if u.Username == username {
			return u, true
		}
	}
	return models.User{}, false
}

// ------------------- writes -------------------

// idOf extracts the id field from a raw entity.
func idOf(raw json.RawMessage) (string, error) {
	var probe struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(raw, &probe); err != nil {
		return "", err
	}
	if probe.ID == "" {
		return "", errors.New("entity has no id")
	}
	return probe.ID, nil
}

// upsertLocked replaces the record with the same id or appends it,
// preserving insertion order. Caller must hold s.mu.
func upsertLocked(col *[]json.RawMessage, raw json.RawMessage) error {
	id, err := idOf(raw)
	if err != nil {
		return err
	}
	for i, existing := range *col {
		existingID, err := idOf(existing)
		if err != nil {
			continue
		}
		if existingID == id {
			(*col)[i] = raw
			return nil
		}
	}
	*col = append(*col, raw)
	return nil
}

// Upsert creates or replaces one entity by id. Last write wins.
func (s *Store) Upsert(entity string, raw json.RawMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	col := s.doc.collection(entity)
	if col == nil {
		return fmt.Errorf("%w: %s", ErrUnknownEntity, entity)
	}
	if err := upsertLocked(col, raw); err != nil {
		return err
	}
	return s.persistLocked()
}

// BulkUpsert applies an ordered sequence of upserts in one write.
// Returns the number of records applied.
func (s *Store) BulkUpsert(entity string, raws []json.RawMessage) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	col := s.doc.collection(entity)
	if col == nil {
		return 0, fmt.Errorf("%w: %s", ErrUnknownEntity, entity)
	}
	applied := 0
	for _, raw := range raws {
		if err := upsertLocked(col, raw); err != nil {
			logger.Warn.Printf("store: skipping bad record in %s bulk upsert: %v", entity, err)
			continue
		}
		applied++
	}
	if err := s.persistLocked(); err != nil {
		return applied, err
	}
	return applied, nil
}

// Delete removes one entity by id. Deleting a missing id is a no-op.
func (s *Store) Delete(entity, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	col := s.doc.collection(entity)
	if col == nil {
		return fmt.Errorf("%w: %s", ErrUnknownEntity, entity)
	}
	kept := (*col)[:0]
	for _, existing := range *col {
		existingID, err := idOf(existing)
		if err != nil || existingID != id {
			kept = append(kept, existing)
		}
	}
	*col = kept
	return s.persistLocked()
}

// Restore replaces the entire document with the supplied snapshot.
// The payload must carry at least the users and excursions keys.
func (s *Store) Restore(data []byte) error {
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(data, &probe); err != nil {
		return err
	}
	if _, ok := probe["users"]; !ok {
		return ErrBadSnapshot
	}
	if _, ok := probe["excursions"]; !ok {
		return ErrBadSnapshot
	}

	var next document
	if err := json.Unmarshal(data, &next); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.doc = next
	return s.persistLocked()
}
