// Package services holds the supporting collaborators of the server:
// the roster client, report generation, snapshot backups and QR codes.
// File: services/roster_service.go
package services

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"school-trips/logger"
	"school-trips/models"
)

// RosterServiceInterface is what controllers depend on, so tests can
// substitute a canned roster.
type RosterServiceInterface interface {
	FetchUsers() ([]models.User, error)
	FetchClasses() ([]models.ClassGroup, error)
	FetchStudents() ([]models.Student, error)
}

// RosterService talks to the external authoritative source of
// personnel, class and student records.
type RosterService struct {
	BaseURL string
	Client  *http.Client
}

// NewRosterService creates a roster client for the given base URL.
func NewRosterService(baseURL string) *RosterService {
	return &RosterService{
		BaseURL: baseURL,
		Client:  &http.Client{Timeout: 10 * time.Second},
	}
}

// FetchUsers pulls the authoritative staff list.
func (s *RosterService) FetchUsers() ([]models.User, error) {
	var users []models.User
	if err := s.get("/users", &users); err != nil {
		return nil, err
	}
	return users, nil
}

// FetchClasses pulls the authoritative class list.
func (s *RosterService) FetchClasses() ([]models.ClassGroup, error) {
	var classes []models.ClassGroup
	if err := s.get("/classes", &classes); err != nil {
		return nil, err
	}
	return classes, nil
}

// FetchStudents pulls the authoritative student list.
func (s *RosterService) FetchStudents() ([]models.Student, error) {
	var students []models.Student
	if err := s.get("/students", &students); err != nil {
		return nil, err
	}
	return students, nil
}

func (s *RosterService) get(path string, out any) error {
	url := s.BaseURL + path
	resp, err := s.Client.Get(url)
	if err != nil {
		logger.Warn.Printf("roster: %s unreachable: %v", url, err)
		return err
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("roster %s: status %d", path, resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
