// file: services/roster_service_test.go
package services

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"school-trips/models"
)

func newRosterTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/users":
			_ = json.NewEncoder(w).Encode([]models.User{
				{ID: "u1", Username: "direccion", Role: models.RoleDireccion},
			})
		case "/classes":
			_ = json.NewEncoder(w).Encode([]models.ClassGroup{
				{ID: "cl1", Name: "1º A Primaria", CycleID: "c2"},
			})
		case "/students":
			w.WriteHeader(http.StatusInternalServerError)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestRosterService_FetchUsers(t *testing.T) {
	srv := newRosterTestServer(t)
	rs := NewRosterService(srv.URL)

	users, err := rs.FetchUsers()
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, "direccion", users[0].Username)
}

func TestRosterService_FetchClasses(t *testing.T) {
	srv := newRosterTestServer(t)
	rs := NewRosterService(srv.URL)

	classes, err := rs.FetchClasses()
	require.NoError(t, err)
	require.Len(t, classes, 1)
	assert.Equal(t, "1º A Primaria", classes[0].Name)
}

// Test: non-200 answers surface as errors
func TestRosterService_UpstreamError(t *testing.T) {
	srv := newRosterTestServer(t)
	rs := NewRosterService(srv.URL)

	_, err := rs.FetchStudents()
	assert.Error(t, err)
}

func TestRosterService_Unreachable(t *testing.T) {
	rs := NewRosterService("http://127.0.0.1:1")

	_, err := rs.FetchUsers()
	assert.Error(t, err)
}
