// file: controllers/admin_controller_test.go
package controllers

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"school-trips/services"
	"school-trips/store"
)

// fakeS3 records the objects it receives.
type fakeS3 struct {
	s3iface.S3API
	putKeys []string
	bodies  [][]byte
	err     error
}

func (f *fakeS3) PutObject(in *s3.PutObjectInput) (*s3.PutObjectOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.putKeys = append(f.putKeys, *in.Key)
	body, _ := io.ReadAll(in.Body)
	f.bodies = append(f.bodies, body)
	return &s3.PutObjectOutput{}, nil
}

func setupAdminRouter(t *testing.T, backup *services.BackupService) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	st, err := store.Open(filepath.Join(t.TempDir(), "database.json"))
	require.NoError(t, err)
	t.Cleanup(st.Close)

	ac := NewAdminController(st, backup)
	router := gin.New()
	router.POST("/api/backup", ac.TriggerBackup)
	return router
}

func TestTriggerBackup(t *testing.T) {
	s3Client := &fakeS3{}
	backup := &services.BackupService{Bucket: "school-backups", S3: s3Client}
	router := setupAdminRouter(t, backup)

	req, _ := http.NewRequest("POST", "/api/backup", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	require.Len(t, s3Client.putKeys, 1)
	assert.Contains(t, s3Client.putKeys[0], "backup_hispanidad_")
	assert.Contains(t, string(s3Client.bodies[0]), `"users"`)
}

func TestTriggerBackup_UploadFails(t *testing.T) {
	backup := &services.BackupService{
		Bucket: "school-backups",
		S3:     &fakeS3{err: errors.New("access denied")},
	}
	router := setupAdminRouter(t, backup)

	req, _ := http.NewRequest("POST", "/api/backup", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadGateway, w.Code)
}

func TestTriggerBackup_NotConfigured(t *testing.T) {
	router := setupAdminRouter(t, nil)

	req, _ := http.NewRequest("POST", "/api/backup", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}
