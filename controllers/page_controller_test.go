// Package controllers file: controllers/page_controller_test.go
package controllers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupPageRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/health", Health)
	r.GET("/qrcode", GetQRCode)
	return r
}

func TestHealth(t *testing.T) {
	r := setupPageRouter()

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/health", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "OK", w.Body.String())
}

func TestGetQRCode(t *testing.T) {
	r := setupPageRouter()

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/qrcode?id=e1", nil)
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "image/png", w.Header().Get("Content-Type"))
	assert.Equal(t, []byte{0x89, 'P', 'N', 'G'}, w.Body.Bytes()[:4])
}

func TestGetQRCode_MissingID(t *testing.T) {
	r := setupPageRouter()

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/qrcode", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Falta el parámetro id")
}
