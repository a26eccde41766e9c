// file: controllers/auth_controller_test.go
package controllers

import (
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"school-trips/store"
)

func setupAuthRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	st, err := store.Open(filepath.Join(t.TempDir(), "database.json"))
	require.NoError(t, err)
	t.Cleanup(st.Close)

	ac := NewAuthController(st)

	router := gin.New()
	router.Use(sessions.Sessions("testsession", cookie.NewStore([]byte("secret"))))
	router.POST("/login", ac.Login)
	router.GET("/logout", ac.Logout)
	router.GET("/api/proxy/me", ac.Me)
	return router
}

func TestComparePasswords(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("123"), bcrypt.DefaultCost)
	require.NoError(t, err)

	assert.True(t, ComparePasswords(string(hash), "123"))
	assert.False(t, ComparePasswords(string(hash), "wrong"))
	assert.False(t, ComparePasswords("not-a-hash", "123"))
}

// Test: seeded accounts can log in and never leak their password hash
func TestLogin_Success(t *testing.T) {
	router := setupAuthRouter(t)

	req, _ := http.NewRequest("POST", "/login",
		strings.NewReader(`{"username":"direccion","password":"123"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"username":"direccion"`)
	assert.Contains(t, w.Body.String(), `"role":"DIRECCION"`)
	assert.NotContains(t, w.Body.String(), "$2a$")
	assert.NotEmpty(t, w.Result().Cookies())
}

func TestLogin_WrongPassword(t *testing.T) {
	router := setupAuthRouter(t)

	req, _ := http.NewRequest("POST", "/login",
		strings.NewReader(`{"username":"direccion","password":"nope"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestLogin_UnknownUser(t *testing.T) {
	router := setupAuthRouter(t)

	req, _ := http.NewRequest("POST", "/login",
		strings.NewReader(`{"username":"nadie","password":"123"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestLogin_MissingFields(t *testing.T) {
	router := setupAuthRouter(t)

	req, _ := http.NewRequest("POST", "/login", strings.NewReader(`{"username":"x"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

// Test: the me probe reflects the logged-in session
func TestMe(t *testing.T) {
	router := setupAuthRouter(t)

	// without a session
	req, _ := http.NewRequest("GET", "/api/proxy/me", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// log in, then replay the session cookie
	loginReq, _ := http.NewRequest("POST", "/login",
		strings.NewReader(`{"username":"tutor1","password":"123"}`))
	loginReq.Header.Set("Content-Type", "application/json")
	loginW := httptest.NewRecorder()
	router.ServeHTTP(loginW, loginReq)
	require.Equal(t, http.StatusOK, loginW.Code)

	req, _ = http.NewRequest("GET", "/api/proxy/me", nil)
	for _, c := range loginW.Result().Cookies() {
		req.AddCookie(c)
	}
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"username":"tutor1"`)
	assert.NotContains(t, w.Body.String(), "$2a$")
}

func TestLogout(t *testing.T) {
	router := setupAuthRouter(t)

	loginReq, _ := http.NewRequest("POST", "/login",
		strings.NewReader(`{"username":"tutor1","password":"123"}`))
	loginReq.Header.Set("Content-Type", "application/json")
	loginW := httptest.NewRecorder()
	router.ServeHTTP(loginW, loginReq)
	require.Equal(t, http.StatusOK, loginW.Code)

	logoutReq, _ := http.NewRequest("GET", "/logout", nil)
	for _, c := range loginW.Result().Cookies() {
		logoutReq.AddCookie(c)
	}
	logoutW := httptest.NewRecorder()
	router.ServeHTTP(logoutW, logoutReq)
	assert.Equal(t, http.StatusOK, logoutW.Code)

	// the cleared session no longer authenticates
	meReq, _ := http.NewRequest("GET", "/api/proxy/me", nil)
	for _, c := range logoutW.Result().Cookies() {
		meReq.AddCookie(c)
	}
	meW := httptest.NewRecorder()
	router.ServeHTTP(meW, meReq)
	assert.Equal(t, http.StatusUnauthorized, meW.Code)
}
