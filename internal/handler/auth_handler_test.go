package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/damoang/angple-chat/internal/migration"
	"github.com/damoang/angple-chat/internal/repository"
	"github.com/damoang/angple-chat/internal/service"
	"github.com/damoang/angple-chat/pkg/jwt"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupAuthRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, migration.Run(db))

	userRepo := repository.NewUserRepository(db)
	users := service.NewUserService(userRepo, nil)
	h := NewAuthHandler(service.NewAuthService(userRepo, users, jwt.NewManager("secret", 15, 60), nil), 3600, false)

	r := gin.New()
	r.POST("/register", h.Register)
	r.POST("/login", h.Login)
	r.POST("/refresh", h.Refresh)
	return r
}

func postJSON(r *gin.Engine, path string, body interface{}, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	data, _ := json.Marshal(body)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	for _, c := range cookies {
		req.AddCookie(c)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func refreshCookie(w *httptest.ResponseRecorder) *http.Cookie {
	for _, c := range w.Result().Cookies() {
		if c.Name == refreshCookieName {
			return c
		}
	}
	return nil
}

func TestRegister_Validation(t *testing.T) {
	r := setupAuthRouter(t)

	tests := []struct {
		name string
		body map[string]string
	}{
		{"missing name", map[string]string{"email": "a@example.com", "password": "secret123"}},
		{"blank name", map[string]string{"name": "   ", "email": "a@example.com", "password": "secret123"}},
		{"bad email", map[string]string{"name": "A", "email": "nope", "password": "secret123"}},
		{"short password", map[string]string{"name": "A", "email": "a@example.com", "password": "123"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := postJSON(r, "/register", tt.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Contains(t, w.Body.String(), "BAD_REQUEST")
		})
	}
}

func TestRegisterLoginRefresh(t *testing.T) {
	r := setupAuthRouter(t)
	creds := map[string]string{"name": "Alice", "email": "alice@example.com", "password": "secret123"}

	w := postJSON(r, "/register", creds)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.NotContains(t, w.Body.String(), "password")
	cookie := refreshCookie(w)
	require.NotNil(t, cookie)
	assert.True(t, cookie.HttpOnly)

	w = postJSON(r, "/register", creds)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = postJSON(r, "/login", map[string]string{"email": "alice@example.com", "password": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = postJSON(r, "/login", map[string]string{"email": "alice@example.com", "password": "secret123"})
	require.Equal(t, http.StatusOK, w.Code)
	var login struct {
		AccessToken string `json:"accessToken"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &login))
	assert.NotEmpty(t, login.AccessToken)

	w = postJSON(r, "/refresh", nil, refreshCookie(w))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "accessToken")

	w = postJSON(r, "/refresh", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
