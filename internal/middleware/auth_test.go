package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/damoang/angple-chat/pkg/jwt"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAuthRouter(mw gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(mw)
	r.GET("/test", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"user_id": GetUserID(c), "name": GetUserName(c)})
	})
	return r
}

func TestJWTAuth(t *testing.T) {
	manager := jwt.NewManager("secret", 15, 60)
	access, err := manager.GenerateAccessToken("u1", "Alice")
	require.NoError(t, err)
	refresh, err := manager.GenerateRefreshToken("u1")
	require.NoError(t, err)

	r := newAuthRouter(JWTAuth(manager))

	tests := []struct {
		name   string
		header string
		query  string
		want   int
	}{
		{"valid bearer", "Bearer " + access, "", http.StatusOK},
		{"missing header", "", "", http.StatusUnauthorized},
		{"wrong scheme", "Token " + access, "", http.StatusUnauthorized},
		{"refresh token rejected", "Bearer " + refresh, "", http.StatusUnauthorized},
		{"garbage", "Bearer not-a-jwt", "", http.StatusUnauthorized},
		{"query token ignored", "", "?token=" + access, http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/test"+tt.query, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			r.ServeHTTP(w, req)
			assert.Equal(t, tt.want, w.Code)
		})
	}
}

func TestJWTAuth_SetsUserContext(t *testing.T) {
	manager := jwt.NewManager("secret", 15, 60)
	access, err := manager.GenerateAccessToken("u1", "Alice")
	require.NoError(t, err)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req.Header.Set("Authorization", "Bearer "+access)
	newAuthRouter(JWTAuth(manager)).ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"user_id":"u1","name":"Alice"}`, w.Body.String())
}

func TestJWTAuthWS_AcceptsQueryToken(t *testing.T) {
	manager := jwt.NewManager("secret", 15, 60)
	access, err := manager.GenerateAccessToken("u1", "Alice")
	require.NoError(t, err)
	r := newAuthRouter(JWTAuthWS(manager))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/test?token="+access, nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/test", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRateLimit_WithoutRedisPasses(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RateLimitPerUser(nil, 1))
	r.GET("/test", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/test", nil))
		assert.Equal(t, http.StatusNoContent, w.Code)
	}
}

func TestRequestLogger_SetsRequestID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestLogger(), SecurityHeaders())
	r.GET("/test", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req.Header.Set("X-Request-ID", "abc123")
	r.ServeHTTP(w, req)

	assert.Equal(t, "abc123", w.Header().Get("X-Request-ID"))
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
}
