package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/cardtracker/cardtracker/web/cache"
	"github.com/cardtracker/cardtracker/web/service"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeParser map[string]*service.Claims

func (f fakeParser) ParseToken(token string) (*service.Claims, error) {
	if c, ok := f[token]; ok {
		return c, nil
	}
	return nil, errors.New("bad token")
}

var parser = fakeParser{
	"user-token": {
		Username:         "ash",
		Roles:            []string{"user"},
		RegisteredClaims: jwt.RegisteredClaims{Subject: "7"},
	},
	"admin-token": {
		Username:         "oak",
		Roles:            []string{"user", "admin"},
		RegisteredClaims: jwt.RegisteredClaims{Subject: "1"},
	},
}

func perform(engine *gin.Engine, method, path, authorization string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	return w
}

func TestAuthRequired(t *testing.T) {
	engine := gin.New()
	engine.GET("/me", AuthRequired(parser), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"id":       GetUserId(c),
			"username": c.GetString(KeyUsername),
			"admin":    HasRole(c, "admin"),
		})
	})

	tests := []struct {
		name          string
		authorization string
		code          int
		body          string
	}{
		{"missing header", "", http.StatusUnauthorized, `{"message":"No token"}`},
		{"wrong scheme", "Basic dXNlcjpwYXNz", http.StatusUnauthorized, `{"message":"No token"}`},
		{"empty bearer", "Bearer ", http.StatusUnauthorized, `{"message":"No token"}`},
		{"bad token", "Bearer forged", http.StatusUnauthorized, `{"message":"Invalid token"}`},
		{"user", "Bearer user-token", http.StatusOK, `{"id":7,"username":"ash","admin":false}`},
		{"lowercase scheme", "bearer admin-token", http.StatusOK, `{"id":1,"username":"oak","admin":true}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := perform(engine, http.MethodGet, "/me", tt.authorization)
			assert.Equal(t, tt.code, w.Code)
			assert.JSONEq(t, tt.body, w.Body.String())
		})
	}
}

func TestRequireRole(t *testing.T) {
	engine := gin.New()
	ok := func(c *gin.Context) { c.Status(http.StatusNoContent) }
	engine.POST("/admin", AuthRequired(parser), RequireRole("admin"), ok)
	engine.POST("/unguarded", RequireRole("admin"), ok)

	w := perform(engine, http.MethodPost, "/admin", "Bearer user-token")
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.JSONEq(t, `{"message":"Not authorized"}`, w.Body.String())

	w = perform(engine, http.MethodPost, "/admin", "Bearer admin-token")
	assert.Equal(t, http.StatusNoContent, w.Code)

	// without AuthRequired there is no caller at all
	w = perform(engine, http.MethodPost, "/unguarded", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRateLimit(t *testing.T) {
	require.NoError(t, cache.InitRedis(""))
	t.Cleanup(func() { _ = cache.Close() })

	engine := gin.New()
	engine.POST("/login", RateLimit(DefaultRateLimitConfig(3)), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	engine.POST("/register", RateLimit(DefaultRateLimitConfig(3)), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	for i := 1; i <= 3; i++ {
		w := perform(engine, http.MethodPost, "/login", "")
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "3", w.Header().Get("X-RateLimit-Limit"))
		assert.Equal(t, strconv.Itoa(3-i), w.Header().Get("X-RateLimit-Remaining"))
	}
	w := perform(engine, http.MethodPost, "/login", "")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.NotEmpty(t, w.Header().Get("Retry-After"))

	// counted per path
	w = perform(engine, http.MethodPost, "/register", "")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRateLimitFailsOpenWithoutRedis(t *testing.T) {
	require.NoError(t, cache.Close())

	engine := gin.New()
	engine.POST("/login", RateLimit(DefaultRateLimitConfig(1)), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	for i := 0; i < 3; i++ {
		assert.Equal(t, http.StatusOK, perform(engine, http.MethodPost, "/login", "").Code)
	}
}

func TestRequestID(t *testing.T) {
	engine := gin.New()
	engine.Use(RequestID(), RequestLogger())
	engine.GET("/ping", func(c *gin.Context) {
		c.String(http.StatusOK, c.GetString(HeaderRequestID))
	})

	w := perform(engine, http.MethodGet, "/ping", "")
	id := w.Header().Get(HeaderRequestID)
	assert.Len(t, id, 36)
	assert.Equal(t, id, w.Body.String())

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set(HeaderRequestID, "upstream-id")
	w = httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	assert.Equal(t, "upstream-id", w.Header().Get(HeaderRequestID))
}
