package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"wonderwomen/internal/pkg/config"
	baseModel "wonderwomen/pkg/model"
	"wonderwomen/pkg/response"
	"wonderwomen/pkg/utils"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

func newRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	config.GlobalConfig.JWT.Secret = "middleware-secret-0123456789abcdef"

	r := gin.New()
	r.Use(TraceMiddleware())
	r.GET("/me", AuthMiddleware(), func(c *gin.Context) {
		response.Success(c, CurrentActor(c))
	})
	r.GET("/admin", AuthMiddleware(), AdminMiddleware(), func(c *gin.Context) {
		response.Success(c, "ok")
	})
	return r
}

func get(r *gin.Engine, path, auth string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func bearer(t *testing.T, actor baseModel.Actor) string {
	t.Helper()
	tok, _, err := utils.GenerateToken(actor)
	require.NoError(t, err)
	return "Bearer " + tok
}

func TestAuth(t *testing.T) {
	r := newRouter()
	member := bearer(t, baseModel.Actor{ID: "7", Name: "Kim", Role: "mentee"})
	admin := bearer(t, baseModel.Actor{ID: "1", Name: "Admin", Role: "admin"})

	t.Run("missing header", func(t *testing.T) {
		assert.Equal(t, http.StatusUnauthorized, get(r, "/me", "").Code)
	})

	t.Run("malformed header", func(t *testing.T) {
		assert.Equal(t, http.StatusUnauthorized, get(r, "/me", "Token abc").Code)
	})

	t.Run("actor in context", func(t *testing.T) {
		w := get(r, "/me", member)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"name":"Kim"`)
		assert.NotEmpty(t, w.Header().Get("X-Trace-ID"))
	})

	t.Run("admin only", func(t *testing.T) {
		assert.Equal(t, http.StatusForbidden, get(r, "/admin", member).Code)
		assert.Equal(t, http.StatusOK, get(r, "/admin", admin).Code)
	})
}

func TestTraceIDIsPropagated(t *testing.T) {
	r := newRouter()
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("X-Trace-ID", "trace-42")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "trace-42", w.Header().Get("X-Trace-ID"))
}

func TestRateLimit(t *testing.T) {
	t.Run("rejects over burst", func(t *testing.T) {
		gin.SetMode(gin.TestMode)
		r := gin.New()
		r.Use(RateLimitMiddleware(1, 2))
		r.GET("/ping", func(c *gin.Context) { c.Status(http.StatusOK) })

		assert.Equal(t, http.StatusOK, get(r, "/ping", "").Code)
		assert.Equal(t, http.StatusOK, get(r, "/ping", "").Code)
		assert.Equal(t, http.StatusTooManyRequests, get(r, "/ping", "").Code)
	})

	t.Run("disabled", func(t *testing.T) {
		r := gin.New()
		r.Use(RateLimitMiddleware(0, 0))
		r.GET("/ping", func(c *gin.Context) { c.Status(http.StatusOK) })
		for i := 0; i < 20; i++ {
			assert.Equal(t, http.StatusOK, get(r, "/ping", "").Code)
		}
	})

	t.Run("idle visitors are evicted", func(t *testing.T) {
		now := time.Now()
		l := NewIPRateLimiter(rate.Limit(1), 1)
		l.now = func() time.Time { return now }

		assert.True(t, l.Allow("10.0.0.1"))
		assert.False(t, l.Allow("10.0.0.1"))
		assert.True(t, l.Allow("10.0.0.2"))
		assert.Equal(t, 2, l.Len())

		now = now.Add(idleLimiterTTL + time.Minute)
		assert.True(t, l.Allow("10.0.0.3"))
		assert.Equal(t, 1, l.Len())
	})
}
