package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"wonderwomen/internal/store"
	"wonderwomen/internal/store/kv"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setup(t *testing.T) (*gin.Engine, *store.Store) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	s := store.New(kv.NewMemory())
	_, err := s.Load(context.Background())
	require.NoError(t, err)

	h := NewCollectionHandler(s)
	r := gin.New()
	r.GET("/health", h.Health)
	r.GET("/collections/:key", h.GetCollection)
	r.PUT("/collections/:key", h.ReplaceCollection)
	return r, s
}

func serve(r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestCollections(t *testing.T) {
	r, s := setup(t)

	t.Run("get", func(t *testing.T) {
		w := serve(r, http.MethodGet, "/collections/categories", "")
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"code":0`)
	})

	t.Run("unknown key", func(t *testing.T) {
		w := serve(r, http.MethodGet, "/collections/mentors", "")
		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Contains(t, w.Body.String(), `"code":40001`)
	})

	t.Run("replace", func(t *testing.T) {
		w := serve(r, http.MethodPut, "/collections/orders", `[{"id": 1, "status": "paid"}]`)
		require.Equal(t, http.StatusOK, w.Code)
		orders := s.Snapshot().Orders
		require.Len(t, orders, 1)
		assert.Equal(t, "paid", orders[0]["status"])
	})

	t.Run("replace with wrong shape", func(t *testing.T) {
		w := serve(r, http.MethodPut, "/collections/categories", `{"not": "a list"}`)
		assert.Equal(t, http.StatusBadRequest, w.Code)

		w = serve(r, http.MethodPut, "/collections/categories", `not json`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("users never expose passwords", func(t *testing.T) {
		w := serve(r, http.MethodGet, "/collections/users", "")
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"username":"admin"`)
		assert.NotContains(t, w.Body.String(), `"password"`)

		w = serve(r, http.MethodPut, "/collections/users",
			`[{"id": 1, "username": "admin", "password": "s3cret", "name": "Admin", "role": "admin"}]`)
		require.Equal(t, http.StatusOK, w.Code)
		assert.NotContains(t, w.Body.String(), `"password"`)
		assert.Equal(t, "s3cret", s.Snapshot().Users[0].Password, "stored record keeps the password")
	})

	t.Run("health", func(t *testing.T) {
		w := serve(r, http.MethodGet, "/health", "")
		assert.Equal(t, http.StatusOK, w.Code)
	})
}
