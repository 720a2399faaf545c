package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"wonderwomen/internal/domain/forum"
	"wonderwomen/internal/pkg/config"
	"wonderwomen/internal/pkg/registry"
	"wonderwomen/internal/store"
	"wonderwomen/internal/store/kv"
	baseModel "wonderwomen/pkg/model"
	"wonderwomen/pkg/response"
	"wonderwomen/pkg/utils"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const seed = `{
  "users": [],
  "forum_posts": [
    {"id": 1, "title": "Welcome", "category": "General", "content": "Hi", "authorId": 5, "authorName": "Ana",
     "likes": 0, "likedBy": [], "replies": [{"id": 11, "authorId": 9, "authorName": "Zoe", "content": "hello", "replies": []}]}
  ]
}`

func setup(t *testing.T) (*gin.Engine, *store.Store) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	config.GlobalConfig.JWT.Secret = "test-secret-0123456789abcdef0123456789"

	s := store.New(kv.NewMemory(), store.WithSeed([]byte(seed)))
	_, err := s.Load(context.Background())
	require.NoError(t, err)

	r := gin.New()
	err = (&forum.ForumModule{}).Init(&registry.ModuleContext{
		Store:  s,
		Router: r,
		IDs:    baseModel.NewSequenceGenerator("t"),
	})
	require.NoError(t, err)
	return r, s
}

func token(t *testing.T, id, name, role string) string {
	t.Helper()
	tok, _, err := utils.GenerateToken(baseModel.Actor{ID: baseModel.ID(id), Name: name, Role: role})
	require.NoError(t, err)
	return "Bearer " + tok
}

func do(r *gin.Engine, method, path, auth string, body any) (*httptest.ResponseRecorder, response.Response) {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var resp response.Response
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	return w, resp
}

func TestForumRoutes(t *testing.T) {
	r, s := setup(t)
	member := token(t, "7", "Kim", "mentee")
	admin := token(t, "1", "Admin", "admin")

	t.Run("list is public", func(t *testing.T) {
		w, resp := do(r, http.MethodGet, "/forum/posts?category=General", "", nil)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, response.CodeSuccess, resp.Code)
		data := resp.Data.(map[string]any)
		assert.EqualValues(t, 1, data["total"])
	})

	t.Run("like requires auth", func(t *testing.T) {
		w, _ := do(r, http.MethodPost, "/forum/posts/1/like", "", nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("like", func(t *testing.T) {
		w, resp := do(r, http.MethodPost, "/forum/posts/1/like", member, nil)
		require.Equal(t, http.StatusOK, w.Code)
		data := resp.Data.(map[string]any)
		assert.Equal(t, true, data["liked"])
		assert.EqualValues(t, 1, data["likes"])
		assert.Len(t, s.Snapshot().Notifications, 1)
	})

	t.Run("nested reply", func(t *testing.T) {
		w, resp := do(r, http.MethodPost, "/forum/posts/1/replies", member, gin.H{"content": "nice", "parentReplyId": 11})
		require.Equal(t, http.StatusOK, w.Code)
		data := resp.Data.(map[string]any)
		assert.EqualValues(t, 2, data["replyCount"])
	})

	t.Run("reply to missing comment", func(t *testing.T) {
		w, resp := do(r, http.MethodPost, "/forum/posts/1/replies", member, gin.H{"content": "x", "parentReplyId": "nope"})
		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Equal(t, response.ErrReplyNotFound, resp.Code)
	})

	t.Run("unknown post", func(t *testing.T) {
		w, resp := do(r, http.MethodGet, "/forum/posts/404", "", nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Equal(t, response.ErrPostNotFound, resp.Code)
	})

	t.Run("moderation is admin only", func(t *testing.T) {
		w, _ := do(r, http.MethodPost, "/forum/posts/1/report", member, gin.H{"reason": "spam"})
		require.Equal(t, http.StatusOK, w.Code)

		w, _ = do(r, http.MethodGet, "/forum/flagged", member, nil)
		assert.Equal(t, http.StatusForbidden, w.Code)

		w, resp := do(r, http.MethodGet, "/forum/flagged", admin, nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Len(t, resp.Data, 1)

		w, _ = do(r, http.MethodPut, "/forum/posts/1/unflag", admin, nil)
		assert.Equal(t, http.StatusOK, w.Code)

		w, _ = do(r, http.MethodDelete, "/forum/posts/1", admin, nil)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Empty(t, s.Snapshot().ForumPosts)
	})

	t.Run("create post validation", func(t *testing.T) {
		w, resp := do(r, http.MethodPost, "/forum/posts", member, gin.H{"title": "", "content": "x"})
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, response.ErrInvalidParam, resp.Code)

		w, _ = do(r, http.MethodPost, "/forum/posts", member, gin.H{"title": "Hello", "content": "World"})
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Len(t, s.Snapshot().ForumPosts, 1)
	})
}
