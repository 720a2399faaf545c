package handler

import (
	"encoding/json"
	"io"
	"net/http"

	userModel "wonderwomen/internal/domain/user/model"
	"wonderwomen/internal/pkg/middleware"
	"wonderwomen/internal/store"
	"wonderwomen/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/samber/lo"
	"go.uber.org/zap"
)

// CollectionHandler 按集合名读写文档
type CollectionHandler struct {
	store *store.Store
}

func NewCollectionHandler(s *store.Store) *CollectionHandler {
	return &CollectionHandler{store: s}
}

// GetCollection 读取整个集合
func (h *CollectionHandler) GetCollection(c *gin.Context) {
	key, err := store.ParseKey(c.Param("key"))
	if err != nil {
		response.FromError(c, err, response.ErrCollectionNotFound)
		return
	}
	data, err := h.store.Get(key)
	if err != nil {
		response.FromError(c, err, response.ErrCollectionNotFound)
		return
	}
	response.Success(c, publicView(data))
}

// ReplaceCollection 用请求体（JSON 数组）替换整个集合 (管理员)
func (h *CollectionHandler) ReplaceCollection(c *gin.Context) {
	key, err := store.ParseKey(c.Param("key"))
	if err != nil {
		response.FromError(c, err, response.ErrCollectionNotFound)
		return
	}

	body, err := io.ReadAll(c.Request.Body)
	if err != nil || !json.Valid(body) {
		response.Error(c, http.StatusBadRequest, response.ErrInvalidParam, "request body must be a JSON array")
		return
	}

	doc, err := h.store.Replace(c.Request.Context(), key, json.RawMessage(body))
	if err != nil {
		response.FromError(c, err, response.ErrCollectionNotFound)
		return
	}
	data, _ := doc.Collection(key)
	middleware.Logger(c).Info("collection replaced", zap.String("key", string(key)))
	response.Success(c, publicView(data))
}

// publicView 用户集合对外输出时去掉密码
func publicView(data any) any {
	users, ok := data.([]userModel.User)
	if !ok {
		return data
	}
	return lo.Map(users, func(u userModel.User, _ int) userModel.User {
		return u.Public()
	})
}

// Keys 所有集合名
func (h *CollectionHandler) Keys(c *gin.Context) {
	response.Success(c, store.Keys)
}

// Health 健康检查
func (h *CollectionHandler) Health(c *gin.Context) {
	if err := h.store.Ping(c.Request.Context()); err != nil {
		middleware.Logger(c).Warn("health check failed", zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
