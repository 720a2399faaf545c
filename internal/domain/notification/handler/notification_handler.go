package handler

import (
	"net/http"
	"strconv"

	"wonderwomen/internal/domain/notification/service"
	"wonderwomen/internal/pkg/middleware"
	baseModel "wonderwomen/pkg/model"
	"wonderwomen/pkg/response"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type NotificationHandler struct {
	service service.NotificationService
}

func NewNotificationHandler(s service.NotificationService) *NotificationHandler {
	return &NotificationHandler{service: s}
}

// BroadcastInput 公告输入
type BroadcastInput struct {
	Text string `json:"text" binding:"required"`
}

// List 当前用户的通知，?unread=true 只返回未读
func (h *NotificationHandler) List(c *gin.Context) {
	actor := middleware.CurrentActor(c)
	unreadOnly, _ := strconv.ParseBool(c.Query("unread"))

	response.Success(c, gin.H{
		"list":   h.service.ListForUser(actor.ID, unreadOnly),
		"unread": h.service.UnreadCount(actor.ID),
	})
}

// MarkRead 标记已读
func (h *NotificationHandler) MarkRead(c *gin.Context) {
	actor := middleware.CurrentActor(c)
	n, err := h.service.MarkRead(c.Request.Context(), actor.ID, baseModel.ID(c.Param("id")))
	if err != nil {
		response.FromError(c, err, response.ErrNotificationNotFound)
		return
	}
	response.Success(c, n)
}

// Announcements 公告列表，?limit=3 只取最新几条
func (h *NotificationHandler) Announcements(c *gin.Context) {
	limit, _ := strconv.Atoi(c.Query("limit"))
	response.Success(c, h.service.Announcements(limit))
}

// Broadcast 发布公告 (管理员)
func (h *NotificationHandler) Broadcast(c *gin.Context) {
	var input BroadcastInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, http.StatusBadRequest, response.ErrInvalidParam, err.Error())
		return
	}

	a, sent, err := h.service.Broadcast(c.Request.Context(), input.Text, middleware.CurrentActor(c))
	if err != nil {
		response.FromError(c, err, response.ErrNotificationNotFound)
		return
	}
	middleware.Logger(c).Info("announcement broadcast", zap.String("announcement_id", a.ID.String()), zap.Int("recipients", sent))
	response.Success(c, gin.H{
		"announcement": a,
		"recipients":   sent,
	})
}
