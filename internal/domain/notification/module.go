package notification

import (
	"wonderwomen/internal/domain/notification/handler"
	"wonderwomen/internal/domain/notification/repository"
	"wonderwomen/internal/domain/notification/service"
	"wonderwomen/internal/pkg/middleware"
	"wonderwomen/internal/pkg/registry"

	"github.com/gin-gonic/gin"
)

// NotificationModule 通知与公告模块
type NotificationModule struct{}

func init() {
	registry.Register(&NotificationModule{})
}

func (m *NotificationModule) Name() string {
	return "notification"
}

func (m *NotificationModule) Priority() int {
	return 20
}

func (m *NotificationModule) Init(ctx *registry.ModuleContext) error {
	repo := repository.NewNotificationRepository(ctx.Store)
	h := handler.NewNotificationHandler(service.NewNotificationService(repo, ctx.IDs, ctx.Clock))

	setupRoutes(ctx.Router, h)
	return nil
}

func setupRoutes(r *gin.Engine, h *handler.NotificationHandler) {
	r.GET("/announcements", h.Announcements)
	r.POST("/announcements", middleware.AuthMiddleware(), middleware.AdminMiddleware(), h.Broadcast)

	g := r.Group("/notifications")
	g.Use(middleware.AuthMiddleware())
	{
		g.GET("", h.List)
		g.PUT("/:id/read", h.MarkRead)
	}
}
