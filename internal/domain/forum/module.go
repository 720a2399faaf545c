package forum

import (
	"wonderwomen/internal/domain/forum/handler"
	"wonderwomen/internal/domain/forum/repository"
	"wonderwomen/internal/domain/forum/service"
	"wonderwomen/internal/pkg/middleware"
	"wonderwomen/internal/pkg/registry"

	"github.com/gin-gonic/gin"
)

// ForumModule 论坛模块
type ForumModule struct{}

func init() {
	registry.Register(&ForumModule{})
}

func (m *ForumModule) Name() string {
	return "forum"
}

func (m *ForumModule) Priority() int {
	return 10
}

func (m *ForumModule) Init(ctx *registry.ModuleContext) error {
	// 1. 依赖注入
	repo := repository.NewForumRepository(ctx.Store)
	engine := service.NewThreadEngine(ctx.IDs, ctx.Clock)
	h := handler.NewForumHandler(service.NewForumService(repo, engine))

	// 2. 路由注册
	setupRoutes(ctx.Router, h)

	return nil
}

func setupRoutes(r *gin.Engine, h *handler.ForumHandler) {
	g := r.Group("/forum")

	g.GET("/posts", h.ListPosts)
	g.GET("/posts/:id", h.GetPost)

	auth := g.Group("")
	auth.Use(middleware.AuthMiddleware())
	{
		auth.POST("/posts", h.CreatePost)
		auth.POST("/posts/:id/replies", h.AddReply)
		auth.POST("/posts/:id/like", h.ToggleLike)
		auth.POST("/posts/:id/report", h.Report)
	}

	admin := g.Group("")
	admin.Use(middleware.AuthMiddleware(), middleware.AdminMiddleware())
	{
		admin.GET("/flagged", h.Flagged)
		admin.PUT("/posts/:id/unflag", h.Unflag)
		admin.DELETE("/posts/:id", h.Delete)
	}
}
