package common

import (
	commonHandler "wonderwomen/internal/pkg/common"
	"wonderwomen/internal/pkg/middleware"
	"wonderwomen/internal/pkg/registry"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// CommonModule 通用功能模块
type CommonModule struct{}

func init() {
	registry.Register(&CommonModule{})
}

func (m *CommonModule) Name() string {
	return "common"
}

func (m *CommonModule) Priority() int {
	return 100 // 最后初始化
}

func (m *CommonModule) Init(ctx *registry.ModuleContext) error {
	setupRoutes(ctx.Router, commonHandler.NewCollectionHandler(ctx.Store))
	return nil
}

func setupRoutes(r *gin.Engine, h *commonHandler.CollectionHandler) {
	r.GET("/health", h.Health)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	g := r.Group("/collections")
	g.Use(middleware.AuthMiddleware())
	{
		g.GET("", h.Keys)
		g.GET("/:key", h.GetCollection)
		g.PUT("/:key", middleware.AdminMiddleware(), h.ReplaceCollection)
	}
}
