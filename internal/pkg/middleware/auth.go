package middleware

import (
	"net/http"
	"strings"

	userModel "wonderwomen/internal/domain/user/model"
	baseModel "wonderwomen/pkg/model"
	"wonderwomen/pkg/response"
	"wonderwomen/pkg/utils"

	"github.com/gin-gonic/gin"
)

const (
	ctxUserID   = "userID"
	ctxUserName = "userName"
	ctxRole     = "role"
)

// AuthMiddleware JWT认证中间件
func AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			response.Error(c, http.StatusUnauthorized, response.ErrTokenInvalid, "Authorization header is required")
			c.Abort()
			return
		}

		// 检查格式 "Bearer <token>"
		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			response.Error(c, http.StatusUnauthorized, response.ErrTokenInvalid, "Invalid authorization header format")
			c.Abort()
			return
		}

		claims, err := utils.ParseToken(parts[1])
		if err != nil {
			response.Error(c, http.StatusUnauthorized, response.ErrTokenInvalid, "Invalid or expired token")
			c.Abort()
			return
		}

		actor := claims.Actor()
		c.Set(ctxUserID, actor.ID.String())
		c.Set(ctxUserName, actor.Name)
		c.Set(ctxRole, actor.Role)

		c.Next()
	}
}

// AdminMiddleware 管理员权限中间件，需放在 AuthMiddleware 之后
func AdminMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		role, exists := c.Get(ctxRole)
		if !exists {
			response.Error(c, http.StatusUnauthorized, response.ErrNoPermission, "Unauthorized")
			c.Abort()
			return
		}

		if role != string(userModel.RoleAdmin) {
			response.Error(c, http.StatusForbidden, response.ErrNoPermission, "Admin permission required")
			c.Abort()
			return
		}

		c.Next()
	}
}

// CurrentActor 从上下文读取当前用户
func CurrentActor(c *gin.Context) baseModel.Actor {
	return baseModel.Actor{
		ID:   baseModel.ID(c.GetString(ctxUserID)),
		Name: c.GetString(ctxUserName),
		Role: c.GetString(ctxRole),
	}
}
