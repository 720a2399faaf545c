package middleware

import (
	"wonderwomen/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const ctxTraceID = "traceID"

// TraceMiddleware 透传或生成 X-Trace-ID
func TraceMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		traceID := c.GetHeader("X-Trace-ID")
		if traceID == "" {
			traceID = uuid.New().String()
		}

		c.Set(ctxTraceID, traceID)
		c.Header("X-Trace-ID", traceID)

		c.Next()
	}
}

// Logger 带 trace_id 和当前用户的请求级 logger
func Logger(c *gin.Context) *zap.Logger {
	l := logger.Log.With(zap.String("trace_id", c.GetString(ctxTraceID)))
	if uid := c.GetString(ctxUserID); uid != "" {
		l = l.With(zap.String("user_id", uid))
	}
	return l
}
