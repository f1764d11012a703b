package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Audit records an audit line after successful administrative requests.
func Audit(logger *zap.Logger, action, resource string) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(c *gin.Context) {
		start := time.Now().UTC()
		c.Next()

		if c.Writer.Status() >= 400 {
			return
		}

		actor := ""
		if claims := ClaimsFromContext(c); claims != nil {
			actor = claims.Username
		}
		resourceID := c.Param("code")
		if resourceID == "" {
			resourceID = c.Param("id")
		}
		if resourceID == "" {
			resourceID = c.Param(SelfParam)
		}

		logger.Info("audit",
			zap.String("actor", actor),
			zap.String("action", action),
			zap.String("resource", resource),
			zap.String("resource_id", resourceID),
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.String("ip", c.ClientIP()),
			zap.Duration("latency", time.Since(start)),
		)
	}
}
