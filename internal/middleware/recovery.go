package middleware

import (
	"fmt"
	"runtime/debug"

	"github.com/karkow/idea-board/pkg/app"
	"github.com/karkow/idea-board/pkg/code"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RecoveryWithLogger converts handler panics into logged 500 responses.
func RecoveryWithLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				var errorMsg string
				switch v := err.(type) {
				case error:
					errorMsg = v.Error()
				default:
					errorMsg = fmt.Sprintf("%v", v)
				}
				logger.Error("recovered from panic",
					zap.String("path", c.Request.URL.Path),
					zap.String("method", c.Request.Method),
					zap.String("ip", c.ClientIP()),
					zap.String("panic", errorMsg),
					zap.String("stack", string(debug.Stack())),
				)
				app.NewResponse(c).ToResponse(code.ErrorServerInternal.WithDetails(errorMsg))
				c.Abort()
			}
		}()

		c.Next()
	}
}
