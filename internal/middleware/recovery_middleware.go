package middleware

import (
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RecoveryMiddleware turns a panic in a handler into a logged stack trace and
// a generic 500 response.
func RecoveryMiddleware(logger *zap.Logger) gin.HandlerFunc {
	if logger == nil {
		panic("RecoveryMiddleware requires a non-nil zap.Logger instance")
	}
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				logger.Error("Panic recovered",
					zap.Any("error", err),
					zap.String("stacktrace", string(debug.Stack())),
					zap.String("request_id", RequestIDFrom(c)),
					zap.String("path", c.Request.URL.Path),
					zap.String("method", c.Request.Method),
				)
				// Headers may already be out if the handler panicked mid-response.
				if !c.Writer.Written() {
					c.JSON(http.StatusInternalServerError, ErrorResponse{Message: "Internal Server Error"})
				}
				c.Abort()
			}
		}()
		c.Next()
	}
}
