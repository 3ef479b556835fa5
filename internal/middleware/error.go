package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/kethan23/build-buddy-app-766-sub000/internal/handler"
	"github.com/kethan23/build-buddy-app-766-sub000/pkg/logger"
)

// ErrorHandler renders the last error a handler attached with c.Error.
func ErrorHandler(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}

		reqLog := logger.FromContext(c.Request.Context(), log)
		for _, e := range c.Errors {
			reqLog.Debug("Request error",
				"error", e.Err.Error(),
				"path", c.Request.URL.Path,
				"method", c.Request.Method)
		}

		status, body := handler.ErrorBody(c.Errors.Last().Err)
		if status >= 500 {
			reqLog.Error(c.Errors.Last().Err, "Request failed", "path", c.Request.URL.Path)
		}
		c.JSON(status, body)
	}
}

func abortWithError(c *gin.Context, err error) {
	status, body := handler.ErrorBody(err)
	c.AbortWithStatusJSON(status, body)
}
