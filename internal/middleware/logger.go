package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/kethan23/build-buddy-app-766-sub000/pkg/logger"
)

// Logger logs one line per request with the logger RequestID attached.
// Bodies are never logged; they carry passport data.
func Logger(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		raw := c.Request.URL.RawQuery

		c.Next()

		latency := time.Since(start)
		statusCode := c.Writer.Status()
		if raw != "" {
			path = path + "?" + raw
		}

		reqLog := logger.FromContext(c.Request.Context(), log)
		event := reqLog.ZL.Info()
		msg := "Request processed"
		switch {
		case statusCode >= 500:
			event = reqLog.ZL.Error()
			msg = "Server error"
		case statusCode >= 400:
			event = reqLog.ZL.Warn()
			msg = "Client error"
		}
		event.
			Str("method", c.Request.Method).
			Str("path", path).
			Str("ip", c.ClientIP()).
			Int("status", statusCode).
			Dur("duration", latency).
			Str("user_agent", c.Request.UserAgent()).
			Msg(msg)
	}
}
