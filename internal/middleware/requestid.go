package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/kethan23/build-buddy-app-766-sub000/pkg/logger"
)

const (
	HeaderXRequestID = "X-Request-ID"
	ContextRequestID = "request_id"
)

// RequestID tags the request with an id, echoes it in the response and
// attaches a logger carrying it to the request context.
func RequestID(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		rid := c.GetHeader(HeaderXRequestID)
		if rid == "" {
			rid = uuid.New().String()
		}

		c.Set(ContextRequestID, rid)
		c.Header(HeaderXRequestID, rid)

		reqLog := log.WithFields(map[string]interface{}{ContextRequestID: rid})
		c.Request = c.Request.WithContext(reqLog.IntoContext(c.Request.Context()))
		c.Next()
	}
}
