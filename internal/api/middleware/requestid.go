package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/orrery-labs/orrery/backend/internal/shared/id"
)

// RequestIDHeader carries the request id in both directions.
const RequestIDHeader = "X-Request-ID"

const contextRequestID = "request_id"

// RequestID assigns each request a ulid, honoring a valid one supplied by
// the caller, and reflects it in the response headers.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		rid := c.GetHeader(RequestIDHeader)
		if !id.IsValid(rid) {
			rid = string(id.NewRequestID())
		}
		c.Set(contextRequestID, rid)
		c.Header(RequestIDHeader, rid)
		c.Next()
	}
}

// FromContext fetches the request id assigned by RequestID.
func FromContext(c *gin.Context) id.RequestID {
	if v, ok := c.Get(contextRequestID); ok {
		if s, ok := v.(string); ok {
			return id.RequestID(s)
		}
	}
	return ""
}
