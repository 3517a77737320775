package middleware

import (
	"github.com/ErlanBelekov/userauth-api/internal/requestid"
	"github.com/gin-gonic/gin"
)

// RequestID attaches a request ID to the context and echoes it in the
// response. A well-formed inbound X-Request-ID is kept.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := requestid.FromHeader(c.GetHeader(requestid.Header))

		ctx := requestid.WithRequestID(c.Request.Context(), id)
		c.Request = c.Request.WithContext(ctx)
		c.Header(requestid.Header, id)
		c.Next()
	}
}
