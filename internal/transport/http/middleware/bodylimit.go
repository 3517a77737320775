package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

const DefaultBodyLimit = 16 << 10

// BodyLimit caps request bodies at n bytes. Reads past the limit fail, which
// surfaces as a bind error in the handler.
func BodyLimit(n int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Body != nil {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, n)
		}
		c.Next()
	}
}
