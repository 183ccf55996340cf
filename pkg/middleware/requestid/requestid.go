package requestid

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Header is the wire header used to carry the request ID.
const Header = "X-Request-ID"

const ctxKey = "request_id"

// Middleware tags every request with an ID. An ID supplied by the caller is
// kept so the value stays stable across proxies; otherwise a fresh UUID is
// issued. The ID is echoed back on the response.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(Header)
		if id == "" || len(id) > 128 {
			id = uuid.NewString()
		}

		c.Set(ctxKey, id)
		c.Writer.Header().Set(Header, id)
		c.Next()
	}
}

// Value returns the request ID for the current request, or "" when the
// middleware is not installed.
func Value(c *gin.Context) string {
	id, _ := c.Value(ctxKey).(string)
	return id
}
