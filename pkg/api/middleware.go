package api

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
)

// ClientCache marks successful GET responses as client-cacheable for
// maxAge seconds.
func ClientCache(maxAge int) gin.HandlerFunc {
	value := fmt.Sprintf("public, max-age=%d", maxAge)
	return func(c *gin.Context) {
		c.Next()
		if c.Request.Method == http.MethodGet && c.Writer.Status() == http.StatusOK {
			c.Header("Cache-Control", value)
		}
	}
}
