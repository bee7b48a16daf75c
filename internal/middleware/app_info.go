package middleware

import (
	"github.com/gin-gonic/gin"
)

// AppInfoWithConfig stamps responses with the service name and version.
func AppInfoWithConfig(name, version string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("X-App-Name", name)
		c.Header("X-App-Version", version)
		c.Next()
	}
}
