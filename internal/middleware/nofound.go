package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// NoFound answers unmatched routes.
func NoFound() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"code": http.StatusNotFound, "message": "route not found"})
	}
}
