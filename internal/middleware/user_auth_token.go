// Package middleware holds the gin middleware chain of the API surface.
package middleware

import (
	"github.com/karkow/idea-board/pkg/app"
	"github.com/karkow/idea-board/pkg/code"

	"github.com/gin-gonic/gin"
)

// UserAuthTokenWithConfig authenticates requests with the injected secret.
// The token is accepted from the Authorization header or a token query
// parameter.
func UserAuthTokenWithConfig(secretKey string) gin.HandlerFunc {
	return func(c *gin.Context) {
		var token string
		response := app.NewResponse(c)

		if s := c.GetHeader("Authorization"); len(s) != 0 {
			token = s
		} else if s, exist := c.GetQuery("authorization"); exist {
			token = s
		} else if s, exist := c.GetQuery("token"); exist {
			token = s
		}

		if token == "" {
			response.ToResponse(code.ErrorNotUserAuthToken)
			c.Abort()
			return
		}

		user, err := app.ParseTokenWithKey(token, secretKey)
		if err != nil {
			response.ToResponse(code.ErrorInvalidUserAuthToken)
			c.Abort()
			return
		}
		c.Set("user_token", user)

		c.Next()
	}
}
