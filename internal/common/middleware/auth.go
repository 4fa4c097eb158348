package middleware

import (
	"crypto/subtle"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"seabot/internal/common/errors"
)

// RequireBasicAuth protects the dashboard API with a single operator account.
func RequireBasicAuth(username, password string, log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, pass, ok := c.Request.BasicAuth()
		if ok &&
			subtle.ConstantTimeCompare([]byte(user), []byte(username)) == 1 &&
			subtle.ConstantTimeCompare([]byte(pass), []byte(password)) == 1 {
			c.Set("operator", user)
			c.Next()
			return
		}

		c.Header("WWW-Authenticate", `Basic realm="seabot"`)
		SendError(c, errors.NewUnauthorizedError("valid dashboard credentials required"), log)
	}
}
