package app

import (
	"crypto/subtle"
	"net/http"

	"github.com/gin-gonic/gin"
)

// basicAuthMiddleware enforces Basic Auth on operator routes such as
// /metrics and the dataset reload. When enabled is false requests pass through.
func basicAuthMiddleware(realm string, enabled bool, username, password string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !enabled {
			c.Next()
			return
		}

		user, pass, hasAuth := c.Request.BasicAuth()
		if !hasAuth || !credentialsMatch(user, pass, username, password) {
			c.Header("WWW-Authenticate", `Basic realm="`+realm+`"`)
			c.AbortWithStatus(http.StatusUnauthorized)
			return
		}

		c.Next()
	}
}

// credentialsMatch compares both fields in constant time. Both comparisons
// always run so timing does not reveal which one failed.
func credentialsMatch(user, pass, wantUser, wantPass string) bool {
	userMatch := subtle.ConstantTimeCompare([]byte(user), []byte(wantUser))
	passMatch := subtle.ConstantTimeCompare([]byte(pass), []byte(wantPass))
	return userMatch&passMatch == 1
}
