package app

import (
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func metricsRouter(enabled bool) *gin.Engine {
	router := gin.New()
	router.GET("/metrics", basicAuthMiddleware("metrics", enabled, "prometheus", "secret123"), func(c *gin.Context) {
		c.String(http.StatusOK, "metrics")
	})
	return router
}

func basic(user, pass string) string {
	return "Basic " + base64.StdEncoding.EncodeToString([]byte(user+":"+pass))
}

func TestBasicAuthMiddleware(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		enabled bool
		header  string
		want    int
	}{
		{"disabled passes without header", false, "", http.StatusOK},
		{"valid credentials", true, basic("prometheus", "secret123"), http.StatusOK},
		{"wrong username", true, basic("grafana", "secret123"), http.StatusUnauthorized},
		{"wrong password", true, basic("prometheus", "nope"), http.StatusUnauthorized},
		{"no header", true, "", http.StatusUnauthorized},
		{"only scheme", true, "Basic", http.StatusUnauthorized},
		{"invalid base64", true, "Basic notbase64!!!", http.StatusUnauthorized},
		{"bearer token", true, "Bearer sometoken", http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			metricsRouter(tt.enabled).ServeHTTP(w, req)

			assert.Equal(t, tt.want, w.Code)
			if tt.want == http.StatusUnauthorized {
				assert.Equal(t, `Basic realm="metrics"`, w.Header().Get("WWW-Authenticate"))
			} else {
				assert.Equal(t, "metrics", w.Body.String())
			}
		})
	}
}

func TestCredentialsMatch(t *testing.T) {
	t.Parallel()
	assert.True(t, credentialsMatch("u", "p", "u", "p"))
	assert.False(t, credentialsMatch("u", "x", "u", "p"))
	assert.False(t, credentialsMatch("x", "p", "u", "p"))
	assert.False(t, credentialsMatch("", "", "u", "p"))
}
