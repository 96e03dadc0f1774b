package app

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rmadesk/rma-qa/internal/ctxutil"
)

func TestRequestIDMiddleware(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		header   string
		value    string
		wantSame bool
	}{
		{"request id header", "X-Request-Id", "abc-123", true},
		{"correlation id header", "X-Correlation-Id", "corr-9", true},
		{"generated when missing", "", "", false},
		{"generated when oversized", "X-Request-Id", strings.Repeat("x", 200), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			var seenID, seenClient string
			router := gin.New()
			router.Use(requestIDMiddleware())
			router.GET("/", func(c *gin.Context) {
				seenID = ctxutil.MustGetRequestID(c.Request.Context())
				seenClient = ctxutil.GetClientKey(c.Request.Context())
				c.Status(http.StatusNoContent)
			})

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = "10.1.2.3:5555"
			if tt.header != "" {
				req.Header.Set(tt.header, tt.value)
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			require.NotEmpty(t, seenID)
			assert.Equal(t, seenID, w.Header().Get(requestIDHeader))
			assert.Equal(t, "10.1.2.3", seenClient)
			if tt.wantSame {
				assert.Equal(t, tt.value, seenID)
			} else {
				assert.NotEqual(t, tt.value, seenID)
			}
		})
	}
}

func TestTimeoutMiddleware(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		timeout     time.Duration
		wantBounded bool
	}{
		{"bounded", time.Minute, true},
		{"zero leaves unbounded", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			var bounded bool
			router := gin.New()
			router.GET("/", timeoutMiddleware(tt.timeout), func(c *gin.Context) {
				_, bounded = c.Request.Context().Deadline()
				c.Status(http.StatusNoContent)
			})

			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
			assert.Equal(t, tt.wantBounded, bounded)
		})
	}
}

func TestSecurityHeadersMiddleware(t *testing.T) {
	t.Parallel()
	router := gin.New()
	router.Use(securityHeadersMiddleware())
	router.GET("/", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, "DENY", w.Header().Get("X-Frame-Options"))
	assert.Equal(t, "default-src 'none'", w.Header().Get("Content-Security-Policy"))
}
