package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

func TestRateLimiterRejectsBurst(t *testing.T) {
	gin.SetMode(gin.TestMode)

	rl := NewRateLimiter(8)
	now := time.Date(2024, 9, 1, 10, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }

	r := gin.New()
	r.GET("/ping", rl.Middleware(), func(c *gin.Context) { c.Status(http.StatusNoContent) })

	do := func(ip string) int {
		req := httptest.NewRequest(http.MethodGet, "/ping", nil)
		req.RemoteAddr = ip + ":1234"
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w.Code
	}

	// Burst is 8/4 = 2.
	require.Equal(t, http.StatusNoContent, do("10.0.0.1"))
	require.Equal(t, http.StatusNoContent, do("10.0.0.1"))
	require.Equal(t, http.StatusTooManyRequests, do("10.0.0.1"))
	require.Equal(t, http.StatusNoContent, do("10.0.0.2"), "limits are per IP")

	now = now.Add(8 * time.Second)
	require.Equal(t, http.StatusNoContent, do("10.0.0.1"))
}

func TestRateLimiterCleanupDropsIdleVisitors(t *testing.T) {
	t.Parallel()

	rl := NewRateLimiter(60)
	now := time.Date(2024, 9, 1, 10, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }

	require.True(t, rl.allow("a"))
	now = now.Add(2 * time.Minute)
	require.True(t, rl.allow("b"))

	now = now.Add(2 * time.Minute)
	require.Equal(t, 1, rl.cleanup(3*time.Minute))
	require.Len(t, rl.visitors, 1)
}
