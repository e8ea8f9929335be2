package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func limitedRouter(rl *RateLimiter) *gin.Engine {
	router := gin.New()
	router.Use(rl.Middleware())
	router.GET("/test", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})
	return router
}

func doRequest(router *gin.Engine, remoteAddr string) int {
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/test", nil)
	req.RemoteAddr = remoteAddr
	router.ServeHTTP(w, req)
	return w.Code
}

func TestRateLimit_AllowsNormalRequests(t *testing.T) {
	router := limitedRouter(NewRateLimiter(10, 10))

	if code := doRequest(router, "192.168.1.1:12345"); code != http.StatusOK {
		t.Errorf("expected status %d, got %d", http.StatusOK, code)
	}
}

func TestRateLimit_BlocksExcessiveRequests(t *testing.T) {
	router := limitedRouter(NewRateLimiter(1, 2))

	var lastCode int
	for i := 0; i < 5; i++ {
		lastCode = doRequest(router, "10.0.0.1:12345")
	}

	if lastCode != http.StatusTooManyRequests {
		t.Errorf("expected status %d after burst, got %d", http.StatusTooManyRequests, lastCode)
	}
}

func TestRateLimit_PerIPIsolation(t *testing.T) {
	router := limitedRouter(NewRateLimiter(1, 1))

	// Exhaust the first IP's allowance.
	doRequest(router, "10.0.0.1:12345")
	if code := doRequest(router, "10.0.0.1:12345"); code != http.StatusTooManyRequests {
		t.Errorf("first IP: expected %d, got %d", http.StatusTooManyRequests, code)
	}

	// A different IP is unaffected.
	if code := doRequest(router, "10.0.0.2:12345"); code != http.StatusOK {
		t.Errorf("second IP: expected %d, got %d", http.StatusOK, code)
	}
}
