package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v3"

	"movie-recommendation-service/internal/config"
)

func newTestApp(handlers ...fiber.Handler) *fiber.App {
	app := fiber.New()
	for _, h := range handlers {
		app.Use(h)
	}
	ok := func(c fiber.Ctx) error { return c.SendString("ok") }
	app.Get("/health", ok)
	app.Get("/metrics", ok)
	app.Get("/api/v1/movies/popular", ok)
	return app
}

func TestAuthMiddleware(t *testing.T) {
	app := newTestApp(AuthMiddleware())

	tests := []struct {
		name   string
		path   string
		header string
		want   int
	}{
		{"public health", "/health", "", http.StatusOK},
		{"public metrics", "/metrics", "", http.StatusOK},
		{"missing header", "/api/v1/movies/popular", "", http.StatusUnauthorized},
		{"wrong scheme", "/api/v1/movies/popular", "Basic dXNlcjpwYXNz", http.StatusUnauthorized},
		{"empty token", "/api/v1/movies/popular", "Bearer  ", http.StatusUnauthorized},
		{"any token", "/api/v1/movies/popular", "Bearer abc123", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			resp, err := app.Test(req)
			if err != nil {
				t.Fatalf("app.Test() error = %v", err)
			}
			defer resp.Body.Close()
			if resp.StatusCode != tt.want {
				t.Errorf("status = %d, want %d", resp.StatusCode, tt.want)
			}
		})
	}
}

func TestRateLimiter_WithoutRedis(t *testing.T) {
	rl := NewRateLimiter(nil, config.RateLimitConfig{Max: 1, Window: time.Minute})
	app := newTestApp(rl.Handler())

	for i := range 3 {
		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/health", nil))
		if err != nil {
			t.Fatalf("app.Test() error = %v", err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Errorf("request %d: status = %d, want 200", i, resp.StatusCode)
		}
	}
}
