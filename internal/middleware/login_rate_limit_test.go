package middleware

import (
	"net/http/httptest"
	"strings"
	"testing"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/farma-sahayak/sahayak-server/internal/httperr"
	"github.com/farma-sahayak/sahayak-server/internal/logging"
)

func newRateLimitedApp(cache *redis.Client, perMin int) *fiber.App {
	app := fiber.New(fiber.Config{ErrorHandler: httperr.Handler(logging.Discard())})
	app.Post("/auth/login", LoginRateLimit(cache, perMin), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})
	return app
}

func attemptLogin(t *testing.T, app *fiber.App, phone string) int {
	t.Helper()
	req := httptest.NewRequest(fiber.MethodPost, "/auth/login", strings.NewReader(`{"phoneNumber":"`+phone+`","mpin":123456}`))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	resp, err := app.Test(req)
	require.NoError(t, err)
	resp.Body.Close()
	return resp.StatusCode
}

func TestLoginRateLimitRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	cache := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { cache.Close() })
	app := newRateLimitedApp(cache, 2)

	assert.Equal(t, fiber.StatusOK, attemptLogin(t, app, "+91-9876543210"))
	assert.Equal(t, fiber.StatusOK, attemptLogin(t, app, "+91 98765 43210"))
	assert.Equal(t, fiber.StatusTooManyRequests, attemptLogin(t, app, "+919876543210"))
	assert.Equal(t, fiber.StatusOK, attemptLogin(t, app, "+91-9123456789"))

	assert.True(t, mr.Exists(loginRateKeyPrefix+"+919876543210"))
	mr.FastForward(rateLimitWindow)
	assert.Equal(t, fiber.StatusOK, attemptLogin(t, app, "+91-9876543210"))
}

func TestLoginRateLimitLocalFallback(t *testing.T) {
	app := newRateLimitedApp(nil, 2)

	assert.Equal(t, fiber.StatusOK, attemptLogin(t, app, "+91-9876543210"))
	assert.Equal(t, fiber.StatusOK, attemptLogin(t, app, "+91-9876543210"))
	assert.Equal(t, fiber.StatusTooManyRequests, attemptLogin(t, app, "+91-9876543210"))
	assert.Equal(t, fiber.StatusOK, attemptLogin(t, app, "+91-9123456789"))
}
