package httperr

import (
	"encoding/json"
	"errors"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/farma-sahayak/sahayak-server/internal/logging"
)

func TestResolve(t *testing.T) {
	status, body := Resolve(BadRequest("invalid_format", "bad phone"))
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, Response{Error: "invalid_format", Message: "bad phone"}, body)

	status, body = Resolve(fiber.NewError(fiber.StatusTooManyRequests, "slow down"))
	assert.Equal(t, fiber.StatusTooManyRequests, status)
	assert.Equal(t, "too_many_requests", body.Error)
	assert.Equal(t, "slow down", body.Message)

	status, body = Resolve(Internal(errors.New("connection refused")))
	assert.Equal(t, fiber.StatusInternalServerError, status)
	assert.Equal(t, internalMessage, body.Message)

	status, body = Resolve(errors.New("boom"))
	assert.Equal(t, fiber.StatusInternalServerError, status)
	assert.Equal(t, "internal_error", body.Error)
}

func TestHandlerDoesNotLeakCause(t *testing.T) {
	app := fiber.New(fiber.Config{ErrorHandler: Handler(logging.Discard())})
	app.Get("/", func(c *fiber.Ctx) error {
		return Internal(errors.New("password=hunter2"))
	})

	resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/", nil))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, fiber.StatusInternalServerError, resp.StatusCode)

	var body Response
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "internal_error", body.Error)
	assert.NotContains(t, body.Message, "hunter2")
}
