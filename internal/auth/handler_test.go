package auth

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/farma-sahayak/sahayak-server/internal/httperr"
	"github.com/farma-sahayak/sahayak-server/internal/logging"
)

// withPrincipal stands in for the bearer guard.
func withPrincipal(codec *Codec) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := strings.TrimPrefix(c.Get(fiber.HeaderAuthorization), "Bearer ")
		claims, err := codec.Decode(token)
		if err != nil {
			return AsHTTPError(err)
		}
		c.SetUserContext(WithPrincipal(c.UserContext(), Principal{UserID: claims.UserID, AccessToken: token}))
		return c.Next()
	}
}

func newHandlerApp(t *testing.T) (*fiber.App, testEnv) {
	t.Helper()
	env := newTestService(t)
	h := NewHandler(env.svc)

	app := fiber.New(fiber.Config{ErrorHandler: httperr.Handler(logging.Discard())})
	app.Post("/auth/signup", h.Signup)
	app.Post("/auth/login", h.Login)
	app.Post("/auth/token/refresh", h.Refresh)
	app.Post("/auth/logout", withPrincipal(env.codec), h.Logout)
	app.Get("/auth/validate-token", withPrincipal(env.codec), h.ValidateToken)
	app.Get("/auth/health", h.Health)
	return app, env
}

func doJSON(t *testing.T, app *fiber.App, method, path, body, token string) (*http.Response, httperr.Response) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	if token != "" {
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
	}
	resp, err := app.Test(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })

	var errBody httperr.Response
	if resp.StatusCode >= http.StatusBadRequest {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&errBody))
	}
	return resp, errBody
}

func decodePair(t *testing.T, resp *http.Response) TokenPair {
	t.Helper()
	var pair TokenPair
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&pair))
	return pair
}

func TestHandlerSignupAndLogin(t *testing.T) {
	app, _ := newHandlerApp(t)

	resp, _ := doJSON(t, app, fiber.MethodPost, "/auth/signup", `{"phoneNumber":"+91-9876543210","mpin":654321}`, "")
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	assert.Equal(t, "no-store", resp.Header.Get(fiber.HeaderCacheControl))
	pair := decodePair(t, resp)
	assert.NotEmpty(t, pair.AccessToken)

	resp, body := doJSON(t, app, fiber.MethodPost, "/auth/signup", `{"phoneNumber":"+91-9876543210","mpin":111111}`, "")
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "already_exists", body.Error)

	resp, body = doJSON(t, app, fiber.MethodPost, "/auth/login", `{"phoneNumber":"+91-9876543210","mpin":111111}`, "")
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "invalid_credentials", body.Error)

	resp, body = doJSON(t, app, fiber.MethodPost, "/auth/login", `{"phoneNumber":"+91-9000000000","mpin":654321}`, "")
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "not_found", body.Error)

	resp, body = doJSON(t, app, fiber.MethodPost, "/auth/signup", `{"phoneNumber":"+91-9876543210","mpin":"654321"}`, "")
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "invalid_request", body.Error)
}

func TestHandlerRefreshAndLogout(t *testing.T) {
	app, _ := newHandlerApp(t)

	resp, _ := doJSON(t, app, fiber.MethodPost, "/auth/signup", `{"phoneNumber":"+91-9876543210","mpin":654321}`, "")
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	pair := decodePair(t, resp)

	resp, _ = doJSON(t, app, fiber.MethodPost, "/auth/token/refresh", `{"refresh_token":"`+pair.RefreshToken+`"}`, "")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	rotated := decodePair(t, resp)
	assert.NotEmpty(t, rotated.RefreshToken)

	resp, _ = doJSON(t, app, fiber.MethodPost, "/auth/logout", `{"refresh_token":"`+pair.RefreshToken+`"}`, pair.AccessToken)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp, body := doJSON(t, app, fiber.MethodPost, "/auth/token/refresh", `{"refresh_token":"`+pair.RefreshToken+`"}`, "")
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "token_revoked", body.Error)

	resp, body = doJSON(t, app, fiber.MethodPost, "/auth/token/refresh", `{}`, "")
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "invalid_token", body.Error)

	resp, _ = doJSON(t, app, fiber.MethodGet, "/auth/validate-token", "", rotated.AccessToken)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestHandlerHealth(t *testing.T) {
	app, _ := newHandlerApp(t)

	resp, _ := doJSON(t, app, fiber.MethodGet, "/auth/health", "", "")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "auth", body["service"])
}
