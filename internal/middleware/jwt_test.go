package middleware

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/farma-sahayak/sahayak-server/internal/auth"
	"github.com/farma-sahayak/sahayak-server/internal/httperr"
	"github.com/farma-sahayak/sahayak-server/internal/logging"
)

func newGuardedApp(t *testing.T, codec *auth.Codec) *fiber.App {
	t.Helper()
	app := fiber.New(fiber.Config{ErrorHandler: httperr.Handler(logging.Discard())})
	app.Get("/me", BearerAuth(codec), func(c *fiber.Ctx) error {
		p, ok := auth.PrincipalFrom(c.UserContext())
		if !ok || p.UserID != UserID(c) || p.AccessToken == "" {
			return c.SendStatus(fiber.StatusInternalServerError)
		}
		return c.JSON(fiber.Map{"user_id": UserID(c)})
	})
	return app
}

func TestBearerAuth(t *testing.T) {
	codec, err := auth.NewCodec("HS256", []byte("guard-secret"))
	require.NoError(t, err)
	app := newGuardedApp(t, codec)

	access, err := codec.Encode(auth.Claims{UserID: 7, Kind: auth.KindAccess}, time.Minute)
	require.NoError(t, err)
	refresh, err := codec.Encode(auth.Claims{UserID: 7, Kind: auth.KindRefresh}, time.Hour)
	require.NoError(t, err)
	expired, err := codec.Encode(auth.Claims{UserID: 7, Kind: auth.KindAccess}, -time.Minute)
	require.NoError(t, err)

	cases := []struct {
		name   string
		header string
		status int
	}{
		{"valid", "Bearer " + access, fiber.StatusOK},
		{"lowercase scheme", "bearer " + access, fiber.StatusOK},
		{"missing header", "", fiber.StatusUnauthorized},
		{"wrong scheme", "Basic " + access, fiber.StatusUnauthorized},
		{"no token", "Bearer ", fiber.StatusUnauthorized},
		{"garbage", "Bearer not-a-token", fiber.StatusUnauthorized},
		{"refresh token", "Bearer " + refresh, fiber.StatusUnauthorized},
		{"expired", "Bearer " + expired, fiber.StatusUnauthorized},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(fiber.MethodGet, "/me", nil)
			if tc.header != "" {
				req.Header.Set(fiber.HeaderAuthorization, tc.header)
			}
			resp, err := app.Test(req)
			require.NoError(t, err)
			defer resp.Body.Close()
			assert.Equal(t, tc.status, resp.StatusCode)
		})
	}
}

func TestBearerAuthRejectsOtherSecret(t *testing.T) {
	codec, err := auth.NewCodec("HS256", []byte("guard-secret"))
	require.NoError(t, err)
	rotated, err := auth.NewCodec("HS256", []byte("rotated-secret"))
	require.NoError(t, err)

	token, err := codec.Encode(auth.Claims{UserID: 7, Kind: auth.KindAccess}, time.Minute)
	require.NoError(t, err)

	req := httptest.NewRequest(fiber.MethodGet, "/me", nil)
	req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
	resp, err := newGuardedApp(t, rotated).Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}
