package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/farma-sahayak/sahayak-server/internal/auth"
	"github.com/farma-sahayak/sahayak-server/internal/httperr"
)

const (
	userIDLocal  = "user_id"
	bearerScheme = "bearer"
)

// TokenDecoder is the part of auth.Codec the guard depends on.
type TokenDecoder interface {
	Decode(token string) (auth.Claims, error)
}

// BearerAuth rejects requests without a valid access token in the
// Authorization header. On success the caller's id and the raw token are
// available through UserID and auth.PrincipalFrom.
func BearerAuth(codec TokenDecoder) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token, ok := bearerToken(c.Get(fiber.HeaderAuthorization))
		if !ok {
			return httperr.Unauthorized("invalid_format", "missing or malformed bearer token")
		}

		claims, err := codec.Decode(token)
		if err != nil {
			return auth.AsHTTPError(err)
		}
		if claims.Kind != auth.KindAccess {
			return httperr.Unauthorized("invalid_token", "access token required")
		}

		c.Locals(userIDLocal, claims.UserID)
		c.SetUserContext(auth.WithPrincipal(c.UserContext(), auth.Principal{UserID: claims.UserID, AccessToken: token}))
		return c.Next()
	}
}

// UserID returns the authenticated caller, or 0 outside BearerAuth.
func UserID(c *fiber.Ctx) int64 {
	id, _ := c.Locals(userIDLocal).(int64)
	return id
}

func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, bearerScheme) {
		return "", false
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return "", false
	}
	return token, true
}
