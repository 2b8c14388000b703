package auth

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/farma-sahayak/sahayak-server/internal/httperr"
)

// Handler exposes the /auth endpoints.
type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

type credentialsRequest struct {
	PhoneNumber string `json:"phoneNumber"`
	MPIN        int    `json:"mpin"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// Signup registers a new account and returns its first token pair.
func (h *Handler) Signup(c *fiber.Ctx) error {
	var req credentialsRequest
	if err := c.BodyParser(&req); err != nil {
		return httperr.BadRequest("invalid_request", "body must contain phoneNumber and a numeric mpin")
	}
	pair, err := h.svc.Signup(c.UserContext(), req.PhoneNumber, req.MPIN)
	if err != nil {
		return AsHTTPError(err)
	}
	return sendPair(c, fiber.StatusCreated, pair)
}

// Login exchanges phone number and mpin for a token pair.
func (h *Handler) Login(c *fiber.Ctx) error {
	var req credentialsRequest
	if err := c.BodyParser(&req); err != nil {
		return httperr.BadRequest("invalid_request", "body must contain phoneNumber and a numeric mpin")
	}
	pair, err := h.svc.Login(c.UserContext(), req.PhoneNumber, req.MPIN)
	if err != nil {
		return AsHTTPError(err)
	}
	return sendPair(c, fiber.StatusOK, pair)
}

// Logout revokes the supplied refresh token for the authenticated caller.
func (h *Handler) Logout(c *fiber.Ctx) error {
	principal, ok := PrincipalFrom(c.UserContext())
	if !ok {
		return httperr.Unauthorized("unauthorized", ErrUnauthorized.Error())
	}
	var req refreshRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return httperr.BadRequest("invalid_request", "body must contain refresh_token")
		}
	}
	if err := h.svc.Logout(c.UserContext(), req.RefreshToken, principal.UserID); err != nil {
		return unauthorizedOr500(err)
	}
	return c.Status(fiber.StatusOK).Send(nil)
}

// Refresh rotates a refresh token into a new pair.
func (h *Handler) Refresh(c *fiber.Ctx) error {
	var req refreshRequest
	if err := c.BodyParser(&req); err != nil || req.RefreshToken == "" {
		return httperr.Unauthorized("invalid_token", "refresh_token is required")
	}
	pair, err := h.svc.RefreshTokenPair(c.UserContext(), req.RefreshToken)
	if err != nil {
		return unauthorizedOr500(err)
	}
	return sendPair(c, fiber.StatusOK, pair)
}

// ValidateToken answers 200 when the bearer token belongs to an existing user.
func (h *Handler) ValidateToken(c *fiber.Ctx) error {
	principal, ok := PrincipalFrom(c.UserContext())
	if !ok {
		return httperr.Unauthorized("unauthorized", ErrUnauthorized.Error())
	}
	if _, err := h.svc.ValidateToken(c.UserContext(), principal.AccessToken); err != nil {
		return unauthorizedOr500(err)
	}
	return c.Status(fiber.StatusOK).Send(nil)
}

// Health reports that the auth routes are mounted.
func (h *Handler) Health(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok", "service": "auth"})
}

// AsHTTPError maps service errors to transport errors. Unknown errors become
// 500s with the cause kept for logging.
func AsHTTPError(err error) error {
	switch {
	case errors.Is(err, ErrInvalidFormat):
		return httperr.BadRequest("invalid_format", "phoneNumber must look like +91-XXXXXXXXXX and mpin must have 6 digits")
	case errors.Is(err, ErrAlreadyExists):
		return httperr.BadRequest("already_exists", err.Error())
	case errors.Is(err, ErrNotFound):
		return httperr.BadRequest("not_found", err.Error())
	case errors.Is(err, ErrInvalidCredentials):
		return httperr.BadRequest("invalid_credentials", err.Error())
	case errors.Is(err, ErrExpired):
		return httperr.Unauthorized("token_expired", err.Error())
	case errors.Is(err, ErrInvalidSignature):
		return httperr.Unauthorized("invalid_signature", err.Error())
	case errors.Is(err, ErrInvalidToken):
		return httperr.Unauthorized("invalid_token", err.Error())
	case errors.Is(err, ErrRevoked):
		return httperr.Unauthorized("token_revoked", err.Error())
	case errors.Is(err, ErrUnauthorized):
		return httperr.Unauthorized("unauthorized", err.Error())
	default:
		return httperr.Internal(err)
	}
}

// unauthorizedOr500 is used by the token routes, which answer every expected
// failure with 401.
func unauthorizedOr500(err error) error {
	switch {
	case IsTokenError(err):
		return AsHTTPError(err)
	case errors.Is(err, ErrNotFound):
		return httperr.Unauthorized("unauthorized", ErrUnauthorized.Error())
	default:
		return httperr.Internal(err)
	}
}

func sendPair(c *fiber.Ctx, status int, pair TokenPair) error {
	c.Set(fiber.HeaderCacheControl, "no-store")
	c.Set(fiber.HeaderPragma, "no-cache")
	return c.Status(status).JSON(pair)
}
