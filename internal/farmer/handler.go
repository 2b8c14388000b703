package farmer

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/farma-sahayak/sahayak-server/internal/httperr"
	"github.com/farma-sahayak/sahayak-server/internal/middleware"
)

// Handler exposes farmer profile HTTP endpoints.
type Handler struct {
	service *Service
}

// NewHandler builds a farmer profile HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

type createRequest struct {
	Name              string   `json:"name"`
	District          string   `json:"district"`
	State             string   `json:"state"`
	PreferredLanguage string   `json:"preferred_language"`
	PrimaryCrops      []string `json:"primary_crops"`
}

type updateRequest struct {
	Name              *string   `json:"name"`
	District          *string   `json:"district"`
	State             *string   `json:"state"`
	PreferredLanguage *string   `json:"preferred_language"`
	PrimaryCrops      *[]string `json:"primary_crops"`
}

type profileResponse struct {
	FarmerID          string   `json:"farmer_id"`
	UserID            int64    `json:"user_id"`
	Name              string   `json:"name"`
	District          string   `json:"district"`
	State             string   `json:"state"`
	PreferredLanguage string   `json:"preferred_language"`
	PrimaryCrops      []string `json:"primary_crops"`
}

// Create provisions the caller's profile.
func (h *Handler) Create(c *fiber.Ctx) error {
	var req createRequest
	if err := c.BodyParser(&req); err != nil {
		return httperr.BadRequest("invalid_request", "malformed farmer profile")
	}
	profile, err := h.service.Create(c.UserContext(), middleware.UserID(c), CreateInput{
		Name:              req.Name,
		District:          req.District,
		State:             req.State,
		PreferredLanguage: req.PreferredLanguage,
		PrimaryCrops:      req.PrimaryCrops,
	})
	if err != nil {
		return asHTTPError(err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"user_id":   profile.UserID,
		"farmer_id": profile.FarmerID,
	})
}

// Get returns one of the caller's profiles.
func (h *Handler) Get(c *fiber.Ctx) error {
	profile, err := h.service.Get(c.UserContext(), middleware.UserID(c), c.Params("farmerId"))
	if err != nil {
		return asHTTPError(err)
	}
	return c.JSON(toResponse(profile))
}

// Update applies a partial update to the caller's profile.
func (h *Handler) Update(c *fiber.Ctx) error {
	var req updateRequest
	if err := c.BodyParser(&req); err != nil {
		return httperr.BadRequest("invalid_request", "malformed farmer profile")
	}
	profile, err := h.service.Update(c.UserContext(), middleware.UserID(c), c.Params("farmerId"), UpdateInput{
		Name:              req.Name,
		District:          req.District,
		State:             req.State,
		PreferredLanguage: req.PreferredLanguage,
		PrimaryCrops:      req.PrimaryCrops,
	})
	if err != nil {
		return asHTTPError(err)
	}
	return c.JSON(toResponse(profile))
}

func toResponse(p Profile) profileResponse {
	crops := p.PrimaryCrops
	if crops == nil {
		crops = []string{}
	}
	return profileResponse{
		FarmerID:          p.FarmerID,
		UserID:            p.UserID,
		Name:              p.Name,
		District:          p.District,
		State:             p.State,
		PreferredLanguage: p.PreferredLanguage,
		PrimaryCrops:      crops,
	}
}

func asHTTPError(err error) error {
	switch {
	case errors.Is(err, ErrInvalidInput):
		return httperr.BadRequest("invalid_input", err.Error())
	case errors.Is(err, ErrNotFound):
		return httperr.NotFound("not_found", err.Error())
	case errors.Is(err, ErrForbidden):
		return httperr.Forbidden("forbidden", err.Error())
	case errors.Is(err, ErrProfileExists):
		return httperr.Conflict("already_exists", err.Error())
	case errors.Is(err, ErrUserNotFound):
		return httperr.Unauthorized("unauthorized", err.Error())
	default:
		return httperr.Internal(err)
	}
}
