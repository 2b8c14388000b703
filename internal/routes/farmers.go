package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/farma-sahayak/sahayak-server/internal/farmer"
)

// RegisterFarmerRoutes wires the caller-scoped farmer profile endpoints.
func RegisterFarmerRoutes(r fiber.Router, h *farmer.Handler, guard fiber.Handler) {
	group := r.Group("/farmers", guard)
	group.Post("/", h.Create)
	group.Get("/:farmerId", h.Get)
	group.Put("/:farmerId", h.Update)
}
