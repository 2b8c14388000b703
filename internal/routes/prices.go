package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/farma-sahayak/sahayak-server/internal/prices"
)

// RegisterPriceRoutes wires the public market price endpoints.
func RegisterPriceRoutes(r fiber.Router, h *prices.Handler) {
	group := r.Group("/prices")
	group.Get("/daily-prices", h.DailyPrices)
	group.Get("/history", h.History)
	group.Get("/sample-data", h.Sample)
}
