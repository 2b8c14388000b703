package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/farma-sahayak/sahayak-server/internal/cropdisease"
)

// RegisterCropDiseaseRoutes wires image upload and diagnosis endpoints.
func RegisterCropDiseaseRoutes(r fiber.Router, h *cropdisease.Handler, guard fiber.Handler) {
	group := r.Group("/crop-disease")
	group.Get("/health", h.Health)
	group.Post("/upload-image", guard, h.Upload)
	group.Post("/analyze", guard, h.Analyze)
}
