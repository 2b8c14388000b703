package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/farma-sahayak/sahayak-server/internal/auth"
)

// RegisterAuthRoutes wires authentication endpoints.
func RegisterAuthRoutes(r fiber.Router, h *auth.Handler, guard, rateLimiter fiber.Handler) {
	group := r.Group("/auth")
	if rateLimiter != nil {
		group.Post("/signup", rateLimiter, h.Signup)
		group.Post("/login", rateLimiter, h.Login)
	} else {
		group.Post("/signup", h.Signup)
		group.Post("/login", h.Login)
	}
	group.Post("/token/refresh", h.Refresh)
	group.Post("/logout", guard, h.Logout)
	group.Get("/validate-token", guard, h.ValidateToken)
	group.Get("/health", h.Health)
}
