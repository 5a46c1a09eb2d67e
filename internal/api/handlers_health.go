package api

import (
	"time"

	"github.com/gofiber/fiber/v2"
)

// HealthCheck reports liveness. Always unauthenticated, even when a
// bearer token is configured.
func (s *Server) HealthCheck(c *fiber.Ctx) error {
	return c.JSON(HealthResponse{
		Status:    "ok",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}
