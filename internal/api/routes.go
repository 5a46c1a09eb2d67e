package api

import (
	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
)

func (s *Server) registerRoutes() {
	s.App.Get("/api/health", s.HealthCheck)

	api := s.App.Group("/api")

	api.Post("/notify", s.Notify)

	api.Post("/schedule", s.CreateScheduled)
	api.Get("/scheduled", s.ListScheduled)
	api.Delete("/scheduled/:id", s.DeleteScheduled)

	api.Post("/tasks", s.CreateTask)
	api.Get("/tasks", s.ListTasks)
	api.Delete("/tasks/:id", s.DeleteTask)
	api.Patch("/tasks/:id", s.PatchTask)

	api.Get("/lounge", s.GetLounge)
	api.Post("/lounge", s.PostLounge)

	api.Get("/settings", s.GetSettings)
	api.Put("/settings", s.UpdateSettings)
	api.Delete("/settings/:key", s.DeleteSetting)

	s.App.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	s.App.Get("/ws/tasks/stream", websocket.New(s.StreamTaskEvents))
}
