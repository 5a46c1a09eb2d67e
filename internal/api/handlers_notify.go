package api

import (
	"github.com/gofiber/fiber/v2"

	"github.com/helmcode/wingman/internal/discord"
)

// Notify sends an immediate notification to a Discord channel.
func (s *Server) Notify(c *fiber.Ctx) error {
	var req NotifyRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if req.Message == "" {
		return fiber.NewError(fiber.StatusBadRequest, "message is required")
	}
	if req.ChannelID == "" {
		return fiber.NewError(fiber.StatusBadRequest, "channel_id is required")
	}

	msg := discord.Message{Content: req.Message}
	if req.Title != "" {
		msg.Embed = &discord.Embed{Title: req.Title, Description: req.Message, Color: req.Color}
	}

	if _, err := s.transport.SendChannel(c.Context(), req.ChannelID, msg); err != nil {
		return fiber.NewError(fiber.StatusBadGateway, "failed to deliver notification")
	}

	return c.SendStatus(fiber.StatusOK)
}
