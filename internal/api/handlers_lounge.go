package api

import (
	"fmt"
	"log/slog"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/helmcode/wingman/internal/discord"
)

const (
	loungeDefaultLimit = 20
	loungeMaxLimit     = 50
)

// GetLounge returns the N most recent lounge messages, 1 ≤ N ≤ 50
// (silently capped), newest-first-then-reversed into chronological order.
func (s *Server) GetLounge(c *fiber.Ctx) error {
	limit := loungeDefaultLimit
	if raw := c.Query("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			limit = n
		}
	}
	if limit > loungeMaxLimit {
		limit = loungeMaxLimit
	}

	messages, err := s.lounge.GetRecent(limit)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "failed to fetch lounge messages")
	}
	return c.JSON(messages)
}

// PostLounge stores a lounge message and, when a lounge channel is
// configured on the transport, forwards it there formatted as
// "**[label]** message *(HH:MM)*".
func (s *Server) PostLounge(c *fiber.Ctx) error {
	var req PostLoungeRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if req.Message == "" {
		return fiber.NewError(fiber.StatusBadRequest, "message is required")
	}

	posted, err := s.lounge.Post(req.Message, req.Label)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "failed to store lounge message")
	}

	if s.loungeChannelID != "" {
		label := req.Label
		if label == "" {
			label = "api"
		}
		content := fmt.Sprintf("**[%s]** %s *(%s)*", label, req.Message, posted.PostedAt.Format("15:04"))
		if _, err := s.transport.SendChannel(c.Context(), s.loungeChannelID, discord.Message{Content: content}); err != nil {
			return fiber.NewError(fiber.StatusBadGateway, "stored but failed to forward to Discord")
		}
	}

	if s.loungeMirror != nil {
		label := req.Label
		if label == "" {
			label = "api"
		}
		if err := s.loungeMirror.PublishLoungeMessage(label, req.Message); err != nil {
			slog.Warn("failed to mirror lounge message across replicas", "error", err)
		}
	}

	return c.Status(fiber.StatusCreated).JSON(posted)
}
