package api

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/helmcode/wingman/internal/store"
)

// CreateScheduled books a one-shot notification for future delivery.
func (s *Server) CreateScheduled(c *fiber.Ctx) error {
	var req ScheduleRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if req.Message == "" {
		return fiber.NewError(fiber.StatusBadRequest, "message is required")
	}
	if req.ChannelID == "" {
		return fiber.NewError(fiber.StatusBadRequest, "channel_id is required")
	}

	at, err := time.Parse(time.RFC3339, req.ScheduledAt)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "scheduled_at must be ISO-8601")
	}

	n, err := s.notifications.Create(store.CreateScheduledParams{
		Message:     req.Message,
		Title:       req.Title,
		Color:       req.Color,
		ChannelID:   req.ChannelID,
		ScheduledAt: at,
	})
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "failed to persist scheduled notification")
	}

	return c.Status(fiber.StatusCreated).JSON(ScheduleResponse{ID: n.ID})
}

// ListScheduled lists pending scheduled notifications.
func (s *Server) ListScheduled(c *fiber.Ctx) error {
	pending, err := s.notifications.ListPending()
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "failed to list scheduled notifications")
	}
	return c.JSON(pending)
}

// DeleteScheduled cancels a pending scheduled notification.
func (s *Server) DeleteScheduled(c *fiber.Ctx) error {
	id := c.Params("id")
	ok, err := s.notifications.Delete(id)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "failed to cancel scheduled notification")
	}
	if !ok {
		return fiber.NewError(fiber.StatusNotFound, "scheduled notification not found or already delivered")
	}
	return c.SendStatus(fiber.StatusNoContent)
}
