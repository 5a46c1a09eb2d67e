package api

import (
	"github.com/gofiber/fiber/v2"

	"github.com/helmcode/wingman/internal/permissions"
	"github.com/helmcode/wingman/internal/store"
)

// settingsToolPolicyKey is the Settings row holding a JSON-encoded
// permissions.PermissionConfig. When absent, task creation skips the
// pre-flight tool-policy check entirely (no admin policy configured).
const settingsToolPolicyKey = "tool_policy"

// CreateTask registers a new periodic task with the Scheduler.
func (s *Server) CreateTask(c *fiber.Ctx) error {
	if !s.schedulerEnabled {
		return fiber.NewError(fiber.StatusServiceUnavailable, "scheduler is disabled")
	}

	var req CreateTaskRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if req.Name == "" {
		return fiber.NewError(fiber.StatusBadRequest, "name is required")
	}
	if req.Prompt == "" {
		return fiber.NewError(fiber.StatusBadRequest, "prompt is required")
	}
	if req.IntervalSeconds <= 0 {
		return fiber.NewError(fiber.StatusBadRequest, "interval_seconds must be positive")
	}
	if req.ChannelID == "" {
		return fiber.NewError(fiber.StatusBadRequest, "channel_id is required")
	}

	if existing, err := s.tasks.ByName(req.Name); err == nil && existing != nil {
		return fiber.NewError(fiber.StatusConflict, "task name already exists")
	}

	if len(req.AllowedTools) > 0 {
		if d, err := s.checkToolPolicy(req.AllowedTools); err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "failed to load tool policy")
		} else if !d.Allowed {
			return fiber.NewError(fiber.StatusBadRequest, d.Reason)
		}
	}

	task, err := s.tasks.Create(store.CreateParams{
		Name:            req.Name,
		Prompt:          req.Prompt,
		IntervalSeconds: req.IntervalSeconds,
		ChannelID:       req.ChannelID,
		WorkingDir:      req.WorkingDir,
		RunImmediately:  req.RunImmediately,
	})
	if err != nil {
		return fiber.NewError(fiber.StatusConflict, "task name already exists")
	}

	return c.Status(fiber.StatusCreated).JSON(task)
}

// checkToolPolicy validates a requested allowed-tools list against the
// admin-configured tool_policy Setting. It allows everything when no policy
// Setting (or no Settings repo) is present.
func (s *Server) checkToolPolicy(requested []string) (permissions.Decision, error) {
	if s.settings == nil {
		return permissions.Allow(), nil
	}
	raw, ok, err := s.settings.Get(settingsToolPolicyKey)
	if err != nil {
		return permissions.Decision{}, err
	}
	if !ok {
		return permissions.Allow(), nil
	}
	cfg, err := permissions.ParsePolicy(raw)
	if err != nil {
		return permissions.Decision{}, err
	}
	gate := permissions.NewGate(cfg)
	return gate.ValidateAllowedTools(requested), nil
}

// ListTasks lists all periodic tasks.
func (s *Server) ListTasks(c *fiber.Ctx) error {
	tasks, err := s.tasks.ListAll()
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "failed to list tasks")
	}
	return c.JSON(tasks)
}

// DeleteTask removes a periodic task.
func (s *Server) DeleteTask(c *fiber.Ctx) error {
	id := c.Params("id")
	task, err := s.tasks.Get(id)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "failed to look up task")
	}
	if task == nil {
		return fiber.NewError(fiber.StatusNotFound, "task not found")
	}

	if err := s.tasks.Delete(id); err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "failed to delete task")
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// PatchTask applies a partial update to a task.
func (s *Server) PatchTask(c *fiber.Ctx) error {
	id := c.Params("id")

	var req PatchTaskRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	updated, err := s.tasks.Patch(id, store.PatchParams{
		Enabled:         req.Enabled,
		Prompt:          req.Prompt,
		IntervalSeconds: req.IntervalSeconds,
		WorkingDir:      req.WorkingDir,
	})
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "failed to update task")
	}
	if updated == nil {
		return fiber.NewError(fiber.StatusNotFound, "task not found")
	}
	return c.JSON(updated)
}
