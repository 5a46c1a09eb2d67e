package api

import "github.com/gofiber/fiber/v2"

// UpdateSettingRequest is the payload for PUT /api/settings.
type UpdateSettingRequest struct {
	Key   string `json:"key" validate:"required"`
	Value string `json:"value"`
}

// GetSettings lists every runtime-tunable setting.
func (s *Server) GetSettings(c *fiber.Ctx) error {
	settings, err := s.settings.GetAll()
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "failed to list settings")
	}
	return c.JSON(settings)
}

// UpdateSettings upserts one setting. Used in particular to rotate the HTTP
// API bearer token (as its bcrypt hash, key "api_bearer_token_hash")
// without restarting the process.
func (s *Server) UpdateSettings(c *fiber.Ctx) error {
	var req UpdateSettingRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if req.Key == "" {
		return fiber.NewError(fiber.StatusBadRequest, "key is required")
	}

	if err := s.settings.Set(req.Key, req.Value); err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "failed to save setting")
	}
	return c.JSON(fiber.Map{"key": req.Key, "value": req.Value})
}

// DeleteSetting removes a setting.
func (s *Server) DeleteSetting(c *fiber.Ctx) error {
	key := c.Params("key")
	if err := s.settings.Delete(key); err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "failed to delete setting")
	}
	return c.SendStatus(fiber.StatusNoContent)
}
