package api

import (
	"crypto/subtle"
	"log/slog"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/crypto/bcrypt"
)

// requestLogger returns a middleware that logs each request.
func requestLogger() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()
		slog.Info("request",
			"method", c.Method(),
			"path", c.Path(),
			"status", c.Response().StatusCode(),
			"duration_ms", time.Since(start).Milliseconds(),
			"request_id", c.Locals("requestid"),
		)
		return err
	}
}

// authMiddleware requires "Authorization: Bearer <token>" on every path
// except GET /api/health when a bearer token is configured. A Settings row
// under settingsBearerTokenHashKey (bcrypt hash) takes precedence over the
// static env-sourced token, so the token can be rotated via
// PUT /api/settings without a restart. Auth is disabled entirely when
// neither is configured (local/dev use).
func (s *Server) authMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		hash := s.settingsBearerHash()
		if hash == "" && s.bearerToken == "" {
			return c.Next()
		}
		if c.Method() == fiber.MethodGet && c.Path() == "/api/health" {
			return c.Next()
		}

		header := c.Get("Authorization")
		const prefix = "Bearer "
		if !strings.HasPrefix(header, prefix) {
			return fiber.NewError(fiber.StatusUnauthorized, "missing bearer token")
		}
		token := strings.TrimPrefix(header, prefix)

		if hash != "" {
			if bcrypt.CompareHashAndPassword([]byte(hash), []byte(token)) != nil {
				return fiber.NewError(fiber.StatusUnauthorized, "invalid bearer token")
			}
			return c.Next()
		}
		if subtle.ConstantTimeCompare([]byte(token), []byte(s.bearerToken)) != 1 {
			return fiber.NewError(fiber.StatusUnauthorized, "invalid bearer token")
		}
		return c.Next()
	}
}

func (s *Server) settingsBearerHash() string {
	if s.settings == nil {
		return ""
	}
	hash, ok, err := s.settings.Get(settingsBearerTokenHashKey)
	if err != nil || !ok {
		return ""
	}
	return hash
}

// globalErrorHandler handles unhandled errors and returns JSON.
// Internal errors (5xx) return a generic message to avoid leaking implementation details.
func globalErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	msg := "internal server error"

	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
		if code < 500 {
			msg = e.Message
		} else {
			slog.Error("internal error", "error", e.Message, "path", c.Path())
		}
	} else {
		slog.Error("unhandled error", "error", err.Error(), "path", c.Path())
	}

	return c.Status(code).JSON(ErrorResponse{
		Error: msg,
	})
}
