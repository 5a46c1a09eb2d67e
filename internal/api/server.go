package api

import (
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"

	"github.com/helmcode/wingman/internal/discord"
	"github.com/helmcode/wingman/internal/store"
)

// Server holds dependencies for the embedded HTTP API: health,
// immediate/scheduled notifications, periodic task management, and the
// lounge feed.
type Server struct {
	App *fiber.App

	transport     discord.Transport
	tasks         *store.TaskRepo
	notifications *store.ScheduledNotificationRepo
	lounge        *store.LoungeRepo
	settings      *store.SettingsRepo

	// loungeChannelID, when set, receives a forwarded copy of every
	// POST /api/lounge message.
	loungeChannelID string

	// bearerToken gates every route but GET /api/health. Empty disables auth.
	bearerToken string

	// schedulerEnabled reports 503 on task creation when the scheduler was
	// not started (e.g. explicitly disabled at startup).
	schedulerEnabled bool

	loungeMirror LoungeMirror
}

// LoungeMirror forwards a locally posted lounge message to a cross-replica
// coordination bus. Optional; a nil LoungeMirror disables forwarding and is
// what every test exercises.
type LoungeMirror interface {
	PublishLoungeMessage(label, message string) error
}

// Options configures a Server.
type Options struct {
	Transport        discord.Transport
	Tasks            *store.TaskRepo
	Notifications    *store.ScheduledNotificationRepo
	Lounge           *store.LoungeRepo
	Settings         *store.SettingsRepo
	LoungeChannelID  string
	BearerToken      string
	SchedulerEnabled bool
	LoungeMirror     LoungeMirror
}

// settingsBearerTokenHashKey is the Settings row holding a bcrypt hash of
// the HTTP API bearer token, taking precedence over BearerToken so an
// operator can rotate it via PUT /api/settings without a restart.
const settingsBearerTokenHashKey = "api_bearer_token_hash"

// NewServer creates a Fiber app with middleware and registers all routes.
func NewServer(opts Options) *Server {
	app := fiber.New(fiber.Config{
		AppName:      "wingman API",
		ErrorHandler: globalErrorHandler,
	})

	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,PATCH,DELETE,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept,Authorization",
	}))
	app.Use(requestLogger())

	s := &Server{
		App:              app,
		transport:        opts.Transport,
		tasks:            opts.Tasks,
		notifications:    opts.Notifications,
		lounge:           opts.Lounge,
		settings:         opts.Settings,
		loungeChannelID:  opts.LoungeChannelID,
		bearerToken:      opts.BearerToken,
		schedulerEnabled: opts.SchedulerEnabled,
		loungeMirror:     opts.LoungeMirror,
	}

	app.Use(s.authMiddleware())
	s.registerRoutes()
	return s
}

// Listen starts the HTTP server on the given address.
func (s *Server) Listen(addr string) error {
	slog.Info("starting HTTP server", "addr", addr)
	return s.App.Listen(addr)
}

// Shutdown gracefully stops the HTTP server.
func (s *Server) Shutdown() error {
	slog.Info("shutting down HTTP server")
	return s.App.Shutdown()
}
