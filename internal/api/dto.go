// Package api implements the embedded Fiber HTTP API: notifications,
// scheduled messages, task management, and the lounge feed.
package api

// NotifyRequest is the payload for POST /api/notify.
type NotifyRequest struct {
	Message   string `json:"message" validate:"required"`
	Title     string `json:"title"`
	Color     int    `json:"color"`
	ChannelID string `json:"channel_id"`
}

// ScheduleRequest is the payload for POST /api/schedule.
type ScheduleRequest struct {
	Message     string `json:"message" validate:"required"`
	ScheduledAt string `json:"scheduled_at" validate:"required"`
	ChannelID   string `json:"channel_id"`
	Title       string `json:"title"`
	Color       int    `json:"color"`
}

// ScheduleResponse is returned on a successful POST /api/schedule.
type ScheduleResponse struct {
	ID string `json:"id"`
}

// CreateTaskRequest is the payload for POST /api/tasks.
type CreateTaskRequest struct {
	Name            string `json:"name" validate:"required"`
	Prompt          string `json:"prompt" validate:"required"`
	IntervalSeconds int    `json:"interval_seconds" validate:"required"`
	ChannelID       string `json:"channel_id" validate:"required"`
	WorkingDir      string `json:"working_dir"`
	RunImmediately  bool   `json:"run_immediately"`
	// AllowedTools, when set, is validated against the admin-configured
	// tool_policy Setting (if any) before the task is created.
	AllowedTools []string `json:"allowed_tools,omitempty"`
}

// PatchTaskRequest is the payload for PATCH /api/tasks/{id}.
type PatchTaskRequest struct {
	Prompt          *string `json:"prompt"`
	IntervalSeconds *int    `json:"interval_seconds"`
	Enabled         *bool   `json:"enabled"`
	WorkingDir      *string `json:"working_dir"`
}

// PostLoungeRequest is the payload for POST /api/lounge.
type PostLoungeRequest struct {
	Message string `json:"message" validate:"required"`
	Label   string `json:"label"`
}

// HealthResponse is the payload for GET /api/health.
type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
}

// ErrorResponse is a standard error response.
type ErrorResponse struct {
	Error string `json:"error"`
}
