// Package config loads the process-wide configuration for the bot from
// environment variables, with optional defaults for everything but the
// Discord credentials — every setting here is a single process-scoped
// knob, not a per-agent deployment profile.
package config

import (
	"fmt"
	"os"
	"strconv"
)

// Config is the full set of env-driven settings consulted at startup.
type Config struct {
	DiscordBotToken string
	DiscordChannelID string
	DiscordOwnerID  string

	ClaudeCommand        string
	ClaudeModel          string
	ClaudePermissionMode string
	ClaudeWorkingDir     string

	MaxConcurrentSessions int
	SessionTimeoutSeconds int
	CoordinationChannelID string

	DatabasePath         string
	ScheduledTasksDBPath string
	TasksSeedPath        string

	APIBindAddr   string
	APIBearerToken string

	// RunnerSandbox selects the Runner's execution backend: "" (native
	// os/exec, the default), "docker", or "kubernetes".
	RunnerSandbox string

	// NATSURL enables cross-replica coordination when set (internal/coordination).
	NATSURL string
}

// Load reads Config from the environment, applying the defaults this spec
// documents for every optional field.
func Load() (*Config, error) {
	cfg := &Config{
		DiscordBotToken:       os.Getenv("DISCORD_BOT_TOKEN"),
		DiscordChannelID:      os.Getenv("DISCORD_CHANNEL_ID"),
		DiscordOwnerID:        os.Getenv("DISCORD_OWNER_ID"),
		ClaudeCommand:         getOr("CLAUDE_COMMAND", "claude"),
		ClaudeModel:           os.Getenv("CLAUDE_MODEL"),
		ClaudePermissionMode:  os.Getenv("CLAUDE_PERMISSION_MODE"),
		ClaudeWorkingDir:      os.Getenv("CLAUDE_WORKING_DIR"),
		CoordinationChannelID: os.Getenv("COORDINATION_CHANNEL_ID"),
		DatabasePath:          getOr("DATABASE_PATH", "wingman.db"),
		ScheduledTasksDBPath:  os.Getenv("SCHEDULED_TASKS_DB_PATH"),
		TasksSeedPath:         os.Getenv("TASKS_SEED_PATH"),
		APIBindAddr:           getOr("API_BIND_ADDR", "127.0.0.1:8081"),
		APIBearerToken:        os.Getenv("API_BEARER_TOKEN"),
		RunnerSandbox:         os.Getenv("RUNNER_SANDBOX"),
		NATSURL:               os.Getenv("NATS_URL"),
	}

	maxSessions, err := getIntOr("MAX_CONCURRENT_SESSIONS", 5)
	if err != nil {
		return nil, err
	}
	cfg.MaxConcurrentSessions = maxSessions

	timeout, err := getIntOr("SESSION_TIMEOUT_SECONDS", 0)
	if err != nil {
		return nil, err
	}
	cfg.SessionTimeoutSeconds = timeout

	if cfg.DiscordBotToken == "" {
		return nil, fmt.Errorf("DISCORD_BOT_TOKEN is required")
	}
	if cfg.DiscordChannelID == "" {
		return nil, fmt.Errorf("DISCORD_CHANNEL_ID is required")
	}
	switch cfg.RunnerSandbox {
	case "", "docker", "kubernetes":
	default:
		return nil, fmt.Errorf("RUNNER_SANDBOX must be unset, %q, or %q, got %q", "docker", "kubernetes", cfg.RunnerSandbox)
	}

	return cfg, nil
}

func getOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getIntOr(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer, got %q: %w", key, v, err)
	}
	return n, nil
}
