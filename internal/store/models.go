package store

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// JSON stores arbitrary JSON payloads as TEXT in SQLite.
type JSON json.RawMessage

func (j JSON) Value() (driver.Value, error) {
	if len(j) == 0 {
		return "null", nil
	}
	return string(j), nil
}

func (j *JSON) Scan(value interface{}) error {
	if value == nil {
		*j = JSON("null")
		return nil
	}
	switch v := value.(type) {
	case string:
		*j = JSON(v)
	case []byte:
		*j = JSON(v)
	default:
		return fmt.Errorf("unsupported type for JSON: %T", value)
	}
	return nil
}

func (j JSON) MarshalJSON() ([]byte, error) {
	if len(j) == 0 {
		return []byte("null"), nil
	}
	return []byte(j), nil
}

func (j *JSON) UnmarshalJSON(data []byte) error {
	*j = JSON(data)
	return nil
}

// Origin values for Session.
const (
	OriginDiscord = "discord"
	OriginCLI     = "cli"
)

// Session is the durable association between one Discord thread and one
// Claude Code CLI session identifier.
type Session struct {
	ThreadID    string    `gorm:"primaryKey;size:64" json:"thread_id"`
	SessionID   string    `gorm:"uniqueIndex;not null;size:64" json:"session_id"`
	WorkingDir  string    `gorm:"size:512" json:"working_dir,omitempty"`
	Model       string    `gorm:"size:128" json:"model,omitempty"`
	Origin      string    `gorm:"not null;size:16;default:discord" json:"origin"`
	Summary     string    `gorm:"size:512" json:"summary,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	LastUsedAt  time.Time `gorm:"index" json:"last_used_at"`
}

// PendingAsk is an interactive question that has not yet been answered.
type PendingAsk struct {
	ThreadID      string    `gorm:"primaryKey;size:64" json:"thread_id"`
	SessionID     string    `gorm:"size:64;index" json:"session_id"`
	QuestionsJSON JSON      `gorm:"type:text" json:"questions"`
	CurrentIndex  int       `gorm:"default:0" json:"current_index"`
	CreatedAt     time.Time `json:"created_at"`
}

// PendingResume marks a thread that should be re-entered after a process
// restart. TTL-bounded and single-fire: deleted before the resumed run is
// spawned.
type PendingResume struct {
	ID           uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	ThreadID     string    `gorm:"uniqueIndex;size:64" json:"thread_id"`
	SessionID    string    `gorm:"size:64" json:"session_id,omitempty"`
	Reason       string    `gorm:"size:255" json:"reason"`
	ResumePrompt string    `gorm:"type:text" json:"resume_prompt,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// Setting is a runtime-tunable string key/value pair.
type Setting struct {
	ID        uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	Key       string    `gorm:"uniqueIndex;not null;size:255" json:"key"`
	Value     string    `gorm:"type:text" json:"value"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Task is a periodic job dispatched by the Scheduler.
type Task struct {
	ID              string    `gorm:"primaryKey;size:36" json:"id"`
	Name            string    `gorm:"uniqueIndex;not null;size:255" json:"name"`
	Prompt          string    `gorm:"type:text;not null" json:"prompt"`
	IntervalSeconds int       `gorm:"not null" json:"interval_seconds"`
	ChannelID       string    `gorm:"not null;size:64" json:"channel_id"`
	WorkingDir      string    `gorm:"size:512" json:"working_dir,omitempty"`
	Enabled         bool      `gorm:"not null;default:true;index:idx_task_due" json:"enabled"`
	NextRunAt       time.Time `gorm:"index:idx_task_due" json:"next_run_at"`
	LastRunAt       time.Time `json:"last_run_at,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
}

// LoungeMessage is a short note posted by one active session, visible to
// others as ambient coordination context.
type LoungeMessage struct {
	ID       uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	Label    string    `gorm:"size:50" json:"label"`
	Message  string    `gorm:"size:1000" json:"message"`
	PostedAt time.Time `gorm:"index" json:"posted_at"`
}

// ScheduledNotification is a one-shot notification booked through the HTTP
// API for future delivery, distinct from a recurring Task.
type ScheduledNotification struct {
	ID          string    `gorm:"primaryKey;size:36" json:"id"`
	Message     string    `gorm:"type:text;not null" json:"message"`
	Title       string    `gorm:"size:255" json:"title,omitempty"`
	Color       int       `json:"color,omitempty"`
	ChannelID   string    `gorm:"size:64" json:"channel_id,omitempty"`
	ScheduledAt time.Time `gorm:"index:idx_notif_due" json:"scheduled_at"`
	Delivered   bool      `gorm:"not null;default:false;index:idx_notif_due" json:"delivered"`
	CreatedAt   time.Time `json:"created_at"`
}
