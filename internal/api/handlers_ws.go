package api

import (
	"encoding/json"
	"time"

	"github.com/gofiber/contrib/websocket"
)

// TaskFireEvent describes one scheduler dispatch, pushed live to
// GET /ws/tasks/stream so an operator dashboard can watch tasks fire.
type TaskFireEvent struct {
	TaskID   string    `json:"task_id"`
	TaskName string    `json:"task_name"`
	FiredAt  time.Time `json:"fired_at"`
}

// StreamTaskEvents streams scheduler fire events via WebSocket, polling the
// task table for rows whose last_run_at has advanced since the previous
// poll.
func (s *Server) StreamTaskEvents(c *websocket.Conn) {
	defer c.Close()

	var cursor time.Time
	ticker := time.NewTicker(2 * time.Second)
	defer ticker.Stop()

	done := make(chan struct{})
	go func() {
		for {
			if _, _, err := c.ReadMessage(); err != nil {
				close(done)
				return
			}
		}
	}()

	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			fired, newCursor := s.tasks.FiredSince(cursor)
			for _, f := range fired {
				data, _ := json.Marshal(TaskFireEvent{TaskID: f.ID, TaskName: f.Name, FiredAt: f.LastRunAt})
				if err := c.WriteMessage(websocket.TextMessage, data); err != nil {
					return
				}
			}
			cursor = newCursor
		}
	}
}
