package processor

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/helmcode/wingman/internal/discord"
)

const defaultTickInterval = 10 * time.Second

// LiveToolTimer periodically edits a tool-in-progress embed's description
// (never the title, which stays stable so the thread reads cleanly) with
// an elapsed-time notice, until cancelled.
type LiveToolTimer struct {
	cancel context.CancelFunc
	done   chan struct{}
}

// StartLiveToolTimer begins ticking every interval (defaultTickInterval if
// zero), editing messageID in channelID with "⏳ Ns elapsed…". Cancel stops
// the timer; cancellation is idempotent.
func StartLiveToolTimer(transport discord.Transport, channelID, messageID, title string, interval time.Duration) *LiveToolTimer {
	if interval <= 0 {
		interval = defaultTickInterval
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	go func() {
		defer close(done)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		elapsed := 0
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				elapsed += int(interval.Seconds())
				msg := discord.Message{
					Embed: &discord.Embed{
						Title:       title,
						Description: fmt.Sprintf("⏳ %ds elapsed…", elapsed),
					},
				}
				if err := transport.EditMessage(ctx, channelID, messageID, msg); err != nil {
					slog.Debug("live tool timer: edit failed", "error", err)
				}
			}
		}
	}()

	return &LiveToolTimer{cancel: cancel, done: done}
}

// Cancel stops the timer. Safe to call multiple times or on a nil timer
// (context.CancelFunc is itself idempotent).
func (t *LiveToolTimer) Cancel() {
	if t == nil {
		return
	}
	t.cancel()
}
