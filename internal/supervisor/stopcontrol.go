package supervisor

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/helmcode/wingman/internal/discord"
	"github.com/helmcode/wingman/internal/runner"
)

const stopButtonLabel = "⏹ Stop"

// StopControl owns one persistent "stop" button for a run: a single
// message carrying a danger-styled button that interrupts the run's
// Runner and disables itself. It doubles as the anchor message the
// StatusManager reacts on, so a run exposes exactly one control message
// rather than one per concern.
type StopControl struct {
	transport discord.Transport
	threadID  string
	runner    *runner.Runner
	customID  string

	mu        sync.Mutex
	messageID string
	stopped   bool
}

// NewStopControl creates a StopControl for one run on threadID, wiring its
// button click to r.Interrupt(). The caller must call Start before the
// button is usable.
func NewStopControl(transport discord.Transport, threadID string, r *runner.Runner) *StopControl {
	c := &StopControl{
		transport: transport,
		threadID:  threadID,
		runner:    r,
		customID:  fmt.Sprintf("stop:%s", threadID),
	}
	transport.RegisterInteractionHandler(c.customID, c.handleClick)
	return c
}

// Start posts the initial control message. Must be called before Bump,
// Disable, or MessageID are useful.
func (c *StopControl) Start(ctx context.Context) {
	msgID, err := c.transport.SendThread(ctx, c.threadID, c.render(false))
	if err != nil {
		slog.Warn("stop control: failed to post control message", "error", err)
		return
	}
	c.mu.Lock()
	c.messageID = msgID
	c.mu.Unlock()
}

// MessageID returns the current control message id, for a StatusManager
// to react on.
func (c *StopControl) MessageID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.messageID
}

func (c *StopControl) render(disabled bool) discord.Message {
	return discord.Message{
		Content: "-# ⏺ Session running",
		Components: &discord.Components{Buttons: []discord.Button{
			{CustomID: c.customID, Label: stopButtonLabel, Style: discord.StyleDanger, Disabled: disabled},
		}},
	}
}

// handleClick runs on every click of the stop button. A second click
// while already stopped is a no-op deferral: no additional interrupt is
// sent, satisfying the idempotence invariant.
func (c *StopControl) handleClick(ctx context.Context, in discord.Interaction) {
	c.mu.Lock()
	if c.stopped {
		c.mu.Unlock()
		return
	}
	c.stopped = true
	msgID := c.messageID
	c.mu.Unlock()

	if err := c.transport.EditMessage(ctx, c.threadID, msgID, c.render(true)); err != nil {
		slog.Warn("stop control: failed to disable button on click", "error", err)
	}
	c.runner.Interrupt()
	if _, err := c.transport.SendThread(ctx, c.threadID, discord.Message{Content: "⏹ stopped"}); err != nil {
		slog.Warn("stop control: failed to post stopped notice", "error", err)
	}
}

// Bump moves the control message to the bottom of the thread by deleting
// and reposting it, so it stays reachable as new messages arrive. A no-op
// once the run has been stopped.
func (c *StopControl) Bump(ctx context.Context) {
	if c == nil {
		return
	}
	c.mu.Lock()
	if c.stopped {
		c.mu.Unlock()
		return
	}
	oldID := c.messageID
	c.mu.Unlock()

	if oldID != "" {
		if err := c.transport.DeleteMessage(ctx, c.threadID, oldID); err != nil {
			slog.Warn("stop control: failed to delete old control message", "error", err)
		}
	}
	newID, err := c.transport.SendThread(ctx, c.threadID, c.render(false))
	if err != nil {
		slog.Warn("stop control: failed to repost control message", "error", err)
		return
	}

	c.mu.Lock()
	stoppedMeanwhile := c.stopped
	if !stoppedMeanwhile {
		c.messageID = newID
	}
	c.mu.Unlock()

	if stoppedMeanwhile {
		// A click landed while the repost was in flight: the button we
		// just posted is live-looking but the run already stopped, so
		// disable it immediately rather than leave a stale clickable
		// button in the thread.
		if err := c.transport.EditMessage(ctx, c.threadID, newID, c.render(true)); err != nil {
			slog.Warn("stop control: failed to disable late-arriving repost", "error", err)
		}
	}
}

// Disable marks the control message disabled on a natural run end (no
// click happened). A no-op if the button was already stopped by a click.
func (c *StopControl) Disable(ctx context.Context) {
	c.mu.Lock()
	if c.stopped {
		c.mu.Unlock()
		return
	}
	c.stopped = true
	msgID := c.messageID
	c.mu.Unlock()

	if msgID == "" {
		return
	}
	if err := c.transport.EditMessage(ctx, c.threadID, msgID, c.render(true)); err != nil {
		slog.Warn("stop control: failed to disable button on natural end", "error", err)
	}
}
