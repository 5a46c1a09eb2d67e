package processor

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/helmcode/wingman/internal/discord"
	"github.com/helmcode/wingman/internal/events"
)

const (
	emojiThinking  = "🧠"
	emojiTool      = "🛠️"
	emojiCoding    = "💻"
	emojiWeb       = "🌐"
	emojiDone      = "✅"
	emojiError     = "❌"
	emojiStallSoft = "⏳"
	emojiStallHard = "⚠️"

	statusDebounce    = 700 * time.Millisecond
	stallSoftElapsed  = 10 * time.Second
	stallHardElapsed  = 30 * time.Second
	stallPollInterval = 2 * time.Second
	doneHoldDuration  = 1500 * time.Millisecond
	errorHoldDuration = 2500 * time.Millisecond
)

func categoryEmoji(cat events.ToolCategory) string {
	switch cat {
	case events.CategoryEdit, events.CategoryCommand:
		return emojiCoding
	case events.CategoryWeb:
		return emojiWeb
	default:
		return emojiTool
	}
}

// StatusManager shows a run's current activity as an emoji reaction on one
// Discord message, debouncing rapid transitions and escalating to a stall
// warning after a period of inactivity. A nil *StatusManager is valid and
// every method is a no-op, so a run built without one doesn't need to
// guard every call site.
type StatusManager struct {
	transport   discord.Transport
	channelID   string
	messageID   func() string
	onHardStall func(ctx context.Context)

	mu            sync.Mutex
	currentEmoji  string
	targetEmoji   string
	debounceTimer *time.Timer
	lastActivity  time.Time
	stallCancel   context.CancelFunc
	hardStallSeen bool
}

// NewStatusManager creates a StatusManager reacting within channelID on
// whatever message messageID currently returns. messageID is called
// freshly on every reaction change rather than captured once, because the
// control message it shares with a StopControl is deleted and reposted
// (bumped) under a new id over the life of a run. onHardStall, if
// non-nil, fires at most once per hard-stall episode (30s of inactivity).
func NewStatusManager(transport discord.Transport, channelID string, messageID func() string, onHardStall func(ctx context.Context)) *StatusManager {
	return &StatusManager{transport: transport, channelID: channelID, messageID: messageID, onHardStall: onHardStall}
}

// SetThinking sets the status to thinking and (re)starts the stall monitor.
func (m *StatusManager) SetThinking(ctx context.Context) {
	if m == nil {
		return
	}
	m.setStatus(ctx, emojiThinking)
	m.startStallMonitor(ctx)
}

// SetTool sets the status to the emoji for the given tool category and
// resets the stall clock (a tool call is activity).
func (m *StatusManager) SetTool(ctx context.Context, category events.ToolCategory) {
	if m == nil {
		return
	}
	m.setStatus(ctx, categoryEmoji(category))
	m.resetStallMonitor()
}

// SetDone marks the run done, holds the done emoji briefly, then cleans up.
func (m *StatusManager) SetDone(ctx context.Context) {
	if m == nil {
		return
	}
	m.cancelStallMonitor()
	m.setStatus(ctx, emojiDone)
	go m.delayedCleanup(ctx, doneHoldDuration)
}

// SetError marks the run errored, holds the error emoji, then cleans up.
func (m *StatusManager) SetError(ctx context.Context) {
	if m == nil {
		return
	}
	m.cancelStallMonitor()
	m.setStatus(ctx, emojiError)
	go m.delayedCleanup(ctx, errorHoldDuration)
}

// Cleanup cancels the stall monitor and removes whatever reaction is
// currently showing. Safe to call on a nil *StatusManager, and safe to
// call more than once.
func (m *StatusManager) Cleanup(ctx context.Context) {
	if m == nil {
		return
	}
	m.cancelStallMonitor()

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.debounceTimer != nil {
		m.debounceTimer.Stop()
	}
	if m.currentEmoji != "" {
		if err := m.transport.RemoveReaction(ctx, m.channelID, m.messageID(), m.currentEmoji); err != nil {
			slog.Warn("status manager: failed to remove reaction", "error", err)
		}
		m.currentEmoji = ""
	}
}

func (m *StatusManager) delayedCleanup(ctx context.Context, hold time.Duration) {
	time.Sleep(hold)
	m.Cleanup(ctx)
}

// setStatus records the target emoji and debounces applying it: rapid
// transitions coalesce into the last one requested within the window.
func (m *StatusManager) setStatus(ctx context.Context, emoji string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.targetEmoji = emoji
	if m.debounceTimer != nil {
		m.debounceTimer.Stop()
	}
	m.debounceTimer = time.AfterFunc(statusDebounce, func() { m.applyDebounced(ctx) })
}

func (m *StatusManager) applyDebounced(ctx context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.targetEmoji == m.currentEmoji {
		return
	}
	msgID := m.messageID()
	if m.currentEmoji != "" {
		if err := m.transport.RemoveReaction(ctx, m.channelID, msgID, m.currentEmoji); err != nil {
			slog.Warn("status manager: failed to remove reaction", "error", err)
		}
	}
	if m.targetEmoji != "" {
		if err := m.transport.AddReaction(ctx, m.channelID, msgID, m.targetEmoji); err != nil {
			slog.Warn("status manager: failed to add reaction", "error", err)
		}
	}
	m.currentEmoji = m.targetEmoji
}

func (m *StatusManager) startStallMonitor(ctx context.Context) {
	m.cancelStallMonitor()

	stallCtx, cancel := context.WithCancel(ctx)
	m.mu.Lock()
	m.lastActivity = time.Now()
	m.stallCancel = cancel
	m.hardStallSeen = false
	m.mu.Unlock()

	go m.stallLoop(stallCtx)
}

func (m *StatusManager) resetStallMonitor() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastActivity = time.Now()
	m.hardStallSeen = false
}

func (m *StatusManager) cancelStallMonitor() {
	m.mu.Lock()
	cancel := m.stallCancel
	m.stallCancel = nil
	m.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

// stallEscalation is stallLoop's pure decision step, factored out so the
// soft/hard thresholds can be exercised without waiting on real timers.
func stallEscalation(elapsed time.Duration, current string, softWarned bool) (next string, shouldFire bool) {
	switch {
	case elapsed >= stallHardElapsed && current != emojiStallHard:
		return emojiStallHard, true
	case elapsed >= stallSoftElapsed && !softWarned && current != emojiStallHard:
		return emojiStallSoft, false
	default:
		return "", false
	}
}

func (m *StatusManager) stallLoop(ctx context.Context) {
	ticker := time.NewTicker(stallPollInterval)
	defer ticker.Stop()

	softWarned := false
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.mu.Lock()
			elapsed := time.Since(m.lastActivity)
			current := m.currentEmoji
			m.mu.Unlock()

			next, wantFire := stallEscalation(elapsed, current, softWarned)
			switch next {
			case emojiStallHard:
				m.setStatus(ctx, emojiStallHard)
				m.mu.Lock()
				fire := wantFire && !m.hardStallSeen
				m.hardStallSeen = true
				m.mu.Unlock()
				if fire && m.onHardStall != nil {
					m.onHardStall(ctx)
				}
			case emojiStallSoft:
				m.setStatus(ctx, emojiStallSoft)
				softWarned = true
			}
		}
	}
}
