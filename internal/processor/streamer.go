package processor

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/helmcode/wingman/internal/discord"
)

const (
	streamChunkLimit = 1900
	editInterval     = 1500 * time.Millisecond
)

// StreamingMessageManager buffers one in-flight assistant-text block,
// sending a single Discord message and editing it in place at a debounced
// interval rather than posting a message per partial update.
type StreamingMessageManager struct {
	transport discord.Transport
	channelID string

	mu        sync.Mutex
	buffer    string
	messageID string
	lastEdit  time.Time
	timer     *time.Timer
	pending   bool
}

// NewStreamingMessageManager creates a manager for one in-flight text
// block, posting into channelID (a thread id in practice).
func NewStreamingMessageManager(transport discord.Transport, channelID string) *StreamingMessageManager {
	return &StreamingMessageManager{transport: transport, channelID: channelID}
}

// Append adds delta to the buffer, sending the first message immediately
// and scheduling (or coalescing into) a debounced edit thereafter. When
// the buffer exceeds the chunk limit, the current message is finalized
// and a new one begun, carrying the overflow forward.
func (m *StreamingMessageManager) Append(ctx context.Context, delta string) {
	if delta == "" {
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.buffer += delta

	if m.messageID == "" {
		id, err := m.transport.SendThread(ctx, m.channelID, discord.Message{Content: m.buffer})
		if err != nil {
			slog.Warn("streaming manager: send failed", "error", err)
			return
		}
		m.messageID = id
		m.lastEdit = time.Now()
		return
	}

	if len(m.buffer) > streamChunkLimit {
		overflow := m.buffer[streamChunkLimit:]
		m.buffer = m.buffer[:streamChunkLimit]
		m.flushLocked(ctx)
		m.messageID = ""
		m.buffer = overflow
		if m.buffer != "" {
			id, err := m.transport.SendThread(ctx, m.channelID, discord.Message{Content: m.buffer})
			if err != nil {
				slog.Warn("streaming manager: send failed", "error", err)
				return
			}
			m.messageID = id
			m.lastEdit = time.Now()
		}
		return
	}

	m.scheduleEditLocked(ctx)
}

// scheduleEditLocked edits immediately if the rate limit window has
// elapsed, otherwise coalesces into a single trailing timer.
func (m *StreamingMessageManager) scheduleEditLocked(ctx context.Context) {
	if time.Since(m.lastEdit) >= editInterval {
		m.flushLocked(ctx)
		return
	}
	if m.pending {
		return
	}
	m.pending = true
	delay := editInterval - time.Since(m.lastEdit)
	m.timer = time.AfterFunc(delay, func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		m.pending = false
		m.flushLocked(ctx)
	})
}

func (m *StreamingMessageManager) flushLocked(ctx context.Context) {
	if m.messageID == "" {
		return
	}
	if err := m.transport.EditMessage(ctx, m.channelID, m.messageID, discord.Message{Content: m.buffer}); err != nil {
		slog.Warn("streaming manager: edit failed, continuing stream", "error", err)
	}
	m.lastEdit = time.Now()
}

// Finalize cancels any pending debounced edit and flushes the buffer one
// last time.
func (m *StreamingMessageManager) Finalize(ctx context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.timer != nil {
		m.timer.Stop()
		m.pending = false
	}
	m.flushLocked(ctx)
}

// HasContent reports whether any text has been buffered into this manager.
func (m *StreamingMessageManager) HasContent() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.buffer != ""
}
