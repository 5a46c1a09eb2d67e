// Package processor implements the event processor state machine:
// it consumes a Runner's StreamEvent sequence and renders it into Discord
// messages, embeds, and status updates for one run.
package processor

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"time"

	"github.com/helmcode/wingman/internal/discord"
	"github.com/helmcode/wingman/internal/events"
	"github.com/helmcode/wingman/internal/runner"
)

var timeoutPattern = regexp.MustCompile(`Timed out after (\d+) seconds`)

// Bumper moves a persistent control message (the stop button) to the
// bottom of the thread so it stays reachable during a long stream.
// Implemented by supervisor.StopControl; a nil Bumper disables bumping.
type Bumper interface {
	Bump(ctx context.Context)
}

// Config carries the knobs EventProcessor needs beyond the transport
// itself: where to post, which runner to interrupt on an ask, the
// context-window size (0 disables the banner), and the optional status
// indicator and stop-button bumper for this run.
type Config struct {
	Transport   discord.Transport
	ThreadID    string
	Runner      *runner.Runner
	ContextSize int
	Status      *StatusManager
	StopControl Bumper
}

// EventProcessor holds per-run mutable state while consuming one stream
// of events; a fresh instance is created per turn.
type EventProcessor struct {
	cfg Config

	sessionID string

	streamer *StreamingMessageManager

	activeTools map[string]toolHandle
	partialText string
	draining    bool

	sessionStartSent  bool
	assistantTextSent bool
	hadInboundResume  bool
	terminalHandled   bool

	PendingAskQuestions []events.AskQuestion
}

// Terminal reports whether a terminal event (success or error) has been
// processed, so callers can tell natural completion (which already drove
// the status indicator and stop button to their end states) apart from a
// stream that simply closed mid-run, which still needs a safety-net
// cleanup.
func (p *EventProcessor) Terminal() bool {
	return p.terminalHandled
}

type toolHandle struct {
	messageID string
	timer     *LiveToolTimer
	title     string
}

// New creates an EventProcessor for one run. hadInboundResume is true when
// the run was launched with an existing --resume session id, suppressing
// the "session started" embed for that first SYSTEM event.
func New(cfg Config, hadInboundResume bool) *EventProcessor {
	return &EventProcessor{
		cfg:              cfg,
		activeTools:      make(map[string]toolHandle),
		hadInboundResume: hadInboundResume,
	}
}

// ShouldDrain reports whether the processor has entered drain mode after
// an AskUserQuestion tool call — subsequent non-terminal events are
// consumed and ignored until the stream ends.
func (p *EventProcessor) ShouldDrain() bool {
	return p.draining
}

// SessionID returns the most recently observed session id for this run.
func (p *EventProcessor) SessionID() string {
	return p.sessionID
}

// Process handles one event. Callers must not call Process again
// concurrently; a run's events are strictly sequential.
func (p *EventProcessor) Process(ctx context.Context, ev events.StreamEvent) {
	if p.draining && !ev.IsComplete {
		return
	}

	switch ev.Kind {
	case events.KindSystem:
		p.handleSystem(ctx, ev)
	case events.KindAssistant:
		p.handleAssistant(ctx, ev)
	case events.KindUser:
		p.handleUser(ctx, ev)
	}

	if ev.IsComplete {
		p.handleTerminal(ctx, ev)
	}
}

func (p *EventProcessor) handleSystem(ctx context.Context, ev events.StreamEvent) {
	if ev.SessionID != "" {
		p.sessionID = ev.SessionID
	}
	if !p.sessionStartSent && !p.hadInboundResume {
		_, err := p.cfg.Transport.SendThread(ctx, p.cfg.ThreadID, discord.Message{
			Embed: &discord.Embed{Title: "Session started", Color: 0x5865F2},
		})
		if err != nil {
			slog.Warn("processor: failed to post session-started embed", "error", err)
		}
		p.sessionStartSent = true
	}
}

func (p *EventProcessor) handleAssistant(ctx context.Context, ev events.StreamEvent) {
	if ev.Thinking != "" && !ev.IsPartial {
		p.postThinking(ctx, ev.Thinking)
	}
	if ev.HasRedactedThinking && !ev.IsPartial {
		_, _ = p.cfg.Transport.SendThread(ctx, p.cfg.ThreadID, discord.Message{
			Embed: &discord.Embed{Title: "Thinking (redacted)", Description: "The model's reasoning for this step was redacted."},
		})
	}

	if ev.Text != "" {
		p.handleAssistantText(ctx, ev)
	}

	if ev.ToolUse != nil {
		p.handleToolUse(ctx, ev)
	}

	if len(ev.AskQuestions) > 0 {
		p.PendingAskQuestions = ev.AskQuestions
		if p.cfg.Runner != nil {
			p.cfg.Runner.Interrupt()
		}
		p.draining = true
	}
}

func (p *EventProcessor) postThinking(ctx context.Context, thinking string) {
	body := "```\n" + TruncateThinking(thinking) + "\n```"
	_, err := p.cfg.Transport.SendThread(ctx, p.cfg.ThreadID, discord.Message{
		Embed: &discord.Embed{Title: "Thinking", Description: body},
	})
	if err != nil {
		slog.Warn("processor: failed to post thinking embed", "error", err)
	}
}

func (p *EventProcessor) handleAssistantText(ctx context.Context, ev events.StreamEvent) {
	if ev.IsPartial {
		delta := ev.Text
		if len(ev.Text) >= len(p.partialText) {
			delta = ev.Text[len(p.partialText):]
		}
		p.partialText = ev.Text
		if delta == "" {
			return
		}
		p.ensureStreamer().Append(ctx, delta)
		return
	}

	if p.streamer != nil && p.streamer.HasContent() {
		delta := ev.Text
		if len(ev.Text) >= len(p.partialText) {
			delta = ev.Text[len(p.partialText):]
		}
		if delta != "" {
			p.streamer.Append(ctx, delta)
		}
		p.streamer.Finalize(ctx)
	} else if p.partialText == "" {
		for _, chunk := range ChunkText(ev.Text) {
			if _, err := p.cfg.Transport.SendThread(ctx, p.cfg.ThreadID, discord.Message{Content: chunk}); err != nil {
				slog.Warn("processor: failed to post assistant text", "error", err)
			}
		}
	}
	p.partialText = ""
	p.assistantTextSent = true
	p.bump(ctx)
}

// bump moves the stop-button control message to the bottom of the thread,
// if one is configured for this run.
func (p *EventProcessor) bump(ctx context.Context) {
	if p.cfg.StopControl != nil {
		p.cfg.StopControl.Bump(ctx)
	}
}

func (p *EventProcessor) ensureStreamer() *StreamingMessageManager {
	if p.streamer == nil {
		p.streamer = NewStreamingMessageManager(p.cfg.Transport, p.cfg.ThreadID)
	}
	return p.streamer
}

func (p *EventProcessor) handleToolUse(ctx context.Context, ev events.StreamEvent) {
	if p.streamer != nil {
		p.streamer.Finalize(ctx)
		p.streamer = nil
		p.partialText = ""
	}

	p.cfg.Status.SetTool(ctx, ev.ToolUse.Category)

	title := toolTitle(ev.ToolUse.Name, ev.ToolUse.Input)
	msgID, err := p.cfg.Transport.SendThread(ctx, p.cfg.ThreadID, discord.Message{
		Embed: &discord.Embed{Title: title, Description: "running…"},
	})
	if err != nil {
		slog.Warn("processor: failed to post tool embed", "error", err)
		return
	}

	timer := StartLiveToolTimer(p.cfg.Transport, p.cfg.ThreadID, msgID, title, 0)
	p.activeTools[ev.ToolUse.ID] = toolHandle{messageID: msgID, timer: timer, title: title}
	p.bump(ctx)
}

func toolTitle(name string, input map[string]any) string {
	switch name {
	case "Bash":
		if cmd, ok := input["command"].(string); ok {
			return "$ " + truncateMiddle(cmd, 60)
		}
	case "Read", "Edit", "Write":
		if path, ok := input["file_path"].(string); ok {
			return name + ": " + path
		}
	}
	return name
}

func truncateMiddle(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "…"
}

func (p *EventProcessor) handleUser(ctx context.Context, ev events.StreamEvent) {
	handle, ok := p.activeTools[ev.ToolResultID]
	if !ok {
		return
	}
	handle.timer.Cancel()
	delete(p.activeTools, ev.ToolResultID)
	p.cfg.Status.SetThinking(ctx)

	if ev.ToolResultContent == "" {
		return
	}

	body := ev.ToolResultContent
	if len(body) > 3000 {
		body = body[:3000] + truncatedSuffix
	}
	msg := discord.Message{
		Embed: &discord.Embed{Title: handle.title, Description: "```\n" + body + "\n```"},
	}
	if err := p.cfg.Transport.EditMessage(ctx, p.cfg.ThreadID, handle.messageID, msg); err != nil {
		slog.Warn("processor: failed to post tool result", "error", err)
	}
}

// Finalize flushes any in-flight streamer and cancels outstanding tool
// timers. Callers should invoke this once the run's stream ends, whether
// naturally or via interrupt.
func (p *EventProcessor) Finalize(ctx context.Context) {
	if p.streamer != nil {
		p.streamer.Finalize(ctx)
	}
	for id, h := range p.activeTools {
		h.timer.Cancel()
		delete(p.activeTools, id)
	}
}

func (p *EventProcessor) handleTerminal(ctx context.Context, ev events.StreamEvent) {
	p.Finalize(ctx)
	p.terminalHandled = true

	if ev.SessionID != "" {
		p.sessionID = ev.SessionID
	}

	if ev.Error != "" {
		p.cfg.Status.SetError(ctx)
		p.postError(ctx, ev.Error)
		return
	}

	if ev.Text != "" && !p.assistantTextSent {
		for _, chunk := range ChunkText(ev.Text) {
			_, _ = p.cfg.Transport.SendThread(ctx, p.cfg.ThreadID, discord.Message{Content: chunk})
		}
	}

	p.cfg.Status.SetDone(ctx)
	p.postDone(ctx, ev)
}

func (p *EventProcessor) postError(ctx context.Context, errText string) {
	if m := timeoutPattern.FindStringSubmatch(errText); m != nil {
		_, _ = p.cfg.Transport.SendThread(ctx, p.cfg.ThreadID, discord.Message{
			Embed: &discord.Embed{Title: "⏱️ Timed out", Description: "After " + m[1] + " seconds.", Color: 0xED4245},
		})
		return
	}
	_, _ = p.cfg.Transport.SendThread(ctx, p.cfg.ThreadID, discord.Message{
		Embed: &discord.Embed{Title: "Error", Description: errText, Color: 0xED4245},
	})
}

func (p *EventProcessor) postDone(ctx context.Context, ev events.StreamEvent) {
	desc := fmt.Sprintf("⏱️ %.1fs | 💰 $%.4f", float64(ev.DurationMS)/1000, ev.CostUSD)

	if ev.Usage.InputTokens > 0 || ev.Usage.OutputTokens > 0 {
		desc += fmt.Sprintf(" · Tokens: %d in / %d out", ev.Usage.InputTokens, ev.Usage.OutputTokens)
	}

	if ev.Usage.CacheReadTokens+ev.Usage.CacheCreationTokens > 0 {
		total := ev.Usage.InputTokens + ev.Usage.CacheReadTokens + ev.Usage.CacheCreationTokens
		if total > 0 {
			hitRate := float64(ev.Usage.CacheReadTokens) / float64(total) * 100
			desc += fmt.Sprintf(" · Cache hit: %s%%", strconv.Itoa(int(hitRate)))
		}
	}

	if p.cfg.ContextSize > 0 {
		usage := ComputeContextUsage(p.cfg.ContextSize, ev.Usage.InputTokens, ev.Usage.CacheReadTokens, ev.Usage.CacheCreationTokens)
		desc += "\n" + usage.Banner()
	}

	_, _ = p.cfg.Transport.SendThread(ctx, p.cfg.ThreadID, discord.Message{
		Embed: &discord.Embed{Title: "✅ Done", Description: desc, Color: 0x57F287},
	})
}

// ToolTimerInterval exposes the default tick interval for callers that
// want to report or test timing behavior.
func ToolTimerInterval() time.Duration { return defaultTickInterval }
