// Package scheduler implements the master loop that fires due Tasks and
// routes their execution through the same Runner/EventProcessor pipeline
// as interactive Discord turns, plus the coordination-prompt composition
// shared with the supervisor.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/helmcode/wingman/internal/discord"
	"github.com/helmcode/wingman/internal/processor"
	"github.com/helmcode/wingman/internal/runner"
	"github.com/helmcode/wingman/internal/store"
	"github.com/helmcode/wingman/internal/supervisor"
)

const wakeInterval = 30 * time.Second

// Scheduler owns the master loop.
type Scheduler struct {
	tasks         *store.TaskRepo
	notifications *store.ScheduledNotificationRepo
	lounge        *store.LoungeRepo
	registry      *supervisor.Registry
	transport     discord.Transport
	baseRunner    *runner.Runner

	mu       sync.Mutex
	inFlight map[string]bool
}

// Options configures a Scheduler.
type Options struct {
	Tasks         *store.TaskRepo
	Notifications *store.ScheduledNotificationRepo // optional; nil disables scheduled-notification delivery
	Lounge        *store.LoungeRepo                // optional; nil omits the lounge block
	Registry      *supervisor.Registry
	Transport     discord.Transport
	BaseRunner    *runner.Runner
}

// New creates a Scheduler.
func New(opts Options) *Scheduler {
	return &Scheduler{
		tasks:         opts.Tasks,
		notifications: opts.Notifications,
		lounge:        opts.Lounge,
		registry:      opts.Registry,
		transport:     opts.Transport,
		baseRunner:    opts.BaseRunner,
		inFlight:      make(map[string]bool),
	}
}

// Run blocks, waking every 30s to fetch and dispatch due tasks, until ctx
// is cancelled.
func (s *Scheduler) Run(ctx context.Context) {
	ticker := time.NewTicker(wakeInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.tick(ctx)
		}
	}
}

func (s *Scheduler) tick(ctx context.Context) {
	s.dispatchDueNotifications(ctx)

	due, err := s.tasks.GetDue(time.Now())
	if err != nil {
		slog.Error("scheduler: failed to fetch due tasks", "error", err)
		return
	}

	for _, t := range due {
		s.mu.Lock()
		if s.inFlight[t.ID] {
			s.mu.Unlock()
			continue
		}
		s.inFlight[t.ID] = true
		s.mu.Unlock()

		if err := s.tasks.UpdateNextRun(t.ID, t.IntervalSeconds); err != nil {
			slog.Error("scheduler: failed to advance next_run_at", "task_id", t.ID, "error", err)
			s.clearInFlight(t.ID)
			continue
		}

		task := t
		go func() {
			defer s.clearInFlight(task.ID)
			s.execute(ctx, task)
		}()
	}
}

// dispatchDueNotifications sends every ScheduledNotification whose
// scheduled_at has passed and marks it delivered so it is never resent.
func (s *Scheduler) dispatchDueNotifications(ctx context.Context) {
	if s.notifications == nil {
		return
	}

	due, err := s.notifications.GetDue(time.Now())
	if err != nil {
		slog.Error("scheduler: failed to fetch due notifications", "error", err)
		return
	}

	for _, n := range due {
		msg := discord.Message{Content: n.Message}
		if n.Title != "" {
			msg.Embed = &discord.Embed{Title: n.Title, Description: n.Message, Color: n.Color}
		}
		if _, err := s.transport.SendChannel(ctx, n.ChannelID, msg); err != nil {
			slog.Error("scheduler: failed to deliver scheduled notification", "id", n.ID, "error", err)
			continue
		}
		if err := s.notifications.MarkDelivered(n.ID); err != nil {
			slog.Error("scheduler: failed to mark notification delivered", "id", n.ID, "error", err)
		}
	}
}

func (s *Scheduler) clearInFlight(taskID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.inFlight, taskID)
}

func (s *Scheduler) execute(ctx context.Context, task store.Task) {
	announce := discord.Message{Content: fmt.Sprintf("⏰ running scheduled task **%s**", task.Name)}
	threadID, err := s.transport.CreateThread(ctx, task.ChannelID, task.Name, announce)
	if err != nil {
		slog.Error("scheduler: failed to create thread for task", "task_id", task.ID, "error", err)
		return
	}

	r := s.baseRunner.Clone(threadID, s.buildAppendSystemPrompt(threadID), task.WorkingDir)

	s.registry.RegisterSession(threadID, "scheduled: "+task.Name, task.WorkingDir)
	defer s.registry.UnregisterSession(threadID)

	stream, err := r.Run(ctx, task.Prompt, "")
	if err != nil {
		slog.Error("scheduler: failed to start scheduled run", "task_id", task.ID, "error", err)
		return
	}

	proc := processor.New(processor.Config{Transport: s.transport, ThreadID: threadID, Runner: r}, false)
	for ev := range stream {
		if proc.ShouldDrain() && !ev.IsComplete {
			continue
		}
		proc.Process(ctx, ev)
	}
	proc.Finalize(ctx)
	// Scheduled runs are fire-and-forget: no session persistence.
}

// buildAppendSystemPrompt combines the lounge block and concurrency
// notice into the ephemeral system-prompt addition passed via
// --append-system-prompt (never the user prompt, to avoid context bloat).
func (s *Scheduler) buildAppendSystemPrompt(threadID string) string {
	var blocks []string

	if lounge := s.loungeBlock(); lounge != "" {
		blocks = append(blocks, lounge)
	}
	blocks = append(blocks, s.concurrencyNotice(threadID))

	return strings.Join(blocks, "\n\n")
}

func (s *Scheduler) loungeBlock() string {
	if s.lounge == nil {
		return ""
	}
	recent, err := s.lounge.GetRecent(20)
	if err != nil {
		slog.Warn("scheduler: failed to fetch lounge messages", "error", err)
		return ""
	}
	if len(recent) == 0 {
		return ""
	}

	var b strings.Builder
	b.WriteString("You can optionally post a short note to the shared lounge for other sessions to see.\n")
	b.WriteString("Recent lounge activity:\n")
	for _, m := range recent {
		b.WriteString(fmt.Sprintf("[%s] %s: %s\n", m.PostedAt.Format("15:04"), m.Label, m.Message))
	}
	return strings.TrimRight(b.String(), "\n")
}

func (s *Scheduler) concurrencyNotice(threadID string) string {
	notice := fmt.Sprintf("You are running in thread %s. Other sessions may be active concurrently; avoid stepping on shared state without checking first.", threadID)

	others := s.registry.OtherSessions(threadID)
	if len(others) == 0 {
		return notice
	}

	var b strings.Builder
	b.WriteString(notice)
	b.WriteString("\nCurrently active sessions:\n")
	for _, o := range others {
		b.WriteString(fmt.Sprintf("- %s (%s)\n", o.Description, o.WorkingDir))
	}
	return strings.TrimRight(b.String(), "\n")
}
