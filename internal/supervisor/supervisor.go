package supervisor

import (
	"context"
	"log/slog"

	"github.com/helmcode/wingman/internal/answerbus"
	"github.com/helmcode/wingman/internal/discord"
	"github.com/helmcode/wingman/internal/processor"
	"github.com/helmcode/wingman/internal/runner"
	"github.com/helmcode/wingman/internal/store"
)

const defaultMaxConcurrentSessions = 3

// Supervisor is the per-process coordinator of runs across every watched
// thread: bounded admission, interrupt-on-new-message, the stop button,
// and resume-after-restart.
type Supervisor struct {
	registry  *Registry
	sem       chan struct{}
	transport discord.Transport
	sessions  *store.SessionRepo
	resumes   *store.PendingResumeRepo
	collector *answerbus.Collector

	baseRunner  *runner.Runner
	contextSize int
}

// Options configures a Supervisor.
type Options struct {
	Transport             discord.Transport
	Sessions              *store.SessionRepo
	Resumes               *store.PendingResumeRepo
	Collector             *answerbus.Collector
	BaseRunner            *runner.Runner
	MaxConcurrentSessions int
	ContextSize           int

	// Registry, when set, is shared with the Scheduler so scheduled-task
	// runs and interactive turns see each other in the concurrency
	// notice. A nil Registry gets a private one, fine for tests.
	Registry *Registry
}

// New creates a Supervisor. A MaxConcurrentSessions of 0 defaults to 3.
func New(opts Options) *Supervisor {
	max := opts.MaxConcurrentSessions
	if max <= 0 {
		max = defaultMaxConcurrentSessions
	}
	registry := opts.Registry
	if registry == nil {
		registry = NewRegistry()
	}
	return &Supervisor{
		registry:    registry,
		sem:         make(chan struct{}, max),
		transport:   opts.Transport,
		sessions:    opts.Sessions,
		resumes:     opts.Resumes,
		collector:   opts.Collector,
		baseRunner:  opts.BaseRunner,
		contextSize: opts.ContextSize,
	}
}

// Registry returns the Supervisor's Registry, for callers (the Scheduler)
// that need to share session visibility with it.
func (s *Supervisor) Registry() *Registry {
	return s.registry
}

// HandleMessage is the entry point for one incoming user message on
// threadID. If a run is already active on this thread, it is interrupted
// and awaited before the new turn is dispatched. Otherwise a fresh
// turn is launched directly, blocking on admission if the semaphore is
// full.
func (s *Supervisor) HandleMessage(ctx context.Context, threadID, prompt, appendSystemPrompt string) {
	if handle, ok := s.registry.Get(threadID); ok {
		s.notifyInterrupted(ctx, threadID)
		handle.Runner.Interrupt()
		<-handle.Done
	}

	if len(s.sem) == cap(s.sem) {
		s.notifyWaiting(ctx, threadID)
	}

	go s.runTurn(ctx, threadID, prompt, appendSystemPrompt)
}

func (s *Supervisor) notifyInterrupted(ctx context.Context, threadID string) {
	_, err := s.transport.SendThread(ctx, threadID, discord.Message{Content: "⚡ interrupted — picking up your new message"})
	if err != nil {
		slog.Warn("supervisor: failed to post interrupt notice", "error", err)
	}
}

func (s *Supervisor) notifyWaiting(ctx context.Context, threadID string) {
	_, err := s.transport.SendThread(ctx, threadID, discord.Message{Content: "waiting for a free session slot…"})
	if err != nil {
		slog.Warn("supervisor: failed to post waiting notice", "error", err)
	}
}

// runTurn implements the per-turn lifecycle: acquire slot, register,
// stream through the processor, drain into collect_ask_answers on a
// pending ask, and release.
func (s *Supervisor) runTurn(ctx context.Context, threadID, prompt, appendSystemPrompt string) {
	s.sem <- struct{}{}
	defer func() { <-s.sem }()

	done := make(chan struct{})
	existing, err := s.sessions.Get(threadID)
	if err != nil {
		slog.Error("supervisor: failed to load session", "thread_id", threadID, "error", err)
	}

	sessionID := ""
	if existing != nil {
		sessionID = existing.SessionID
	}

	r := s.baseRunner.Clone(threadID, appendSystemPrompt, "")
	handle := &RunHandle{Runner: r, Done: done}
	s.registry.Register(threadID, handle)
	s.registry.RegisterSession(threadID, summarize(prompt), "")

	defer func() {
		s.registry.Unregister(threadID)
		s.registry.UnregisterSession(threadID)
		close(done)
	}()

	s.executeTurn(ctx, threadID, r, prompt, sessionID, appendSystemPrompt, existing != nil)
}

func (s *Supervisor) executeTurn(ctx context.Context, threadID string, r *runner.Runner, prompt, sessionID, appendSystemPrompt string, hadResume bool) {
	stream, err := r.Run(ctx, prompt, sessionID)
	if err != nil {
		slog.Error("supervisor: failed to start run", "thread_id", threadID, "error", err)
		return
	}

	stop := NewStopControl(s.transport, threadID, r)
	stop.Start(ctx)

	onHardStall := func(hctx context.Context) {
		if _, err := s.transport.SendThread(hctx, threadID, discord.Message{Content: "⚠️ still working — no activity for 30s"}); err != nil {
			slog.Warn("supervisor: failed to post hard-stall notice", "error", err)
		}
	}
	status := processor.NewStatusManager(s.transport, threadID, stop.MessageID, onHardStall)
	status.SetThinking(ctx)

	proc := processor.New(processor.Config{
		Transport:   s.transport,
		ThreadID:    threadID,
		Runner:      r,
		ContextSize: s.contextSize,
		Status:      status,
		StopControl: stop,
	}, hadResume)

	for ev := range stream {
		if proc.ShouldDrain() && !ev.IsComplete {
			continue
		}
		proc.Process(ctx, ev)
	}
	proc.Finalize(ctx)
	if !proc.Terminal() {
		// Stream closed without a terminal event (e.g. interrupted
		// mid-run): the processor never drove status/stop to an end
		// state, so do it here as a safety net.
		status.Cleanup(ctx)
		stop.Disable(ctx)
	}

	finalSessionID := proc.SessionID()
	if finalSessionID != "" {
		if _, err := s.sessions.Save(threadID, finalSessionID, store.SaveOpts{}); err != nil {
			slog.Warn("supervisor: failed to persist session", "error", err)
		}
	}

	if len(proc.PendingAskQuestions) > 0 && finalSessionID != "" && s.collector != nil {
		answerPrompt := s.collector.CollectAskAnswers(ctx, threadID, finalSessionID, proc.PendingAskQuestions)
		if answerPrompt != "" {
			nextRunner := r.Clone(threadID, appendSystemPrompt, "")
			s.executeTurn(ctx, threadID, nextRunner, answerPrompt, finalSessionID, appendSystemPrompt, true)
		}
	}
}

func summarize(prompt string) string {
	const max = 80
	if len(prompt) <= max {
		return prompt
	}
	return prompt[:max] + "…"
}

// ResumeAfterRestart reads all TTL-live PendingResume rows and relaunches
// each as a fresh turn, deleting the row before spawning so a crash
// mid-spawn cannot double-resume.
func (s *Supervisor) ResumeAfterRestart(ctx context.Context) {
	pending, err := s.resumes.GetPending()
	if err != nil {
		slog.Error("supervisor: failed to load pending resumes", "error", err)
		return
	}

	for _, p := range pending {
		if err := s.resumes.Delete(p.ID); err != nil {
			slog.Warn("supervisor: failed to delete pending resume row", "error", err)
			continue
		}

		prompt := p.ResumePrompt
		if prompt == "" {
			prompt = "please continue the previous work"
		}

		if _, err := s.transport.SendThread(ctx, p.ThreadID, discord.Message{Content: "🔄 bot resumed"}); err != nil {
			slog.Warn("supervisor: failed to post resume notice", "error", err)
		}

		go s.runTurn(ctx, p.ThreadID, prompt, "")
		slog.Info("supervisor: resumed session after restart", "thread_id", p.ThreadID, "session_id", p.SessionID)
	}
}
