package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/helmcode/wingman/internal/answerbus"
	"github.com/helmcode/wingman/internal/api"
	"github.com/helmcode/wingman/internal/config"
	"github.com/helmcode/wingman/internal/coordination"
	"github.com/helmcode/wingman/internal/discord"
	"github.com/helmcode/wingman/internal/runner"
	"github.com/helmcode/wingman/internal/sandbox"
	"github.com/helmcode/wingman/internal/scheduler"
	"github.com/helmcode/wingman/internal/store"
	"github.com/helmcode/wingman/internal/supervisor"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	slog.Info("starting wingman")

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	db, err := store.Open(cfg.DatabasePath)
	if err != nil {
		slog.Error("failed to open database", "error", err)
		os.Exit(1)
	}

	sessions := store.NewSessionRepo(db)
	asks := store.NewPendingAskRepo(db)
	resumes := store.NewPendingResumeRepo(db, 0)
	settings := store.NewSettingsRepo(db)
	tasks := store.NewTaskRepo(db)
	notifications := store.NewScheduledNotificationRepo(db)
	lounge := store.NewLoungeRepo(db, store.DefaultLoungeRetention)

	if err := seedTasks(tasks, cfg.TasksSeedPath); err != nil {
		slog.Error("failed to seed tasks", "error", err)
		os.Exit(1)
	}

	dg, err := discord.NewSession(cfg.DiscordBotToken)
	if err != nil {
		slog.Error("failed to create discord session", "error", err)
		os.Exit(1)
	}

	launcher, err := buildSandboxLauncher(cfg.RunnerSandbox)
	if err != nil {
		slog.Error("failed to initialize sandbox launcher", "error", err)
		os.Exit(1)
	}

	baseRunner := runner.New(runner.Options{
		Command:                cfg.ClaudeCommand,
		Model:                  cfg.ClaudeModel,
		PermissionMode:         cfg.ClaudePermissionMode,
		WorkingDir:             cfg.ClaudeWorkingDir,
		TimeoutSeconds:         cfg.SessionTimeoutSeconds,
		IncludePartialMessages: true,
		Sandbox:                launcher,
	})

	bus := answerbus.New()
	collector := answerbus.NewCollector(bus, asks, dg)

	registry := supervisor.NewRegistry()
	sv := supervisor.New(supervisor.Options{
		Transport:             dg,
		Sessions:              sessions,
		Resumes:               resumes,
		Collector:             collector,
		BaseRunner:            baseRunner,
		MaxConcurrentSessions: cfg.MaxConcurrentSessions,
		Registry:              registry,
	})

	sched := scheduler.New(scheduler.Options{
		Tasks:         tasks,
		Notifications: notifications,
		Lounge:        lounge,
		Registry:      registry,
		Transport:     dg,
		BaseRunner:    baseRunner,
	})

	replicaID, _ := os.Hostname()
	if replicaID == "" {
		replicaID = "wingman"
	}
	bridge, err := coordination.Connect(cfg.NATSURL, replicaID)
	if err != nil {
		slog.Error("failed to connect coordination bridge", "error", err)
		os.Exit(1)
	}
	defer bridge.Close()
	mirror := coordination.NewMirror(bridge, registry, lounge)

	apiServer := api.NewServer(api.Options{
		Transport:        dg,
		Tasks:            tasks,
		Notifications:    notifications,
		Lounge:           lounge,
		Settings:         settings,
		LoungeChannelID:  cfg.CoordinationChannelID,
		BearerToken:      cfg.APIBearerToken,
		SchedulerEnabled: true,
		LoungeMirror:     mirror,
	})

	dg.OnMessage(func(ctx context.Context, msg discord.IncomingMessage) {
		routeIncomingMessage(ctx, sv, dg, cfg, msg)
	})

	if err := dg.Open(); err != nil {
		slog.Error("failed to open discord gateway", "error", err)
		os.Exit(1)
	}
	defer dg.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sv.ResumeAfterRestart(ctx)

	mirror.Start(ctx)
	go sched.Run(ctx)

	go func() {
		if err := apiServer.Listen(cfg.APIBindAddr); err != nil {
			slog.Error("api server error", "error", err)
		}
	}()

	slog.Info("wingman ready", "channel_id", cfg.DiscordChannelID)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down wingman")
	cancel()
}

// routeIncomingMessage decides whether a plain Discord message belongs to
// the watched channel (or one of its threads) and, if so, dispatches it to
// the supervisor: a message directly in the home channel opens a new
// thread first, while a message already inside a thread resumes that
// thread's conversation in place.
func routeIncomingMessage(ctx context.Context, sv *supervisor.Supervisor, dg *discord.Session, cfg *config.Config, msg discord.IncomingMessage) {
	if msg.Content == "" {
		return
	}

	if msg.IsInThread {
		if msg.ParentID != cfg.DiscordChannelID {
			return
		}
		go sv.HandleMessage(ctx, msg.ThreadID, msg.Content, "")
		return
	}

	if msg.ChannelID != cfg.DiscordChannelID {
		return
	}

	threadID, err := dg.CreateThread(ctx, msg.ChannelID, threadTitle(msg.Content), discord.Message{
		Content: "🧵 starting session…",
	})
	if err != nil {
		slog.Error("failed to create thread for new session", "error", err)
		return
	}

	go sv.HandleMessage(ctx, threadID, msg.Content, "")
}

func threadTitle(prompt string) string {
	const max = 80
	if len(prompt) <= max {
		return prompt
	}
	return prompt[:max] + "…"
}

// seedTasks pre-populates the Task repository from an optional tasks.yaml
// file. Entries whose name already exists are left alone so restarts don't
// reset an operator's edits made through the API.
func seedTasks(tasks *store.TaskRepo, path string) error {
	seed, err := config.LoadTaskSeed(path)
	if err != nil {
		return err
	}

	for _, t := range seed {
		existing, err := tasks.ByName(t.Name)
		if err != nil {
			return err
		}
		if existing != nil {
			continue
		}
		if _, err := tasks.Create(store.CreateParams{
			Name:            t.Name,
			Prompt:          t.Prompt,
			IntervalSeconds: t.IntervalSeconds,
			ChannelID:       t.ChannelID,
			WorkingDir:      t.WorkingDir,
			RunImmediately:  t.RunImmediately,
		}); err != nil {
			return fmt.Errorf("seeding task %q: %w", t.Name, err)
		}
		slog.Info("seeded task from tasks.yaml", "name", t.Name)
	}
	return nil
}

func buildSandboxLauncher(mode string) (sandbox.Launcher, error) {
	switch mode {
	case "":
		return nil, nil
	case "docker":
		return sandbox.NewDockerLauncher()
	case "kubernetes":
		return sandbox.NewKubernetesLauncher()
	default:
		// config.Load already rejects unrecognized values; unreachable
		// in practice.
		return nil, nil
	}
}
