package coordination

import (
	"context"
	"log/slog"
	"time"

	"github.com/helmcode/wingman/internal/store"
	"github.com/helmcode/wingman/internal/supervisor"
)

const sessionPublishInterval = 15 * time.Second

// Mirror keeps a Registry and a LoungeRepo synchronized with the same
// state on other bot replicas through a Bridge. Constructing a Mirror with
// a nil Bridge is valid and makes every method a no-op, so the bot always
// builds a Mirror and only Connect needs to branch on NATS_URL.
type Mirror struct {
	bridge   *Bridge
	registry *supervisor.Registry
	lounge   *store.LoungeRepo
}

// NewMirror creates a Mirror over bridge. bridge may be nil (coordination
// disabled).
func NewMirror(bridge *Bridge, registry *supervisor.Registry, lounge *store.LoungeRepo) *Mirror {
	return &Mirror{bridge: bridge, registry: registry, lounge: lounge}
}

// Start subscribes to remote session and lounge updates and launches the
// periodic local-session publisher. Returns immediately; everything runs
// in background goroutines until ctx is cancelled. A Mirror built over a
// nil Bridge does nothing.
func (m *Mirror) Start(ctx context.Context) {
	if m.bridge == nil {
		return
	}

	if err := m.bridge.SubscribeSessions(m.onRemoteSessions); err != nil {
		slog.Warn("coordination: failed to subscribe to session updates", "error", err)
	}
	if err := m.bridge.SubscribeLoungeMessages(m.onRemoteLoungeMessage); err != nil {
		slog.Warn("coordination: failed to subscribe to lounge updates", "error", err)
	}

	go m.publishLoop(ctx)
}

func (m *Mirror) onRemoteSessions(replicaID string, sessions []SessionSnapshot) {
	infos := make([]supervisor.SessionInfo, 0, len(sessions))
	for _, s := range sessions {
		infos = append(infos, supervisor.SessionInfo{
			ThreadID:    s.ThreadID,
			Description: s.Description,
			WorkingDir:  s.WorkingDir,
		})
	}
	m.registry.MergeRemote(replicaID, infos)
}

func (m *Mirror) onRemoteLoungeMessage(label, message string) {
	if _, err := m.lounge.Post(message, label); err != nil {
		slog.Warn("coordination: failed to store mirrored lounge message", "error", err)
	}
}

// PublishLoungeMessage forwards a locally posted lounge message to other
// replicas. Implements api.LoungeMirror.
func (m *Mirror) PublishLoungeMessage(label, message string) error {
	if m.bridge == nil {
		return nil
	}
	return m.bridge.PublishLoungeMessage(label, message)
}

func (m *Mirror) publishLoop(ctx context.Context) {
	ticker := time.NewTicker(sessionPublishInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.publishSessions()
		}
	}
}

func (m *Mirror) publishSessions() {
	local := m.registry.LocalSessions()
	snapshots := make([]SessionSnapshot, 0, len(local))
	for _, s := range local {
		snapshots = append(snapshots, SessionSnapshot{
			ThreadID:    s.ThreadID,
			Description: s.Description,
			WorkingDir:  s.WorkingDir,
		})
	}
	if err := m.bridge.PublishSessions(snapshots); err != nil {
		slog.Warn("coordination: failed to publish session snapshot", "error", err)
	}
}
