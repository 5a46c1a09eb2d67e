package coordination

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

const (
	subjectSessions = "wingman.coordination.sessions"
	subjectLounge   = "wingman.coordination.lounge"

	loungeStreamName = "WINGMAN_LOUNGE"
)

// Bridge is a NATS-backed transport for coordination Envelopes between bot
// replicas. A nil *Bridge is valid and every publish/subscribe call on it
// is a no-op, so callers don't need to branch on whether NATS is enabled.
type Bridge struct {
	conn      *nats.Conn
	js        jetstream.JetStream
	replicaID string
}

// Connect establishes a NATS connection for cross-replica coordination. An
// empty url disables coordination: Connect returns (nil, nil), and every
// method on a nil *Bridge is a safe no-op.
func Connect(url, replicaID string) (*Bridge, error) {
	if url == "" {
		return nil, nil
	}

	conn, err := nats.Connect(url,
		nats.Name("wingman-"+replicaID),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			slog.Warn("coordination: nats disconnected", "error", err)
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			slog.Info("coordination: nats reconnected", "url", nc.ConnectedUrl())
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connecting to nats %s: %w", url, err)
	}

	js, err := jetstream.New(conn)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("creating jetstream context: %w", err)
	}

	b := &Bridge{conn: conn, js: js, replicaID: replicaID}
	if err := b.ensureLoungeStream(context.Background()); err != nil {
		slog.Warn("coordination: failed to ensure lounge stream (non-fatal)", "error", err)
	}
	return b, nil
}

func (b *Bridge) ensureLoungeStream(ctx context.Context) error {
	_, err := b.js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:      loungeStreamName,
		Subjects:  []string{subjectLounge},
		Retention: jetstream.LimitsPolicy,
		MaxAge:    24 * time.Hour,
		Storage:   jetstream.MemoryStorage,
		Replicas:  1,
	})
	return err
}

// Close closes the underlying NATS connection. Safe to call on a nil Bridge.
func (b *Bridge) Close() {
	if b == nil {
		return
	}
	b.conn.Close()
}

func (b *Bridge) publish(subject string, typ MessageType, payload any) error {
	if b == nil {
		return nil
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshaling %s payload: %w", typ, err)
	}
	env := Envelope{From: b.replicaID, Type: typ, Timestamp: time.Now(), Payload: raw}
	data, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("marshaling envelope: %w", err)
	}
	return b.conn.Publish(subject, data)
}

// PublishSessions broadcasts this replica's current session snapshot.
func (b *Bridge) PublishSessions(sessions []SessionSnapshot) error {
	return b.publish(subjectSessions, TypeSessionSnapshot, sessionSnapshotPayload{Sessions: sessions})
}

// PublishLoungeMessage broadcasts a lounge post made on this replica.
func (b *Bridge) PublishLoungeMessage(label, message string) error {
	return b.publish(subjectLounge, TypeLoungeMessage, loungeMessagePayload{Label: label, Message: message})
}

// SubscribeSessions registers handler for session snapshots published by
// other replicas (envelopes from this replica's own id are skipped). Safe
// to call on a nil Bridge, where it does nothing.
func (b *Bridge) SubscribeSessions(handler func(replicaID string, sessions []SessionSnapshot)) error {
	if b == nil {
		return nil
	}
	_, err := b.conn.Subscribe(subjectSessions, func(msg *nats.Msg) {
		var env Envelope
		if err := json.Unmarshal(msg.Data, &env); err != nil {
			slog.Warn("coordination: failed to unmarshal session envelope", "error", err)
			return
		}
		if env.From == b.replicaID {
			return
		}
		var payload sessionSnapshotPayload
		if err := json.Unmarshal(env.Payload, &payload); err != nil {
			slog.Warn("coordination: failed to unmarshal session payload", "error", err)
			return
		}
		handler(env.From, payload.Sessions)
	})
	return err
}

// SubscribeLoungeMessages registers handler for lounge posts published by
// other replicas. Safe to call on a nil Bridge, where it does nothing.
func (b *Bridge) SubscribeLoungeMessages(handler func(label, message string)) error {
	if b == nil {
		return nil
	}
	_, err := b.conn.Subscribe(subjectLounge, func(msg *nats.Msg) {
		var env Envelope
		if err := json.Unmarshal(msg.Data, &env); err != nil {
			slog.Warn("coordination: failed to unmarshal lounge envelope", "error", err)
			return
		}
		if env.From == b.replicaID {
			return
		}
		var payload loungeMessagePayload
		if err := json.Unmarshal(env.Payload, &payload); err != nil {
			slog.Warn("coordination: failed to unmarshal lounge payload", "error", err)
			return
		}
		handler(payload.Label, payload.Message)
	})
	return err
}
