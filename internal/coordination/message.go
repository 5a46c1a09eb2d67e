// Package coordination mirrors the SessionRegistry and lounge feed across
// bot replicas over NATS, so the concurrency notice and lounge digest stay
// cluster-wide rather than process-local. It shares exactly two things
// between replicas: who else is running, and what was posted to the
// lounge. Disabled by default — with NATS_URL unset, Connect returns a nil
// *Bridge whose methods are all no-ops.
package coordination

import (
	"encoding/json"
	"time"
)

// MessageType identifies the kind of coordination message on the wire.
type MessageType string

const (
	// TypeSessionSnapshot carries one replica's full set of active sessions.
	TypeSessionSnapshot MessageType = "session_snapshot"
	// TypeLoungeMessage carries one lounge post to mirror to other replicas.
	TypeLoungeMessage MessageType = "lounge_message"
)

// Envelope is the JSON wire format for every coordination message.
type Envelope struct {
	From      string          `json:"from"`
	Type      MessageType     `json:"type"`
	Timestamp time.Time       `json:"timestamp"`
	Payload   json.RawMessage `json:"payload"`
}

// SessionSnapshot is one active session as shared across replicas, mirroring
// supervisor.SessionInfo without importing the supervisor package.
type SessionSnapshot struct {
	ThreadID    string `json:"thread_id"`
	Description string `json:"description"`
	WorkingDir  string `json:"working_dir"`
}

// sessionSnapshotPayload is the Envelope.Payload shape for TypeSessionSnapshot.
type sessionSnapshotPayload struct {
	Sessions []SessionSnapshot `json:"sessions"`
}

// loungeMessagePayload is the Envelope.Payload shape for TypeLoungeMessage.
type loungeMessagePayload struct {
	Label   string `json:"label"`
	Message string `json:"message"`
}
