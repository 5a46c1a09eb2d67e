// Package supervisor implements the per-thread run lifecycle: admission
// control, interrupt-on-new-message, the stop button, and resume-after-
// restart.
package supervisor

import (
	"strings"
	"sync"

	"github.com/helmcode/wingman/internal/runner"
)

// RunHandle is the bookkeeping kept for one in-flight run.
type RunHandle struct {
	Runner *runner.Runner
	Done   chan struct{}
}

// Registry tracks the single Runner and task handle active per thread, and
// a process-wide description of each session for the concurrency notice.
type Registry struct {
	mu            sync.Mutex
	activeRunners map[string]*RunHandle
	sessions      map[string]SessionInfo
}

// SessionInfo is what other concurrently running sessions see about each
// other via the concurrency notice.
type SessionInfo struct {
	ThreadID    string
	Description string
	WorkingDir  string
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		activeRunners: make(map[string]*RunHandle),
		sessions:      make(map[string]SessionInfo),
	}
}

// Register records threadID as actively running with the given Runner.
func (r *Registry) Register(threadID string, h *RunHandle) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.activeRunners[threadID] = h
}

// Get returns the active run handle for threadID, if any.
func (r *Registry) Get(threadID string) (*RunHandle, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	h, ok := r.activeRunners[threadID]
	return h, ok
}

// Unregister removes threadID's active run handle.
func (r *Registry) Unregister(threadID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.activeRunners, threadID)
}

// RegisterSession records a human-readable description of a running
// session for the cross-thread concurrency notice.
func (r *Registry) RegisterSession(threadID, description, workingDir string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[threadID] = SessionInfo{ThreadID: threadID, Description: description, WorkingDir: workingDir}
}

// UnregisterSession removes threadID's session description.
func (r *Registry) UnregisterSession(threadID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, threadID)
}

// OtherSessions returns every registered session except excludeThreadID,
// for building the "Currently active sessions" listing.
func (r *Registry) OtherSessions(excludeThreadID string) []SessionInfo {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]SessionInfo, 0, len(r.sessions))
	for id, info := range r.sessions {
		if id == excludeThreadID {
			continue
		}
		out = append(out, info)
	}
	return out
}

// AllSessions returns every locally and remotely registered session.
func (r *Registry) AllSessions() []SessionInfo {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]SessionInfo, 0, len(r.sessions))
	for _, info := range r.sessions {
		out = append(out, info)
	}
	return out
}

// LocalSessions returns only the sessions registered on this replica,
// excluding anything merged in via MergeRemote. A coordination Mirror
// publishes this set, not AllSessions, so remote sessions aren't re-echoed
// back onto the bus by every replica that received them.
func (r *Registry) LocalSessions() []SessionInfo {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]SessionInfo, 0, len(r.sessions))
	for id, info := range r.sessions {
		if strings.HasPrefix(id, "remote:") {
			continue
		}
		out = append(out, info)
	}
	return out
}

func remoteSessionPrefix(replicaID string) string {
	return "remote:" + replicaID + ":"
}

// MergeRemote replaces the set of sessions known to be active on the given
// remote replica, namespacing their keys so they can never collide with a
// local thread id. Called by a coordination Mirror when cross-replica
// sharing is enabled; unused otherwise.
func (r *Registry) MergeRemote(replicaID string, remote []SessionInfo) {
	r.mu.Lock()
	defer r.mu.Unlock()

	prefix := remoteSessionPrefix(replicaID)
	for id := range r.sessions {
		if strings.HasPrefix(id, prefix) {
			delete(r.sessions, id)
		}
	}
	for _, info := range remote {
		r.sessions[prefix+info.ThreadID] = info
	}
}
