package discord

import (
	"context"
	"fmt"
	"sync"
)

// Fake is an in-memory Transport for tests: it records every call instead
// of talking to Discord, and lets tests drive registered handlers directly.
type Fake struct {
	mu sync.Mutex

	nextID int

	SentChannel  []Message
	SentThread   map[string][]Message
	Edits        map[string]Message
	Deleted      []string
	Reactions    []string
	Archived     []string

	buttonHandlers map[string]InteractionHandler
	modalHandlers  map[string]ModalHandler
}

// NewFake returns a ready-to-use Fake transport.
func NewFake() *Fake {
	return &Fake{
		SentThread:     make(map[string][]Message),
		Edits:          make(map[string]Message),
		buttonHandlers: make(map[string]InteractionHandler),
		modalHandlers:  make(map[string]ModalHandler),
	}
}

func (f *Fake) nextMessageID() string {
	f.nextID++
	return fmt.Sprintf("msg-%d", f.nextID)
}

func (f *Fake) SendChannel(_ context.Context, _ string, msg Message) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.SentChannel = append(f.SentChannel, msg)
	return f.nextMessageID(), nil
}

func (f *Fake) CreateThread(_ context.Context, _, _ string, msg Message) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	threadID := fmt.Sprintf("thread-%d", f.nextID)
	f.SentThread[threadID] = append(f.SentThread[threadID], msg)
	return threadID, nil
}

func (f *Fake) SendThread(_ context.Context, threadID string, msg Message) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.SentThread[threadID] = append(f.SentThread[threadID], msg)
	return f.nextMessageID(), nil
}

func (f *Fake) EditMessage(_ context.Context, _, messageID string, msg Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Edits[messageID] = msg
	return nil
}

func (f *Fake) DeleteMessage(_ context.Context, _, messageID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Deleted = append(f.Deleted, messageID)
	return nil
}

func (f *Fake) AddReaction(_ context.Context, _, _, emoji string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Reactions = append(f.Reactions, emoji)
	return nil
}

func (f *Fake) RemoveReaction(_ context.Context, _, _, _ string) error {
	return nil
}

func (f *Fake) ArchiveThread(_ context.Context, threadID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Archived = append(f.Archived, threadID)
	return nil
}

func (f *Fake) RegisterInteractionHandler(customID string, handler InteractionHandler) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.buttonHandlers[customID] = handler
}

func (f *Fake) RegisterModalHandler(customID string, handler ModalHandler) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.modalHandlers[customID] = handler
}

func (f *Fake) OpenModal(_ context.Context, _, _, _, _ string, _ []ModalField) error {
	return nil
}

// Fire invokes a registered button/select handler as if the user had
// clicked it, for use by tests exercising the answer-bus flow.
func (f *Fake) Fire(ctx context.Context, in Interaction) bool {
	f.mu.Lock()
	h, ok := f.buttonHandlers[in.CustomID]
	f.mu.Unlock()
	if !ok {
		return false
	}
	h(ctx, in)
	return true
}

// FireModal invokes a registered modal handler as if the user had
// submitted it.
func (f *Fake) FireModal(ctx context.Context, sub ModalSubmission) bool {
	f.mu.Lock()
	h, ok := f.modalHandlers[sub.CustomID]
	f.mu.Unlock()
	if !ok {
		return false
	}
	h(ctx, sub)
	return true
}

var _ Transport = (*Fake)(nil)
var _ Transport = (*Session)(nil)
