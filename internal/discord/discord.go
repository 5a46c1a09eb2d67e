// Package discord provides the transport surface the supervisor needs:
// sending/editing messages in channels and threads, reacting, and
// presenting interactive components (buttons, select menus, modals).
// Transport is expressed as an interface so the processor and supervisor
// packages can be tested without a live Discord connection.
package discord

import "context"

// Button is one interactive button attached to a message.
type Button struct {
	CustomID string
	Label    string
	Style    ButtonStyle
	Disabled bool
}

// ButtonStyle mirrors Discord's button color semantics.
type ButtonStyle int

const (
	StylePrimary ButtonStyle = iota
	StyleSecondary
	StyleDanger
)

// SelectOption is one entry in a select-menu component.
type SelectOption struct {
	Label string
	Value string
}

// Select is a dropdown component offering a fixed set of options.
type Select struct {
	CustomID    string
	Placeholder string
	Options     []SelectOption
}

// Components bundles the interactive UI attached to one message. At most
// one of Buttons or Select is rendered — callers choose which to populate.
type Components struct {
	Buttons []Button
	Select  *Select
}

// Embed is a minimal Discord embed: title, description, and color, enough
// for status banners and context-window usage notices.
type Embed struct {
	Title       string
	Description string
	Color       int
}

// Message describes an outbound channel/thread message.
type Message struct {
	Content    string
	Embed      *Embed
	Components *Components
}

// Interaction is a component-callback event: a button click or select
// choice, carrying which values were chosen (select menus may be
// multi-select) and who triggered it.
type Interaction struct {
	CustomID  string
	Values    []string
	UserID    string
	ChannelID string
	MessageID string
}

// InteractionHandler is invoked when a user activates a registered
// component. Implementations should respond quickly; long-running work
// should be handed off to a goroutine.
type InteractionHandler func(ctx context.Context, in Interaction)

// ModalField is one text input within a modal form.
type ModalField struct {
	CustomID    string
	Label       string
	Placeholder string
	Multiline   bool
}

// ModalSubmission carries the values a user typed into a modal's fields,
// keyed by ModalField.CustomID.
type ModalSubmission struct {
	CustomID string
	Values   map[string]string
	UserID   string
}

// ModalHandler is invoked when a user submits a modal form.
type ModalHandler func(ctx context.Context, sub ModalSubmission)

// Transport is the set of Discord operations the supervisor and
// processor packages need. A concrete implementation wraps a real
// gateway session; tests can substitute a fake.
type Transport interface {
	// SendChannel posts a message to a channel and returns its id.
	SendChannel(ctx context.Context, channelID string, msg Message) (messageID string, err error)

	// CreateThread starts a new thread under channelID, named name, and
	// posts msg as its first message. Returns the new thread id.
	CreateThread(ctx context.Context, channelID, name string, msg Message) (threadID string, err error)

	// SendThread posts a message into an existing thread.
	SendThread(ctx context.Context, threadID string, msg Message) (messageID string, err error)

	// EditMessage replaces the content/embed/components of an existing
	// message in the given channel or thread.
	EditMessage(ctx context.Context, channelOrThreadID, messageID string, msg Message) error

	// DeleteMessage removes a message.
	DeleteMessage(ctx context.Context, channelOrThreadID, messageID string) error

	// AddReaction attaches an emoji reaction to a message.
	AddReaction(ctx context.Context, channelOrThreadID, messageID, emoji string) error

	// RemoveReaction removes the bot's own reaction from a message.
	RemoveReaction(ctx context.Context, channelOrThreadID, messageID, emoji string) error

	// ArchiveThread marks a thread as archived/locked once a session ends.
	ArchiveThread(ctx context.Context, threadID string) error

	// RegisterInteractionHandler attaches a callback for clicks on a
	// specific component customID. Handlers persist across restarts only
	// if the caller re-registers them at startup (crash recovery).
	RegisterInteractionHandler(customID string, handler InteractionHandler)

	// RegisterModalHandler attaches a callback for submissions of a
	// specific modal customID.
	RegisterModalHandler(customID string, handler ModalHandler)

	// OpenModal prompts the given interaction's user with a modal form.
	// Used for the "Other" free-text answer path in collect_ask_answers.
	OpenModal(ctx context.Context, triggerInteractionID, triggerInteractionToken, customID, title string, fields []ModalField) error
}
