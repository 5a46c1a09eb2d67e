package discord

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/bwmarrin/discordgo"
)

// Session wraps a discordgo.Session and implements Transport against a
// live gateway connection.
type Session struct {
	dg *discordgo.Session

	mu             sync.Mutex
	buttonHandlers map[string]InteractionHandler
	selectHandlers map[string]InteractionHandler
	modalHandlers  map[string]ModalHandler

	messageHandler MessageHandler
}

// IncomingMessage is one plain (non-component, non-modal) message the bot
// observed, either in its home channel or in a thread under it.
type IncomingMessage struct {
	ChannelID  string
	ThreadID   string // equals ChannelID when the message was posted directly in a thread
	ParentID   string // the thread's parent channel id, set only when IsInThread
	AuthorID   string
	Content    string
	IsInThread bool
}

// MessageHandler is invoked for every plain message the bot sees that
// wasn't authored by the bot itself.
type MessageHandler func(ctx context.Context, msg IncomingMessage)

// NewSession creates a discordgo session from a bot token and registers
// the interaction-routing handler. Call Open to start the gateway
// connection.
func NewSession(token string) (*Session, error) {
	dg, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("creating discord session: %w", err)
	}
	dg.Identify.Intents = discordgo.IntentsGuilds | discordgo.IntentsGuildMessages | discordgo.IntentsMessageContent

	s := &Session{
		dg:             dg,
		buttonHandlers: make(map[string]InteractionHandler),
		selectHandlers: make(map[string]InteractionHandler),
		modalHandlers:  make(map[string]ModalHandler),
	}
	dg.AddHandler(s.onInteractionCreate)
	dg.AddHandler(s.onMessageCreate)
	return s, nil
}

// OnMessage registers the callback invoked for every plain message the bot
// observes. Only one handler is supported; a later call replaces the
// earlier one.
func (s *Session) OnMessage(handler MessageHandler) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messageHandler = handler
}

func (s *Session) onMessageCreate(_ *discordgo.Session, m *discordgo.MessageCreate) {
	if m.Author == nil || m.Author.Bot {
		return
	}

	s.mu.Lock()
	handler := s.messageHandler
	s.mu.Unlock()
	if handler == nil {
		return
	}

	threadID := ""
	parentID := ""
	isThread := false
	if ch, err := s.dg.State.Channel(m.ChannelID); err == nil && ch != nil && isThreadChannelType(ch.Type) {
		threadID = m.ChannelID
		parentID = ch.ParentID
		isThread = true
	}

	handler(context.Background(), IncomingMessage{
		ChannelID:  m.ChannelID,
		ThreadID:   threadID,
		ParentID:   parentID,
		AuthorID:   m.Author.ID,
		Content:    m.Content,
		IsInThread: isThread,
	})
}

func isThreadChannelType(t discordgo.ChannelType) bool {
	switch t {
	case discordgo.ChannelTypeGuildPublicThread, discordgo.ChannelTypeGuildPrivateThread, discordgo.ChannelTypeGuildNewsThread:
		return true
	default:
		return false
	}
}

// Open starts the gateway connection.
func (s *Session) Open() error {
	return s.dg.Open()
}

// Close tears down the gateway connection.
func (s *Session) Close() error {
	return s.dg.Close()
}

func (s *Session) onInteractionCreate(_ *discordgo.Session, i *discordgo.InteractionCreate) {
	if i.Type != discordgo.InteractionMessageComponent && i.Type != discordgo.InteractionModalSubmit {
		return
	}

	ctx := context.Background()

	switch i.Type {
	case discordgo.InteractionMessageComponent:
		data := i.MessageComponentData()
		in := Interaction{
			CustomID:  data.CustomID,
			Values:    data.Values,
			UserID:    interactionUserID(i.Interaction),
			ChannelID: i.ChannelID,
		}
		if i.Message != nil {
			in.MessageID = i.Message.ID
		}

		s.mu.Lock()
		h, ok := s.buttonHandlers[data.CustomID]
		if !ok {
			h, ok = s.selectHandlers[data.CustomID]
		}
		s.mu.Unlock()

		// Acknowledge immediately so Discord doesn't show "interaction
		// failed" while the handler does its own (possibly slower) work.
		_ = s.dg.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
			Type: discordgo.InteractionResponseDeferredMessageUpdate,
		})

		if ok {
			go h(ctx, in)
		} else {
			slog.Warn("no handler registered for component", "custom_id", data.CustomID)
		}

	case discordgo.InteractionModalSubmit:
		data := i.ModalSubmitData()
		sub := ModalSubmission{
			CustomID: data.CustomID,
			UserID:   interactionUserID(i.Interaction),
			Values:   make(map[string]string),
		}
		for _, row := range data.Components {
			actionRow, ok := row.(*discordgo.ActionsRow)
			if !ok {
				continue
			}
			for _, comp := range actionRow.Components {
				if input, ok := comp.(*discordgo.TextInput); ok {
					sub.Values[input.CustomID] = input.Value
				}
			}
		}

		s.mu.Lock()
		h, ok := s.modalHandlers[data.CustomID]
		s.mu.Unlock()

		_ = s.dg.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
			Type: discordgo.InteractionResponseDeferredMessageUpdate,
		})

		if ok {
			go h(ctx, sub)
		} else {
			slog.Warn("no handler registered for modal", "custom_id", data.CustomID)
		}
	}
}

func interactionUserID(i *discordgo.Interaction) string {
	if i.Member != nil && i.Member.User != nil {
		return i.Member.User.ID
	}
	if i.User != nil {
		return i.User.ID
	}
	return ""
}

func (s *Session) SendChannel(_ context.Context, channelID string, msg Message) (string, error) {
	m, err := s.dg.ChannelMessageSendComplex(channelID, toMessageSend(msg))
	if err != nil {
		return "", fmt.Errorf("sending channel message: %w", err)
	}
	return m.ID, nil
}

func (s *Session) CreateThread(_ context.Context, channelID, name string, msg Message) (string, error) {
	thread, err := s.dg.ThreadStartComplex(channelID, &discordgo.ThreadStart{
		Name:                name,
		Type:                discordgo.ChannelTypeGuildPublicThread,
		AutoArchiveDuration: 1440,
	})
	if err != nil {
		return "", fmt.Errorf("creating thread: %w", err)
	}
	if _, err := s.dg.ChannelMessageSendComplex(thread.ID, toMessageSend(msg)); err != nil {
		return thread.ID, fmt.Errorf("posting thread opener: %w", err)
	}
	return thread.ID, nil
}

func (s *Session) SendThread(ctx context.Context, threadID string, msg Message) (string, error) {
	return s.SendChannel(ctx, threadID, msg)
}

func (s *Session) EditMessage(_ context.Context, channelOrThreadID, messageID string, msg Message) error {
	edit := discordgo.NewMessageEdit(channelOrThreadID, messageID)
	edit.Content = &msg.Content
	if msg.Embed != nil {
		edit.Embeds = &[]*discordgo.MessageEmbed{toEmbed(msg.Embed)}
	}
	if msg.Components != nil {
		rows := toComponents(msg.Components)
		edit.Components = &rows
	}
	_, err := s.dg.ChannelMessageEditComplex(edit)
	if err != nil {
		return fmt.Errorf("editing message: %w", err)
	}
	return nil
}

func (s *Session) DeleteMessage(_ context.Context, channelOrThreadID, messageID string) error {
	if err := s.dg.ChannelMessageDelete(channelOrThreadID, messageID); err != nil {
		return fmt.Errorf("deleting message: %w", err)
	}
	return nil
}

func (s *Session) AddReaction(_ context.Context, channelOrThreadID, messageID, emoji string) error {
	if err := s.dg.MessageReactionAdd(channelOrThreadID, messageID, emoji); err != nil {
		return fmt.Errorf("adding reaction: %w", err)
	}
	return nil
}

func (s *Session) RemoveReaction(_ context.Context, channelOrThreadID, messageID, emoji string) error {
	if err := s.dg.MessageReactionRemove(channelOrThreadID, messageID, emoji, "@me"); err != nil {
		return fmt.Errorf("removing reaction: %w", err)
	}
	return nil
}

func (s *Session) ArchiveThread(_ context.Context, threadID string) error {
	archived := true
	locked := true
	_, err := s.dg.ChannelEditComplex(threadID, &discordgo.ChannelEdit{
		Archived: &archived,
		Locked:   &locked,
	})
	if err != nil {
		return fmt.Errorf("archiving thread: %w", err)
	}
	return nil
}

func (s *Session) RegisterInteractionHandler(customID string, handler InteractionHandler) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.buttonHandlers[customID] = handler
	s.selectHandlers[customID] = handler
}

func (s *Session) RegisterModalHandler(customID string, handler ModalHandler) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.modalHandlers[customID] = handler
}

func (s *Session) OpenModal(_ context.Context, triggerInteractionID, triggerInteractionToken, customID, title string, fields []ModalField) error {
	rows := make([]discordgo.MessageComponent, 0, len(fields))
	for _, f := range fields {
		style := discordgo.TextInputShort
		if f.Multiline {
			style = discordgo.TextInputParagraph
		}
		rows = append(rows, discordgo.ActionsRow{
			Components: []discordgo.MessageComponent{
				discordgo.TextInput{
					CustomID:    f.CustomID,
					Label:       f.Label,
					Style:       style,
					Placeholder: f.Placeholder,
				},
			},
		})
	}

	interaction := &discordgo.Interaction{ID: triggerInteractionID, Token: triggerInteractionToken}
	err := s.dg.InteractionRespond(interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseModal,
		Data: &discordgo.InteractionResponseData{
			CustomID:   customID,
			Title:      title,
			Components: rows,
		},
	})
	if err != nil {
		return fmt.Errorf("opening modal: %w", err)
	}
	return nil
}

func toMessageSend(msg Message) *discordgo.MessageSend {
	send := &discordgo.MessageSend{Content: msg.Content}
	if msg.Embed != nil {
		send.Embeds = []*discordgo.MessageEmbed{toEmbed(msg.Embed)}
	}
	if msg.Components != nil {
		send.Components = toComponents(msg.Components)
	}
	return send
}

func toEmbed(e *Embed) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title:       e.Title,
		Description: e.Description,
		Color:       e.Color,
	}
}

func toComponents(c *Components) []discordgo.MessageComponent {
	if len(c.Buttons) > 0 {
		row := discordgo.ActionsRow{}
		for _, b := range c.Buttons {
			row.Components = append(row.Components, discordgo.Button{
				CustomID: b.CustomID,
				Label:    b.Label,
				Style:    toButtonStyle(b.Style),
				Disabled: b.Disabled,
			})
		}
		return []discordgo.MessageComponent{row}
	}
	if c.Select != nil {
		opts := make([]discordgo.SelectMenuOption, 0, len(c.Select.Options))
		for _, o := range c.Select.Options {
			opts = append(opts, discordgo.SelectMenuOption{Label: o.Label, Value: o.Value})
		}
		return []discordgo.MessageComponent{
			discordgo.ActionsRow{
				Components: []discordgo.MessageComponent{
					discordgo.SelectMenu{
						CustomID:    c.Select.CustomID,
						Placeholder: c.Select.Placeholder,
						Options:     opts,
					},
				},
			},
		}
	}
	return nil
}

func toButtonStyle(s ButtonStyle) discordgo.ButtonStyle {
	switch s {
	case StyleDanger:
		return discordgo.DangerButton
	case StyleSecondary:
		return discordgo.SecondaryButton
	default:
		return discordgo.PrimaryButton
	}
}
