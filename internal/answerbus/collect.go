package answerbus

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/helmcode/wingman/internal/discord"
	"github.com/helmcode/wingman/internal/events"
	"github.com/helmcode/wingman/internal/store"
)

const askTimeout = 24 * time.Hour

const otherCustomIDSuffix = ":other"

// Collector drives collect_ask_answers: persisting pending asks, rendering
// the UI, awaiting answers (or timeout), and assembling the combined
// answer prompt fed back into the same session.
type Collector struct {
	bus       *Bus
	asks      *store.PendingAskRepo
	transport discord.Transport
}

// NewCollector wires a Collector to its bus, persistence, and transport.
func NewCollector(bus *Bus, asks *store.PendingAskRepo, transport discord.Transport) *Collector {
	return &Collector{bus: bus, asks: asks, transport: transport}
}

// CollectAskAnswers walks each question in order, rendering its UI and
// awaiting an answer, and returns the prompt to feed back into the same
// session — or "" if every question timed out (nothing to continue with).
func (c *Collector) CollectAskAnswers(ctx context.Context, threadID, sessionID string, questions []events.AskQuestion) string {
	var accumulated strings.Builder

	for i, q := range questions {
		answer := c.collectOne(ctx, threadID, sessionID, i, q)
		if answer == "" {
			continue
		}
		if accumulated.Len() > 0 {
			accumulated.WriteString("\n\n")
		}
		accumulated.WriteString(fmt.Sprintf("**%s**\nAnswer: %s", q.Header, answer))
	}

	if accumulated.Len() == 0 {
		return ""
	}
	return fmt.Sprintf("[Response to AskUserQuestion]\n\n%s\n\nPlease continue based on these answers.", accumulated.String())
}

func (c *Collector) collectOne(ctx context.Context, threadID, sessionID string, index int, q events.AskQuestion) string {
	if err := c.asks.Save(threadID, sessionID, []store.AskQuestion{toStoreQuestion(q)}, 0); err != nil {
		slog.Warn("answerbus: failed to persist pending ask", "error", err)
	}

	waiter := c.bus.Register(threadID)

	msgID := c.render(ctx, threadID, index, q)

	select {
	case labels := <-waiter:
		c.bus.Unregister(threadID)
		_ = c.asks.Delete(threadID)
		return strings.Join(labels, ", ")
	case <-time.After(askTimeout):
		c.bus.Unregister(threadID)
		_ = c.asks.Delete(threadID)
		c.onTimeout(ctx, threadID, msgID)
		return ""
	case <-ctx.Done():
		c.bus.Unregister(threadID)
		return ""
	}
}

func (c *Collector) render(ctx context.Context, threadID string, index int, q events.AskQuestion) string {
	body := q.Header
	if q.Body != "" {
		body += "\n" + q.Body
	}

	otherID := fmt.Sprintf("ask-%d%s", index, otherCustomIDSuffix)
	var components *discord.Components
	var customIDs []string

	useDropdown := len(q.Options) > 4 || q.MultiSelect
	if useDropdown {
		opts := make([]discord.SelectOption, 0, len(q.Options))
		for _, o := range q.Options {
			opts = append(opts, discord.SelectOption{Label: o.Label, Value: o.Label})
		}
		selectID := fmt.Sprintf("ask-%d-select", index)
		components = &discord.Components{Select: &discord.Select{CustomID: selectID, Placeholder: "Choose an answer", Options: opts}}
		customIDs = append(customIDs, selectID)
	} else {
		var buttons []discord.Button
		for _, o := range q.Options {
			id := fmt.Sprintf("ask-%d-%s", index, o.Label)
			buttons = append(buttons, discord.Button{CustomID: id, Label: o.Label, Style: discord.StylePrimary})
			customIDs = append(customIDs, id)
		}
		buttons = append(buttons, discord.Button{CustomID: otherID, Label: "Other", Style: discord.StyleSecondary})
		components = &discord.Components{Buttons: buttons}
	}
	customIDs = append(customIDs, otherID)

	msgID, err := c.transport.SendThread(ctx, threadID, discord.Message{
		Content:    body,
		Components: components,
	})
	if err != nil {
		slog.Warn("answerbus: failed to render ask UI", "error", err)
	}

	for _, id := range customIDs {
		c.registerHandler(ctx, threadID, id)
	}

	return msgID
}

func (c *Collector) registerHandler(ctx context.Context, threadID, customID string) {
	isOther := strings.HasSuffix(customID, otherCustomIDSuffix)
	c.transport.RegisterInteractionHandler(customID, func(hctx context.Context, in discord.Interaction) {
		if isOther {
			_ = c.transport.OpenModal(hctx, "", "", customID+":modal", "Your answer", []discord.ModalField{
				{CustomID: "answer", Label: "Type your answer", Multiline: true},
			})
			c.transport.RegisterModalHandler(customID+":modal", func(mctx context.Context, sub discord.ModalSubmission) {
				c.bus.PostAnswer(threadID, []string{sub.Values["answer"]})
			})
			return
		}
		if len(in.Values) > 0 {
			c.bus.PostAnswer(threadID, in.Values)
			return
		}
		label := in.CustomID
		if idx := strings.LastIndex(label, "-"); idx != -1 {
			label = label[idx+1:]
		}
		c.bus.PostAnswer(threadID, []string{label})
	})
}

func (c *Collector) onTimeout(ctx context.Context, threadID, msgID string) {
	if msgID == "" {
		return
	}
	err := c.transport.EditMessage(ctx, threadID, msgID, discord.Message{
		Content: "timed out — send a new message to continue",
	})
	if err != nil {
		slog.Warn("answerbus: failed to edit timed-out ask message", "error", err)
	}
}

func toStoreQuestion(q events.AskQuestion) store.AskQuestion {
	sq := store.AskQuestion{Header: q.Header, Body: q.Body, MultiSelect: q.MultiSelect}
	for _, o := range q.Options {
		sq.Options = append(sq.Options, store.AskOption{Label: o.Label})
	}
	return sq
}
