package events

import (
	"encoding/json"
	"fmt"
)

// wireEvent mirrors one line of `claude --output-format stream-json`
// output. Only the fields this parser cares about are declared; unknown
// fields are ignored by encoding/json.
type wireEvent struct {
	Type      string          `json:"type"`
	SessionID string          `json:"session_id"`
	Subtype   string          `json:"subtype"`
	Message   *wireMessage    `json:"message"`
	Result    string          `json:"result"`
	IsError   bool            `json:"is_error"`
	CostUSD   float64         `json:"total_cost_usd"`
	DurationMS int64          `json:"duration_ms"`
	Usage     *wireUsage      `json:"usage"`
	ToolUseID string          `json:"tool_use_id"`
	Content   json.RawMessage `json:"content"`
}

type wireMessage struct {
	Role       string       `json:"role"`
	StopReason *string      `json:"stop_reason"`
	Content    []wireBlock  `json:"content"`
}

type wireBlock struct {
	Type  string          `json:"type"`
	Text  string          `json:"text"`
	ID    string           `json:"id"`
	Name  string           `json:"name"`
	Input json.RawMessage  `json:"input"`

	// tool_result block content (USER events), which may be a string or a
	// list of {type:"text", text:"..."} blocks — both are handled below.
	Content json.RawMessage `json:"content"`
	ToolUseID string        `json:"tool_use_id"`
}

type wireUsage struct {
	InputTokens              int `json:"input_tokens"`
	OutputTokens             int `json:"output_tokens"`
	CacheReadInputTokens     int `json:"cache_read_input_tokens"`
	CacheCreationInputTokens int `json:"cache_creation_input_tokens"`
}

type wireAskQuestion struct {
	Question    string            `json:"question"`
	Header      string            `json:"header"`
	Body        string            `json:"body"`
	MultiSelect bool              `json:"multi_select"`
	Options     []wireAskOption   `json:"options"`
}

type wireAskOption struct {
	Label string `json:"label"`
}

// Parse parses one JSON line into a StreamEvent. Returns (nil, nil) for a
// recognized-but-irrelevant event; returns an error when the line is not
// valid JSON, an empty line included — callers are expected to skip such
// lines rather than abort the stream.
func Parse(line []byte) (*StreamEvent, error) {
	var w wireEvent
	if err := json.Unmarshal(line, &w); err != nil {
		return nil, fmt.Errorf("parsing stream-json line: %w", err)
	}

	switch w.Type {
	case "system":
		return &StreamEvent{Kind: KindSystem, SessionID: w.SessionID}, nil
	case "assistant":
		return parseAssistant(&w), nil
	case "user":
		return parseUser(&w), nil
	case "result":
		return parseResult(&w), nil
	default:
		return nil, nil
	}
}

func parseAssistant(w *wireEvent) *StreamEvent {
	ev := &StreamEvent{Kind: KindAssistant, SessionID: w.SessionID}
	if w.Message == nil {
		return ev
	}

	ev.IsPartial = w.Message.StopReason == nil

	var text, thinking string
	for _, block := range w.Message.Content {
		switch block.Type {
		case "text":
			text += block.Text
		case "thinking":
			thinking += block.Text
		case "redacted_thinking":
			ev.HasRedactedThinking = true
		case "tool_use":
			tu := &ToolUse{ID: block.ID, Name: block.Name}
			tu.Category = categorize(block.Name)
			if len(block.Input) > 0 {
				var input map[string]any
				if err := json.Unmarshal(block.Input, &input); err == nil {
					tu.Input = input
				}
			}
			ev.ToolUse = tu

			if block.Name == "AskUserQuestion" && len(block.Input) > 0 {
				ev.AskQuestions = parseAskQuestions(block.Input)
			}
		}
	}
	ev.Text = text
	ev.Thinking = thinking

	return ev
}

func parseAskQuestions(input json.RawMessage) []AskQuestion {
	var wrapper struct {
		Questions []wireAskQuestion `json:"questions"`
	}
	if err := json.Unmarshal(input, &wrapper); err != nil {
		return nil
	}

	questions := make([]AskQuestion, 0, len(wrapper.Questions))
	for _, q := range wrapper.Questions {
		header := q.Header
		if header == "" {
			header = q.Question
		}
		aq := AskQuestion{Header: header, Body: q.Body, MultiSelect: q.MultiSelect}
		for _, opt := range q.Options {
			if opt.Label == "" {
				continue
			}
			aq.Options = append(aq.Options, AskOption{Label: opt.Label})
		}
		questions = append(questions, aq)
	}
	return questions
}

func parseUser(w *wireEvent) *StreamEvent {
	ev := &StreamEvent{Kind: KindUser, SessionID: w.SessionID}
	if w.Message == nil {
		return ev
	}

	for _, block := range w.Message.Content {
		if block.Type != "tool_result" {
			continue
		}
		ev.ToolResultID = block.ToolUseID
		ev.ToolResultContent = extractToolResultContent(block.Content)
		break
	}
	return ev
}

// extractToolResultContent handles both wire shapes for tool_result content:
// a bare string, or a list of {type:"text", text:"..."} blocks.
func extractToolResultContent(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}

	var asString string
	if err := json.Unmarshal(raw, &asString); err == nil {
		return asString
	}

	var blocks []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	}
	if err := json.Unmarshal(raw, &blocks); err == nil {
		var out string
		for _, b := range blocks {
			if b.Type == "text" {
				out += b.Text
			}
		}
		return out
	}

	return ""
}

func parseResult(w *wireEvent) *StreamEvent {
	ev := &StreamEvent{
		Kind:       KindResult,
		SessionID:  w.SessionID,
		IsComplete: true,
		CostUSD:    w.CostUSD,
		DurationMS: w.DurationMS,
	}

	if w.Message != nil {
		for _, block := range w.Message.Content {
			if block.Type == "text" {
				ev.Text += block.Text
			}
		}
	} else if w.Result != "" {
		ev.Text = w.Result
	}

	if w.Subtype == "error" {
		if w.Result != "" {
			ev.Error = w.Result
		} else {
			ev.Error = "unknown error"
		}
	}

	if w.Usage != nil {
		ev.Usage = Usage{
			InputTokens:         w.Usage.InputTokens,
			OutputTokens:        w.Usage.OutputTokens,
			CacheReadTokens:     w.Usage.CacheReadInputTokens,
			CacheCreationTokens: w.Usage.CacheCreationInputTokens,
		}
	}

	return ev
}
