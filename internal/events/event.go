// Package events defines the tagged StreamEvent union produced by parsing
// one line of the CLI's stream-json stdout, and the pure parser that builds
// it.
package events

// Kind identifies which variant of StreamEvent is populated.
type Kind string

const (
	KindSystem    Kind = "system"
	KindAssistant Kind = "assistant"
	KindUser      Kind = "user"
	KindResult    Kind = "result"
)

// ToolCategory classifies a tool_use event for status-indicator and embed
// rendering purposes.
type ToolCategory string

const (
	CategoryRead    ToolCategory = "read"
	CategoryEdit    ToolCategory = "edit"
	CategoryCommand ToolCategory = "command"
	CategoryWeb     ToolCategory = "web"
	CategoryAsk     ToolCategory = "ask"
	CategoryOther   ToolCategory = "other"
)

// categorize maps a tool name to its category.
func categorize(toolName string) ToolCategory {
	switch toolName {
	case "Read", "Glob", "Grep", "LS":
		return CategoryRead
	case "Write", "Edit", "NotebookEdit":
		return CategoryEdit
	case "Bash":
		return CategoryCommand
	case "WebFetch", "WebSearch":
		return CategoryWeb
	case "AskUserQuestion":
		return CategoryAsk
	default:
		return CategoryOther
	}
}

// ToolUse describes one tool invocation emitted by the model.
type ToolUse struct {
	ID       string
	Name     string
	Input    map[string]any
	Category ToolCategory
}

// AskOption is one selectable answer within an AskQuestion.
type AskOption struct {
	Label string
}

// AskQuestion is one question within an AskUserQuestion tool call.
type AskQuestion struct {
	Header      string
	Body        string
	MultiSelect bool
	Options     []AskOption
}

// Usage carries the token-count fields reported on a terminal event.
type Usage struct {
	InputTokens         int
	OutputTokens        int
	CacheReadTokens     int
	CacheCreationTokens int
}

// StreamEvent is one parsed line of the CLI's stream-json output. Only the
// fields relevant to Kind are meaningfully populated; callers should switch
// on Kind before reading variant-specific fields.
type StreamEvent struct {
	Kind      Kind
	SessionID string

	// ASSISTANT / RESULT text accumulation.
	Text               string
	IsPartial          bool // true only for ASSISTANT: stop_reason absent
	Thinking           string
	HasRedactedThinking bool

	// ASSISTANT tool_use.
	ToolUse *ToolUse

	// ASSISTANT AskUserQuestion.
	AskQuestions []AskQuestion

	// USER tool_result.
	ToolResultID      string
	ToolResultContent string

	// Terminal (RESULT) fields.
	IsComplete bool
	Error      string
	CostUSD    float64
	DurationMS int64
	Usage      Usage
}
