package processor

import (
	"context"
	"testing"

	"github.com/helmcode/wingman/internal/discord"
	"github.com/helmcode/wingman/internal/events"
)

func newTestProcessor(f *discord.Fake) *EventProcessor {
	return New(Config{Transport: f, ThreadID: "thread-1"}, false)
}

func TestProcess_SystemEmbedFiresOnce(t *testing.T) {
	f := discord.NewFake()
	p := newTestProcessor(f)
	ctx := context.Background()

	p.Process(ctx, events.StreamEvent{Kind: events.KindSystem, SessionID: "s1"})
	p.Process(ctx, events.StreamEvent{Kind: events.KindSystem, SessionID: "s1"})

	if len(f.SentThread["thread-1"]) != 1 {
		t.Fatalf("expected exactly one session-started embed, got %d", len(f.SentThread["thread-1"]))
	}
	if p.SessionID() != "s1" {
		t.Errorf("expected session id captured, got %q", p.SessionID())
	}
}

func TestProcess_SystemEmbedSuppressedOnResume(t *testing.T) {
	f := discord.NewFake()
	p := New(Config{Transport: f, ThreadID: "thread-1"}, true)
	p.Process(context.Background(), events.StreamEvent{Kind: events.KindSystem, SessionID: "s1"})
	if len(f.SentThread["thread-1"]) != 0 {
		t.Errorf("expected no session-started embed on resume, got %d messages", len(f.SentThread["thread-1"]))
	}
}

func TestProcess_PartialThenCompleteText(t *testing.T) {
	f := discord.NewFake()
	p := newTestProcessor(f)
	ctx := context.Background()

	p.Process(ctx, events.StreamEvent{Kind: events.KindAssistant, Text: "Hello", IsPartial: true})
	p.Process(ctx, events.StreamEvent{Kind: events.KindAssistant, Text: "Hello, world", IsPartial: true})
	p.Process(ctx, events.StreamEvent{Kind: events.KindAssistant, Text: "Hello, world!", IsPartial: false})

	if !p.assistantTextSent {
		t.Error("expected assistantTextSent to be set")
	}
	if len(f.SentThread["thread-1"]) == 0 {
		t.Fatal("expected at least one message sent for streaming text")
	}
	// The streamed message is sent once and then edited in place.
	final := f.Edits["msg-1"]
	if final.Content != "Hello, world!" {
		t.Errorf("expected final streamed content %q, got %q", "Hello, world!", final.Content)
	}
}

func TestProcess_ToolUseThenResult(t *testing.T) {
	f := discord.NewFake()
	p := newTestProcessor(f)
	ctx := context.Background()

	p.Process(ctx, events.StreamEvent{
		Kind:    events.KindAssistant,
		ToolUse: &events.ToolUse{ID: "t1", Name: "Bash", Category: events.CategoryCommand, Input: map[string]any{"command": "ls -la"}},
	})
	if len(p.activeTools) != 1 {
		t.Fatalf("expected one active tool, got %d", len(p.activeTools))
	}

	p.Process(ctx, events.StreamEvent{Kind: events.KindUser, ToolResultID: "t1", ToolResultContent: "file1\nfile2"})
	if len(p.activeTools) != 0 {
		t.Errorf("expected tool removed from active set after result, got %d", len(p.activeTools))
	}
}

func TestProcess_AskQuestionsEntersDrainMode(t *testing.T) {
	f := discord.NewFake()
	p := newTestProcessor(f)
	ctx := context.Background()

	p.Process(ctx, events.StreamEvent{
		Kind:         events.KindAssistant,
		AskQuestions: []events.AskQuestion{{Header: "Pick one", Options: []events.AskOption{{Label: "A"}}}},
	})
	if !p.ShouldDrain() {
		t.Fatal("expected drain mode after ask_questions")
	}

	before := len(f.SentThread["thread-1"])
	p.Process(ctx, events.StreamEvent{Kind: events.KindAssistant, Text: "ignored"})
	if len(f.SentThread["thread-1"]) != before {
		t.Error("expected non-terminal events to be dropped while draining")
	}
}

func TestProcess_TerminalErrorPostsTimeoutEmbed(t *testing.T) {
	f := discord.NewFake()
	p := newTestProcessor(f)
	p.Process(context.Background(), events.StreamEvent{
		Kind:       events.KindResult,
		IsComplete: true,
		Error:      "Timed out after 300 seconds",
	})

	found := false
	for _, m := range f.SentThread["thread-1"] {
		if m.Embed != nil && m.Embed.Title == "⏱️ Timed out" {
			found = true
		}
	}
	if !found {
		t.Error("expected a timeout embed to be posted")
	}
}

func TestProcess_TerminalSuppressesDuplicateText(t *testing.T) {
	f := discord.NewFake()
	p := newTestProcessor(f)
	ctx := context.Background()

	p.Process(ctx, events.StreamEvent{Kind: events.KindAssistant, Text: "final answer", IsPartial: false})
	before := len(f.SentThread["thread-1"])

	p.Process(ctx, events.StreamEvent{Kind: events.KindResult, IsComplete: true, Text: "final answer  "})

	after := f.SentThread["thread-1"]
	duplicateFound := false
	for i := before; i < len(after); i++ {
		if after[i].Content == "final answer  " {
			duplicateFound = true
		}
	}
	if duplicateFound {
		t.Error("expected terminal handler to suppress re-posting text already sent")
	}
}

func TestProcess_TerminalDoneRendersSecondsAndGlyphs(t *testing.T) {
	f := discord.NewFake()
	p := newTestProcessor(f)
	p.Process(context.Background(), events.StreamEvent{
		Kind:       events.KindResult,
		IsComplete: true,
		CostUSD:    0.01,
		DurationMS: 500,
	})

	last := f.SentThread["thread-1"][len(f.SentThread["thread-1"])-1]
	want := "⏱️ 0.5s | 💰 $0.0100"
	if last.Embed == nil || last.Embed.Description != want {
		t.Errorf("expected done embed %q, got %+v", want, last.Embed)
	}
}

func TestProcess_RepeatedPartialDoesNotTouchWire(t *testing.T) {
	f := discord.NewFake()
	p := newTestProcessor(f)
	ctx := context.Background()

	p.Process(ctx, events.StreamEvent{Kind: events.KindAssistant, Text: "Hello", IsPartial: true})
	before := len(f.SentThread["thread-1"])

	p.Process(ctx, events.StreamEvent{Kind: events.KindAssistant, Text: "Hello", IsPartial: true})
	if len(f.SentThread["thread-1"]) != before {
		t.Errorf("expected a repeated partial (empty delta) not to touch the wire, went from %d to %d messages", before, len(f.SentThread["thread-1"]))
	}
}

func TestComputeContextUsage_BelowThreshold(t *testing.T) {
	u := ComputeContextUsage(100000, 50000, 0, 0)
	if u.NearCompact {
		t.Error("expected not near compact at 50%")
	}
	if u.Percent != 50 {
		t.Errorf("expected 50%%, got %v", u.Percent)
	}
}

func TestComputeContextUsage_AtThreshold(t *testing.T) {
	u := ComputeContextUsage(100000, 83500, 0, 0)
	if !u.NearCompact {
		t.Error("expected near compact at 83.5%")
	}
}

func TestComputeContextUsage_WindowUnknown(t *testing.T) {
	u := ComputeContextUsage(0, 1000, 0, 0)
	if u.WindowKnown {
		t.Error("expected WindowKnown false when window size is 0")
	}
}

func TestChunkText_ShortTextSingleChunk(t *testing.T) {
	chunks := ChunkText("short")
	if len(chunks) != 1 || chunks[0] != "short" {
		t.Errorf("unexpected chunks: %+v", chunks)
	}
}

func TestChunkText_LongTextMultipleChunks(t *testing.T) {
	long := ""
	for i := 0; i < 500; i++ {
		long += "line of text here\n"
	}
	chunks := ChunkText(long)
	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks for long text, got %d", len(chunks))
	}
	for _, c := range chunks {
		if len(c) > chunkSize+10 {
			t.Errorf("chunk exceeds size bound: %d bytes", len(c))
		}
	}
}
