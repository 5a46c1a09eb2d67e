package processor

import (
	"strconv"
	"strings"
)

const (
	chunkSize          = 1900
	contextCompactPct  = 83.5
	truncatedSuffix    = "\n(truncated)"
	thinkingEmbedLimit = 4096
)

// ChunkText splits text into pieces no longer than chunkSize, preferring to
// break on a blank line or, failing that, a newline. A ``` fence left open
// at a cut is closed at the end of that chunk and reopened at the start of
// the next, so no chunk but the last carries an unbalanced fence.
func ChunkText(text string) []string {
	if text == "" {
		return nil
	}
	if len(text) <= chunkSize {
		return []string{text}
	}

	var chunks []string
	remaining := text
	openFence := false

	for len(remaining) > chunkSize {
		cut := chunkSize
		if idx := strings.LastIndex(remaining[:cut], "\n\n"); idx > chunkSize/2 {
			cut = idx
		} else if idx := strings.LastIndex(remaining[:cut], "\n"); idx > chunkSize/2 {
			cut = idx
		}

		piece := remaining[:cut]
		// A reopened fence from the previous cut is part of piece, so an
		// odd count means piece ends inside a code block.
		openFence = strings.Count(piece, "```")%2 == 1
		if openFence {
			piece += "\n```"
		}
		chunks = append(chunks, piece)

		remaining = remaining[cut:]
		remaining = strings.TrimPrefix(remaining, "\n")
		if openFence {
			remaining = "```\n" + remaining
		}
	}
	if remaining != "" {
		chunks = append(chunks, remaining)
	}
	return chunks
}

// TruncateThinking bounds thinking text to the embed description limit,
// appending a truncation notice when it overflows.
func TruncateThinking(text string) string {
	limit := thinkingEmbedLimit - len(truncatedSuffix) - 8 // fence overhead
	if len(text) <= limit {
		return text
	}
	return text[:limit] + truncatedSuffix
}

// ContextUsage holds the computed percentage of the context window
// consumed, and whether the "approaching compact" threshold is reached.
type ContextUsage struct {
	Percent     float64
	NearCompact bool
	WindowKnown bool
}

// ComputeContextUsage implements the context-window banner rule.
// Output tokens never count toward usage: they are not yet "in context"
// until they reappear as cache on the next turn.
func ComputeContextUsage(windowSize int, inputTokens, cacheReadTokens, cacheCreationTokens int) ContextUsage {
	if windowSize <= 0 {
		return ContextUsage{}
	}
	used := inputTokens + cacheReadTokens + cacheCreationTokens
	pct := float64(used) / float64(windowSize) * 100
	if pct > 100 {
		pct = 100
	}
	return ContextUsage{
		Percent:     pct,
		NearCompact: pct >= contextCompactPct,
		WindowKnown: true,
	}
}

// Banner renders the context-usage line for the "done" embed.
func (c ContextUsage) Banner() string {
	if !c.WindowKnown {
		return ""
	}
	untilCompact := contextCompactPct - c.Percent
	if untilCompact < 0 {
		untilCompact = 0
	}
	if c.NearCompact {
		return "⚠️ context near compaction threshold"
	}
	return strconv.Itoa(int(c.Percent)) + "% ctx (" + strconv.Itoa(int(untilCompact)) + "% until compact)"
}
