package engine

import (
	"strings"

	"github.com/starford/gebo/internal/blocks"
	"github.com/starford/gebo/internal/markup"
)

// SentenceContext extracts the sentence surrounding the first occurrence
// of anchor in text. Boundaries are sentence punctuation or newlines; if
// none fall inside the window, the window edges bound the context. An
// empty string means the anchor does not occur.
func SentenceContext(text, anchor string, window int) string {
	matchStart, matchEnd := markup.FoldIndex(text, anchor)
	if matchStart < 0 {
		return ""
	}

	start := matchStart - window
	if start < 0 {
		start = 0
	}
	for i := matchStart - 1; i >= start; i-- {
		if isBoundary(text[i]) {
			start = i + 1
			break
		}
	}

	end := matchEnd + window
	if end > len(text) {
		end = len(text)
	}
	for i := matchEnd; i < end; i++ {
		if isBoundary(text[i]) {
			end = i + 1
			break
		}
	}

	return strings.TrimSpace(text[start:end])
}

func isBoundary(b byte) bool {
	return b == '.' || b == '!' || b == '?' || b == '\n'
}

// findContext scans the document's linkable texts in block order and
// returns the sentence context of the first block containing the anchor.
func (e *Engine) findContext(content []blocks.Block, anchor string) string {
	for _, b := range content {
		for _, text := range b.LinkableTexts() {
			if ctx := SentenceContext(*text, anchor, e.limits.ContextWindow); ctx != "" {
				return ctx
			}
		}
	}
	return ""
}
