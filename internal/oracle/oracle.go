// Package oracle defines the semantic scoring and validation capability
// used by the link engine, with a remote implementation and a
// deterministic fallback pattern extractor.
package oracle

import "context"

// Evaluation is the scored result for one candidate title.
type Evaluation struct {
	Score          int
	AnchorPatterns []string
}

// ContextCheck asks whether anchor text, as used in a context snippet,
// should link to the target document.
type ContextCheck struct {
	AnchorText  string
	Context     string
	TargetTitle string
}

// Oracle scores link candidates and validates anchor usage in context.
// Both operations are batched: one call covers the whole candidate or
// insertion set. Implementations return an error on any transport or
// shape problem; the caller decides the fail-open policy.
type Oracle interface {
	ScoreCandidates(ctx context.Context, sourceTitle, sourceExcerpt string, candidateTitles []string) ([]Evaluation, error)
	ValidateContexts(ctx context.Context, checks []ContextCheck) ([]bool, error)
}
