package engine

import (
	"context"
	"log/slog"
	"strings"

	"github.com/starford/gebo/internal/oracle"
)

// violatesAntiPatterns reports whether any anti-pattern occurs in the
// context, case-insensitively. The matched pattern is returned for the
// rejection reason.
func violatesAntiPatterns(context string, patterns []string) (string, bool) {
	lower := strings.ToLower(context)
	for _, p := range patterns {
		if p == "" {
			continue
		}
		if strings.Contains(lower, strings.ToLower(p)) {
			return p, true
		}
	}
	return "", false
}

// validateContexts runs the batched semantic context check and returns
// one verdict per check. A nil oracle or an oracle failure accepts every
// check; the deterministic anti-pattern stage has already run by then.
func (e *Engine) validateContexts(ctx context.Context, checks []oracle.ContextCheck) []bool {
	verdicts := make([]bool, len(checks))
	if len(checks) == 0 {
		return verdicts
	}

	if e.oracle != nil {
		got, err := e.oracle.ValidateContexts(ctx, checks)
		if err == nil {
			return got
		}
		slog.Warn("context validation failed, accepting all checks",
			slog.Int("checks", len(checks)),
			slog.String("error", err.Error()))
	}
	for i := range verdicts {
		verdicts[i] = true
	}
	return verdicts
}
