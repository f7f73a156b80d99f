package engine

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/starford/gebo/internal/models"
	"github.com/starford/gebo/internal/oracle"
)

// CandidateSet is the relevance-filtered candidate list for a document,
// with catalog-size guidance for the caller.
type CandidateSet struct {
	Candidates []models.LinkCandidate `json:"candidates"`
	Skip       bool                   `json:"skip,omitempty"`
	Reason     string                 `json:"reason,omitempty"`
	MaxLinks   int                    `json:"max_links,omitempty"`
	Guidance   string                 `json:"guidance,omitempty"`
}

// Candidates proposes scored link targets for a document: recent
// documents in the same category first, then title keyword matches,
// deduplicated and truncated before one batched scoring call. Scoring
// failures admit every candidate with fallback patterns rather than
// dropping them.
func (e *Engine) Candidates(ctx context.Context, documentID string, limit int) (*CandidateSet, error) {
	doc, err := e.store.GetDocument(ctx, documentID)
	if err != nil {
		return nil, err
	}

	size, err := e.store.CountPublished(ctx, documentID)
	if err != nil {
		return nil, err
	}
	if size < minCatalogSize {
		return &CandidateSet{
			Skip:   true,
			Reason: fmt.Sprintf("catalog too small (%d documents); skip internal linking", size),
		}, nil
	}

	if limit <= 0 {
		limit = e.limits.SuggestionLimit
	}
	if limit > e.limits.MaxCandidates {
		limit = e.limits.MaxCandidates
	}

	combined, err := e.gatherCandidates(ctx, doc, limit)
	if err != nil {
		return nil, err
	}
	if len(combined) == 0 {
		return &CandidateSet{
			Skip:   true,
			Reason: fmt.Sprintf("no related documents found for %q", doc.Title),
		}, nil
	}

	scored := e.scoreCandidates(ctx, doc, combined)
	if len(scored) == 0 {
		return &CandidateSet{
			Skip:   true,
			Reason: fmt.Sprintf("no semantically relevant documents found for %q", doc.Title),
		}, nil
	}

	set := &CandidateSet{Candidates: scored}
	if capSize := catalogCap(size); capSize < 6 {
		set.MaxLinks = capSize
		set.Guidance = fmt.Sprintf("catalog has %d documents; use at most %d internal links", size, capSize)
	}
	return set, nil
}

// gatherCandidates combines same-category recents with leading-keyword
// title matches, deduplicated by id, same-category results first.
func (e *Engine) gatherCandidates(ctx context.Context, doc *models.Document, limit int) ([]models.DocumentSummary, error) {
	var combined []models.DocumentSummary
	seen := make(map[string]struct{})

	if doc.CategorySlug != "" {
		sameCategory, err := e.store.RecentByCategory(ctx, doc.CategorySlug, doc.ID, limit)
		if err != nil {
			return nil, err
		}
		for _, c := range sameCategory {
			if _, dup := seen[c.ID]; !dup {
				seen[c.ID] = struct{}{}
				combined = append(combined, c)
			}
		}
	}

	if keyword := leadingKeyword(doc.Title); keyword != "" {
		matches, err := e.store.TitleKeyword(ctx, keyword, doc.ID, limit)
		if err != nil {
			return nil, err
		}
		for _, c := range matches {
			if _, dup := seen[c.ID]; !dup {
				seen[c.ID] = struct{}{}
				combined = append(combined, c)
			}
		}
	}

	if len(combined) > limit {
		combined = combined[:limit]
	}
	return combined, nil
}

// scoreCandidates runs the batched oracle scoring call and keeps
// candidates at or above the relevance floor. On oracle failure every
// candidate is admitted with fallback-derived patterns.
func (e *Engine) scoreCandidates(ctx context.Context, doc *models.Document, combined []models.DocumentSummary) []models.LinkCandidate {
	titles := make([]string, len(combined))
	for i, c := range combined {
		titles[i] = c.Title
	}

	var evals []oracle.Evaluation
	var err error
	if e.oracle != nil {
		evals, err = e.oracle.ScoreCandidates(ctx, doc.Title, doc.Excerpt, titles)
	}
	if e.oracle == nil || err != nil {
		if err != nil {
			slog.Warn("candidate scoring failed, admitting all with fallback patterns",
				slog.String("document_id", doc.ID),
				slog.String("error", err.Error()))
		}
		out := make([]models.LinkCandidate, len(combined))
		for i, c := range combined {
			out[i] = models.LinkCandidate{
				URL:            e.urls.Build(c.Slug, c.CategorySlug),
				Title:          c.Title,
				AnchorPatterns: oracle.FallbackPatterns(c.Title),
				RelevanceScore: e.limits.RelevanceFloor,
			}
		}
		return out
	}

	var out []models.LinkCandidate
	for i, ev := range evals {
		if ev.Score < e.limits.RelevanceFloor {
			continue
		}
		patterns := ev.AnchorPatterns
		if len(patterns) == 0 {
			patterns = oracle.FallbackPatterns(combined[i].Title)
		}
		out = append(out, models.LinkCandidate{
			URL:            e.urls.Build(combined[i].Slug, combined[i].CategorySlug),
			Title:          combined[i].Title,
			AnchorPatterns: patterns,
			RelevanceScore: ev.Score,
		})
	}
	return out
}

// leadingKeyword returns the first word of the title, lowercased, for the
// keyword search strategy.
func leadingKeyword(title string) string {
	fields := strings.Fields(strings.ToLower(title))
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}
