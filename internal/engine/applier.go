package engine

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/starford/gebo/internal/markup"
	"github.com/starford/gebo/internal/models"
	"github.com/starford/gebo/internal/oracle"
)

// AppliedLink records one successful insertion.
type AppliedLink struct {
	AnchorText string `json:"anchor_text"`
	URL        string `json:"url"`
	BlockID    string `json:"block_id"`
}

// FailedInsertion records one rejected or unmatched insertion with the
// reason it was not applied.
type FailedInsertion struct {
	AnchorText string `json:"anchor_text"`
	URL        string `json:"url"`
	Reason     string `json:"reason"`
}

// ApplyResult reports the outcome of an insertion batch.
type ApplyResult struct {
	Applied       []AppliedLink     `json:"applied"`
	Failed        []FailedInsertion `json:"failed"`
	LedgerRecords int               `json:"ledger_records"`
}

// ApplyInsertions validates and applies a batch of link insertions to a
// document. Each insertion passes two gates: a deterministic anti-pattern
// check on the anchor's sentence context, and a batched semantic check
// that fails open. Surviving insertions wrap the first unlinked
// occurrence of their anchor text, preserving its original casing. The
// document is saved and its ledger rebuilt only when at least one
// insertion applied.
func (e *Engine) ApplyInsertions(ctx context.Context, documentID string, insertions []models.LinkInsertion, cache *RunCache) (*ApplyResult, error) {
	doc, err := e.store.GetDocument(ctx, documentID)
	if err != nil {
		return nil, err
	}

	result := &ApplyResult{}

	type pending struct {
		ins     models.LinkInsertion
		context string
	}
	var survivors []pending
	var checks []oracle.ContextCheck
	var checkIdx []int // survivor index per check

	for _, ins := range insertions {
		if err := ins.Validate(); err != nil {
			result.Failed = append(result.Failed, FailedInsertion{
				AnchorText: ins.AnchorText,
				URL:        ins.URL,
				Reason:     "missing anchor_text or url",
			})
			continue
		}

		sentence := e.findContext(doc.Content, ins.AnchorText)
		if sentence != "" {
			if pattern, bad := violatesAntiPatterns(sentence, ins.AntiPatterns); bad {
				result.Failed = append(result.Failed, FailedInsertion{
					AnchorText: ins.AnchorText,
					URL:        ins.URL,
					Reason:     fmt.Sprintf("context contains anti-pattern %q", pattern),
				})
				continue
			}
		}

		survivors = append(survivors, pending{ins: ins, context: sentence})
		if ins.TargetTitle != "" && sentence != "" {
			checks = append(checks, oracle.ContextCheck{
				AnchorText:  ins.AnchorText,
				Context:     sentence,
				TargetTitle: ins.TargetTitle,
			})
			checkIdx = append(checkIdx, len(survivors)-1)
		}
	}

	rejected := make(map[int]bool)
	if len(checks) > 0 {
		verdicts := e.validateContexts(ctx, checks)
		for i, ok := range verdicts {
			if !ok {
				rejected[checkIdx[i]] = true
			}
		}
	}

	changed := false
	for i, p := range survivors {
		if rejected[i] {
			result.Failed = append(result.Failed, FailedInsertion{
				AnchorText: p.ins.AnchorText,
				URL:        p.ins.URL,
				Reason:     "context/specificity mismatch",
			})
			continue
		}
		if blockID, ok := e.applyOne(doc, p.ins); ok {
			changed = true
			result.Applied = append(result.Applied, AppliedLink{
				AnchorText: p.ins.AnchorText,
				URL:        p.ins.URL,
				BlockID:    blockID,
			})
		} else {
			result.Failed = append(result.Failed, FailedInsertion{
				AnchorText: p.ins.AnchorText,
				URL:        p.ins.URL,
				Reason:     "text not found or already linked",
			})
		}
	}

	if !changed {
		return result, nil
	}

	if err := e.store.UpdateContent(ctx, doc.ID, doc.Content); err != nil {
		return nil, err
	}

	if cache == nil {
		cache = NewRunCache()
	}
	n, err := e.RebuildLedger(ctx, doc.ID, cache)
	if err != nil {
		slog.Warn("ledger rebuild failed after insertion",
			slog.String("document_id", doc.ID),
			slog.String("error", err.Error()))
	}
	result.LedgerRecords = n
	return result, nil
}

// applyOne wraps the first unlinked occurrence of the anchor in the
// document content, scoped to one block when the insertion names it.
// The modified block's ID is returned.
func (e *Engine) applyOne(doc *models.Document, ins models.LinkInsertion) (string, bool) {
	for i := range doc.Content {
		b := &doc.Content[i]
		if ins.BlockID != "" && b.ID != ins.BlockID {
			continue
		}
		for _, text := range b.LinkableTexts() {
			if updated, matched := markup.WrapFirst(*text, ins.AnchorText, ins.URL); matched != "" {
				*text = updated
				return b.ID, true
			}
		}
	}
	return "", false
}
