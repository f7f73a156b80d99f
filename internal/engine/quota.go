package engine

import (
	"context"
	"fmt"
	"sort"

	"github.com/starford/gebo/internal/models"
)

// minCatalogSize is the smallest catalog for which linking is attempted.
// Below it there are too few targets for relevant matches.
const minCatalogSize = 3

// wordBased returns the word-count-driven link recommendation: roughly
// three links per thousand words, floor of two.
func wordBased(words int) int {
	n := words * 3 / 1000
	if n < 2 {
		n = 2
	}
	return n
}

// catalogCap limits recommendations to what the catalog can plausibly
// support. This is the single step function used by quota, candidate
// guidance, and deficit ranking alike.
func catalogCap(size int) int {
	switch {
	case size < 5:
		return 1
	case size < 15:
		return 2
	case size < 30:
		return 3
	case size < 50:
		return 4
	default:
		return 6
	}
}

// Quota computes the link budget for a document: how many internal links
// it currently has, how many it should have, and the deficit. Catalogs
// with fewer than three other documents skip linking entirely.
func (e *Engine) Quota(ctx context.Context, documentID string) (*models.Quota, error) {
	doc, err := e.store.GetDocument(ctx, documentID)
	if err != nil {
		return nil, err
	}

	records, err := e.store.LinkRecords(ctx, documentID)
	if err != nil {
		return nil, err
	}
	current := 0
	for _, r := range records {
		if r.LinkType == models.LinkTypeInternal {
			current++
		}
	}

	size, err := e.store.CountPublished(ctx, documentID)
	if err != nil {
		return nil, err
	}

	if size < minCatalogSize {
		return &models.Quota{
			Current: current,
			Skip:    true,
			Reason:  fmt.Sprintf("catalog too small (%d documents)", size),
		}, nil
	}

	recommended := wordBased(doc.EstimatedWords())
	if cap := catalogCap(size); recommended > cap {
		recommended = cap
	}
	deficit := recommended - current
	if deficit < 0 {
		deficit = 0
	}

	return &models.Quota{
		Current:     current,
		Recommended: recommended,
		Deficit:     deficit,
	}, nil
}

// DocumentNeed is one deficit-ranked entry from DocumentsNeedingLinks.
type DocumentNeed struct {
	ID          string `json:"id"`
	Slug        string `json:"slug"`
	Title       string `json:"title"`
	Current     int    `json:"current_links"`
	Recommended int    `json:"recommended"`
	Deficit     int    `json:"deficit"`
}

// DocumentsNeedingLinks returns published documents with fewer internal
// links than recommended, most in need first. The same quota math as
// Quota is applied per document, with the catalog size excluding the
// document itself.
func (e *Engine) DocumentsNeedingLinks(ctx context.Context, limit int) ([]DocumentNeed, int, error) {
	if limit <= 0 {
		limit = 10
	}
	fetchLimit := limit * 2
	if fetchLimit < 100 {
		fetchLimit = 100
	}

	total, err := e.store.CountPublished(ctx, "")
	if err != nil {
		return nil, 0, err
	}

	docs, err := e.store.ListPublished(ctx, fetchLimit)
	if err != nil {
		return nil, 0, err
	}

	counts, err := e.store.InternalLinkCounts(ctx)
	if err != nil {
		return nil, 0, err
	}

	size := total - 1 // each document cannot link to itself
	var needs []DocumentNeed
	if size >= minCatalogSize {
		cap := catalogCap(size)
		for _, d := range docs {
			words := d.ReadingTime
			if words <= 0 {
				words = 5
			}
			recommended := wordBased(words * 200)
			if recommended > cap {
				recommended = cap
			}
			current := counts[d.ID]
			if deficit := recommended - current; deficit > 0 {
				needs = append(needs, DocumentNeed{
					ID:          d.ID,
					Slug:        d.Slug,
					Title:       d.Title,
					Current:     current,
					Recommended: recommended,
					Deficit:     deficit,
				})
			}
		}
	}

	sort.SliceStable(needs, func(i, j int) bool {
		return needs[i].Deficit > needs[j].Deficit
	})
	if len(needs) > limit {
		needs = needs[:limit]
	}
	return needs, total, nil
}
