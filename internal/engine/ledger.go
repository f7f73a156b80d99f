package engine

import (
	"context"

	"github.com/starford/gebo/internal/blocks"
	"github.com/starford/gebo/internal/markup"
	"github.com/starford/gebo/internal/models"
	"github.com/starford/gebo/internal/urls"
)

// RebuildLedger derives the full set of link records from the document's
// current content and replaces the stored ledger in one transaction. It
// returns the number of records written. The cache carries slug-to-ID
// resolutions across documents within one run.
func (e *Engine) RebuildLedger(ctx context.Context, documentID string, cache *RunCache) (int, error) {
	doc, err := e.store.GetDocument(ctx, documentID)
	if err != nil {
		return 0, err
	}

	records := e.deriveRecords(doc.ID, doc.Content)
	if err := e.resolveInternal(ctx, records, cache); err != nil {
		return 0, err
	}
	if err := e.store.ReplaceLinks(ctx, doc.ID, records); err != nil {
		return 0, err
	}
	return len(records), nil
}

// deriveRecords walks the content and emits one record per anchor found
// in linkable text, plus one per button. Records appear in block order.
func (e *Engine) deriveRecords(documentID string, content []blocks.Block) []models.LinkRecord {
	var records []models.LinkRecord
	for i := range content {
		b := &content[i]

		if btn, ok := b.Data.(*blocks.Button); ok && btn.URL != "" {
			records = append(records, e.newRecord(documentID, btn.URL, btn.Text, btn.NewTab, false))
			continue
		}

		for _, text := range b.LinkableTexts() {
			for _, a := range markup.Anchors(*text) {
				records = append(records, e.newRecord(documentID, a.Href, a.Inner, a.OpensNewTab, a.Nofollow))
			}
		}
	}
	return records
}

func (e *Engine) newRecord(documentID, href, anchorText string, newTab, nofollow bool) models.LinkRecord {
	rec := models.LinkRecord{
		DocumentID:  documentID,
		URL:         href,
		AnchorText:  anchorText,
		OpensNewTab: newTab,
		IsNofollow:  nofollow,
	}
	if urls.IsInternal(href) {
		rec.LinkType = models.LinkTypeInternal
	} else {
		rec.LinkType = models.LinkTypeExternal
		rec.Domain = urls.Domain(href)
	}
	return rec
}

// resolveInternal fills LinkedDocumentID on internal records, consulting
// the run cache first and the catalog once for all remaining slugs.
// Unresolvable slugs leave the field empty; the link itself still counts.
func (e *Engine) resolveInternal(ctx context.Context, records []models.LinkRecord, cache *RunCache) error {
	if cache == nil {
		cache = NewRunCache()
	}

	var missing []string
	seen := make(map[string]struct{})
	for i := range records {
		if records[i].LinkType != models.LinkTypeInternal {
			continue
		}
		slug := e.urls.SlugFrom(records[i].URL)
		if slug == "" {
			continue
		}
		if id, ok := cache.slugID(slug); ok {
			records[i].LinkedDocumentID = id
			continue
		}
		if _, dup := seen[slug]; !dup {
			seen[slug] = struct{}{}
			missing = append(missing, slug)
		}
	}
	if len(missing) == 0 {
		return nil
	}

	ids, err := e.store.IDsBySlugs(ctx, missing)
	if err != nil {
		return err
	}
	for slug, id := range ids {
		cache.putSlugID(slug, id)
	}

	for i := range records {
		if records[i].LinkType != models.LinkTypeInternal || records[i].LinkedDocumentID != "" {
			continue
		}
		slug := e.urls.SlugFrom(records[i].URL)
		if id, ok := ids[slug]; ok {
			records[i].LinkedDocumentID = id
		}
	}
	return nil
}

// RemoveInternalLinks strips every internal anchor from the document,
// keeping the inner text, saves the cleaned content, and deletes the
// internal entries from the ledger. It returns the number removed.
func (e *Engine) RemoveInternalLinks(ctx context.Context, documentID string) (int, error) {
	doc, err := e.store.GetDocument(ctx, documentID)
	if err != nil {
		return 0, err
	}

	removed := 0
	for i := range doc.Content {
		for _, text := range doc.Content[i].LinkableTexts() {
			cleaned, n := markup.StripInternal(*text)
			if n > 0 {
				*text = cleaned
				removed += n
			}
		}
	}
	if removed == 0 {
		return 0, nil
	}

	if err := e.store.UpdateContent(ctx, doc.ID, doc.Content); err != nil {
		return 0, err
	}
	if err := e.store.DeleteInternalLinks(ctx, doc.ID); err != nil {
		return removed, err
	}
	return removed, nil
}
