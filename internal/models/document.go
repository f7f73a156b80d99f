// Package models defines the domain types for Gebo.
package models

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/gebo/internal/blocks"
)

// Document statuses.
const (
	StatusDraft     = "draft"
	StatusPublished = "published"
)

// Link types.
const (
	LinkTypeInternal = "internal"
	LinkTypeExternal = "external"
)

// Document is a catalog entry whose content is an ordered block sequence.
// Content is the source of truth; link records are derived from it.
type Document struct {
	ID           string         `json:"id"`
	Slug         string         `json:"slug"`
	Title        string         `json:"title"`
	Excerpt      string         `json:"excerpt,omitempty"`
	CategorySlug string         `json:"category_slug,omitempty"`
	Status       string         `json:"status"`
	ReadingTime  int            `json:"reading_time"`
	Content      []blocks.Block `json:"content"`
	Checksum     string         `json:"checksum"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
}

// EstimatedWords converts the reading-time proxy to a word count
// (200 words per minute, matching how reading time is derived on save).
func (d *Document) EstimatedWords() int {
	rt := d.ReadingTime
	if rt <= 0 {
		rt = 5
	}
	return rt * 200
}

// LinkRecord is one ledger row: a link discovered in a document's content.
// The full record set for a document is always re-derived from content on
// save, never patched incrementally.
type LinkRecord struct {
	DocumentID       string `json:"document_id"`
	URL              string `json:"url"`
	AnchorText       string `json:"anchor_text"`
	LinkType         string `json:"link_type"`
	Domain           string `json:"domain,omitempty"`
	LinkedDocumentID string `json:"linked_document_id,omitempty"`
	OpensNewTab      bool   `json:"opens_new_tab"`
	IsNofollow       bool   `json:"is_nofollow"`
}

// LinkCandidate is a scored target a document could link to. Transient.
type LinkCandidate struct {
	URL            string   `json:"url"`
	Title          string   `json:"title"`
	AnchorPatterns []string `json:"anchor_patterns"`
	AntiPatterns   []string `json:"anti_patterns,omitempty"`
	RelevanceScore int      `json:"relevance_score"`
}

// LinkInsertion is a caller-supplied intent to wrap anchor text in a link.
type LinkInsertion struct {
	AnchorText   string   `json:"anchor_text"`
	URL          string   `json:"url"`
	TargetTitle  string   `json:"target_title,omitempty"`
	AntiPatterns []string `json:"anti_patterns,omitempty"`
	BlockID      string   `json:"block_id,omitempty"`
}

// Validate checks the required insertion fields.
func (i LinkInsertion) Validate() error {
	return validation.ValidateStruct(&i,
		validation.Field(&i.AnchorText, validation.Required),
		validation.Field(&i.URL, validation.Required),
	)
}

// Quota is the derived link budget for one document. Never stored.
type Quota struct {
	Current     int    `json:"current"`
	Recommended int    `json:"recommended"`
	Deficit     int    `json:"deficit"`
	Skip        bool   `json:"skip,omitempty"`
	Reason      string `json:"reason,omitempty"`
}

// DocumentSummary is a lightweight listing row.
type DocumentSummary struct {
	ID           string    `json:"id"`
	Slug         string    `json:"slug"`
	Title        string    `json:"title"`
	CategorySlug string    `json:"category_slug,omitempty"`
	ReadingTime  int       `json:"reading_time"`
	UpdatedAt    time.Time `json:"updated_at"`
}
