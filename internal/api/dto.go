package api

import (
	"github.com/starford/gebo/internal/blocks"
	"github.com/starford/gebo/internal/engine"
	"github.com/starford/gebo/internal/linkcheck"
	"github.com/starford/gebo/internal/models"
)

// CreateDocumentRequest is the request body for creating a document.
type CreateDocumentRequest struct {
	Slug         string         `json:"slug" validate:"required"`
	Title        string         `json:"title" validate:"required"`
	Excerpt      string         `json:"excerpt,omitempty"`
	CategorySlug string         `json:"category_slug,omitempty"`
	Status       string         `json:"status,omitempty"`
	ReadingTime  int            `json:"reading_time,omitempty"`
	Content      []blocks.Block `json:"content"`
}

// UpdateContentRequest is the request body for replacing document content.
type UpdateContentRequest struct {
	Content []blocks.Block `json:"content" validate:"required"`
}

// DocumentListResponse wraps paginated document listings.
type DocumentListResponse struct {
	Documents []models.DocumentSummary `json:"documents" validate:"required"`
	Total     int                      `json:"total" validate:"required"`
}

// InsertionsRequest is the request body for applying link insertions.
type InsertionsRequest struct {
	Insertions []models.LinkInsertion `json:"insertions" validate:"required"`
}

// NeedingLinksResponse wraps the deficit-ranked document list.
type NeedingLinksResponse struct {
	Documents []engine.DocumentNeed `json:"documents" validate:"required"`
	Total     int                   `json:"total" validate:"required"`
}

// ValidateURLsRequest is the request body for batch URL validation.
type ValidateURLsRequest struct {
	URLs []string `json:"urls" validate:"required"`
}

// ValidateURLsResponse wraps URL validation results.
type ValidateURLsResponse struct {
	Results []linkcheck.Result `json:"results" validate:"required"`
}
