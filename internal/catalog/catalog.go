package catalog

import (
	"context"

	"github.com/starford/gebo/internal/blocks"
	"github.com/starford/gebo/internal/models"
)

// Store defines the catalog operations the engine depends on. Consumers
// should depend on this interface rather than the concrete *DB type to
// facilitate testing with mocks.
type Store interface {
	CreateDocument(ctx context.Context, doc *models.Document) error
	GetDocument(ctx context.Context, id string) (*models.Document, error)
	GetBySlug(ctx context.Context, slug string) (*models.Document, error)
	UpdateContent(ctx context.Context, id string, content []blocks.Block) error
	ListDocuments(ctx context.Context, limit, offset int, status string) ([]models.DocumentSummary, int, error)
	ListPublished(ctx context.Context, limit int) ([]models.DocumentSummary, error)
	CountPublished(ctx context.Context, excludeID string) (int, error)
	RecentByCategory(ctx context.Context, categorySlug, excludeID string, limit int) ([]models.DocumentSummary, error)
	TitleKeyword(ctx context.Context, keyword, excludeID string, limit int) ([]models.DocumentSummary, error)
	InternalLinkCounts(ctx context.Context) (map[string]int, error)
	ReplaceLinks(ctx context.Context, documentID string, records []models.LinkRecord) error
	DeleteInternalLinks(ctx context.Context, documentID string) error
	LinkRecords(ctx context.Context, documentID string) ([]models.LinkRecord, error)
	IDsBySlugs(ctx context.Context, slugs []string) (map[string]string, error)
	PublishedSlugExists(ctx context.Context, slug string) (bool, error)
	Close() error
}

// Verify *DB satisfies Store at compile time.
var _ Store = (*DB)(nil)
