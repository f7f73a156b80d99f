// Package testutil provides shared test helpers for setting up catalogs
// and seed documents.
package testutil

import (
	"context"
	"os"
	"testing"

	"github.com/starford/gebo/internal/blocks"
	"github.com/starford/gebo/internal/catalog"
	"github.com/starford/gebo/internal/models"
)

// TestCatalog creates a temporary SQLite catalog that is automatically
// cleaned up.
func TestCatalog(t *testing.T) *catalog.DB {
	t.Helper()
	dbFile, err := os.CreateTemp("", "gebo-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	dbFile.Close()
	t.Cleanup(func() { os.Remove(dbFile.Name()) })

	db, err := catalog.Open(dbFile.Name())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// SeedDocument creates a published document with paragraph content and
// returns it with its assigned id.
func SeedDocument(t *testing.T, db *catalog.DB, slug, title, category string, paragraphs ...string) *models.Document {
	t.Helper()
	var content []blocks.Block
	for i, p := range paragraphs {
		content = append(content, blocks.Block{
			ID:   slug + "-b" + string(rune('a'+i)),
			Type: blocks.TypeParagraph,
			Data: &blocks.Paragraph{Text: p},
		})
	}
	doc := &models.Document{
		Slug:         slug,
		Title:        title,
		CategorySlug: category,
		Status:       models.StatusPublished,
		ReadingTime:  5,
		Content:      content,
	}
	if err := db.CreateDocument(context.Background(), doc); err != nil {
		t.Fatalf("seed %s: %v", slug, err)
	}
	return doc
}
