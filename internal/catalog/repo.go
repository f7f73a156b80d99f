package catalog

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/starford/gebo/internal/apperr"
	"github.com/starford/gebo/internal/blocks"
	"github.com/starford/gebo/internal/checksum"
	"github.com/starford/gebo/internal/models"
)

// CreateDocument inserts a new document. A missing ID is generated; the
// content checksum and timestamps are set here.
func (db *DB) CreateDocument(ctx context.Context, doc *models.Document) error {
	if doc.ID == "" {
		doc.ID = uuid.NewString()
	}
	if doc.Status == "" {
		doc.Status = models.StatusDraft
	}
	raw, err := json.Marshal(doc.Content)
	if err != nil {
		return fmt.Errorf("catalog: encode content: %w", err)
	}
	now := time.Now().UTC()
	doc.Checksum = checksum.Sum(raw)
	doc.CreatedAt = now
	doc.UpdatedAt = now

	_, err = db.conn.ExecContext(ctx, `
		INSERT INTO documents (id, slug, title, excerpt, category_slug, status, reading_time, content, checksum, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, doc.ID, doc.Slug, doc.Title, doc.Excerpt, doc.CategorySlug, doc.Status,
		doc.ReadingTime, string(raw), doc.Checksum, doc.CreatedAt, doc.UpdatedAt)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return apperr.ErrAlreadyExists
		}
		return fmt.Errorf("catalog: insert document: %w", err)
	}
	return nil
}

// GetDocument returns the full document for id, including decoded content.
func (db *DB) GetDocument(ctx context.Context, id string) (*models.Document, error) {
	return db.getDocument(ctx, `id = ?`, id)
}

// GetBySlug returns the full document for slug.
func (db *DB) GetBySlug(ctx context.Context, slug string) (*models.Document, error) {
	return db.getDocument(ctx, `slug = ?`, slug)
}

func (db *DB) getDocument(ctx context.Context, where string, arg any) (*models.Document, error) {
	row := db.conn.QueryRowContext(ctx, `
		SELECT id, slug, title, excerpt, category_slug, status, reading_time, content, checksum, created_at, updated_at
		FROM documents WHERE `+where, arg)

	var doc models.Document
	var rawContent string
	err := row.Scan(&doc.ID, &doc.Slug, &doc.Title, &doc.Excerpt, &doc.CategorySlug,
		&doc.Status, &doc.ReadingTime, &rawContent, &doc.Checksum, &doc.CreatedAt, &doc.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("catalog: get document: %w", err)
	}
	if err := json.Unmarshal([]byte(rawContent), &doc.Content); err != nil {
		return nil, fmt.Errorf("catalog: decode content for %s: %w", doc.ID, err)
	}
	return &doc, nil
}

// UpdateContent replaces a document's content, bumping checksum and
// updated_at. This is the single write at pipeline exit.
func (db *DB) UpdateContent(ctx context.Context, id string, content []blocks.Block) error {
	raw, err := json.Marshal(content)
	if err != nil {
		return fmt.Errorf("catalog: encode content: %w", err)
	}
	res, err := db.conn.ExecContext(ctx, `
		UPDATE documents SET content = ?, checksum = ?, updated_at = ? WHERE id = ?
	`, string(raw), checksum.Sum(raw), time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("catalog: update content: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperr.ErrNotFound
	}
	return nil
}

// ListDocuments returns paginated document summaries with an optional
// status filter, plus the total matching count.
func (db *DB) ListDocuments(ctx context.Context, limit, offset int, status string) ([]models.DocumentSummary, int, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	where := ""
	args := []any{}
	if status != "" {
		where = `WHERE status = ?`
		args = append(args, status)
	}

	var total int
	if err := db.conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM documents `+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("catalog: count documents: %w", err)
	}

	args = append(args, limit, offset)
	rows, err := db.conn.QueryContext(ctx, `
		SELECT id, slug, title, category_slug, reading_time, updated_at
		FROM documents `+where+`
		ORDER BY updated_at DESC
		LIMIT ? OFFSET ?
	`, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("catalog: list documents: %w", err)
	}
	defer rows.Close()

	out, err := scanSummaries(rows)
	return out, total, err
}

// ListPublished returns published document summaries in creation order,
// oldest first, used for deficit ranking.
func (db *DB) ListPublished(ctx context.Context, limit int) ([]models.DocumentSummary, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := db.conn.QueryContext(ctx, `
		SELECT id, slug, title, category_slug, reading_time, updated_at
		FROM documents
		WHERE status = ?
		ORDER BY created_at ASC
		LIMIT ?
	`, models.StatusPublished, limit)
	if err != nil {
		return nil, fmt.Errorf("catalog: list published: %w", err)
	}
	defer rows.Close()
	return scanSummaries(rows)
}

// CountPublished returns the number of published documents, excluding
// excludeID when non-empty. This is the catalog size quota math depends on.
func (db *DB) CountPublished(ctx context.Context, excludeID string) (int, error) {
	var n int
	var err error
	if excludeID != "" {
		err = db.conn.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM documents WHERE status = ? AND id != ?`,
			models.StatusPublished, excludeID).Scan(&n)
	} else {
		err = db.conn.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM documents WHERE status = ?`,
			models.StatusPublished).Scan(&n)
	}
	if err != nil {
		return 0, fmt.Errorf("catalog: count published: %w", err)
	}
	return n, nil
}

// RecentByCategory returns the most recent published documents in a
// category, excluding excludeID.
func (db *DB) RecentByCategory(ctx context.Context, categorySlug, excludeID string, limit int) ([]models.DocumentSummary, error) {
	rows, err := db.conn.QueryContext(ctx, `
		SELECT id, slug, title, category_slug, reading_time, updated_at
		FROM documents
		WHERE status = ? AND category_slug = ? AND id != ?
		ORDER BY created_at DESC
		LIMIT ?
	`, models.StatusPublished, categorySlug, excludeID, limit)
	if err != nil {
		return nil, fmt.Errorf("catalog: recent by category: %w", err)
	}
	defer rows.Close()
	return scanSummaries(rows)
}

// TitleKeyword returns recent published documents whose title contains
// keyword, case-insensitively, excluding excludeID.
func (db *DB) TitleKeyword(ctx context.Context, keyword, excludeID string, limit int) ([]models.DocumentSummary, error) {
	rows, err := db.conn.QueryContext(ctx, `
		SELECT id, slug, title, category_slug, reading_time, updated_at
		FROM documents
		WHERE status = ? AND title LIKE ? AND id != ?
		ORDER BY created_at DESC
		LIMIT ?
	`, models.StatusPublished, "%"+keyword+"%", excludeID, limit)
	if err != nil {
		return nil, fmt.Errorf("catalog: title keyword: %w", err)
	}
	defer rows.Close()
	return scanSummaries(rows)
}

// InternalLinkCounts returns the number of internal link records per
// document, in one grouped query.
func (db *DB) InternalLinkCounts(ctx context.Context) (map[string]int, error) {
	rows, err := db.conn.QueryContext(ctx, `
		SELECT document_id, COUNT(*)
		FROM link_records
		WHERE link_type = ?
		GROUP BY document_id
	`, models.LinkTypeInternal)
	if err != nil {
		return nil, fmt.Errorf("catalog: internal link counts: %w", err)
	}
	defer rows.Close()

	out := make(map[string]int)
	for rows.Next() {
		var id string
		var n int
		if err := rows.Scan(&id, &n); err != nil {
			return nil, err
		}
		out[id] = n
	}
	return out, rows.Err()
}

// ReplaceLinks rebuilds the ledger rows for a document inside one
// transaction: delete all existing rows, then insert the fresh set.
func (db *DB) ReplaceLinks(ctx context.Context, documentID string, records []models.LinkRecord) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("catalog: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	if _, err := tx.ExecContext(ctx, `DELETE FROM link_records WHERE document_id = ?`, documentID); err != nil {
		return fmt.Errorf("catalog: clear links: %w", err)
	}

	if len(records) > 0 {
		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO link_records (document_id, url, anchor_text, link_type, domain, linked_document_id, opens_new_tab, is_nofollow)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		`)
		if err != nil {
			return fmt.Errorf("catalog: prepare link insert: %w", err)
		}
		defer stmt.Close()
		for _, r := range records {
			if _, err := stmt.ExecContext(ctx, documentID, r.URL, r.AnchorText, r.LinkType,
				r.Domain, r.LinkedDocumentID, r.OpensNewTab, r.IsNofollow); err != nil {
				return fmt.Errorf("catalog: insert link: %w", err)
			}
		}
	}

	return tx.Commit()
}

// DeleteInternalLinks removes the internal ledger rows for a document.
func (db *DB) DeleteInternalLinks(ctx context.Context, documentID string) error {
	_, err := db.conn.ExecContext(ctx,
		`DELETE FROM link_records WHERE document_id = ? AND link_type = ?`,
		documentID, models.LinkTypeInternal)
	if err != nil {
		return fmt.Errorf("catalog: delete internal links: %w", err)
	}
	return nil
}

// LinkRecords returns the current ledger rows for a document.
func (db *DB) LinkRecords(ctx context.Context, documentID string) ([]models.LinkRecord, error) {
	rows, err := db.conn.QueryContext(ctx, `
		SELECT document_id, url, anchor_text, link_type, domain, linked_document_id, opens_new_tab, is_nofollow
		FROM link_records
		WHERE document_id = ?
		ORDER BY rowid
	`, documentID)
	if err != nil {
		return nil, fmt.Errorf("catalog: link records: %w", err)
	}
	defer rows.Close()

	var out []models.LinkRecord
	for rows.Next() {
		var r models.LinkRecord
		if err := rows.Scan(&r.DocumentID, &r.URL, &r.AnchorText, &r.LinkType,
			&r.Domain, &r.LinkedDocumentID, &r.OpensNewTab, &r.IsNofollow); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// IDsBySlugs resolves document IDs for a set of slugs in one query.
func (db *DB) IDsBySlugs(ctx context.Context, slugs []string) (map[string]string, error) {
	out := make(map[string]string, len(slugs))
	if len(slugs) == 0 {
		return out, nil
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(slugs)), ",")
	args := make([]any, len(slugs))
	for i, s := range slugs {
		args[i] = s
	}
	rows, err := db.conn.QueryContext(ctx,
		`SELECT slug, id FROM documents WHERE slug IN (`+placeholders+`)`, args...)
	if err != nil {
		return nil, fmt.Errorf("catalog: ids by slugs: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var slug, id string
		if err := rows.Scan(&slug, &id); err != nil {
			return nil, err
		}
		out[slug] = id
	}
	return out, rows.Err()
}

// PublishedSlugExists reports whether a published document with slug exists.
func (db *DB) PublishedSlugExists(ctx context.Context, slug string) (bool, error) {
	var one int
	err := db.conn.QueryRowContext(ctx,
		`SELECT 1 FROM documents WHERE slug = ? AND status = ?`,
		slug, models.StatusPublished).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("catalog: slug exists: %w", err)
	}
	return true, nil
}

func scanSummaries(rows *sql.Rows) ([]models.DocumentSummary, error) {
	var out []models.DocumentSummary
	for rows.Next() {
		var s models.DocumentSummary
		if err := rows.Scan(&s.ID, &s.Slug, &s.Title, &s.CategorySlug, &s.ReadingTime, &s.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
