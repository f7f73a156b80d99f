package engine

import (
	"context"
	"fmt"
	"testing"

	"github.com/starford/gebo/internal/models"
	"github.com/starford/gebo/internal/testutil"
)

func TestWordBased(t *testing.T) {
	cases := []struct {
		words, want int
	}{
		{0, 2},
		{500, 2},
		{667, 2},
		{1000, 3},
		{1600, 4},
		{3000, 9},
	}
	for _, tc := range cases {
		if got := wordBased(tc.words); got != tc.want {
			t.Errorf("wordBased(%d) = %d, want %d", tc.words, got, tc.want)
		}
	}
}

func TestWordBasedMonotonic(t *testing.T) {
	prev := 0
	for words := 0; words <= 5000; words += 100 {
		got := wordBased(words)
		if got < prev {
			t.Fatalf("wordBased(%d) = %d < previous %d", words, got, prev)
		}
		prev = got
	}
}

func TestCatalogCap(t *testing.T) {
	cases := []struct {
		size, want int
	}{
		{3, 1},
		{4, 1},
		{5, 2},
		{14, 2},
		{15, 3},
		{29, 3},
		{30, 4},
		{49, 4},
		{50, 6},
		{200, 6},
	}
	for _, tc := range cases {
		if got := catalogCap(tc.size); got != tc.want {
			t.Errorf("catalogCap(%d) = %d, want %d", tc.size, got, tc.want)
		}
	}
}

func TestQuotaSmallCatalog(t *testing.T) {
	e, db := newTestEngine(t, nil)
	ctx := context.Background()

	doc := testutil.SeedDocument(t, db, "self", "Self", "", "body")
	testutil.SeedDocument(t, db, "one", "One", "", "body")
	testutil.SeedDocument(t, db, "two", "Two", "", "body")

	quota, err := e.Quota(ctx, doc.ID)
	if err != nil {
		t.Fatal(err)
	}
	if !quota.Skip {
		t.Fatal("catalog of 2 others should skip")
	}
	if quota.Reason != "catalog too small (2 documents)" {
		t.Errorf("reason = %q", quota.Reason)
	}
	if quota.Recommended != 0 || quota.Deficit != 0 {
		t.Errorf("quota = %+v", quota)
	}
}

func TestQuotaLargeCatalog(t *testing.T) {
	e, db := newTestEngine(t, nil)
	ctx := context.Background()

	// 8 minutes of reading is 1600 words: word-based recommendation 4,
	// and a catalog of 40 others allows exactly 4.
	doc := &models.Document{
		Slug: "self", Title: "Self", Status: models.StatusPublished, ReadingTime: 8,
	}
	if err := db.CreateDocument(ctx, doc); err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 40; i++ {
		testutil.SeedDocument(t, db, fmt.Sprintf("doc-%d", i), fmt.Sprintf("Doc %d", i), "", "body")
	}

	quota, err := e.Quota(ctx, doc.ID)
	if err != nil {
		t.Fatal(err)
	}
	if quota.Skip {
		t.Fatalf("should not skip: %+v", quota)
	}
	if quota.Recommended != 4 {
		t.Errorf("recommended = %d, want 4", quota.Recommended)
	}
	if quota.Deficit != 4 {
		t.Errorf("deficit = %d, want 4", quota.Deficit)
	}
}

func TestQuotaCapsAtCatalogSize(t *testing.T) {
	e, db := newTestEngine(t, nil)
	ctx := context.Background()

	// 3000 words would recommend 9, but 4 other documents cap it at 1.
	doc := &models.Document{
		Slug: "self", Title: "Self", Status: models.StatusPublished, ReadingTime: 15,
	}
	if err := db.CreateDocument(ctx, doc); err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 4; i++ {
		testutil.SeedDocument(t, db, fmt.Sprintf("doc-%d", i), fmt.Sprintf("Doc %d", i), "", "body")
	}

	quota, err := e.Quota(ctx, doc.ID)
	if err != nil {
		t.Fatal(err)
	}
	if quota.Recommended != 1 {
		t.Errorf("recommended = %d, want 1 (catalog cap)", quota.Recommended)
	}
}

func TestQuotaCountsExistingInternalLinks(t *testing.T) {
	e, db := newTestEngine(t, nil)
	ctx := context.Background()

	doc := testutil.SeedDocument(t, db, "self", "Self", "", "body")
	for i := 0; i < 10; i++ {
		testutil.SeedDocument(t, db, fmt.Sprintf("doc-%d", i), fmt.Sprintf("Doc %d", i), "", "body")
	}

	// Two internal and one external; only internal count against the quota.
	err := db.ReplaceLinks(ctx, doc.ID, []models.LinkRecord{
		{DocumentID: doc.ID, URL: "/blog/doc-0", AnchorText: "a", LinkType: models.LinkTypeInternal},
		{DocumentID: doc.ID, URL: "/blog/doc-1", AnchorText: "b", LinkType: models.LinkTypeInternal},
		{DocumentID: doc.ID, URL: "https://x.com", AnchorText: "c", LinkType: models.LinkTypeExternal},
	})
	if err != nil {
		t.Fatal(err)
	}

	quota, err := e.Quota(ctx, doc.ID)
	if err != nil {
		t.Fatal(err)
	}
	if quota.Current != 2 {
		t.Errorf("current = %d, want 2", quota.Current)
	}
	// Catalog of 10 others caps recommendation at 2: fully satisfied.
	if quota.Recommended != 2 || quota.Deficit != 0 {
		t.Errorf("quota = %+v", quota)
	}
}

func TestDocumentsNeedingLinks(t *testing.T) {
	e, db := newTestEngine(t, nil)
	ctx := context.Background()

	var ids []string
	for i := 0; i < 6; i++ {
		d := testutil.SeedDocument(t, db, fmt.Sprintf("doc-%d", i), fmt.Sprintf("Doc %d", i), "", "body")
		ids = append(ids, d.ID)
	}

	// Satisfy one document fully; the rest keep their full deficit.
	err := db.ReplaceLinks(ctx, ids[0], []models.LinkRecord{
		{DocumentID: ids[0], URL: "/blog/doc-1", AnchorText: "a", LinkType: models.LinkTypeInternal},
		{DocumentID: ids[0], URL: "/blog/doc-2", AnchorText: "b", LinkType: models.LinkTypeInternal},
	})
	if err != nil {
		t.Fatal(err)
	}

	needs, total, err := e.DocumentsNeedingLinks(ctx, 10)
	if err != nil {
		t.Fatal(err)
	}
	if total != 6 {
		t.Errorf("total = %d, want 6", total)
	}
	// Catalog size 5 per document caps recommendation at 2.
	if len(needs) != 5 {
		t.Fatalf("needs = %d, want 5 (satisfied document excluded)", len(needs))
	}
	for _, n := range needs {
		if n.ID == ids[0] {
			t.Error("satisfied document listed")
		}
		if n.Deficit != 2 {
			t.Errorf("deficit = %d, want 2", n.Deficit)
		}
	}
}

func TestDocumentsNeedingLinksSmallCatalog(t *testing.T) {
	e, db := newTestEngine(t, nil)

	testutil.SeedDocument(t, db, "a", "A", "", "body")
	testutil.SeedDocument(t, db, "b", "B", "", "body")

	needs, total, err := e.DocumentsNeedingLinks(context.Background(), 10)
	if err != nil {
		t.Fatal(err)
	}
	if total != 2 {
		t.Errorf("total = %d", total)
	}
	if len(needs) != 0 {
		t.Errorf("needs = %d, want 0 for a 2-document catalog", len(needs))
	}
}
