package linkcheck

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/starford/gebo/internal/testutil"
	"github.com/starford/gebo/internal/urls"
)

func testBuilder(t *testing.T, pattern string) *urls.Builder {
	t.Helper()
	b, err := urls.NewBuilder(pattern)
	if err != nil {
		t.Fatal(err)
	}
	return b
}

func TestCheckInternalURLs(t *testing.T) {
	db := testutil.TestCatalog(t)
	testutil.SeedDocument(t, db, "grip", "The Golf Grip", "golf", "body")

	c := New(db, testBuilder(t, "/blog/{slug}"))
	results := c.Check(context.Background(), []string{"/blog/grip", "/blog/missing"})
	if len(results) != 2 {
		t.Fatalf("results = %d", len(results))
	}
	if !results[0].Valid {
		t.Errorf("existing slug invalid: %+v", results[0])
	}
	if results[1].Valid || results[1].Error == "" {
		t.Errorf("missing slug: %+v", results[1])
	}
}

func TestCheckInternalURLsPatternWithTrailingSegment(t *testing.T) {
	db := testutil.TestCatalog(t)
	testutil.SeedDocument(t, db, "grip", "The Golf Grip", "golf", "body")

	// The slug is not the final path segment here; resolution must go
	// through the link pattern, not a last-segment guess.
	c := New(db, testBuilder(t, "/docs/{slug}/preview"))
	results := c.Check(context.Background(), []string{"/docs/grip/preview", "/docs/missing/preview"})
	if len(results) != 2 {
		t.Fatalf("results = %d", len(results))
	}
	if !results[0].Valid {
		t.Errorf("pattern-matched slug invalid: %+v", results[0])
	}
	if results[1].Valid {
		t.Errorf("missing slug validated: %+v", results[1])
	}
}

func TestCheckExternalURLs(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodHead {
			t.Errorf("method = %s", r.Method)
		}
		if r.Header.Get("User-Agent") == "" {
			t.Error("missing user agent")
		}
		switch r.URL.Path {
		case "/ok":
			w.WriteHeader(http.StatusOK)
		case "/moved":
			w.Header().Set("Location", "/new-home")
			w.WriteHeader(http.StatusMovedPermanently)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	db := testutil.TestCatalog(t)
	c := New(db, testBuilder(t, "/blog/{slug}"))
	results := c.Check(context.Background(), []string{
		srv.URL + "/ok",
		srv.URL + "/moved",
		srv.URL + "/gone",
	})
	if len(results) != 3 {
		t.Fatalf("results = %d", len(results))
	}
	if !results[0].Valid || results[0].StatusCode != http.StatusOK {
		t.Errorf("ok = %+v", results[0])
	}
	if !results[1].Valid || results[1].RedirectsTo != "/new-home" {
		t.Errorf("moved = %+v", results[1])
	}
	if results[2].Valid || results[2].StatusCode != http.StatusNotFound {
		t.Errorf("gone = %+v", results[2])
	}
}

func TestCheckDedupesAndKeepsOrder(t *testing.T) {
	db := testutil.TestCatalog(t)
	testutil.SeedDocument(t, db, "a", "A", "", "body")
	testutil.SeedDocument(t, db, "b", "B", "", "body")

	c := New(db, testBuilder(t, "/blog/{slug}"))
	results := c.Check(context.Background(), []string{"/blog/a", "/blog/b", "/blog/a", "", "/blog/b"})
	if len(results) != 2 {
		t.Fatalf("results = %d, want 2 distinct", len(results))
	}
	if results[0].URL != "/blog/a" || results[1].URL != "/blog/b" {
		t.Errorf("order lost: %+v", results)
	}
}

func TestCheckTimeoutDoesNotFailBatch(t *testing.T) {
	slow := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(500 * time.Millisecond)
	}))
	defer slow.Close()
	fast := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer fast.Close()

	db := testutil.TestCatalog(t)
	c := New(db, testBuilder(t, "/blog/{slug}"), WithTimeout(50*time.Millisecond))
	results := c.Check(context.Background(), []string{slow.URL, fast.URL})
	if len(results) != 2 {
		t.Fatalf("results = %d", len(results))
	}
	if results[0].Valid || results[0].Error != "timeout" {
		t.Errorf("slow = %+v", results[0])
	}
	if !results[1].Valid {
		t.Errorf("fast = %+v", results[1])
	}
}

func TestCheckMalformedURL(t *testing.T) {
	db := testutil.TestCatalog(t)
	c := New(db, testBuilder(t, "/blog/{slug}"))
	results := c.Check(context.Background(), []string{"ht tp://bad url"})
	if len(results) != 1 || results[0].Valid {
		t.Fatalf("results = %+v", results)
	}
}
