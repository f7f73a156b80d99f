package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/starford/gebo/internal/engine"
	"github.com/starford/gebo/internal/linkcheck"
	"github.com/starford/gebo/internal/models"
	"github.com/starford/gebo/internal/testutil"
	"github.com/starford/gebo/internal/urls"
)

// testEnv sets up a temp catalog, engine, and router for testing.
// An empty token means disabled auth mode.
func testEnv(t *testing.T, authToken string) (*Handler, http.Handler) {
	t.Helper()

	db := testutil.TestCatalog(t)
	builder, err := urls.NewBuilder("/blog/{slug}")
	if err != nil {
		t.Fatal(err)
	}
	eng := engine.New(db, nil, builder, engine.DefaultLimits())
	checker := linkcheck.New(db, builder)

	h := NewHandler(db, eng, checker, nil)
	router := NewRouter(h, authToken != "", authToken, nil)
	return h, router
}

func createDoc(t *testing.T, router http.Handler, slug, title, paragraph string) models.Document {
	t.Helper()
	body, _ := json.Marshal(map[string]any{
		"slug":   slug,
		"title":  title,
		"status": models.StatusPublished,
		"content": []map[string]any{
			{"id": slug + "-b1", "type": "paragraph", "data": map[string]string{"text": paragraph}},
		},
	})
	req := httptest.NewRequest(http.MethodPost, "/documents", bytes.NewReader(body))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusCreated {
		t.Fatalf("create status = %d, body = %s", w.Code, w.Body.String())
	}
	var doc models.Document
	if err := json.Unmarshal(w.Body.Bytes(), &doc); err != nil {
		t.Fatal(err)
	}
	return doc
}

func TestCreateAndGetDocument(t *testing.T) {
	_, router := testEnv(t, "")

	doc := createDoc(t, router, "grip", "The Golf Grip", "some body")

	req := httptest.NewRequest(http.MethodGet, "/documents/"+doc.ID, nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("get status = %d", w.Code)
	}
	var got models.Document
	_ = json.Unmarshal(w.Body.Bytes(), &got)
	if got.Slug != "grip" || got.Title != "The Golf Grip" {
		t.Errorf("got %+v", got)
	}
	if w.Header().Get("ETag") != `"`+got.Checksum+`"` {
		t.Errorf("ETag = %q", w.Header().Get("ETag"))
	}
}

func TestCreateDuplicate(t *testing.T) {
	_, router := testEnv(t, "")
	createDoc(t, router, "dup", "Dup", "body")

	body, _ := json.Marshal(map[string]any{"slug": "dup", "title": "Dup"})
	req := httptest.NewRequest(http.MethodPost, "/documents", bytes.NewReader(body))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusConflict {
		t.Errorf("duplicate create = %d, want 409", w.Code)
	}
}

func TestGetDocumentNotFound(t *testing.T) {
	_, router := testEnv(t, "")
	req := httptest.NewRequest(http.MethodGet, "/documents/missing", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
}

func TestUpdateContentWithOptimisticLocking(t *testing.T) {
	_, router := testEnv(t, "")
	doc := createDoc(t, router, "lock", "Lock", "v1")

	body, _ := json.Marshal(map[string]any{
		"content": []map[string]any{
			{"id": "lock-b1", "type": "paragraph", "data": map[string]string{"text": "v2"}},
		},
	})

	// Stale checksum conflicts.
	req := httptest.NewRequest(http.MethodPut, "/documents/"+doc.ID+"/content", bytes.NewReader(body))
	req.Header.Set("If-Match", `"not-the-checksum"`)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusConflict {
		t.Fatalf("stale update = %d, want 409", w.Code)
	}

	// Matching checksum succeeds.
	req = httptest.NewRequest(http.MethodPut, "/documents/"+doc.ID+"/content", bytes.NewReader(body))
	req.Header.Set("If-Match", doc.Checksum)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("update = %d, body = %s", w.Code, w.Body.String())
	}
	var updated models.Document
	_ = json.Unmarshal(w.Body.Bytes(), &updated)
	if updated.Checksum == doc.Checksum {
		t.Error("checksum unchanged")
	}
}

func TestQuotaEndpoint(t *testing.T) {
	_, router := testEnv(t, "")
	doc := createDoc(t, router, "self", "Self", "body")
	createDoc(t, router, "a", "A", "body")

	req := httptest.NewRequest(http.MethodGet, "/documents/"+doc.ID+"/quota", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var quota models.Quota
	_ = json.Unmarshal(w.Body.Bytes(), &quota)
	if !quota.Skip {
		t.Errorf("tiny catalog should skip: %+v", quota)
	}
}

func TestInsertionsEndpoint(t *testing.T) {
	_, router := testEnv(t, "")
	doc := createDoc(t, router, "self", "Self", "Work on your golf grip daily.")
	createDoc(t, router, "grip", "The Golf Grip", "body")

	body, _ := json.Marshal(map[string]any{
		"insertions": []map[string]any{
			{"anchor_text": "golf grip", "url": "/blog/grip"},
		},
	})
	req := httptest.NewRequest(http.MethodPost, "/documents/"+doc.ID+"/insertions", bytes.NewReader(body))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	var result engine.ApplyResult
	_ = json.Unmarshal(w.Body.Bytes(), &result)
	if len(result.Applied) != 1 {
		t.Errorf("result = %+v", result)
	}
}

func TestInsertionsEndpointEmptyBody(t *testing.T) {
	_, router := testEnv(t, "")
	doc := createDoc(t, router, "self", "Self", "body")

	req := httptest.NewRequest(http.MethodPost, "/documents/"+doc.ID+"/insertions",
		bytes.NewReader([]byte(`{"insertions": []}`)))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestRemoveInternalLinksEndpoint(t *testing.T) {
	_, router := testEnv(t, "")
	doc := createDoc(t, router, "self", "Self",
		`See <a href="/blog/grip">the grip guide</a>.`)

	req := httptest.NewRequest(http.MethodDelete, "/documents/"+doc.ID+"/internal-links", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var resp map[string]int
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if resp["removed"] != 1 {
		t.Errorf("removed = %d", resp["removed"])
	}
}

func TestNeedingLinksEndpoint(t *testing.T) {
	_, router := testEnv(t, "")
	for _, s := range []string{"a", "b", "c", "d"} {
		createDoc(t, router, s, "Doc "+s, "body")
	}

	req := httptest.NewRequest(http.MethodGet, "/needing-links?limit=10", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var resp struct {
		Documents []engine.DocumentNeed `json:"documents"`
		Total     int                   `json:"total"`
	}
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.Total != 4 {
		t.Errorf("total = %d", resp.Total)
	}
	if len(resp.Documents) != 4 {
		t.Errorf("documents = %d, want 4", len(resp.Documents))
	}
}

func TestValidateURLsEndpoint(t *testing.T) {
	_, router := testEnv(t, "")
	createDoc(t, router, "grip", "Grip", "body")

	body, _ := json.Marshal(map[string]any{"urls": []string{"/blog/grip", "/blog/missing"}})
	req := httptest.NewRequest(http.MethodPost, "/validate-urls", bytes.NewReader(body))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var resp struct {
		Results []linkcheck.Result `json:"results"`
	}
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if len(resp.Results) != 2 {
		t.Fatalf("results = %d", len(resp.Results))
	}
	if !resp.Results[0].Valid || resp.Results[1].Valid {
		t.Errorf("results = %+v", resp.Results)
	}
}

func TestAuthMiddleware(t *testing.T) {
	_, router := testEnv(t, "secret")

	req := httptest.NewRequest(http.MethodGet, "/documents", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("no token = %d, want 401", w.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/documents", nil)
	req.Header.Set("Authorization", "Bearer wrong")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("wrong token = %d, want 401", w.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/documents", nil)
	req.Header.Set("Authorization", "Bearer secret")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("valid token = %d, want 200", w.Code)
	}
}
