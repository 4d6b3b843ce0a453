package api

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/arnstad/mnemo/internal/models"
	"github.com/arnstad/mnemo/internal/store"
	"github.com/arnstad/mnemo/internal/testutil"
)

// testEnv sets up a temp-file-backed store and router.
// authToken="" means disabled mode.
func testEnv(t *testing.T, authToken string) (*store.Store, http.Handler) {
	t.Helper()
	st := testutil.TestStore(t)
	router := NewRouter(st, authToken != "", authToken, nil)
	return st, router
}

func doJSON(t *testing.T, router http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatal(err)
		}
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestCreateAndGetItem(t *testing.T) {
	_, router := testEnv(t, "")

	w := doJSON(t, router, http.MethodPost, "/items", map[string]any{
		"title":    "  Go generics  ",
		"content":  "notes about type parameters",
		"type":     "note",
		"tags":     []string{"go", "generics"},
		"category": "Learning",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("create status = %d, body = %s", w.Code, w.Body.String())
	}
	var created models.KnowledgeItem
	_ = json.Unmarshal(w.Body.Bytes(), &created)
	if created.ID == "" {
		t.Fatal("expected assigned id")
	}
	if created.Title != "Go generics" {
		t.Errorf("title = %q, want trimmed", created.Title)
	}
	if !created.CreatedAt.Equal(created.UpdatedAt) {
		t.Error("fresh item should have createdAt == updatedAt")
	}
	if created.Excerpt == nil || *created.Excerpt != "notes about type parameters" {
		t.Errorf("excerpt = %v, want derived from content", created.Excerpt)
	}

	w = doJSON(t, router, http.MethodGet, "/items/"+created.ID, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("get status = %d", w.Code)
	}
	var got models.KnowledgeItem
	_ = json.Unmarshal(w.Body.Bytes(), &got)
	if got.ID != created.ID || got.Category != "Learning" {
		t.Errorf("got %+v", got)
	}
}

func TestCreateItemValidation(t *testing.T) {
	_, router := testEnv(t, "")

	// Blank title.
	w := doJSON(t, router, http.MethodPost, "/items", map[string]any{"title": "   ", "type": "note"})
	if w.Code != http.StatusBadRequest {
		t.Errorf("blank title status = %d, want 400", w.Code)
	}
	// The body carries the invalid-input sentinel plus detail.
	if !strings.Contains(w.Body.String(), "invalid input") {
		t.Errorf("blank title body = %s, want invalid input error", w.Body.String())
	}

	// Unknown type.
	w = doJSON(t, router, http.MethodPost, "/items", map[string]any{"title": "x", "type": "video"})
	if w.Code != http.StatusBadRequest {
		t.Errorf("unknown type status = %d, want 400", w.Code)
	}

	// Malformed body.
	req := httptest.NewRequest(http.MethodPost, "/items", bytes.NewReader([]byte("{nope")))
	w2 := httptest.NewRecorder()
	router.ServeHTTP(w2, req)
	if w2.Code != http.StatusBadRequest {
		t.Errorf("malformed body status = %d, want 400", w2.Code)
	}
	if !strings.Contains(w2.Body.String(), "invalid input") {
		t.Errorf("malformed body error = %s, want invalid input error", w2.Body.String())
	}
}

func TestCreateItemDedupesTags(t *testing.T) {
	_, router := testEnv(t, "")

	w := doJSON(t, router, http.MethodPost, "/items", map[string]any{
		"title": "tagged",
		"type":  "note",
		"tags":  []string{"go", "web", "go"},
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("create status = %d", w.Code)
	}
	var created models.KnowledgeItem
	_ = json.Unmarshal(w.Body.Bytes(), &created)
	if len(created.Tags) != 2 || created.Tags[0] != "go" || created.Tags[1] != "web" {
		t.Errorf("tags = %v, want [go web]", created.Tags)
	}
}

func TestLongContentExcerptTruncated(t *testing.T) {
	_, router := testEnv(t, "")

	long := make([]byte, 0, 400)
	for i := 0; i < 400; i++ {
		long = append(long, 'a')
	}
	w := doJSON(t, router, http.MethodPost, "/items", map[string]any{
		"title":   "long",
		"type":    "article",
		"content": string(long),
	})
	var created models.KnowledgeItem
	_ = json.Unmarshal(w.Body.Bytes(), &created)
	if created.Excerpt == nil || len(*created.Excerpt) != models.ExcerptLength {
		t.Errorf("excerpt length = %v, want %d", created.Excerpt, models.ExcerptLength)
	}
}

func seedItems(t *testing.T, router http.Handler) {
	t.Helper()
	for _, body := range []map[string]any{
		{"title": "My Brain Dump", "type": "note", "content": "thoughts", "tags": []string{"thinking"}, "category": "Ideas"},
		{"title": "Go docs", "type": "bookmark", "content": "useful site", "tags": []string{"go", "web"}, "category": "Research"},
		{"title": "Whiteboard photo", "type": "image", "tags": []string{"meeting"}, "category": "Research"},
	} {
		if w := doJSON(t, router, http.MethodPost, "/items", body); w.Code != http.StatusCreated {
			t.Fatalf("seed create status = %d, body = %s", w.Code, w.Body.String())
		}
	}
}

func listTitles(t *testing.T, router http.Handler, url string) []string {
	t.Helper()
	w := doJSON(t, router, http.MethodGet, url, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("list status = %d, body = %s", w.Code, w.Body.String())
	}
	var resp ItemListResponse
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	out := make([]string, len(resp.Items))
	for i, item := range resp.Items {
		out[i] = item.Title
	}
	return out
}

func TestListItemsFilters(t *testing.T) {
	_, router := testEnv(t, "")
	seedItems(t, router)

	// No filters: full collection, newest first.
	got := listTitles(t, router, "/items")
	if len(got) != 3 || got[0] != "Whiteboard photo" || got[2] != "My Brain Dump" {
		t.Errorf("unfiltered = %v", got)
	}

	// Case-insensitive substring search.
	got = listTitles(t, router, "/items?q=brain")
	if len(got) != 1 || got[0] != "My Brain Dump" {
		t.Errorf("q=brain: %v", got)
	}

	// Type filter.
	got = listTitles(t, router, "/items?type=bookmark")
	if len(got) != 1 || got[0] != "Go docs" {
		t.Errorf("type=bookmark: %v", got)
	}

	// Tag OR semantics.
	got = listTitles(t, router, "/items?tags=go,thinking")
	if len(got) != 2 {
		t.Errorf("tags=go,thinking: %v", got)
	}

	// Category.
	got = listTitles(t, router, "/items?category=Research")
	if len(got) != 2 {
		t.Errorf("category=Research: %v", got)
	}

	// Unknown type is rejected.
	w := doJSON(t, router, http.MethodGet, "/items?type=video", nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("type=video status = %d, want 400", w.Code)
	}
}

func TestListItemsConcurrentRequests(t *testing.T) {
	_, router := testEnv(t, "")
	for _, body := range []map[string]any{
		{"title": "alpha only", "type": "note"},
		{"title": "bravo only", "type": "note"},
	} {
		if w := doJSON(t, router, http.MethodPost, "/items", body); w.Code != http.StatusCreated {
			t.Fatalf("seed create status = %d", w.Code)
		}
	}

	// Simultaneous listings with different queries must each get the
	// result for their own parameters, not a response computed under
	// the other request's filter state.
	var wg sync.WaitGroup
	for _, query := range []string{"alpha", "bravo"} {
		wg.Add(1)
		go func(query string) {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				req := httptest.NewRequest(http.MethodGet, "/items?q="+query, nil)
				w := httptest.NewRecorder()
				router.ServeHTTP(w, req)
				var resp ItemListResponse
				_ = json.Unmarshal(w.Body.Bytes(), &resp)
				if len(resp.Items) != 1 || resp.Items[0].Title != query+" only" {
					t.Errorf("query %s returned %+v", query, resp.Items)
					return
				}
			}
		}(query)
	}
	wg.Wait()
}

func TestListItemsFavoritesPseudoCategory(t *testing.T) {
	st, router := testEnv(t, "")
	seedItems(t, router)

	items := st.Items()
	st.ToggleFavorite(items[1].ID)

	got := listTitles(t, router, "/items?category=favorites")
	if len(got) != 1 || got[0] != items[1].Title {
		t.Errorf("favorites = %v, want [%s]", got, items[1].Title)
	}
}

func TestUpdateItem(t *testing.T) {
	st, router := testEnv(t, "")
	seedItems(t, router)
	id := st.Items()[0].ID

	w := doJSON(t, router, http.MethodPatch, "/items/"+id, map[string]any{"title": "Renamed"})
	if w.Code != http.StatusOK {
		t.Fatalf("patch status = %d, body = %s", w.Code, w.Body.String())
	}
	var updated models.KnowledgeItem
	_ = json.Unmarshal(w.Body.Bytes(), &updated)
	if updated.Title != "Renamed" {
		t.Errorf("title = %q", updated.Title)
	}
	if updated.Type != models.TypeImage {
		t.Errorf("type changed to %q", updated.Type)
	}

	// Blank replacement title is rejected.
	w = doJSON(t, router, http.MethodPatch, "/items/"+id, map[string]any{"title": " "})
	if w.Code != http.StatusBadRequest {
		t.Errorf("blank title patch status = %d, want 400", w.Code)
	}

	// Unknown id surfaces as 404 at the HTTP edge.
	w = doJSON(t, router, http.MethodPatch, "/items/missing", map[string]any{"title": "x"})
	if w.Code != http.StatusNotFound {
		t.Errorf("missing id status = %d, want 404", w.Code)
	}
}

func TestDeleteItemIdempotent(t *testing.T) {
	st, router := testEnv(t, "")
	seedItems(t, router)
	id := st.Items()[0].ID

	for i := 0; i < 2; i++ {
		w := doJSON(t, router, http.MethodDelete, "/items/"+id, nil)
		if w.Code != http.StatusNoContent {
			t.Errorf("delete #%d status = %d, want 204", i+1, w.Code)
		}
	}
	if len(st.Items()) != 2 {
		t.Errorf("items = %d, want 2", len(st.Items()))
	}
}

func TestToggleFavoriteEndpoint(t *testing.T) {
	st, router := testEnv(t, "")
	seedItems(t, router)
	id := st.Items()[0].ID

	w := doJSON(t, router, http.MethodPost, "/items/"+id+"/favorite", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("favorite status = %d", w.Code)
	}
	var item models.KnowledgeItem
	_ = json.Unmarshal(w.Body.Bytes(), &item)
	if !item.IsFavorite {
		t.Error("expected favorite after toggle")
	}

	w = doJSON(t, router, http.MethodPost, "/items/missing/favorite", nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("missing id status = %d, want 404", w.Code)
	}
}

func TestCategoriesCRUD(t *testing.T) {
	_, router := testEnv(t, "")

	w := doJSON(t, router, http.MethodGet, "/categories", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("list status = %d", w.Code)
	}
	var cats []models.Category
	_ = json.Unmarshal(w.Body.Bytes(), &cats)
	if len(cats) != 5 {
		t.Fatalf("seed categories = %d, want 5", len(cats))
	}

	// Create.
	w = doJSON(t, router, http.MethodPost, "/categories", map[string]any{"name": "Archive", "color": "#000000", "icon": "Box"})
	if w.Code != http.StatusCreated {
		t.Fatalf("create status = %d, body = %s", w.Code, w.Body.String())
	}
	var created models.Category
	_ = json.Unmarshal(w.Body.Bytes(), &created)
	if created.ID == "" || created.Count != 0 {
		t.Errorf("created = %+v", created)
	}

	// Blank name rejected.
	w = doJSON(t, router, http.MethodPost, "/categories", map[string]any{"name": "  "})
	if w.Code != http.StatusBadRequest {
		t.Errorf("blank name status = %d, want 400", w.Code)
	}

	// Rename.
	w = doJSON(t, router, http.MethodPatch, "/categories/"+created.ID, map[string]any{"name": "Cold Storage"})
	if w.Code != http.StatusOK {
		t.Fatalf("patch status = %d", w.Code)
	}

	// Delete is idempotent like item delete.
	w = doJSON(t, router, http.MethodDelete, "/categories/"+created.ID, nil)
	if w.Code != http.StatusNoContent {
		t.Errorf("delete status = %d, want 204", w.Code)
	}
	w = doJSON(t, router, http.MethodDelete, "/categories/"+created.ID, nil)
	if w.Code != http.StatusNoContent {
		t.Errorf("second delete status = %d, want 204", w.Code)
	}
}

func TestCategoryCountsVisibleInList(t *testing.T) {
	_, router := testEnv(t, "")
	seedItems(t, router)

	w := doJSON(t, router, http.MethodGet, "/categories", nil)
	var cats []models.Category
	_ = json.Unmarshal(w.Body.Bytes(), &cats)
	counts := map[string]int{}
	for _, c := range cats {
		counts[c.Name] = c.Count
	}
	if counts["Research"] != 2 || counts["Ideas"] != 1 || counts["Learning"] != 0 {
		t.Errorf("counts = %v", counts)
	}
}

func TestStats(t *testing.T) {
	st, router := testEnv(t, "")
	seedItems(t, router)
	st.ToggleFavorite(st.Items()[0].ID)

	w := doJSON(t, router, http.MethodGet, "/stats", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("stats status = %d", w.Code)
	}
	var stats StatsResponse
	_ = json.Unmarshal(w.Body.Bytes(), &stats)
	if stats.Total != 3 || stats.Notes != 1 || stats.Bookmarks != 1 || stats.Images != 1 || stats.Favorites != 1 {
		t.Errorf("stats = %+v", stats)
	}
}

func TestAuthMiddleware(t *testing.T) {
	_, router := testEnv(t, "sekrit")

	// Missing token.
	w := doJSON(t, router, http.MethodGet, "/items", nil)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("no token status = %d, want 401", w.Code)
	}

	// Wrong token.
	req := httptest.NewRequest(http.MethodGet, "/items", nil)
	req.Header.Set("Authorization", "Bearer wrong")
	w2 := httptest.NewRecorder()
	router.ServeHTTP(w2, req)
	if w2.Code != http.StatusUnauthorized {
		t.Errorf("wrong token status = %d, want 401", w2.Code)
	}

	// Correct token.
	req = httptest.NewRequest(http.MethodGet, "/items", nil)
	req.Header.Set("Authorization", "Bearer sekrit")
	w3 := httptest.NewRecorder()
	router.ServeHTTP(w3, req)
	if w3.Code != http.StatusOK {
		t.Errorf("valid token status = %d, want 200", w3.Code)
	}
}
