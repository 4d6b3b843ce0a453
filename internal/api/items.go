package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/arnstad/mnemo/internal/apperr"
	"github.com/arnstad/mnemo/internal/models"
	"github.com/arnstad/mnemo/internal/store"
)

// Handler holds API route handlers.
type Handler struct {
	store *store.Store
}

// NewHandler creates a new Handler.
func NewHandler(st *store.Store) *Handler {
	return &Handler{store: st}
}

// ListItems handles GET /api/items.
//
// Query params: q (substring search), type, tags (comma-separated,
// OR semantics), category. The params replace the store's query state
// wholesale, mirroring how the UI drives it. category=favorites is
// the pseudo-category: the favorite predicate is applied here, on top
// of the store's filter pass.
func (h *Handler) ListItems(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	itemType := q.Get("type")
	if itemType != "" && !models.ItemType(itemType).Valid() {
		writeError(w, fmt.Errorf("%w: unknown item type %q", apperr.ErrInvalid, itemType))
		return
	}

	var tags []string
	if raw := q.Get("tags"); raw != "" {
		for _, tag := range strings.Split(raw, ",") {
			if tag = strings.TrimSpace(tag); tag != "" {
				tags = append(tags, tag)
			}
		}
	}

	category := q.Get("category")

	// Replace the query state and filter in one step so concurrent
	// listings never read each other's parameters.
	items := h.store.ApplyQuery(q.Get("q"), models.SearchFilters{
		Type:     models.ItemType(itemType),
		Category: category,
		Tags:     tags,
	}, category)
	if category == models.FavoritesCategory {
		favorites := items[:0]
		for _, item := range items {
			if item.IsFavorite {
				favorites = append(favorites, item)
			}
		}
		items = favorites
	}

	writeJSON(w, http.StatusOK, ItemListResponse{Items: items, Total: len(items)})
}

// CreateItem handles POST /api/items.
func (h *Handler) CreateItem(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	var req CreateItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, fmt.Errorf("%w: malformed JSON body", apperr.ErrInvalid))
		return
	}
	if err := req.Validate(); err != nil {
		writeError(w, fmt.Errorf("%w: %s", apperr.ErrInvalid, err))
		return
	}

	item := h.store.AddItem(req.Draft())
	writeJSON(w, http.StatusCreated, item)
}

// GetItem handles GET /api/items/{id}.
func (h *Handler) GetItem(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	item, ok := h.store.GetItem(id)
	if !ok {
		writeError(w, apperr.ErrNotFound)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

// UpdateItem handles PATCH /api/items/{id}. The store treats an
// unknown id as a silent no-op; the HTTP edge surfaces it as 404.
func (h *Handler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	id := chi.URLParam(r, "id")

	var req UpdateItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, fmt.Errorf("%w: malformed JSON body", apperr.ErrInvalid))
		return
	}
	if err := req.Validate(); err != nil {
		writeError(w, fmt.Errorf("%w: %s", apperr.ErrInvalid, err))
		return
	}

	item, ok := h.store.UpdateItem(id, req.Patch())
	if !ok {
		writeError(w, apperr.ErrNotFound)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

// DeleteItem handles DELETE /api/items/{id}. Deletion is idempotent:
// an absent id still answers 204.
func (h *Handler) DeleteItem(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	h.store.DeleteItem(id)
	w.WriteHeader(http.StatusNoContent)
}

// ToggleFavorite handles POST /api/items/{id}/favorite.
func (h *Handler) ToggleFavorite(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	item, ok := h.store.ToggleFavorite(id)
	if !ok {
		writeError(w, apperr.ErrNotFound)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

// Stats handles GET /api/stats: the dashboard counters, computed from
// the live collection.
func (h *Handler) Stats(w http.ResponseWriter, _ *http.Request) {
	var stats StatsResponse
	for _, item := range h.store.Items() {
		stats.Total++
		switch item.Type {
		case models.TypeNote:
			stats.Notes++
		case models.TypeBookmark:
			stats.Bookmarks++
		case models.TypeArticle:
			stats.Articles++
		case models.TypeImage:
			stats.Images++
		}
		if item.IsFavorite {
			stats.Favorites++
		}
	}
	writeJSON(w, http.StatusOK, stats)
}
