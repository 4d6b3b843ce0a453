package api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/arnstad/mnemo/internal/apperr"
	"github.com/arnstad/mnemo/internal/store"
)

// ListCategories handles GET /api/categories. Counts reflect the last
// item mutation.
func (h *Handler) ListCategories(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.store.Categories())
}

// CreateCategory handles POST /api/categories.
func (h *Handler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	var req CreateCategoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, fmt.Errorf("%w: malformed JSON body", apperr.ErrInvalid))
		return
	}
	if err := req.Validate(); err != nil {
		writeError(w, fmt.Errorf("%w: %s", apperr.ErrInvalid, err))
		return
	}

	cat := h.store.AddCategory(store.CategoryDraft{
		Name:  req.Name,
		Color: req.Color,
		Icon:  req.Icon,
	})
	writeJSON(w, http.StatusCreated, cat)
}

// UpdateCategory handles PATCH /api/categories/{id}. Renaming does
// not cascade to items referencing the old name.
func (h *Handler) UpdateCategory(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	id := chi.URLParam(r, "id")

	var req UpdateCategoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, fmt.Errorf("%w: malformed JSON body", apperr.ErrInvalid))
		return
	}
	if err := req.Validate(); err != nil {
		writeError(w, fmt.Errorf("%w: %s", apperr.ErrInvalid, err))
		return
	}

	cat, ok := h.store.UpdateCategory(id, store.CategoryPatch{
		Name:  req.Name,
		Color: req.Color,
		Icon:  req.Icon,
	})
	if !ok {
		writeError(w, apperr.ErrNotFound)
		return
	}
	writeJSON(w, http.StatusOK, cat)
}

// DeleteCategory handles DELETE /api/categories/{id}. Items keep
// their now-dangling category name; no cascade.
func (h *Handler) DeleteCategory(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	h.store.DeleteCategory(id)
	w.WriteHeader(http.StatusNoContent)
}
