// Package store implements the Knowledge Store: the authoritative
// in-memory collections of items and categories, the active query
// state, and the mutation operations that keep derived category
// counts and the persisted snapshot in step.
package store

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/arnstad/mnemo/internal/models"
	"github.com/arnstad/mnemo/internal/snapshot"
)

// EventCallback is invoked after every successful mutation. kind is
// one of "item_created", "item_updated", "item_deleted",
// "favorite_toggled", "category_created", "category_updated",
// "category_deleted"; id is the affected entity id.
type EventCallback func(kind, id string)

// Store holds all application state. Construct with New; the zero
// value is not usable.
//
// Every operation is a single atomic transition guarded by mu, so a
// reader always observes either the pre- or post-mutation snapshot,
// never an interleaving. Mutations write the full state through to
// the snapshot provider before returning; a failed write-through is
// logged and never rolled back.
type Store struct {
	mu sync.Mutex

	items      []models.KnowledgeItem
	categories []models.Category

	searchQuery      string
	searchFilters    models.SearchFilters
	selectedCategory string // empty means no category selected

	provider snapshot.Provider
	logger   *slog.Logger
	notify   EventCallback

	now   func() time.Time
	newID func() string
}

// Option is a functional option for configuring a Store.
type Option func(*Store)

// WithClock overrides the timestamp source. Intended for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

// WithIDSource overrides id generation. Intended for tests.
func WithIDSource(newID func() string) Option {
	return func(s *Store) {
		s.newID = newID
	}
}

// WithEventCallback sets the post-mutation notification hook.
func WithEventCallback(cb EventCallback) Option {
	return func(s *Store) {
		s.notify = cb
	}
}

// New creates a Store backed by the given snapshot provider. Call
// Load before using it.
func New(provider snapshot.Provider, logger *slog.Logger, opts ...Option) *Store {
	s := &Store{
		provider: provider,
		logger:   logger,
		now:      time.Now,
		newID:    uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load initializes the collections from the snapshot provider. When
// no snapshot exists yet, the default seed categories and an empty
// item list are used.
func (s *Store) Load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap, ok, err := s.provider.Load()
	if err != nil {
		return fmt.Errorf("store: load snapshot: %w", err)
	}
	if !ok {
		s.items = nil
		s.categories = models.DefaultCategories()
	} else {
		s.items = snap.Items
		s.categories = snap.Categories
	}
	s.recomputeCountsLocked()
	return nil
}

// ItemDraft is the caller-supplied part of a new item: everything but
// the id and timestamps, which the store assigns. Title validation
// and tag de-duplication are the caller's concern.
type ItemDraft struct {
	Title      string
	Content    string
	Type       models.ItemType
	Tags       []string
	Category   string
	URL        *string
	ImageURL   *string
	Excerpt    *string
	IsFavorite bool
}

// ItemPatch is a partial update: nil fields are left untouched. An
// item's type is fixed at creation and deliberately absent here.
type ItemPatch struct {
	Title      *string
	Content    *string
	Tags       *[]string
	Category   *string
	URL        *string
	ImageURL   *string
	Excerpt    *string
	IsFavorite *bool
}

// CategoryDraft is the caller-supplied part of a new category.
type CategoryDraft struct {
	Name  string
	Color string
	Icon  string
}

// CategoryPatch is a partial category update; nil fields are left
// untouched. Count is derived and never settable.
type CategoryPatch struct {
	Name  *string
	Color *string
	Icon  *string
}

// AddItem assigns a fresh id, stamps both timestamps, and prepends
// the item so the collection stays newest-first.
func (s *Store) AddItem(draft ItemDraft) models.KnowledgeItem {
	s.mu.Lock()

	now := s.now()
	item := models.KnowledgeItem{
		ID:         s.newID(),
		Title:      draft.Title,
		Content:    draft.Content,
		Type:       draft.Type,
		Tags:       nonNil(draft.Tags),
		Category:   draft.Category,
		CreatedAt:  now,
		UpdatedAt:  now,
		URL:        draft.URL,
		ImageURL:   draft.ImageURL,
		Excerpt:    draft.Excerpt,
		IsFavorite: draft.IsFavorite,
	}

	s.items = append([]models.KnowledgeItem{item}, s.items...)
	s.recomputeCountsLocked()
	s.persistLocked()
	s.mu.Unlock()

	s.emit("item_created", item.ID)
	return item
}

// UpdateItem applies the patch to the matching item and stamps its
// UpdatedAt. Order is unchanged and no other item is touched. An
// unknown id is a silent no-op, reported through the second return
// value only.
func (s *Store) UpdateItem(id string, patch ItemPatch) (models.KnowledgeItem, bool) {
	s.mu.Lock()

	idx := s.indexOfItemLocked(id)
	if idx < 0 {
		s.mu.Unlock()
		return models.KnowledgeItem{}, false
	}

	item := &s.items[idx]
	if patch.Title != nil {
		item.Title = *patch.Title
	}
	if patch.Content != nil {
		item.Content = *patch.Content
	}
	if patch.Tags != nil {
		item.Tags = nonNil(*patch.Tags)
	}
	if patch.Category != nil {
		item.Category = *patch.Category
	}
	if patch.URL != nil {
		item.URL = patch.URL
	}
	if patch.ImageURL != nil {
		item.ImageURL = patch.ImageURL
	}
	if patch.Excerpt != nil {
		item.Excerpt = patch.Excerpt
	}
	if patch.IsFavorite != nil {
		item.IsFavorite = *patch.IsFavorite
	}
	item.UpdatedAt = s.now()
	updated := *item

	s.recomputeCountsLocked()
	s.persistLocked()
	s.mu.Unlock()

	s.emit("item_updated", id)
	return updated, true
}

// DeleteItem removes the matching item. Deleting an absent id is an
// idempotent no-op.
func (s *Store) DeleteItem(id string) bool {
	s.mu.Lock()

	idx := s.indexOfItemLocked(id)
	if idx < 0 {
		s.mu.Unlock()
		return false
	}

	s.items = append(s.items[:idx], s.items[idx+1:]...)
	s.recomputeCountsLocked()
	s.persistLocked()
	s.mu.Unlock()

	s.emit("item_deleted", id)
	return true
}

// ToggleFavorite flips the favorite flag and stamps UpdatedAt.
// Favorite status does not affect category counts, so none are
// recomputed.
func (s *Store) ToggleFavorite(id string) (models.KnowledgeItem, bool) {
	s.mu.Lock()

	idx := s.indexOfItemLocked(id)
	if idx < 0 {
		s.mu.Unlock()
		return models.KnowledgeItem{}, false
	}

	item := &s.items[idx]
	item.IsFavorite = !item.IsFavorite
	item.UpdatedAt = s.now()
	updated := *item

	s.persistLocked()
	s.mu.Unlock()

	s.emit("favorite_toggled", id)
	return updated, true
}

// GetItem returns the item with the given id.
func (s *Store) GetItem(id string) (models.KnowledgeItem, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexOfItemLocked(id)
	if idx < 0 {
		return models.KnowledgeItem{}, false
	}
	return s.items[idx], true
}

// AddCategory appends a new category with a fresh id and a zero
// count. The count stays zero until the next item mutation recomputes
// it.
func (s *Store) AddCategory(draft CategoryDraft) models.Category {
	s.mu.Lock()

	cat := models.Category{
		ID:    s.newID(),
		Name:  draft.Name,
		Color: draft.Color,
		Icon:  draft.Icon,
	}
	s.categories = append(s.categories, cat)
	s.persistLocked()
	s.mu.Unlock()

	s.emit("category_created", cat.ID)
	return cat
}

// UpdateCategory applies the patch to the matching category. Renaming
// does not cascade to items referencing the old name; they keep their
// now-dangling category string.
func (s *Store) UpdateCategory(id string, patch CategoryPatch) (models.Category, bool) {
	s.mu.Lock()

	idx := s.indexOfCategoryLocked(id)
	if idx < 0 {
		s.mu.Unlock()
		return models.Category{}, false
	}

	cat := &s.categories[idx]
	if patch.Name != nil {
		cat.Name = *patch.Name
	}
	if patch.Color != nil {
		cat.Color = *patch.Color
	}
	if patch.Icon != nil {
		cat.Icon = *patch.Icon
	}
	updated := *cat

	s.persistLocked()
	s.mu.Unlock()

	s.emit("category_updated", id)
	return updated, true
}

// DeleteCategory removes the matching category. Items referencing it
// by name are left untouched; the dangling reference is accepted
// behavior.
func (s *Store) DeleteCategory(id string) bool {
	s.mu.Lock()

	idx := s.indexOfCategoryLocked(id)
	if idx < 0 {
		s.mu.Unlock()
		return false
	}

	s.categories = append(s.categories[:idx], s.categories[idx+1:]...)
	s.persistLocked()
	s.mu.Unlock()

	s.emit("category_deleted", id)
	return true
}

// SetSearchQuery replaces the free-text query. Empty means no text
// filter.
func (s *Store) SetSearchQuery(query string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.searchQuery = query
}

// SetSearchFilters replaces the structured filters wholesale; passing
// a zero value clears them all.
func (s *Store) SetSearchFilters(filters models.SearchFilters) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.searchFilters = filters
}

// SetSelectedCategory replaces the selected category. Empty clears
// the selection; models.FavoritesCategory selects the favorites
// pseudo-category.
func (s *Store) SetSelectedCategory(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selectedCategory = name
}

// SelectedCategory returns the current category selection.
func (s *Store) SelectedCategory() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selectedCategory
}

// Items returns a copy of the item collection in newest-first order.
func (s *Store) Items() []models.KnowledgeItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.KnowledgeItem(nil), s.items...)
}

// Categories returns a copy of the category collection with current
// derived counts.
func (s *Store) Categories() []models.Category {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.Category(nil), s.categories...)
}

// recomputeCountsLocked sets every category's count to the number of
// items whose category field equals its name (case-sensitive). Linear
// in items × categories, which is fine at this scale.
func (s *Store) recomputeCountsLocked() {
	for i := range s.categories {
		n := 0
		for _, item := range s.items {
			if item.Category == s.categories[i].Name {
				n++
			}
		}
		s.categories[i].Count = n
	}
}

// persistLocked writes the full state through to the snapshot
// provider. The in-memory mutation is already committed at this
// point; a failed save is logged, not returned and not rolled back.
func (s *Store) persistLocked() {
	snap := &snapshot.Snapshot{
		Items:      append([]models.KnowledgeItem(nil), s.items...),
		Categories: append([]models.Category(nil), s.categories...),
	}
	if err := s.provider.Save(snap); err != nil {
		s.logger.Warn("snapshot save failed", slog.String("error", err.Error()))
	}
}

func (s *Store) indexOfItemLocked(id string) int {
	for i := range s.items {
		if s.items[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) indexOfCategoryLocked(id string) int {
	for i := range s.categories {
		if s.categories[i].ID == id {
			return i
		}
	}
	return -1
}

// emit runs outside the store lock so callbacks may call back into
// the store.
func (s *Store) emit(kind, id string) {
	if s.notify != nil {
		s.notify(kind, id)
	}
}

func nonNil(tags []string) []string {
	if tags == nil {
		return []string{}
	}
	return tags
}
