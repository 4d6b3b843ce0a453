// Package models defines the domain types for Mnemo.
package models

import "time"

// ItemType classifies a knowledge item.
type ItemType string

// The closed set of item types. Fixed at creation; no operation
// changes an item's type afterwards.
const (
	TypeNote     ItemType = "note"
	TypeBookmark ItemType = "bookmark"
	TypeArticle  ItemType = "article"
	TypeImage    ItemType = "image"
)

// Valid reports whether t is one of the known item types.
func (t ItemType) Valid() bool {
	switch t {
	case TypeNote, TypeBookmark, TypeArticle, TypeImage:
		return true
	}
	return false
}

// FavoritesCategory is the selection sentinel meaning "show only
// favorited items". It is a pseudo-category, not a Category entity:
// the store's filter pass ignores it and the caller applies the
// favorite predicate on top.
const FavoritesCategory = "favorites"

// ExcerptLength is the number of characters kept when an excerpt is
// derived from item content.
const ExcerptLength = 150

// KnowledgeItem is a single captured piece of content.
//
// Category is a loose reference to a Category by name, not an enforced
// foreign key; dangling references are tolerated. URL, ImageURL and
// Excerpt are pointers so that "absent" stays distinguishable from
// "present but empty".
type KnowledgeItem struct {
	ID         string    `json:"id"`
	Title      string    `json:"title"`
	Content    string    `json:"content"`
	Type       ItemType  `json:"type"`
	Tags       []string  `json:"tags"`
	Category   string    `json:"category"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
	URL        *string   `json:"url,omitempty"`
	ImageURL   *string   `json:"imageUrl,omitempty"`
	Excerpt    *string   `json:"excerpt,omitempty"`
	IsFavorite bool      `json:"isFavorite"`
}

// Category is a named grouping with display metadata. Count is
// derived: the number of items whose Category equals Name. It is never
// set directly; the store recomputes it after item mutations.
type Category struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color"`
	Icon  string `json:"icon"`
	Count int    `json:"count"`
}

// DateRange bounds a search by item creation time.
type DateRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// SearchFilters is the structured part of the query state. Only Type
// and Tags are consulted by the filter pass; Category and DateRange
// are carried through for the API surface.
type SearchFilters struct {
	Type      ItemType   `json:"type,omitempty"`
	Category  string     `json:"category,omitempty"`
	Tags      []string   `json:"tags,omitempty"`
	DateRange *DateRange `json:"dateRange,omitempty"`
}

// DefaultCategories returns the seed categories created when no
// snapshot exists yet.
func DefaultCategories() []Category {
	return []Category{
		{ID: "1", Name: "Learning", Color: "#8B5CF6", Icon: "Brain"},
		{ID: "2", Name: "Research", Color: "#10B981", Icon: "Search"},
		{ID: "3", Name: "Ideas", Color: "#F59E0B", Icon: "Lightbulb"},
		{ID: "4", Name: "Resources", Color: "#EF4444", Icon: "Bookmark"},
		{ID: "5", Name: "Projects", Color: "#3B82F6", Icon: "FolderOpen"},
	}
}
