package store

import (
	"strings"

	"github.com/arnstad/mnemo/internal/models"
)

// FilteredItems returns the items visible under the current query
// state, preserving the collection's newest-first order.
//
// An item is retained only when every active predicate matches:
// the case-insensitive substring search over title, content, and
// space-joined tags; the selected category (the favorites sentinel is
// never matched here, the caller applies the favorite predicate on
// top); the type filter; and the tag filter, which matches when the
// item carries at least one of the requested tags.
func (s *Store) FilteredItems() []models.KnowledgeItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	return filterItems(s.items, s.searchQuery, s.searchFilters, s.selectedCategory)
}

// ApplyQuery replaces the whole query state and returns the filtered
// items in the same critical section. Concurrent listings each see
// their own arguments; the last caller's state wins for subsequent
// FilteredItems reads.
func (s *Store) ApplyQuery(query string, filters models.SearchFilters, selected string) []models.KnowledgeItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.searchQuery = query
	s.searchFilters = filters
	s.selectedCategory = selected
	return filterItems(s.items, query, filters, selected)
}

// Query runs the same predicate pass against explicit arguments
// without touching the stored query state. Used by callers that must
// not disturb the interactive selection, such as the MCP tools.
func (s *Store) Query(query string, filters models.SearchFilters) []models.KnowledgeItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	return filterItems(s.items, query, filters, "")
}

func filterItems(items []models.KnowledgeItem, query string, filters models.SearchFilters, selected string) []models.KnowledgeItem {
	query = strings.ToLower(query)

	out := make([]models.KnowledgeItem, 0, len(items))
	for _, item := range items {
		if query != "" {
			haystack := strings.ToLower(item.Title + " " + item.Content + " " + strings.Join(item.Tags, " "))
			if !strings.Contains(haystack, query) {
				continue
			}
		}
		if selected != "" && selected != models.FavoritesCategory && item.Category != selected {
			continue
		}
		if filters.Type != "" && item.Type != filters.Type {
			continue
		}
		if len(filters.Tags) > 0 && !hasAnyTag(item.Tags, filters.Tags) {
			continue
		}
		out = append(out, item)
	}
	return out
}

// hasAnyTag reports whether have and want intersect (OR semantics).
func hasAnyTag(have, want []string) bool {
	for _, w := range want {
		for _, h := range have {
			if h == w {
				return true
			}
		}
	}
	return false
}
