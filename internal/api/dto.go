package api

import (
	"errors"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/arnstad/mnemo/internal/models"
	"github.com/arnstad/mnemo/internal/store"
)

// CreateItemRequest is the request body for capturing a new item.
type CreateItemRequest struct {
	Title      string   `json:"title"`
	Content    string   `json:"content"`
	Type       string   `json:"type"`
	Tags       []string `json:"tags"`
	Category   string   `json:"category"`
	URL        *string  `json:"url"`
	ImageURL   *string  `json:"imageUrl"`
	Excerpt    *string  `json:"excerpt"`
	IsFavorite bool     `json:"isFavorite"`
}

// Validate enforces the caller-side invariants the store itself does
// not check: a non-blank title and a known item type.
func (r CreateItemRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Title, validation.Required, validation.By(notBlank)),
		validation.Field(&r.Type, validation.Required, validation.In(
			string(models.TypeNote),
			string(models.TypeBookmark),
			string(models.TypeArticle),
			string(models.TypeImage),
		)),
	)
}

// Draft converts the request into a store draft: tags are deduped and
// an excerpt is derived from the content when none was supplied.
func (r CreateItemRequest) Draft() store.ItemDraft {
	excerpt := r.Excerpt
	if excerpt == nil {
		excerpt = deriveExcerpt(r.Content)
	}
	return store.ItemDraft{
		Title:      strings.TrimSpace(r.Title),
		Content:    r.Content,
		Type:       models.ItemType(r.Type),
		Tags:       dedupeTags(r.Tags),
		Category:   r.Category,
		URL:        r.URL,
		ImageURL:   r.ImageURL,
		Excerpt:    excerpt,
		IsFavorite: r.IsFavorite,
	}
}

// UpdateItemRequest is a partial item update; absent fields are left
// untouched. Type is fixed at creation and not accepted here.
type UpdateItemRequest struct {
	Title      *string   `json:"title"`
	Content    *string   `json:"content"`
	Tags       *[]string `json:"tags"`
	Category   *string   `json:"category"`
	URL        *string   `json:"url"`
	ImageURL   *string   `json:"imageUrl"`
	Excerpt    *string   `json:"excerpt"`
	IsFavorite *bool     `json:"isFavorite"`
}

// Validate rejects a present-but-blank title.
func (r UpdateItemRequest) Validate() error {
	if r.Title != nil && strings.TrimSpace(*r.Title) == "" {
		return errors.New("title: cannot be blank")
	}
	return nil
}

// Patch converts the request into a store patch, deduping replacement
// tags.
func (r UpdateItemRequest) Patch() store.ItemPatch {
	patch := store.ItemPatch{
		Title:      r.Title,
		Content:    r.Content,
		Category:   r.Category,
		URL:        r.URL,
		ImageURL:   r.ImageURL,
		Excerpt:    r.Excerpt,
		IsFavorite: r.IsFavorite,
	}
	if r.Tags != nil {
		deduped := dedupeTags(*r.Tags)
		patch.Tags = &deduped
	}
	return patch
}

// CreateCategoryRequest is the request body for adding a category.
type CreateCategoryRequest struct {
	Name  string `json:"name"`
	Color string `json:"color"`
	Icon  string `json:"icon"`
}

// Validate requires a non-blank category name.
func (r CreateCategoryRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Name, validation.Required, validation.By(notBlank)),
	)
}

// UpdateCategoryRequest is a partial category update. Count is
// derived and never accepted from the caller.
type UpdateCategoryRequest struct {
	Name  *string `json:"name"`
	Color *string `json:"color"`
	Icon  *string `json:"icon"`
}

// Validate rejects a present-but-blank name.
func (r UpdateCategoryRequest) Validate() error {
	if r.Name != nil && strings.TrimSpace(*r.Name) == "" {
		return errors.New("name: cannot be blank")
	}
	return nil
}

// ItemListResponse wraps a filtered item listing.
type ItemListResponse struct {
	Items []models.KnowledgeItem `json:"items"`
	Total int                    `json:"total"`
}

// StatsResponse carries the dashboard counters.
type StatsResponse struct {
	Total     int `json:"total"`
	Notes     int `json:"notes"`
	Bookmarks int `json:"bookmarks"`
	Articles  int `json:"articles"`
	Images    int `json:"images"`
	Favorites int `json:"favorites"`
}

func notBlank(value interface{}) error {
	s, _ := value.(string)
	if strings.TrimSpace(s) == "" {
		return errors.New("cannot be blank")
	}
	return nil
}

// dedupeTags drops duplicate tags while keeping insertion order, which
// is display-relevant.
func dedupeTags(tags []string) []string {
	seen := make(map[string]struct{}, len(tags))
	out := make([]string, 0, len(tags))
	for _, tag := range tags {
		if _, ok := seen[tag]; ok {
			continue
		}
		seen[tag] = struct{}{}
		out = append(out, tag)
	}
	return out
}

// deriveExcerpt returns the first models.ExcerptLength characters of
// the trimmed content, or nil when the content is blank.
func deriveExcerpt(content string) *string {
	trimmed := strings.TrimSpace(content)
	if trimmed == "" {
		return nil
	}
	runes := []rune(trimmed)
	if len(runes) > models.ExcerptLength {
		runes = runes[:models.ExcerptLength]
	}
	excerpt := string(runes)
	return &excerpt
}
