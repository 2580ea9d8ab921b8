package search

import (
	"sort"
	"strings"

	"curately/catalogservice/internal/domain"
)

// categoryTable is the closed routing table: which content types land in a
// category's bucket and how the category is presented. Provider routing is
// derived from each adapter's Info().Categories, so registering a new adapter
// never requires touching this table unless it introduces a new category.
var categoryTable = []struct {
	meta  domain.CategoryMeta
	types []domain.ContentType
}{
	{
		meta:  domain.CategoryMeta{Key: domain.CategoryPlaces, Label: "Places", Icon: "map-pin", Color: "#2E8B57"},
		types: []domain.ContentType{domain.ContentTypePlace},
	},
	{
		meta:  domain.CategoryMeta{Key: domain.CategoryMovies, Label: "Movies", Icon: "film", Color: "#B8860B"},
		types: []domain.ContentType{domain.ContentTypeMovie},
	},
	{
		meta:  domain.CategoryMeta{Key: domain.CategoryTVShows, Label: "TV Shows", Icon: "tv", Color: "#6A5ACD"},
		types: []domain.ContentType{domain.ContentTypeTV},
	},
	{
		meta:  domain.CategoryMeta{Key: domain.CategoryBooks, Label: "Books", Icon: "book-open", Color: "#8B4513"},
		types: []domain.ContentType{domain.ContentTypeBook},
	},
	{
		meta:  domain.CategoryMeta{Key: domain.CategoryGames, Label: "Games", Icon: "gamepad", Color: "#483D8B"},
		types: []domain.ContentType{domain.ContentTypeGame},
	},
	{
		meta:  domain.CategoryMeta{Key: domain.CategoryVideos, Label: "Videos", Icon: "play-circle", Color: "#B22222"},
		types: []domain.ContentType{domain.ContentTypeVideo},
	},
	{
		meta:  domain.CategoryMeta{Key: domain.CategoryPeople, Label: "People", Icon: "user", Color: "#4682B4"},
		types: []domain.ContentType{domain.ContentTypePerson},
	},
	{
		meta:  domain.CategoryMeta{Key: domain.CategoryUsers, Label: "Members", Icon: "users", Color: "#20B2AA"},
		types: []domain.ContentType{domain.ContentTypeUser},
	},
}

// Categories returns the display metadata for every routable category, in
// table order.
func (s *Service) Categories() []domain.CategoryMeta {
	items := make([]domain.CategoryMeta, 0, len(categoryTable))
	for _, entry := range categoryTable {
		items = append(items, entry.meta)
	}
	return items
}

// CategoryMetaFor resolves display metadata for a raw category key. Unknown
// keys get a generic entry derived from the key itself; this never fails so a
// newer client with categories this build does not know still renders.
func CategoryMetaFor(raw string) domain.CategoryMeta {
	key := domain.NormalizeCategory(raw)
	for _, entry := range categoryTable {
		if entry.meta.Key == key {
			return entry.meta
		}
	}
	label := strings.TrimSpace(strings.ReplaceAll(string(key), "_", " "))
	if label == "" {
		label = "Unknown"
	}
	return domain.CategoryMeta{
		Key:   key,
		Label: titleCase(label),
		Icon:  "tag",
		Color: "#808080",
	}
}

func titleCase(value string) string {
	words := strings.Fields(value)
	for i, word := range words {
		words[i] = strings.ToUpper(word[:1]) + word[1:]
	}
	return strings.Join(words, " ")
}

func contentTypesFor(key domain.CategoryKey) []domain.ContentType {
	for _, entry := range categoryTable {
		if entry.meta.Key == key {
			return entry.types
		}
	}
	return nil
}

// providersFor returns the adapters routed for a category, derived from each
// adapter's advertised categories, in registration order.
func (s *Service) providersFor(key domain.CategoryKey) []Provider {
	selected := make([]Provider, 0, len(s.order))
	for _, name := range s.order {
		provider := s.providers[name]
		for _, category := range provider.Info().Categories {
			if category == key {
				selected = append(selected, provider)
				break
			}
		}
	}
	return selected
}

// generalProviders returns the adapters that participate in the aggregate
// pass: everything except adapters that serve only the videos category, which
// is reachable solely through category search and URL lookup.
func (s *Service) generalProviders() []Provider {
	selected := make([]Provider, 0, len(s.order))
	for _, name := range s.order {
		provider := s.providers[name]
		categories := provider.Info().Categories
		videosOnly := len(categories) > 0
		for _, category := range categories {
			if category != domain.CategoryVideos {
				videosOnly = false
				break
			}
		}
		if videosOnly {
			continue
		}
		selected = append(selected, provider)
	}
	return selected
}

// sortedProviderNames is used for cache keys.
func providerNames(providers []Provider) []string {
	names := make([]string, 0, len(providers))
	for _, provider := range providers {
		names = append(names, strings.ToLower(strings.TrimSpace(provider.Name())))
	}
	sort.Strings(names)
	return names
}
