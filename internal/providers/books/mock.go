package books

import (
	"encoding/json"

	"curately/catalogservice/internal/domain"
	"curately/catalogservice/internal/providers/common"
)

// mockEntry is one row of the fixed fallback dataset. The author participates
// in the substring filter alongside the title.
type mockEntry struct {
	ID     string `json:"id"`
	Title  string `json:"title"`
	Author string `json:"author"`
	Year   string `json:"year"`
}

var mockEntries = []mockEntry{
	{ID: "mock-book-1", Title: "The Name of the Wind", Author: "Patrick Rothfuss", Year: "2007"},
	{ID: "mock-book-2", Title: "Kafka on the Shore", Author: "Haruki Murakami", Year: "2002"},
	{ID: "mock-book-3", Title: "Educated", Author: "Tara Westover", Year: "2018"},
	{ID: "mock-book-4", Title: "Project Hail Mary", Author: "Andy Weir", Year: "2021"},
	{ID: "mock-book-5", Title: "One Hundred Years of Solitude", Author: "Gabriel García Márquez", Year: "1967"},
}

var mockAuthors = func() map[string]string {
	byID := make(map[string]string, len(mockEntries))
	for _, entry := range mockEntries {
		byID[entry.ID] = entry.Author
	}
	return byID
}()

func mockItems() []domain.CatalogItem {
	items := make([]domain.CatalogItem, 0, len(mockEntries))
	for _, entry := range mockEntries {
		raw, _ := json.Marshal(entry)
		items = append(items, domain.CatalogItem{
			ID:          entry.ID,
			ContentType: domain.ContentTypeBook,
			ContentID:   entry.ID,
			Title:       entry.Title,
			Subtitle:    entry.Author,
			ImageURL:    common.PlaceholderImageURL,
			Provider:    "googlebooks",
			Raw:         raw,
		})
	}
	return items
}

func filterMock(query string) []domain.CatalogItem {
	return common.FilterMockItems(mockItems(), query, func(item domain.CatalogItem) []string {
		return []string{mockAuthors[item.ID]}
	})
}
