package places

import (
	"encoding/json"

	"curately/catalogservice/internal/domain"
	"curately/catalogservice/internal/providers/common"
)

// mockEntry is one row of the fixed fallback dataset. City and country
// participate in the substring filter alongside the place name.
type mockEntry struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Address string `json:"address"`
	City    string `json:"city"`
	Country string `json:"country"`
}

var mockEntries = []mockEntry{
	{ID: "mock-place-1", Name: "Central Park", Address: "New York, NY 10024", City: "New York", Country: "United States"},
	{ID: "mock-place-2", Name: "Eiffel Tower", Address: "Champ de Mars, 5 Av. Anatole France", City: "Paris", Country: "France"},
	{ID: "mock-place-3", Name: "Shibuya Crossing", Address: "2-2-1 Dogenzaka, Shibuya", City: "Tokyo", Country: "Japan"},
	{ID: "mock-place-4", Name: "Blue Bottle Coffee", Address: "300 Webster St, Oakland, CA", City: "Oakland", Country: "United States"},
	{ID: "mock-place-5", Name: "La Sagrada Familia", Address: "C/ de Mallorca, 401", City: "Barcelona", Country: "Spain"},
	{ID: "mock-place-6", Name: "Borough Market", Address: "8 Southwark St", City: "London", Country: "United Kingdom"},
	{ID: "mock-place-7", Name: "Golden Gate Bridge", Address: "Golden Gate Brg", City: "San Francisco", Country: "United States"},
	{ID: "mock-place-8", Name: "Cafe Tortoni", Address: "Av. de Mayo 825", City: "Buenos Aires", Country: "Argentina"},
}

var mockCities = func() map[string][]string {
	byID := make(map[string][]string, len(mockEntries))
	for _, entry := range mockEntries {
		byID[entry.ID] = []string{entry.City, entry.Country}
	}
	return byID
}()

func mockItems() []domain.CatalogItem {
	items := make([]domain.CatalogItem, 0, len(mockEntries))
	for _, entry := range mockEntries {
		raw, _ := json.Marshal(entry)
		items = append(items, domain.CatalogItem{
			ID:          entry.ID,
			ContentType: domain.ContentTypePlace,
			ContentID:   entry.ID,
			Title:       entry.Name,
			Subtitle:    common.JoinNonEmpty(", ", entry.City, entry.Country),
			ImageURL:    common.PlaceholderImageURL,
			Provider:    "geoapify",
			Raw:         raw,
		})
	}
	return items
}

func filterMock(query string) []domain.CatalogItem {
	return common.FilterMockItems(mockItems(), query, func(item domain.CatalogItem) []string {
		return mockCities[item.ID]
	})
}
