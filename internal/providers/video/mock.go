package video

import (
	"encoding/json"

	"curately/catalogservice/internal/domain"
	"curately/catalogservice/internal/providers/common"
)

// mockEntry is one row of the fixed fallback dataset. The channel name
// participates in the substring filter alongside the video title.
type mockEntry struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	Channel string `json:"channel"`
}

var mockEntries = []mockEntry{
	{ID: "dQw4w9WgXcQ", Title: "Never Gonna Give You Up", Channel: "Rick Astley"},
	{ID: "9bZkp7q19f0", Title: "Gangnam Style", Channel: "officialpsy"},
	{ID: "jNQXAC9IVRw", Title: "Me at the zoo", Channel: "jawed"},
	{ID: "kXYiU_JCYtU", Title: "Numb", Channel: "Linkin Park"},
	{ID: "hY7m5jjJ9mM", Title: "CATS will make you LAUGH", Channel: "Tiger Funnies"},
	{ID: "fJ9rUzIMcZQ", Title: "Bohemian Rhapsody", Channel: "Queen Official"},
}

var mockChannels = func() map[string]string {
	byID := make(map[string]string, len(mockEntries))
	for _, entry := range mockEntries {
		byID[entry.ID] = entry.Channel
	}
	return byID
}()

func mockItems() []domain.CatalogItem {
	items := make([]domain.CatalogItem, 0, len(mockEntries))
	for _, entry := range mockEntries {
		raw, _ := json.Marshal(entry)
		items = append(items, domain.CatalogItem{
			ID:          entry.ID,
			ContentType: domain.ContentTypeVideo,
			ContentID:   entry.ID,
			Title:       entry.Title,
			Subtitle:    entry.Channel,
			ImageURL:    thumbnailURL(entry.ID),
			Provider:    "youtube",
			Raw:         raw,
		})
	}
	return items
}

func filterMock(query string) []domain.CatalogItem {
	return common.FilterMockItems(mockItems(), query, func(item domain.CatalogItem) []string {
		return []string{mockChannels[item.ID]}
	})
}
