package tmdb

import (
	"encoding/json"

	"curately/catalogservice/internal/domain"
	"curately/catalogservice/internal/providers/common"
)

// mockEntry is one row of the fixed fallback dataset served when no API key
// is configured or the live call fails. Overview participates in the
// substring filter alongside the title.
type mockEntry struct {
	ID       string             `json:"id"`
	Type     domain.ContentType `json:"type"`
	Title    string             `json:"title"`
	Subtitle string             `json:"subtitle"`
	Overview string             `json:"overview"`
	Image    string             `json:"image"`
}

var mockEntries = []mockEntry{
	{
		ID: "27205", Type: domain.ContentTypeMovie, Title: "Inception", Subtitle: "2010",
		Overview: "A thief who steals corporate secrets through dream-sharing technology is given the inverse task of planting an idea.",
		Image:    "https://image.tmdb.org/t/p/w500/oYuLEt3zVCKq57qu2F8dT7NIa6f.jpg",
	},
	{
		ID: "603", Type: domain.ContentTypeMovie, Title: "The Matrix", Subtitle: "1999",
		Overview: "A computer hacker learns about the true nature of reality and his role in the war against its controllers.",
		Image:    "https://image.tmdb.org/t/p/w500/f89U3ADr1oiB1s9GkdPOEpXUk5H.jpg",
	},
	{
		ID: "424", Type: domain.ContentTypeMovie, Title: "Schindler's List", Subtitle: "1993",
		Overview: "The true story of how businessman Oskar Schindler saved over a thousand Jewish lives during the Holocaust.",
		Image:    "https://image.tmdb.org/t/p/w500/sF1U4EUQS8YHUYjNl3pMGNIQyr0.jpg",
	},
	{
		ID: "496243", Type: domain.ContentTypeMovie, Title: "Parasite", Subtitle: "2019",
		Overview: "All unemployed, Ki-taek's family takes peculiar interest in the wealthy and glamorous Parks.",
		Image:    "https://image.tmdb.org/t/p/w500/7IiTTgloJzvGI1TAYymCfbfl3vT.jpg",
	},
	{
		ID: "1396", Type: domain.ContentTypeTV, Title: "Breaking Bad", Subtitle: "2008",
		Overview: "A chemistry teacher diagnosed with inoperable lung cancer turns to manufacturing methamphetamine.",
		Image:    "https://image.tmdb.org/t/p/w500/ggFHVNu6YYI5L9pCfOacjizRGt.jpg",
	},
	{
		ID: "1399", Type: domain.ContentTypeTV, Title: "Game of Thrones", Subtitle: "2011",
		Overview: "Seven noble families fight for control of the mythical land of Westeros.",
		Image:    "https://image.tmdb.org/t/p/w500/1XS1oqL89opfnbLl8WnZY1O1uJx.jpg",
	},
	{
		ID: "66732", Type: domain.ContentTypeTV, Title: "Stranger Things", Subtitle: "2016",
		Overview: "When a young boy vanishes, a small town uncovers a mystery involving secret experiments and supernatural forces.",
		Image:    "https://image.tmdb.org/t/p/w500/49WJfeN0moxb9IPfGn8AIqMGskD.jpg",
	},
	{
		ID: "525", Type: domain.ContentTypePerson, Title: "Christopher Nolan", Subtitle: "Directing",
		Overview: "British-American film director, producer, and screenwriter.",
		Image:    "https://image.tmdb.org/t/p/w185/xuAIuYSmsUzKlUMBFGVZaWsY3DZ.jpg",
	},
	{
		ID: "6384", Type: domain.ContentTypePerson, Title: "Keanu Reeves", Subtitle: "Acting",
		Overview: "Canadian actor known for his leading roles in action films.",
		Image:    "https://image.tmdb.org/t/p/w185/4D0PpNI0kmP58hgrwGC3wCjxhnm.jpg",
	},
}

var mockOverviews = func() map[string]string {
	byID := make(map[string]string, len(mockEntries))
	for _, entry := range mockEntries {
		byID[entry.ID] = entry.Overview
	}
	return byID
}()

func mockItems() []domain.CatalogItem {
	items := make([]domain.CatalogItem, 0, len(mockEntries))
	for _, entry := range mockEntries {
		raw, _ := json.Marshal(entry)
		items = append(items, domain.CatalogItem{
			ID:          entry.ID,
			ContentType: entry.Type,
			ContentID:   entry.ID,
			Title:       entry.Title,
			Subtitle:    entry.Subtitle,
			ImageURL:    entry.Image,
			Provider:    "tmdb",
			Raw:         raw,
		})
	}
	return items
}

func filterMock(query string) []domain.CatalogItem {
	return common.FilterMockItems(mockItems(), query, func(item domain.CatalogItem) []string {
		return []string{mockOverviews[item.ID]}
	})
}
