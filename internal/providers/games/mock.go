package games

import (
	"encoding/json"

	"curately/catalogservice/internal/domain"
	"curately/catalogservice/internal/providers/common"
)

// mockEntry is one row of the fixed fallback dataset. Genre participates in
// the substring filter alongside the game title.
type mockEntry struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Year  string `json:"year"`
	Genre string `json:"genre"`
	Image string `json:"image"`
}

var mockEntries = []mockEntry{
	{ID: "3498", Title: "Grand Theft Auto V", Year: "2013", Genre: "Action", Image: "https://media.rawg.io/media/games/20a/20aa03a10cda45239fe22d035c0ebe64.jpg"},
	{ID: "3328", Title: "The Witcher 3: Wild Hunt", Year: "2015", Genre: "RPG", Image: "https://media.rawg.io/media/games/618/618c2031a07bbff6b4f611f10b6bcdbc.jpg"},
	{ID: "41494", Title: "Cyberpunk 2077", Year: "2020", Genre: "RPG", Image: "https://media.rawg.io/media/games/26d/26d4437715bee60138dab4a7c8c59c92.jpg"},
	{ID: "22511", Title: "The Legend of Zelda: Breath of the Wild", Year: "2017", Genre: "Adventure", Image: "https://media.rawg.io/media/games/cc1/cc196a5ad763955d6532cdba236f730c.jpg"},
	{ID: "326243", Title: "Elden Ring", Year: "2022", Genre: "RPG", Image: "https://media.rawg.io/media/games/5ec/5ecac5cb026ec26a56efcc546364e348.jpg"},
	{ID: "10533", Title: "Path of Exile", Year: "2013", Genre: "RPG", Image: "https://media.rawg.io/media/games/511/5118aff5091cb3efec399c808f8c598f.jpg"},
	{ID: "32", Title: "Destiny 2", Year: "2017", Genre: "Shooter", Image: "https://media.rawg.io/media/games/34b/34b1f1850a1c06fd971bc6ab3ac0ce0e.jpg"},
	{ID: "1030", Title: "Limbo", Year: "2010", Genre: "Puzzle", Image: "https://media.rawg.io/media/games/942/9424d6bb763dc38d9378b488603c87fa.jpg"},
}

var mockGenres = func() map[string]string {
	byID := make(map[string]string, len(mockEntries))
	for _, entry := range mockEntries {
		byID[entry.ID] = entry.Genre
	}
	return byID
}()

func mockItems() []domain.CatalogItem {
	items := make([]domain.CatalogItem, 0, len(mockEntries))
	for _, entry := range mockEntries {
		raw, _ := json.Marshal(entry)
		items = append(items, domain.CatalogItem{
			ID:          entry.ID,
			ContentType: domain.ContentTypeGame,
			ContentID:   entry.ID,
			Title:       entry.Title,
			Subtitle:    entry.Year,
			ImageURL:    entry.Image,
			Provider:    "rawg",
			Raw:         raw,
		})
	}
	return items
}

func filterMock(query string) []domain.CatalogItem {
	return common.FilterMockItems(mockItems(), query, func(item domain.CatalogItem) []string {
		return []string{mockGenres[item.ID]}
	})
}
