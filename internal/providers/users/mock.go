package users

import (
	"curately/catalogservice/internal/domain"
	"curately/catalogservice/internal/providers/common"
)

// The mock directory served when no user store is wired up. The username
// participates in the substring filter alongside the display name.
var mockRecords = []domain.UserRecord{
	{ID: "mock-user-1", Username: "ana.lists", DisplayName: "Ana Moreira", Bio: "Top 10s of everything"},
	{ID: "mock-user-2", Username: "film_felix", DisplayName: "Felix Ortega", Bio: "Cinema completionist"},
	{ID: "mock-user-3", Username: "bookish.bea", DisplayName: "Bea Hartmann", Bio: "Annual reading challenges"},
	{ID: "mock-user-4", Username: "gamer_gus", DisplayName: "Gus Tanaka", Bio: "Backlog archaeologist"},
	{ID: "mock-user-5", Username: "wander.willa", DisplayName: "Willa Chen", Bio: "City guides and hidden cafes"},
}

func mockItems() []domain.CatalogItem {
	items := make([]domain.CatalogItem, 0, len(mockRecords))
	for _, record := range mockRecords {
		items = append(items, toItem(record))
	}
	return items
}

func filterMock(query string) []domain.CatalogItem {
	return common.FilterMockItems(mockItems(), query, nil)
}
