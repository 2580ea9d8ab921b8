package search

import (
	"testing"

	"curately/catalogservice/internal/domain"
)

func TestCategoriesCoverEveryBucket(t *testing.T) {
	service := NewService(nil, 0)
	categories := service.Categories()
	if len(categories) != len(categoryTable) {
		t.Fatalf("expected %d categories, got %d", len(categoryTable), len(categories))
	}
	for _, meta := range categories {
		if meta.Label == "" || meta.Icon == "" || meta.Color == "" {
			t.Fatalf("incomplete display meta: %+v", meta)
		}
	}
}

func TestCategoryMetaForKnownKeys(t *testing.T) {
	cases := []struct {
		raw  string
		key  domain.CategoryKey
		name string
	}{
		{"movies", domain.CategoryMovies, "Movies"},
		{"Movie", domain.CategoryMovies, "Movies"},
		{"tv-shows", domain.CategoryTVShows, "TV Shows"},
		{"PLACES", domain.CategoryPlaces, "Places"},
		{"people", domain.CategoryPeople, "People"},
	}
	for _, tc := range cases {
		meta := CategoryMetaFor(tc.raw)
		if meta.Key != tc.key || meta.Label != tc.name {
			t.Fatalf("CategoryMetaFor(%q) = %+v, want key=%s label=%s", tc.raw, meta, tc.key, tc.name)
		}
	}
}

func TestCategoryMetaForUnknownKeyIsGeneric(t *testing.T) {
	meta := CategoryMetaFor("board_games")
	if meta.Key != domain.CategoryKey("board_games") {
		t.Fatalf("unexpected key: %s", meta.Key)
	}
	if meta.Label != "Board Games" {
		t.Fatalf("expected underscore-to-space label, got %q", meta.Label)
	}
	if meta.Icon == "" || meta.Color == "" {
		t.Fatalf("generic entry must still render: %+v", meta)
	}
}

func TestProvidersForUsesAdvertisedCategories(t *testing.T) {
	movies := &fakeProvider{name: "tmdb", categories: []domain.CategoryKey{domain.CategoryMovies, domain.CategoryTVShows}}
	games := &fakeProvider{name: "rawg", categories: []domain.CategoryKey{domain.CategoryGames}}
	service := NewService([]Provider{movies, games}, 0)

	routed := service.providersFor(domain.CategoryTVShows)
	if len(routed) != 1 || routed[0].Name() != "tmdb" {
		t.Fatalf("unexpected routing: %+v", routed)
	}
	if len(service.providersFor(domain.CategoryBooks)) != 0 {
		t.Fatal("expected no providers for an unrouted category")
	}
}
