package books

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"curately/catalogservice/internal/domain"
)

func TestSearchWithoutCredentialServesFiveMockBooks(t *testing.T) {
	provider := NewProvider(Config{})

	result, err := provider.Search(context.Background(), "zzzznomatch")
	if err != nil {
		t.Fatalf("search error: %v", err)
	}
	if !result.Degraded || result.Reason != domain.FallbackCredentialMissing {
		t.Fatalf("expected credential fallback, got %#v", result)
	}
	if len(result.Items) != 5 {
		t.Fatalf("expected the full five-book mock dataset, got %d", len(result.Items))
	}
}

func TestSearchMockMatchesAuthorWithDiacritics(t *testing.T) {
	provider := NewProvider(Config{})

	result, _ := provider.Search(context.Background(), "marquez")
	if len(result.Items) != 1 || result.Items[0].Title != "One Hundred Years of Solitude" {
		t.Fatalf("expected diacritic-folded author match, got %#v", result.Items)
	}
}

func TestSearchNormalizesVolumes(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("q") != "dune" {
			t.Errorf("unexpected query: %s", r.URL.RawQuery)
		}
		_, _ = w.Write([]byte(`{"items":[
			{"id":"B1a2C3","volumeInfo":{"title":"Dune","authors":["Frank Herbert"],"publishedDate":"1965","imageLinks":{"thumbnail":"http://books.google.com/books/content?id=B1a2C3"}}},
			{"id":"","volumeInfo":{"title":"dropped"}},
			{"id":"D4e5F6","volumeInfo":{"title":"Dune Messiah","authors":["Frank Herbert","Someone Else"]}}
		]}`))
	}))
	defer server.Close()

	provider := NewProvider(Config{APIKey: "k", BaseURL: server.URL, Client: server.Client()})
	result, err := provider.Search(context.Background(), "dune")
	if err != nil {
		t.Fatalf("search error: %v", err)
	}
	if result.Degraded {
		t.Fatal("expected live result")
	}
	if len(result.Items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(result.Items))
	}

	first := result.Items[0]
	if first.ID != "B1a2C3" || first.ContentType != domain.ContentTypeBook {
		t.Fatalf("unexpected item: %#v", first)
	}
	if first.Subtitle != "Frank Herbert" {
		t.Fatalf("expected author subtitle, got %q", first.Subtitle)
	}
	if first.ImageURL != "https://books.google.com/books/content?id=B1a2C3" {
		t.Fatalf("expected https cover link, got %q", first.ImageURL)
	}

	second := result.Items[1]
	if second.Subtitle != "Frank Herbert, Someone Else" {
		t.Fatalf("expected joined authors, got %q", second.Subtitle)
	}
	if second.ImageURL == "" {
		t.Fatal("missing cover must resolve to the placeholder, not empty")
	}
}

func TestSearchFallsBackOnTransportFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota exceeded", http.StatusForbidden)
	}))
	defer server.Close()

	provider := NewProvider(Config{APIKey: "k", BaseURL: server.URL, Client: server.Client()})
	result, err := provider.Search(context.Background(), "hail mary")
	if err != nil {
		t.Fatalf("fallback must not surface an error, got %v", err)
	}
	if !result.Degraded || result.Reason != domain.FallbackTransportFailure {
		t.Fatalf("expected transport fallback, got %#v", result)
	}
	if len(result.Items) != 1 || result.Items[0].Title != "Project Hail Mary" {
		t.Fatalf("expected the matching mock book, got %#v", result.Items)
	}
}
