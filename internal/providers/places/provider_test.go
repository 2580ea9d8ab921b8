package places

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"curately/catalogservice/internal/domain"
)

func TestSearchWithoutCredentialFiltersMock(t *testing.T) {
	provider := NewProvider(Config{})

	result, err := provider.Search(context.Background(), "paris")
	if err != nil {
		t.Fatalf("search error: %v", err)
	}
	if !result.Degraded || result.Reason != domain.FallbackCredentialMissing {
		t.Fatalf("expected credential fallback, got %#v", result)
	}
	if len(result.Items) != 1 || result.Items[0].Title != "Eiffel Tower" {
		t.Fatalf("expected the Paris mock entry, got %#v", result.Items)
	}
}

func TestSearchMockNeverEmpty(t *testing.T) {
	provider := NewProvider(Config{})

	result, _ := provider.Search(context.Background(), "zzzznomatch")
	if len(result.Items) != len(mockEntries) {
		t.Fatalf("expected full mock dataset, got %d of %d", len(result.Items), len(mockEntries))
	}
}

func TestSearchNormalizesFeatures(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("text") != "blue bottle" {
			t.Errorf("unexpected query: %s", r.URL.RawQuery)
		}
		_, _ = w.Write([]byte(`{"features":[
			{"properties":{"place_id":"abc123","name":"Blue Bottle Coffee","address_line2":"300 Webster St, Oakland","city":"Oakland","country":"United States","lat":37.8,"lon":-122.27}},
			{"properties":{"place_id":"def456","formatted":"Webster Street, Oakland","city":"Oakland","country":"United States"}},
			{"properties":{"name":"missing place id"}}
		]}`))
	}))
	defer server.Close()

	provider := NewProvider(Config{APIKey: "k", BaseURL: server.URL, Client: server.Client()})
	result, err := provider.Search(context.Background(), "blue bottle")
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
	if first.ID != "abc123" || first.ContentType != domain.ContentTypePlace {
		t.Fatalf("unexpected item: %#v", first)
	}
	if first.Subtitle != "300 Webster St, Oakland" {
		t.Fatalf("expected address subtitle, got %q", first.Subtitle)
	}

	second := result.Items[1]
	if second.Title != "Webster Street, Oakland" {
		t.Fatalf("expected formatted fallback title, got %q", second.Title)
	}
	if second.Subtitle != "Oakland, United States" {
		t.Fatalf("expected city/country subtitle, got %q", second.Subtitle)
	}
}

func TestSearchFallsBackOnTransportFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer server.Close()

	provider := NewProvider(Config{APIKey: "k", BaseURL: server.URL, Client: server.Client()})
	result, err := provider.Search(context.Background(), "tokyo")
	if err != nil {
		t.Fatalf("fallback must not surface an error, got %v", err)
	}
	if !result.Degraded || result.Reason != domain.FallbackTransportFailure {
		t.Fatalf("expected transport fallback, got %#v", result)
	}
	if len(result.Items) != 1 || result.Items[0].Title != "Shibuya Crossing" {
		t.Fatalf("expected the Tokyo mock entry, got %#v", result.Items)
	}
}
