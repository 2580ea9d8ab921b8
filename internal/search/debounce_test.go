package search

import (
	"context"
	"sync"
	"testing"
	"time"

	"curately/catalogservice/internal/domain"
)

func newDebounceService(provider *fakeProvider) *Service {
	return NewService([]Provider{provider}, time.Second, WithCacheDisabled(true))
}

func TestDebouncerCoalescesRapidSubmissions(t *testing.T) {
	provider := &fakeProvider{
		name:       "tmdb",
		categories: []domain.CategoryKey{domain.CategoryMovies},
		result: domain.ProviderResult{Items: []domain.CatalogItem{
			item("tmdb", "1", domain.ContentTypeMovie, "Inception"),
		}},
	}
	debouncer := NewDebouncer(newDebounceService(provider), 30*time.Millisecond)

	var mu sync.Mutex
	var applied []string
	apply := func(bundle domain.ResultBundle) {
		mu.Lock()
		applied = append(applied, bundle.Query)
		mu.Unlock()
	}

	debouncer.Submit(context.Background(), "i", apply)
	debouncer.Submit(context.Background(), "in", apply)
	debouncer.Submit(context.Background(), "inception", apply)

	time.Sleep(150 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	if len(applied) != 1 || applied[0] != "inception" {
		t.Fatalf("expected only the latest query applied, got %v", applied)
	}
	if provider.calls.Load() != 1 {
		t.Fatalf("expected one provider call, got %d", provider.calls.Load())
	}
}

func TestDebouncerDiscardsSupersededInFlightResult(t *testing.T) {
	provider := &fakeProvider{
		name:       "tmdb",
		categories: []domain.CategoryKey{domain.CategoryMovies},
		delay:      40 * time.Millisecond,
		result: domain.ProviderResult{Items: []domain.CatalogItem{
			item("tmdb", "1", domain.ContentTypeMovie, "Inception"),
		}},
	}
	debouncer := NewDebouncer(newDebounceService(provider), 5*time.Millisecond)

	var mu sync.Mutex
	var applied []string
	apply := func(bundle domain.ResultBundle) {
		mu.Lock()
		applied = append(applied, bundle.Query)
		mu.Unlock()
	}

	debouncer.Submit(context.Background(), "first", apply)
	// Let the first aggregation start, then supersede it while in flight.
	time.Sleep(20 * time.Millisecond)
	debouncer.Submit(context.Background(), "second", apply)

	time.Sleep(200 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	if len(applied) != 1 || applied[0] != "second" {
		t.Fatalf("superseded in-flight result must be discarded, got %v", applied)
	}
}

func TestDebouncerCancelDropsPendingCall(t *testing.T) {
	provider := &fakeProvider{name: "tmdb", categories: []domain.CategoryKey{domain.CategoryMovies}}
	debouncer := NewDebouncer(newDebounceService(provider), 20*time.Millisecond)

	called := false
	debouncer.Submit(context.Background(), "inception", func(domain.ResultBundle) { called = true })
	debouncer.Cancel()

	time.Sleep(80 * time.Millisecond)
	if called {
		t.Fatal("cancelled submission must not fire")
	}
	if provider.calls.Load() != 0 {
		t.Fatalf("expected zero provider calls, got %d", provider.calls.Load())
	}
}
