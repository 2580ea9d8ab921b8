package search

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"curately/catalogservice/internal/domain"
)

// maxConcurrentProviders limits the number of adapter queries that can run
// simultaneously in one aggregation pass.
const maxConcurrentProviders = 8

// Aggregate fans the query out to every general-search adapter, waits for all
// of them and merges their items into category buckets. A degraded adapter
// still contributes its mock items; only a panic or a returned error leaves
// that adapter's contribution empty, without aborting the others. Video-only
// adapters never participate here.
func (s *Service) Aggregate(ctx context.Context, query string) (domain.ResultBundle, error) {
	trimmed := strings.TrimSpace(query)
	bundle := emptyBundle(trimmed)
	if trimmed == "" {
		return bundle, nil
	}

	selected := s.generalProviders()
	if len(selected) == 0 {
		return bundle, ErrNoProviders
	}

	startedAt := time.Now()
	cacheKey := buildBundleCacheKey(trimmed, providerNames(selected))
	if !s.cacheDisabled {
		if cached, ok := s.cacheLookup(ctx, cacheKey, startedAt); ok {
			cached.ElapsedMS = time.Since(startedAt).Milliseconds()
			return cached, nil
		}
	}

	outcomes, statuses := s.fanOut(ctx, selected, trimmed)
	for _, outcome := range outcomes {
		mergeIntoBundle(&bundle, outcome.Items)
	}

	bundle.Providers = statuses
	bundle.Recount()
	bundle.ElapsedMS = time.Since(startedAt).Milliseconds()

	if !s.cacheDisabled {
		s.cacheStore(ctx, cacheKey, bundle, time.Now())
	}
	return bundle, nil
}

// AggregateForCategory runs the query against exactly the adapters routed for
// the category and returns a flat, insertion-ordered item sequence. Unknown
// or unrouted categories yield an empty result, never an error.
func (s *Service) AggregateForCategory(ctx context.Context, category domain.CategoryKey, query string) (domain.CategoryResult, error) {
	trimmed := strings.TrimSpace(query)
	result := domain.CategoryResult{
		Query:    trimmed,
		Category: CategoryMetaFor(string(category)),
		Items:    []domain.CatalogItem{},
	}
	if trimmed == "" {
		return result, nil
	}

	selected := s.providersFor(result.Category.Key)
	if len(selected) == 0 {
		return result, nil
	}

	startedAt := time.Now()

	allowed := make(map[domain.ContentType]struct{})
	for _, contentType := range contentTypesFor(result.Category.Key) {
		allowed[contentType] = struct{}{}
	}

	outcomes, statuses := s.fanOut(ctx, selected, trimmed)
	for _, outcome := range outcomes {
		for _, item := range outcome.Items {
			if item.Title == "" {
				continue
			}
			if _, ok := allowed[item.ContentType]; !ok {
				continue
			}
			result.Items = appendUnique(result.Items, item)
		}
	}

	result.Providers = statuses
	result.Total = len(result.Items)
	result.ElapsedMS = time.Since(startedAt).Milliseconds()
	return result, nil
}

// providerOutcome keeps one adapter's items in fan-out slot order so the
// merged sequence is deterministic regardless of completion order.
type providerOutcome struct {
	Items []domain.CatalogItem
}

func (s *Service) fanOut(ctx context.Context, selected []Provider, query string) ([]providerOutcome, []domain.ProviderStatus) {
	runCtx := ctx
	if _, hasDeadline := ctx.Deadline(); !hasDeadline && s.timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	outcomes := make([]providerOutcome, len(selected))
	statuses := make([]domain.ProviderStatus, len(selected))
	var mu sync.Mutex

	sem := semaphore.NewWeighted(maxConcurrentProviders)
	var wg sync.WaitGroup
	for i, provider := range selected {
		wg.Add(1)
		go func(index int, current Provider) {
			defer wg.Done()

			name := strings.ToLower(strings.TrimSpace(current.Name()))

			if err := sem.Acquire(runCtx, 1); err != nil {
				mu.Lock()
				statuses[index] = domain.ProviderStatus{Name: name, Error: "context cancelled"}
				mu.Unlock()
				return
			}
			defer sem.Release(1)

			providerStartedAt := time.Now()
			result, searchErr := s.callProvider(runCtx, current, query)
			latency := time.Since(providerStartedAt)
			s.recordProviderOutcome(name, query, result, searchErr, latency, time.Now())

			status := domain.ProviderStatus{
				Name:     name,
				OK:       searchErr == nil,
				Degraded: result.Degraded,
				Count:    len(result.Items),
			}
			if searchErr != nil {
				status.Error = searchErr.Error()
			}

			mu.Lock()
			statuses[index] = status
			if searchErr == nil {
				outcomes[index] = providerOutcome{Items: result.Items}
			}
			mu.Unlock()
		}(i, provider)
	}
	wg.Wait()

	return outcomes, statuses
}

// callProvider invokes one adapter with a panic guard. A panicking adapter
// degrades to an empty contribution instead of taking down the pass.
func (s *Service) callProvider(ctx context.Context, provider Provider, query string) (result domain.ProviderResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("provider panicked during search",
				slog.String("provider", provider.Name()),
				slog.Any("panic", r),
			)
			result = domain.ProviderResult{}
			err = fmt.Errorf("provider %s panicked", provider.Name())
		}
	}()
	return provider.Search(ctx, query)
}

// mergeIntoBundle buckets items by content type, preserving each adapter's
// internal ordering. Items are only deduplicated within one provider's
// contribution; a place and a movie sharing a title stay distinct entries.
// Video items are dropped: the bundle has no video bucket.
func mergeIntoBundle(bundle *domain.ResultBundle, items []domain.CatalogItem) {
	for _, item := range items {
		if item.Title == "" {
			continue
		}
		switch item.ContentType {
		case domain.ContentTypePlace:
			bundle.Places = appendUnique(bundle.Places, item)
		case domain.ContentTypeMovie:
			bundle.Movies = appendUnique(bundle.Movies, item)
		case domain.ContentTypeTV:
			bundle.TVShows = appendUnique(bundle.TVShows, item)
		case domain.ContentTypePerson:
			bundle.People = appendUnique(bundle.People, item)
		case domain.ContentTypeGame:
			bundle.Games = appendUnique(bundle.Games, item)
		case domain.ContentTypeBook:
			bundle.Books = appendUnique(bundle.Books, item)
		case domain.ContentTypeUser:
			bundle.Users = appendUnique(bundle.Users, item)
		}
	}
}

func appendUnique(bucket []domain.CatalogItem, item domain.CatalogItem) []domain.CatalogItem {
	for _, existing := range bucket {
		if existing.Provider == item.Provider && existing.ID == item.ID {
			return bucket
		}
	}
	return append(bucket, item)
}

func emptyBundle(query string) domain.ResultBundle {
	return domain.ResultBundle{
		Query:   query,
		Places:  []domain.CatalogItem{},
		Movies:  []domain.CatalogItem{},
		TVShows: []domain.CatalogItem{},
		People:  []domain.CatalogItem{},
		Games:   []domain.CatalogItem{},
		Books:   []domain.CatalogItem{},
		Users:   []domain.CatalogItem{},
	}
}
