package search

import (
	"context"
	"sort"
	"strings"
	"time"

	"curately/catalogservice/internal/domain"
	"curately/catalogservice/internal/metrics"
)

const (
	defaultCacheTTL        = 5 * time.Minute
	defaultCacheMaxEntries = 500
)

type cacheConfig struct {
	ttl        time.Duration
	maxEntries int
}

func defaultCacheConfig() cacheConfig {
	return cacheConfig{
		ttl:        defaultCacheTTL,
		maxEntries: defaultCacheMaxEntries,
	}
}

type cachedBundle struct {
	bundle    domain.ResultBundle
	updatedAt time.Time
	expiresAt time.Time
}

func (s *Service) cacheLookup(ctx context.Context, key string, now time.Time) (domain.ResultBundle, bool) {
	// Redis first, when wired; a Redis miss or error falls through to memory.
	if s.redisCache != nil {
		bundle, found, err := s.redisCache.Get(ctx, key)
		if err == nil && found {
			metrics.CacheHitsTotal.Inc()
			s.cacheStoreMemory(key, bundle, now)
			return bundle, true
		}
	}

	s.cacheMu.Lock()
	defer s.cacheMu.Unlock()

	entry, ok := s.cache[key]
	if !ok {
		metrics.CacheMissesTotal.Inc()
		return domain.ResultBundle{}, false
	}
	if now.After(entry.expiresAt) {
		metrics.CacheMissesTotal.Inc()
		delete(s.cache, key)
		return domain.ResultBundle{}, false
	}

	metrics.CacheHitsTotal.Inc()
	return cloneBundle(entry.bundle), true
}

func (s *Service) cacheStore(ctx context.Context, key string, bundle domain.ResultBundle, now time.Time) {
	ttl := s.cacheCfg.ttl
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	if s.redisCache != nil {
		_ = s.redisCache.Set(ctx, key, bundle, ttl)
	}
	s.cacheStoreMemory(key, bundle, now)
}

func (s *Service) cacheStoreMemory(key string, bundle domain.ResultBundle, now time.Time) {
	ttl := s.cacheCfg.ttl
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}

	s.cacheMu.Lock()
	defer s.cacheMu.Unlock()

	s.cache[key] = &cachedBundle{
		bundle:    cloneBundle(bundle),
		updatedAt: now,
		expiresAt: now.Add(ttl),
	}
	s.trimCacheLocked(now)
}

func (s *Service) trimCacheLocked(now time.Time) {
	maxEntries := s.cacheCfg.maxEntries
	if maxEntries <= 0 {
		maxEntries = defaultCacheMaxEntries
	}

	for key, entry := range s.cache {
		if now.After(entry.expiresAt) {
			delete(s.cache, key)
		}
	}

	if len(s.cache) <= maxEntries {
		return
	}

	type pair struct {
		key   string
		entry *cachedBundle
	}
	items := make([]pair, 0, len(s.cache))
	for key, entry := range s.cache {
		items = append(items, pair{key: key, entry: entry})
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i].entry.updatedAt.Before(items[j].entry.updatedAt)
	})
	for i := 0; i < len(items)-maxEntries; i++ {
		delete(s.cache, items[i].key)
	}
}

func cloneBundle(bundle domain.ResultBundle) domain.ResultBundle {
	cloned := bundle
	cloned.Places = append([]domain.CatalogItem(nil), bundle.Places...)
	cloned.Movies = append([]domain.CatalogItem(nil), bundle.Movies...)
	cloned.TVShows = append([]domain.CatalogItem(nil), bundle.TVShows...)
	cloned.People = append([]domain.CatalogItem(nil), bundle.People...)
	cloned.Games = append([]domain.CatalogItem(nil), bundle.Games...)
	cloned.Books = append([]domain.CatalogItem(nil), bundle.Books...)
	cloned.Users = append([]domain.CatalogItem(nil), bundle.Users...)
	if bundle.Providers != nil {
		cloned.Providers = append([]domain.ProviderStatus(nil), bundle.Providers...)
	}
	return cloned
}

func buildBundleCacheKey(query string, providers []string) string {
	names := append([]string(nil), providers...)
	sort.Strings(names)
	return strings.Join([]string{
		"q=" + strings.ToLower(strings.TrimSpace(query)),
		"p=" + strings.Join(names, ","),
	}, "|")
}
