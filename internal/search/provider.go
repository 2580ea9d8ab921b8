package search

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"curately/catalogservice/internal/domain"
)

var (
	ErrNoProviders     = errors.New("no content providers configured")
	ErrUnknownProvider = errors.New("unknown provider")
)

// Provider is one content source. Adapters absorb their own failures and
// degrade to mock datasets, so Search only returns an error for programmer
// mistakes; the aggregator still guards against both errors and panics.
type Provider interface {
	Name() string
	Info() domain.ProviderInfo
	Search(ctx context.Context, query string) (domain.ProviderResult, error)
}

// VideoResolver is the optional interface the video adapter implements to
// resolve pasted links into a single item.
type VideoResolver interface {
	LookupByURL(ctx context.Context, rawURL string) (domain.CatalogItem, bool, error)
}

type Service struct {
	providers     map[string]Provider
	order         []string
	timeout       time.Duration
	cacheCfg      cacheConfig
	cacheDisabled bool
	cacheMu       sync.Mutex
	cache         map[string]*cachedBundle
	redisCache    *RedisCacheBackend
	healthMu      sync.Mutex
	health        map[string]*providerHealth
}

type ServiceOption func(*Service)

func WithRedisCache(backend *RedisCacheBackend) ServiceOption {
	return func(s *Service) {
		s.redisCache = backend
	}
}

func WithCacheTTL(ttl time.Duration) ServiceOption {
	return func(s *Service) {
		if ttl > 0 {
			s.cacheCfg.ttl = ttl
		}
	}
}

func WithCacheDisabled(disabled bool) ServiceOption {
	return func(s *Service) {
		s.cacheDisabled = disabled
	}
}

func NewService(providers []Provider, timeout time.Duration, opts ...ServiceOption) *Service {
	registry := make(map[string]Provider, len(providers))
	order := make([]string, 0, len(providers))
	for _, provider := range providers {
		if provider == nil {
			continue
		}
		name := strings.ToLower(strings.TrimSpace(provider.Name()))
		if name == "" {
			continue
		}
		if _, exists := registry[name]; exists {
			continue
		}
		registry[name] = provider
		order = append(order, name)
	}

	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	svc := &Service{
		providers: registry,
		order:     order,
		timeout:   timeout,
		cacheCfg:  defaultCacheConfig(),
		cache:     make(map[string]*cachedBundle),
		health:    make(map[string]*providerHealth),
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

// Providers lists configured adapters sorted by name.
func (s *Service) Providers() []domain.ProviderInfo {
	if len(s.providers) == 0 {
		return nil
	}
	items := make([]domain.ProviderInfo, 0, len(s.providers))
	for _, name := range s.order {
		info := s.providers[name].Info()
		if info.Name == "" {
			info.Name = name
		}
		if info.Label == "" {
			info.Label = info.Name
		}
		items = append(items, info)
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i].Name < items[j].Name
	})
	return items
}

// VideoLookup resolves a pasted video URL through the first adapter that
// implements VideoResolver.
func (s *Service) VideoLookup(ctx context.Context, rawURL string) (domain.CatalogItem, bool, error) {
	for _, name := range s.order {
		if resolver, ok := s.providers[name].(VideoResolver); ok {
			return resolver.LookupByURL(ctx, rawURL)
		}
	}
	return domain.CatalogItem{}, false, ErrNoProviders
}
