package places

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"curately/catalogservice/internal/domain"
	"curately/catalogservice/internal/providers/common"
)

const (
	defaultBaseURL   = "https://api.geoapify.com/v1"
	defaultUserAgent = "curately-catalog/1.0"
	defaultLimit     = 20
	maxResponseBytes = 512 * 1024
)

// Config configures the Geoapify place-search adapter.
type Config struct {
	APIKey    string
	BaseURL   string
	UserAgent string
	Limit     int
	Client    *http.Client
}

// Provider searches Geoapify geocoding autocomplete and normalizes the
// GeoJSON feature collection into catalog items.
type Provider struct {
	client    *http.Client
	baseURL   string
	userAgent string

	mu     sync.RWMutex
	apiKey string
	limit  int
}

type feature struct {
	Properties featureProperties `json:"properties"`
}

type featureProperties struct {
	PlaceID     string  `json:"place_id"`
	Name        string  `json:"name"`
	Formatted   string  `json:"formatted"`
	AddressLine string  `json:"address_line2"`
	City        string  `json:"city"`
	Country     string  `json:"country"`
	Category    string  `json:"result_type"`
	Lat         float64 `json:"lat"`
	Lon         float64 `json:"lon"`
}

type featureCollection struct {
	Features []feature `json:"features"`
}

func NewProvider(cfg Config) *Provider {
	client := cfg.Client
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	baseURL := strings.TrimSpace(cfg.BaseURL)
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	userAgent := strings.TrimSpace(cfg.UserAgent)
	if userAgent == "" {
		userAgent = defaultUserAgent
	}
	limit := cfg.Limit
	if limit <= 0 {
		limit = defaultLimit
	}
	return &Provider{
		client:    client,
		baseURL:   strings.TrimRight(baseURL, "/"),
		apiKey:    strings.TrimSpace(cfg.APIKey),
		userAgent: userAgent,
		limit:     limit,
	}
}

func (p *Provider) Name() string { return "geoapify" }

// SetAPIKey swaps the credential at runtime.
func (p *Provider) SetAPIKey(key string) {
	p.mu.Lock()
	p.apiKey = strings.TrimSpace(key)
	p.mu.Unlock()
}

func (p *Provider) key() string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.apiKey
}

func (p *Provider) Info() domain.ProviderInfo {
	return domain.ProviderInfo{
		Name:       p.Name(),
		Label:      "Geoapify Places",
		Categories: []domain.CategoryKey{domain.CategoryPlaces},
		Live:       common.CredentialConfigured(p.key()),
	}
}

func (p *Provider) Search(ctx context.Context, query string) (domain.ProviderResult, error) {
	if strings.TrimSpace(query) == "" {
		return domain.ProviderResult{}, nil
	}
	if !common.CredentialConfigured(p.key()) {
		return p.fallback(query, domain.FallbackCredentialMissing, nil), nil
	}

	items, err := p.autocomplete(ctx, query)
	if err != nil {
		return p.fallback(query, common.ClassifyFailure(err), err), nil
	}
	return domain.ProviderResult{Items: items}, nil
}

func (p *Provider) autocomplete(ctx context.Context, query string) ([]domain.CatalogItem, error) {
	params := url.Values{
		"text":   {strings.TrimSpace(query)},
		"limit":  {fmt.Sprintf("%d", p.limit)},
		"apiKey": {p.key()},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		p.baseURL+"/geocode/autocomplete?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", p.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("geoapify HTTP %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	payload, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, err
	}

	var collection featureCollection
	if err := json.Unmarshal(payload, &collection); err != nil {
		return nil, fmt.Errorf("decode feature collection: %w", err)
	}

	items := make([]domain.CatalogItem, 0, len(collection.Features))
	for _, f := range collection.Features {
		item, ok := toItem(f.Properties)
		if !ok {
			continue
		}
		items = append(items, item)
	}
	return items, nil
}

func (p *Provider) fallback(query string, reason domain.FallbackReason, cause error) domain.ProviderResult {
	if cause != nil {
		slog.Warn("geoapify search degraded to mock dataset",
			slog.String("reason", string(reason)),
			slog.String("error", cause.Error()),
		)
	}
	return domain.ProviderResult{
		Items:    filterMock(query),
		Degraded: true,
		Reason:   reason,
	}
}

func toItem(props featureProperties) (domain.CatalogItem, bool) {
	title := strings.TrimSpace(props.Name)
	if title == "" {
		title = strings.TrimSpace(props.Formatted)
	}
	if props.PlaceID == "" || title == "" {
		return domain.CatalogItem{}, false
	}

	subtitle := strings.TrimSpace(props.AddressLine)
	if subtitle == "" {
		subtitle = common.JoinNonEmpty(", ", props.City, props.Country)
	}

	item := domain.CatalogItem{
		ID:          props.PlaceID,
		ContentType: domain.ContentTypePlace,
		ContentID:   props.PlaceID,
		Title:       title,
		Subtitle:    subtitle,
		ImageURL:    common.PlaceholderImageURL,
		Provider:    "geoapify",
	}
	if raw, err := json.Marshal(props); err == nil {
		item.Raw = raw
	}
	return item, true
}
