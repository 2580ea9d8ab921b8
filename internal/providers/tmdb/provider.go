package tmdb

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"curately/catalogservice/internal/domain"
	"curately/catalogservice/internal/providers/common"
)

const (
	defaultBaseURL   = "https://api.themoviedb.org/3"
	posterBaseURL    = "https://image.tmdb.org/t/p/w500"
	profileBaseURL   = "https://image.tmdb.org/t/p/w185"
	defaultUserAgent = "curately-catalog/1.0"
	maxResponseBytes = 512 * 1024
)

// Config configures the TMDB multi-search adapter.
type Config struct {
	APIKey    string
	BaseURL   string
	UserAgent string
	Client    *http.Client
}

// Provider searches TMDB for movies, TV shows and people through the
// /search/multi endpoint and normalizes the three result shapes into
// catalog items.
type Provider struct {
	client    *http.Client
	baseURL   string
	userAgent string

	mu     sync.RWMutex
	apiKey string
}

type multiResult struct {
	ID           int     `json:"id"`
	MediaType    string  `json:"media_type"`
	Title        string  `json:"title,omitempty"`
	Name         string  `json:"name,omitempty"`
	Overview     string  `json:"overview,omitempty"`
	PosterPath   string  `json:"poster_path,omitempty"`
	ProfilePath  string  `json:"profile_path,omitempty"`
	ReleaseDate  string  `json:"release_date,omitempty"`
	FirstAirDate string  `json:"first_air_date,omitempty"`
	Department   string  `json:"known_for_department,omitempty"`
	VoteAverage  float64 `json:"vote_average,omitempty"`
}

type multiResponse struct {
	Results []multiResult `json:"results"`
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
	return &Provider{
		client:    client,
		baseURL:   strings.TrimRight(baseURL, "/"),
		apiKey:    strings.TrimSpace(cfg.APIKey),
		userAgent: userAgent,
	}
}

func (p *Provider) Name() string { return "tmdb" }

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
		Label:      "The Movie Database",
		Categories: []domain.CategoryKey{domain.CategoryMovies, domain.CategoryTVShows, domain.CategoryPeople},
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

	items, err := p.searchMulti(ctx, query)
	if err != nil {
		return p.fallback(query, common.ClassifyFailure(err), err), nil
	}
	return domain.ProviderResult{Items: items}, nil
}

func (p *Provider) searchMulti(ctx context.Context, query string) ([]domain.CatalogItem, error) {
	params := url.Values{
		"api_key":       {p.key()},
		"query":         {strings.TrimSpace(query)},
		"include_adult": {"false"},
	}
	payload, err := p.get(ctx, "/search/multi?"+params.Encode())
	if err != nil {
		return nil, err
	}

	var response multiResponse
	if err := json.Unmarshal(payload, &response); err != nil {
		return nil, fmt.Errorf("decode multi-search response: %w", err)
	}

	items := make([]domain.CatalogItem, 0, len(response.Results))
	for _, result := range response.Results {
		item, ok := toItem(result)
		if !ok {
			continue
		}
		items = append(items, item)
	}
	return items, nil
}

// GetByID fetches details for a single movie or TV show for detail-page
// hydration when the raw search payload is not enough.
func (p *Provider) GetByID(ctx context.Context, contentType domain.ContentType, id string) (domain.CatalogItem, error) {
	if !common.CredentialConfigured(p.key()) {
		return domain.CatalogItem{}, domain.ErrNotFound
	}
	path := "/movie/"
	switch contentType {
	case domain.ContentTypeTV:
		path = "/tv/"
	case domain.ContentTypePerson:
		path = "/person/"
	}
	params := url.Values{"api_key": {p.key()}}
	payload, err := p.get(ctx, path+url.PathEscape(id)+"?"+params.Encode())
	if err != nil {
		return domain.CatalogItem{}, err
	}

	var result multiResult
	if err := json.Unmarshal(payload, &result); err != nil {
		return domain.CatalogItem{}, fmt.Errorf("decode detail response: %w", err)
	}
	result.MediaType = mediaTypeFor(contentType)
	item, ok := toItem(result)
	if !ok {
		return domain.CatalogItem{}, domain.ErrNotFound
	}
	item.Raw = payload
	return item, nil
}

func (p *Provider) get(ctx context.Context, pathAndQuery string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+pathAndQuery, nil)
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
		return nil, fmt.Errorf("tmdb HTTP %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
}

func (p *Provider) fallback(query string, reason domain.FallbackReason, cause error) domain.ProviderResult {
	if cause != nil {
		slog.Warn("tmdb search degraded to mock dataset",
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

func toItem(result multiResult) (domain.CatalogItem, bool) {
	id := strconv.Itoa(result.ID)
	if result.ID == 0 {
		return domain.CatalogItem{}, false
	}

	var item domain.CatalogItem
	switch result.MediaType {
	case "movie":
		item = domain.CatalogItem{
			ID:          id,
			ContentType: domain.ContentTypeMovie,
			ContentID:   id,
			Title:       strings.TrimSpace(result.Title),
			Subtitle:    common.DisplayYear(result.ReleaseDate),
			ImageURL:    common.ResolveImageURL(result.PosterPath, posterBaseURL),
		}
	case "tv":
		item = domain.CatalogItem{
			ID:          id,
			ContentType: domain.ContentTypeTV,
			ContentID:   id,
			Title:       strings.TrimSpace(result.Name),
			Subtitle:    common.DisplayYear(result.FirstAirDate),
			ImageURL:    common.ResolveImageURL(result.PosterPath, posterBaseURL),
		}
	case "person":
		item = domain.CatalogItem{
			ID:          id,
			ContentType: domain.ContentTypePerson,
			ContentID:   id,
			Title:       strings.TrimSpace(result.Name),
			Subtitle:    strings.TrimSpace(result.Department),
			ImageURL:    common.ResolveImageURL(result.ProfilePath, profileBaseURL),
		}
	default:
		return domain.CatalogItem{}, false
	}

	item.Provider = "tmdb"
	if raw, err := json.Marshal(result); err == nil {
		item.Raw = raw
	}
	return item, true
}

func mediaTypeFor(contentType domain.ContentType) string {
	switch contentType {
	case domain.ContentTypeTV:
		return "tv"
	case domain.ContentTypePerson:
		return "person"
	default:
		return "movie"
	}
}
