package games

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
	defaultBaseURL   = "https://api.rawg.io/api"
	defaultUserAgent = "curately-catalog/1.0"
	defaultPageSize  = 20
	maxResponseBytes = 512 * 1024
)

// Config configures the RAWG game-search adapter.
type Config struct {
	APIKey    string
	BaseURL   string
	UserAgent string
	PageSize  int
	Client    *http.Client
}

// Provider searches the RAWG video-game database and normalizes its result
// pages into catalog items.
type Provider struct {
	client    *http.Client
	baseURL   string
	userAgent string

	mu     sync.RWMutex
	apiKey   string
	pageSize int
}

type gameResult struct {
	ID              int     `json:"id"`
	Slug            string  `json:"slug"`
	Name            string  `json:"name"`
	Released        string  `json:"released"`
	BackgroundImage string  `json:"background_image"`
	Rating          float64 `json:"rating"`
	Genres          []struct {
		Name string `json:"name"`
	} `json:"genres"`
}

type gamePage struct {
	Results []gameResult `json:"results"`
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
	pageSize := cfg.PageSize
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}
	return &Provider{
		client:    client,
		baseURL:   strings.TrimRight(baseURL, "/"),
		apiKey:    strings.TrimSpace(cfg.APIKey),
		userAgent: userAgent,
		pageSize:  pageSize,
	}
}

func (p *Provider) Name() string { return "rawg" }

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
		Label:      "RAWG Video Games",
		Categories: []domain.CategoryKey{domain.CategoryGames},
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

	items, err := p.searchGames(ctx, query)
	if err != nil {
		return p.fallback(query, common.ClassifyFailure(err), err), nil
	}
	return domain.ProviderResult{Items: items}, nil
}

func (p *Provider) searchGames(ctx context.Context, query string) ([]domain.CatalogItem, error) {
	params := url.Values{
		"key":       {p.key()},
		"search":    {strings.TrimSpace(query)},
		"page_size": {strconv.Itoa(p.pageSize)},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		p.baseURL+"/games?"+params.Encode(), nil)
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
		return nil, fmt.Errorf("rawg HTTP %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	payload, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, err
	}

	var page gamePage
	if err := json.Unmarshal(payload, &page); err != nil {
		return nil, fmt.Errorf("decode game page: %w", err)
	}

	items := make([]domain.CatalogItem, 0, len(page.Results))
	for _, result := range page.Results {
		item, ok := toItem(result)
		if !ok {
			continue
		}
		items = append(items, item)
	}
	return items, nil
}

func (p *Provider) fallback(query string, reason domain.FallbackReason, cause error) domain.ProviderResult {
	if cause != nil {
		slog.Warn("rawg search degraded to mock dataset",
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

func toItem(result gameResult) (domain.CatalogItem, bool) {
	if result.ID == 0 || strings.TrimSpace(result.Name) == "" {
		return domain.CatalogItem{}, false
	}
	id := strconv.Itoa(result.ID)

	item := domain.CatalogItem{
		ID:          id,
		ContentType: domain.ContentTypeGame,
		ContentID:   id,
		Title:       strings.TrimSpace(result.Name),
		Subtitle:    common.DisplayYear(result.Released),
		ImageURL:    common.ResolveImageURL(result.BackgroundImage, ""),
		Provider:    "rawg",
	}
	if raw, err := json.Marshal(result); err == nil {
		item.Raw = raw
	}
	return item, true
}
