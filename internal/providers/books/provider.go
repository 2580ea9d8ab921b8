package books

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
	defaultBaseURL   = "https://www.googleapis.com/books/v1"
	defaultUserAgent = "curately-catalog/1.0"
	defaultMaxItems  = 20
	maxResponseBytes = 512 * 1024
)

// Config configures the Google Books adapter.
type Config struct {
	APIKey    string
	BaseURL   string
	UserAgent string
	MaxItems  int
	Client    *http.Client
}

// Provider searches Google Books volumes and normalizes them into catalog
// items. The authors list becomes the subtitle; cover thumbnails are upgraded
// to https before they leave the adapter.
type Provider struct {
	client    *http.Client
	baseURL   string
	userAgent string

	mu     sync.RWMutex
	apiKey   string
	maxItems int
}

type volume struct {
	ID         string     `json:"id"`
	VolumeInfo volumeInfo `json:"volumeInfo"`
}

type volumeInfo struct {
	Title         string   `json:"title"`
	Authors       []string `json:"authors"`
	PublishedDate string   `json:"publishedDate"`
	Description   string   `json:"description"`
	ImageLinks    struct {
		Thumbnail      string `json:"thumbnail"`
		SmallThumbnail string `json:"smallThumbnail"`
	} `json:"imageLinks"`
}

type volumeList struct {
	Items []volume `json:"items"`
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
	maxItems := cfg.MaxItems
	if maxItems <= 0 {
		maxItems = defaultMaxItems
	}
	return &Provider{
		client:    client,
		baseURL:   strings.TrimRight(baseURL, "/"),
		apiKey:    strings.TrimSpace(cfg.APIKey),
		userAgent: userAgent,
		maxItems:  maxItems,
	}
}

func (p *Provider) Name() string { return "googlebooks" }

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
		Label:      "Google Books",
		Categories: []domain.CategoryKey{domain.CategoryBooks},
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

	items, err := p.searchVolumes(ctx, query)
	if err != nil {
		return p.fallback(query, common.ClassifyFailure(err), err), nil
	}
	return domain.ProviderResult{Items: items}, nil
}

func (p *Provider) searchVolumes(ctx context.Context, query string) ([]domain.CatalogItem, error) {
	params := url.Values{
		"q":          {strings.TrimSpace(query)},
		"maxResults": {strconv.Itoa(p.maxItems)},
		"key":        {p.key()},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		p.baseURL+"/volumes?"+params.Encode(), nil)
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
		return nil, fmt.Errorf("google books HTTP %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	payload, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, err
	}

	var list volumeList
	if err := json.Unmarshal(payload, &list); err != nil {
		return nil, fmt.Errorf("decode volume list: %w", err)
	}

	items := make([]domain.CatalogItem, 0, len(list.Items))
	for _, v := range list.Items {
		item, ok := toItem(v)
		if !ok {
			continue
		}
		items = append(items, item)
	}
	return items, nil
}

func (p *Provider) fallback(query string, reason domain.FallbackReason, cause error) domain.ProviderResult {
	if cause != nil {
		slog.Warn("google books search degraded to mock dataset",
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

func toItem(v volume) (domain.CatalogItem, bool) {
	title := strings.TrimSpace(v.VolumeInfo.Title)
	if v.ID == "" || title == "" {
		return domain.CatalogItem{}, false
	}

	thumbnail := v.VolumeInfo.ImageLinks.Thumbnail
	if thumbnail == "" {
		thumbnail = v.VolumeInfo.ImageLinks.SmallThumbnail
	}
	// The volumes API still hands out http:// cover links.
	thumbnail = strings.Replace(thumbnail, "http://", "https://", 1)

	item := domain.CatalogItem{
		ID:          v.ID,
		ContentType: domain.ContentTypeBook,
		ContentID:   v.ID,
		Title:       title,
		Subtitle:    strings.Join(v.VolumeInfo.Authors, ", "),
		ImageURL:    common.ResolveImageURL(thumbnail, ""),
		Provider:    "googlebooks",
	}
	if raw, err := json.Marshal(v); err == nil {
		item.Raw = raw
	}
	return item, true
}
