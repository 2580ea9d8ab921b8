package video

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
	defaultBaseURL   = "https://www.googleapis.com/youtube/v3"
	defaultUserAgent = "curately-catalog/1.0"
	defaultMaxItems  = 15
	maxResponseBytes = 512 * 1024
)

// Config configures the YouTube video adapter.
type Config struct {
	APIKey    string
	BaseURL   string
	UserAgent string
	MaxItems  int
	Client    *http.Client
}

// Provider searches YouTube and resolves pasted video links. Videos are kept
// out of the general aggregation pass; they are only reachable through the
// videos category and the URL lookup.
type Provider struct {
	client    *http.Client
	baseURL   string
	userAgent string

	mu     sync.RWMutex
	apiKey   string
	maxItems int
}

type searchItem struct {
	ID struct {
		VideoID string `json:"videoId"`
	} `json:"id"`
	Snippet snippet `json:"snippet"`
}

type videoItem struct {
	ID      string  `json:"id"`
	Snippet snippet `json:"snippet"`
}

type snippet struct {
	Title        string `json:"title"`
	ChannelTitle string `json:"channelTitle"`
	PublishedAt  string `json:"publishedAt"`
	Thumbnails   struct {
		Medium struct {
			URL string `json:"url"`
		} `json:"medium"`
		Default struct {
			URL string `json:"url"`
		} `json:"default"`
	} `json:"thumbnails"`
}

type searchResponse struct {
	Items []searchItem `json:"items"`
}

type videosResponse struct {
	Items []videoItem `json:"items"`
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

func (p *Provider) Name() string { return "youtube" }

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
		Label:      "YouTube",
		Categories: []domain.CategoryKey{domain.CategoryVideos},
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

	items, err := p.searchVideos(ctx, query)
	if err != nil {
		return p.fallback(query, common.ClassifyFailure(err), err), nil
	}
	return domain.ProviderResult{Items: items}, nil
}

// LookupByURL resolves a pasted YouTube link to a single catalog item. When
// the link does not contain a recognizable video ID it returns
// domain.ErrNotFound; when the live lookup fails the adapter synthesizes a
// degraded item from the ID so the flow still completes.
func (p *Provider) LookupByURL(ctx context.Context, rawURL string) (domain.CatalogItem, bool, error) {
	videoID := ExtractVideoID(rawURL)
	if videoID == "" {
		return domain.CatalogItem{}, false, domain.ErrNotFound
	}

	if common.CredentialConfigured(p.key()) {
		item, err := p.fetchVideo(ctx, videoID)
		if err == nil {
			return item, false, nil
		}
		slog.Warn("youtube lookup degraded to synthesized item",
			slog.String("videoId", videoID),
			slog.String("error", err.Error()),
		)
	}

	return domain.CatalogItem{
		ID:          videoID,
		ContentType: domain.ContentTypeVideo,
		ContentID:   videoID,
		Title:       "YouTube video " + videoID,
		Subtitle:    "youtube.com",
		ImageURL:    thumbnailURL(videoID),
		Provider:    "youtube",
	}, true, nil
}

// ExtractVideoID pulls the 11-character video ID out of the link shapes users
// paste: watch URLs, youtu.be short links, shorts and embeds.
func ExtractVideoID(rawURL string) string {
	parsed, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil || parsed.Host == "" {
		return ""
	}
	host := strings.TrimPrefix(strings.ToLower(parsed.Host), "www.")
	host = strings.TrimPrefix(host, "m.")

	switch host {
	case "youtu.be":
		return cleanVideoID(strings.TrimPrefix(parsed.Path, "/"))
	case "youtube.com", "youtube-nocookie.com":
	default:
		return ""
	}

	if id := parsed.Query().Get("v"); id != "" {
		return cleanVideoID(id)
	}
	for _, prefix := range []string{"/shorts/", "/embed/", "/live/", "/v/"} {
		if strings.HasPrefix(parsed.Path, prefix) {
			rest := strings.TrimPrefix(parsed.Path, prefix)
			if i := strings.IndexByte(rest, '/'); i >= 0 {
				rest = rest[:i]
			}
			return cleanVideoID(rest)
		}
	}
	return ""
}

func cleanVideoID(id string) string {
	id = strings.TrimSpace(id)
	for _, r := range id {
		if r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' || r == '-' || r == '_' {
			continue
		}
		return ""
	}
	if len(id) < 8 || len(id) > 16 {
		return ""
	}
	return id
}

func thumbnailURL(videoID string) string {
	return "https://i.ytimg.com/vi/" + videoID + "/mqdefault.jpg"
}

func (p *Provider) searchVideos(ctx context.Context, query string) ([]domain.CatalogItem, error) {
	params := url.Values{
		"part":       {"snippet"},
		"type":       {"video"},
		"q":          {strings.TrimSpace(query)},
		"maxResults": {strconv.Itoa(p.maxItems)},
		"key":        {p.key()},
	}
	payload, err := p.get(ctx, "/search?"+params.Encode())
	if err != nil {
		return nil, err
	}

	var response searchResponse
	if err := json.Unmarshal(payload, &response); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}

	items := make([]domain.CatalogItem, 0, len(response.Items))
	for _, result := range response.Items {
		if result.ID.VideoID == "" {
			continue
		}
		items = append(items, toItem(result.ID.VideoID, result.Snippet))
	}
	return items, nil
}

func (p *Provider) fetchVideo(ctx context.Context, videoID string) (domain.CatalogItem, error) {
	params := url.Values{
		"part": {"snippet"},
		"id":   {videoID},
		"key":  {p.key()},
	}
	payload, err := p.get(ctx, "/videos?"+params.Encode())
	if err != nil {
		return domain.CatalogItem{}, err
	}

	var response videosResponse
	if err := json.Unmarshal(payload, &response); err != nil {
		return domain.CatalogItem{}, fmt.Errorf("decode videos response: %w", err)
	}
	if len(response.Items) == 0 {
		return domain.CatalogItem{}, domain.ErrNotFound
	}
	return toItem(response.Items[0].ID, response.Items[0].Snippet), nil
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
		return nil, fmt.Errorf("youtube HTTP %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
}

func (p *Provider) fallback(query string, reason domain.FallbackReason, cause error) domain.ProviderResult {
	if cause != nil {
		slog.Warn("youtube search degraded to mock dataset",
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

func toItem(videoID string, s snippet) domain.CatalogItem {
	thumb := s.Thumbnails.Medium.URL
	if thumb == "" {
		thumb = s.Thumbnails.Default.URL
	}
	item := domain.CatalogItem{
		ID:          videoID,
		ContentType: domain.ContentTypeVideo,
		ContentID:   videoID,
		Title:       common.CleanText(s.Title),
		Subtitle:    strings.TrimSpace(s.ChannelTitle),
		ImageURL:    common.ResolveImageURL(thumb, ""),
		Provider:    "youtube",
	}
	if raw, err := json.Marshal(s); err == nil {
		item.Raw = raw
	}
	return item
}
