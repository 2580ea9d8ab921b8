package users

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"

	"curately/catalogservice/internal/domain"
	"curately/catalogservice/internal/providers/common"
)

// Directory is the user store the adapter searches. The Mongo repository
// implements it; tests plug in fakes.
type Directory interface {
	SearchUsers(ctx context.Context, query string, limit int) ([]domain.UserRecord, error)
}

const defaultLimit = 20

// Config configures the user-directory adapter.
type Config struct {
	Directory Directory
	Limit     int
}

// Provider searches the member directory. Unlike the external adapters it has
// no API credential; a missing or failing directory degrades to the mock
// member list the same way a missing key does elsewhere.
type Provider struct {
	directory Directory
	limit     int
}

func NewProvider(cfg Config) *Provider {
	limit := cfg.Limit
	if limit <= 0 {
		limit = defaultLimit
	}
	return &Provider{directory: cfg.Directory, limit: limit}
}

func (p *Provider) Name() string { return "users" }

func (p *Provider) Info() domain.ProviderInfo {
	return domain.ProviderInfo{
		Name:       p.Name(),
		Label:      "Member Directory",
		Categories: []domain.CategoryKey{domain.CategoryUsers},
		Live:       p.directory != nil,
	}
}

func (p *Provider) Search(ctx context.Context, query string) (domain.ProviderResult, error) {
	if strings.TrimSpace(query) == "" {
		return domain.ProviderResult{}, nil
	}
	if p.directory == nil {
		return p.fallback(query, domain.FallbackCredentialMissing, nil), nil
	}

	records, err := p.directory.SearchUsers(ctx, strings.TrimSpace(query), p.limit)
	if err != nil {
		return p.fallback(query, domain.FallbackTransportFailure, err), nil
	}

	items := make([]domain.CatalogItem, 0, len(records))
	for _, record := range records {
		items = append(items, toItem(record))
	}
	return domain.ProviderResult{Items: items}, nil
}

func (p *Provider) fallback(query string, reason domain.FallbackReason, cause error) domain.ProviderResult {
	if cause != nil {
		slog.Warn("user search degraded to mock directory",
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

func toItem(record domain.UserRecord) domain.CatalogItem {
	item := domain.CatalogItem{
		ID:          record.ID,
		ContentType: domain.ContentTypeUser,
		ContentID:   record.ID,
		Title:       strings.TrimSpace(record.DisplayName),
		Subtitle:    "@" + strings.TrimSpace(record.Username),
		ImageURL:    common.ResolveImageURL(record.AvatarURL, ""),
		Provider:    "users",
	}
	if item.Title == "" {
		item.Title = strings.TrimSpace(record.Username)
	}
	if raw, err := json.Marshal(record); err == nil {
		item.Raw = raw
	}
	return item
}
