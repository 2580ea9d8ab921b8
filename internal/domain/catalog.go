package domain

import (
	"encoding/json"
	"errors"
	"strings"
	"time"
)

// ContentType discriminates normalized items and drives category routing.
type ContentType string

const (
	ContentTypePlace  ContentType = "place"
	ContentTypeMovie  ContentType = "movie"
	ContentTypeTV     ContentType = "tv"
	ContentTypeBook   ContentType = "book"
	ContentTypeGame   ContentType = "game"
	ContentTypeVideo  ContentType = "video"
	ContentTypePerson ContentType = "person"
	ContentTypeUser   ContentType = "user"
)

// CatalogItem is the provider-agnostic shape every adapter produces.
// ID is unique only within the originating provider. ContentID is the
// identifier to use for a later detail lookup against the same provider and
// may equal ID. ImageURL is always either absent or a fully resolved absolute
// URL, never a bare CDN path fragment. Raw retains the provider payload so
// detail pages can hydrate without a second round trip.
type CatalogItem struct {
	ID          string          `json:"id"`
	ContentType ContentType     `json:"contentType"`
	ContentID   string          `json:"contentId"`
	Title       string          `json:"title"`
	Subtitle    string          `json:"subtitle,omitempty"`
	ImageURL    string          `json:"imageUrl,omitempty"`
	Provider    string          `json:"provider,omitempty"`
	Raw         json.RawMessage `json:"raw,omitempty"`
}

// CategoryKey identifies one searchable content category.
type CategoryKey string

const (
	CategoryPlaces   CategoryKey = "places"
	CategoryMovies   CategoryKey = "movies"
	CategoryTVShows  CategoryKey = "tv_shows"
	CategoryBooks    CategoryKey = "books"
	CategoryGames    CategoryKey = "games"
	CategoryVideos   CategoryKey = "videos"
	CategoryPeople   CategoryKey = "person"
	CategoryUsers    CategoryKey = "users"
)

// CategoryMeta is the display metadata the router hands back per category.
type CategoryMeta struct {
	Key   CategoryKey `json:"key"`
	Label string      `json:"label"`
	Icon  string      `json:"icon"`
	Color string      `json:"color"`
}

// ResultBundle groups aggregated results by category. Total always equals the
// sum of the bucket lengths; it is computed at merge time and never cached
// independently.
type ResultBundle struct {
	Query     string           `json:"query"`
	Places    []CatalogItem    `json:"places"`
	Movies    []CatalogItem    `json:"movies"`
	TVShows   []CatalogItem    `json:"tvShows"`
	People    []CatalogItem    `json:"people"`
	Games     []CatalogItem    `json:"games"`
	Books     []CatalogItem    `json:"books"`
	Users     []CatalogItem    `json:"users"`
	Total     int              `json:"total"`
	Providers []ProviderStatus `json:"providers,omitempty"`
	ElapsedMS int64            `json:"elapsedMs"`
}

// Buckets returns the category sequences in display order.
func (b *ResultBundle) Buckets() map[CategoryKey][]CatalogItem {
	return map[CategoryKey][]CatalogItem{
		CategoryPlaces:  b.Places,
		CategoryMovies:  b.Movies,
		CategoryTVShows: b.TVShows,
		CategoryPeople:  b.People,
		CategoryGames:   b.Games,
		CategoryBooks:   b.Books,
		CategoryUsers:   b.Users,
	}
}

// Recount recomputes Total from the bucket lengths.
func (b *ResultBundle) Recount() {
	b.Total = len(b.Places) + len(b.Movies) + len(b.TVShows) +
		len(b.People) + len(b.Games) + len(b.Books) + len(b.Users)
}

// CategoryResult is the aggregator's output for a category-scoped search:
// one flat item sequence instead of the per-category buckets of the general
// bundle. Videos are only reachable through this shape and the URL lookup.
type CategoryResult struct {
	Query     string           `json:"query"`
	Category  CategoryMeta     `json:"category"`
	Items     []CatalogItem    `json:"items"`
	Total     int              `json:"total"`
	Providers []ProviderStatus `json:"providers,omitempty"`
	ElapsedMS int64            `json:"elapsedMs"`
}

// FallbackReason records why an adapter served its mock dataset.
type FallbackReason string

const (
	FallbackCredentialMissing FallbackReason = "credential_missing"
	FallbackTransportFailure  FallbackReason = "transport_failure"
	FallbackSchemaMismatch    FallbackReason = "schema_mismatch"
)

// ProviderResult is what one adapter hands back to the aggregator. Degraded
// marks a mock-fallback response; adapters absorb their own failures, so a
// degraded result is still a successful one.
type ProviderResult struct {
	Items    []CatalogItem
	Degraded bool
	Reason   FallbackReason
}

// ProviderInfo describes a configured adapter.
type ProviderInfo struct {
	Name       string        `json:"name"`
	Label      string        `json:"label"`
	Categories []CategoryKey `json:"categories"`
	Live       bool          `json:"live"`
}

// ProviderStatus reports one adapter's contribution to an aggregation pass.
// Degraded means the adapter served its mock fallback dataset instead of a
// live response; that is never an error from the aggregator's point of view.
type ProviderStatus struct {
	Name     string `json:"name"`
	OK       bool   `json:"ok"`
	Degraded bool   `json:"degraded,omitempty"`
	Count    int    `json:"count"`
	Error    string `json:"error,omitempty"`
}

// ProviderDiagnostics exposes per-adapter health counters for operators.
type ProviderDiagnostics struct {
	Name          string     `json:"name"`
	Label         string     `json:"label"`
	Live          bool       `json:"live"`
	TotalRequests int64      `json:"totalRequests"`
	LiveResponses int64      `json:"liveResponses"`
	Fallbacks     int64      `json:"fallbacks"`
	LastError     string     `json:"lastError,omitempty"`
	LastLiveAt    *time.Time `json:"lastLiveAt,omitempty"`
	LastFallback  *time.Time `json:"lastFallbackAt,omitempty"`
	LastLatencyMS int64      `json:"lastLatencyMs,omitempty"`
	LastQuery     string     `json:"lastQuery,omitempty"`
}

// ListVisibility controls who can see a committed list.
type ListVisibility string

const (
	ListVisibilityPublic  ListVisibility = "public"
	ListVisibilityPrivate ListVisibility = "private"
	ListVisibilityFriends ListVisibility = "friends"
)

// ListMeta is the list-level metadata authored alongside the selected items.
type ListMeta struct {
	Title         string         `json:"title"`
	Description   string         `json:"description,omitempty"`
	Category      CategoryKey    `json:"category,omitempty"`
	Visibility    ListVisibility `json:"visibility,omitempty"`
	Collaborative bool           `json:"collaborative,omitempty"`
	Ranked        bool           `json:"ranked,omitempty"`
	Tags          []string       `json:"tags,omitempty"`
}

// DraftItem wraps a CatalogItem with list-authoring metadata. Position is
// assigned at commit time as the 1-based index in insertion order.
type DraftItem struct {
	CatalogItem
	Position int       `json:"position"`
	AddedAt  time.Time `json:"addedAt"`
}

// ListSubmission is the atomic unit handed to the persistence layer on
// commit: one list record plus its ordered items.
type ListSubmission struct {
	Meta  ListMeta    `json:"meta"`
	Items []DraftItem `json:"items"`
}

// ListRecord is a persisted list.
type ListRecord struct {
	ID        string    `json:"id"`
	OwnerID   string    `json:"ownerId,omitempty"`
	Meta      ListMeta  `json:"meta"`
	ItemCount int       `json:"itemCount"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// ListItemRecord is one persisted, ordered list entry.
type ListItemRecord struct {
	ID          string          `json:"id"`
	ListID      string          `json:"listId"`
	Position    int             `json:"position"`
	ContentType ContentType     `json:"contentType"`
	ContentID   string          `json:"contentId"`
	Title       string          `json:"title"`
	Subtitle    string          `json:"subtitle,omitempty"`
	ImageURL    string          `json:"imageUrl,omitempty"`
	Raw         json.RawMessage `json:"raw,omitempty"`
}

// UserRecord is a member of the user directory.
type UserRecord struct {
	ID          string    `json:"id"`
	Username    string    `json:"username"`
	DisplayName string    `json:"displayName"`
	AvatarURL   string    `json:"avatarUrl,omitempty"`
	Bio         string    `json:"bio,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

// SessionContext identifies the caller for operations that need identity.
// It is passed explicitly; nothing in the core reads ambient session state.
type SessionContext struct {
	SessionID string
	UserID    string
}

var (
	ErrEmptyDraft    = errors.New("draft contains no items")
	ErrEmptyTitle    = errors.New("list title is required")
	ErrNotFound      = errors.New("not found")
	ErrAlreadyExists = errors.New("already exists")
	ErrPartialWrite  = errors.New("list was written but its items were not")
)

// NormalizeCategory maps raw category input to a known key; unknown input is
// passed through lowercased so the router can still produce a generic entry.
func NormalizeCategory(raw string) CategoryKey {
	value := strings.ToLower(strings.TrimSpace(raw))
	switch CategoryKey(value) {
	case CategoryPlaces, CategoryMovies, CategoryTVShows, CategoryBooks,
		CategoryGames, CategoryVideos, CategoryPeople, CategoryUsers:
		return CategoryKey(value)
	}
	switch value {
	case "movie":
		return CategoryMovies
	case "tv", "tvshows", "tv-shows":
		return CategoryTVShows
	case "place":
		return CategoryPlaces
	case "book":
		return CategoryBooks
	case "game":
		return CategoryGames
	case "video":
		return CategoryVideos
	case "people", "persons":
		return CategoryPeople
	case "user":
		return CategoryUsers
	}
	return CategoryKey(value)
}
