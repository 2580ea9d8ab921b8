package apihttp

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"curately/catalogservice/internal/credentials"
	"curately/catalogservice/internal/domain"
	"curately/catalogservice/internal/draft"
	"curately/catalogservice/internal/search"
)

type fakeSearchService struct {
	bundle         domain.ResultBundle
	err            error
	categoryResult domain.CategoryResult
	lookupItem     domain.CatalogItem
	lookupDegraded bool
	lookupErr      error

	lastQuery    string
	lastCategory domain.CategoryKey
	callCount    int
}

func (f *fakeSearchService) Aggregate(_ context.Context, query string) (domain.ResultBundle, error) {
	f.callCount++
	f.lastQuery = query
	if f.err != nil {
		return domain.ResultBundle{}, f.err
	}
	bundle := f.bundle
	bundle.Query = query
	return bundle, nil
}

func (f *fakeSearchService) AggregateForCategory(_ context.Context, category domain.CategoryKey, query string) (domain.CategoryResult, error) {
	f.callCount++
	f.lastCategory = category
	f.lastQuery = query
	if f.err != nil {
		return domain.CategoryResult{}, f.err
	}
	result := f.categoryResult
	result.Query = query
	return result, nil
}

func (f *fakeSearchService) Categories() []domain.CategoryMeta {
	return []domain.CategoryMeta{
		{Key: domain.CategoryPlaces, Label: "Places", Icon: "map-pin", Color: "#2E8B57"},
		{Key: domain.CategoryMovies, Label: "Movies", Icon: "film", Color: "#B8860B"},
	}
}

func (f *fakeSearchService) Providers() []domain.ProviderInfo {
	return []domain.ProviderInfo{
		{Name: "tmdb", Label: "The Movie Database", Live: true},
		{Name: "geoapify", Label: "Geoapify Places", Live: false},
	}
}

func (f *fakeSearchService) ProviderDiagnostics() []domain.ProviderDiagnostics {
	return []domain.ProviderDiagnostics{
		{Name: "geoapify", Label: "Geoapify Places", Fallbacks: 2},
		{Name: "tmdb", Label: "The Movie Database", Live: true, LiveResponses: 5},
	}
}

func (f *fakeSearchService) VideoLookup(_ context.Context, rawURL string) (domain.CatalogItem, bool, error) {
	f.lastQuery = rawURL
	if f.lookupErr != nil {
		return domain.CatalogItem{}, false, f.lookupErr
	}
	return f.lookupItem, f.lookupDegraded, nil
}

type fakeListRepository struct {
	saved   []domain.ListSubmission
	saveErr error
	record  domain.ListRecord
	items   []domain.ListItemRecord
	getErr  error
}

func (f *fakeListRepository) SaveList(_ context.Context, _ domain.SessionContext, submission domain.ListSubmission) (domain.ListRecord, error) {
	if f.saveErr != nil {
		return domain.ListRecord{}, f.saveErr
	}
	f.saved = append(f.saved, submission)
	record := f.record
	if record.ID == "" {
		record.ID = "list-1"
	}
	record.Meta = submission.Meta
	record.ItemCount = len(submission.Items)
	return record, nil
}

func (f *fakeListRepository) GetList(_ context.Context, id string) (domain.ListRecord, []domain.ListItemRecord, error) {
	if f.getErr != nil {
		return domain.ListRecord{}, nil, f.getErr
	}
	record := f.record
	record.ID = id
	return record, f.items, nil
}

type fakeCredentialService struct {
	items   map[string]credentials.ProviderConfig
	updated map[string]string
}

func (f *fakeCredentialService) List() []credentials.ProviderConfig {
	out := make([]credentials.ProviderConfig, 0, len(f.items))
	for _, item := range f.items {
		out = append(out, item)
	}
	return out
}

func (f *fakeCredentialService) Update(_ context.Context, name, key string) (credentials.ProviderConfig, error) {
	item, ok := f.items[name]
	if !ok {
		return credentials.ProviderConfig{}, credentials.ErrUnknownProvider
	}
	if f.updated == nil {
		f.updated = make(map[string]string)
	}
	f.updated[name] = key
	item.Configured = strings.TrimSpace(key) != ""
	item.Source = "runtime"
	f.items[name] = item
	return item, nil
}

func sampleBundle() domain.ResultBundle {
	return domain.ResultBundle{
		Movies: []domain.CatalogItem{
			{ID: "27205", ContentType: domain.ContentTypeMovie, ContentID: "27205", Title: "Inception", Provider: "tmdb"},
		},
		Places:  []domain.CatalogItem{},
		TVShows: []domain.CatalogItem{},
		People:  []domain.CatalogItem{},
		Games:   []domain.CatalogItem{},
		Books:   []domain.CatalogItem{},
		Users:   []domain.CatalogItem{},
		Total:   1,
		Providers: []domain.ProviderStatus{
			{Name: "tmdb", OK: true, Count: 1},
			{Name: "geoapify", OK: true, Degraded: true, Count: 0},
		},
		ElapsedMS: 3,
	}
}

func TestSearchReturnsBundle(t *testing.T) {
	fake := &fakeSearchService{bundle: sampleBundle()}
	server := NewServer(fake)
	req := httptest.NewRequest(http.MethodGet, "/search?q=inception", nil)
	rec := httptest.NewRecorder()

	server.Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if fake.lastQuery != "inception" {
		t.Fatalf("unexpected query: %q", fake.lastQuery)
	}

	var payload domain.ResultBundle
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if payload.Total != 1 {
		t.Fatalf("unexpected total: %d", payload.Total)
	}
	if len(payload.Movies) != 1 || payload.Movies[0].Title != "Inception" {
		t.Fatalf("unexpected movies bucket: %#v", payload.Movies)
	}
}

func TestSearchWithoutServiceFails(t *testing.T) {
	server := NewServer(nil)
	req := httptest.NewRequest(http.MethodGet, "/search?q=x", nil)
	rec := httptest.NewRecorder()

	server.Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
}

func TestSearchQueryTooLong(t *testing.T) {
	fake := &fakeSearchService{}
	server := NewServer(fake)
	req := httptest.NewRequest(http.MethodGet, "/search?q="+strings.Repeat("a", maxQueryLength+1), nil)
	rec := httptest.NewRecorder()

	server.Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if fake.callCount != 0 {
		t.Fatalf("expected no service calls, got %d", fake.callCount)
	}
}

func TestSearchNoProvidersIsServiceUnavailable(t *testing.T) {
	fake := &fakeSearchService{err: search.ErrNoProviders}
	server := NewServer(fake)
	req := httptest.NewRequest(http.MethodGet, "/search?q=anything", nil)
	rec := httptest.NewRecorder()

	server.Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}
}

func TestCategorySearchRequiresCategory(t *testing.T) {
	fake := &fakeSearchService{}
	server := NewServer(fake)
	req := httptest.NewRequest(http.MethodGet, "/search/category?q=zelda", nil)
	rec := httptest.NewRecorder()

	server.Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestCategorySearchNormalizesKey(t *testing.T) {
	fake := &fakeSearchService{
		categoryResult: domain.CategoryResult{
			Category: domain.CategoryMeta{Key: domain.CategoryGames, Label: "Games"},
			Items: []domain.CatalogItem{
				{ID: "3498", ContentType: domain.ContentTypeGame, Title: "Zelda", Provider: "rawg"},
			},
			Total: 1,
		},
	}
	server := NewServer(fake)
	req := httptest.NewRequest(http.MethodGet, "/search/category?category=Game&q=zelda", nil)
	rec := httptest.NewRecorder()

	server.Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if fake.lastCategory != domain.CategoryGames {
		t.Fatalf("unexpected category: %s", fake.lastCategory)
	}

	var payload domain.CategoryResult
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if payload.Total != 1 || len(payload.Items) != 1 {
		t.Fatalf("unexpected payload: %#v", payload)
	}
}

func TestCategoriesEndpoint(t *testing.T) {
	fake := &fakeSearchService{}
	server := NewServer(fake)
	req := httptest.NewRequest(http.MethodGet, "/search/categories", nil)
	rec := httptest.NewRecorder()

	server.Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var payload struct {
		Items []domain.CategoryMeta `json:"items"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(payload.Items) != 2 {
		t.Fatalf("unexpected items count: %d", len(payload.Items))
	}
}

func TestProvidersEndpoint(t *testing.T) {
	fake := &fakeSearchService{}
	server := NewServer(fake)
	req := httptest.NewRequest(http.MethodGet, "/search/providers", nil)
	rec := httptest.NewRecorder()

	server.Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var payload struct {
		Items []domain.ProviderInfo `json:"items"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(payload.Items) != 2 {
		t.Fatalf("unexpected items count: %d", len(payload.Items))
	}
}

func TestProvidersHealthEndpoint(t *testing.T) {
	fake := &fakeSearchService{}
	server := NewServer(fake)
	req := httptest.NewRequest(http.MethodGet, "/search/providers/health", nil)
	rec := httptest.NewRecorder()

	server.Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var payload struct {
		Items []domain.ProviderDiagnostics `json:"items"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(payload.Items) != 2 {
		t.Fatalf("unexpected items count: %d", len(payload.Items))
	}
}

func TestProviderSettingsEndpoint(t *testing.T) {
	fake := &fakeSearchService{}
	creds := &fakeCredentialService{
		items: map[string]credentials.ProviderConfig{
			"tmdb": {Name: "tmdb", Configured: false, Source: "none"},
		},
	}
	server := NewServer(fake, WithCredentials(creds))

	getReq := httptest.NewRequest(http.MethodGet, "/search/settings/providers", nil)
	getRec := httptest.NewRecorder()
	server.Handler().ServeHTTP(getRec, getReq)
	if getRec.Code != http.StatusOK {
		t.Fatalf("expected GET 200, got %d", getRec.Code)
	}

	patchReq := httptest.NewRequest(http.MethodPatch, "/search/settings/providers",
		strings.NewReader(`{"provider":"tmdb","apiKey":"abc1234567890abc"}`))
	patchReq.Header.Set("Content-Type", "application/json")
	patchRec := httptest.NewRecorder()
	server.Handler().ServeHTTP(patchRec, patchReq)
	if patchRec.Code != http.StatusOK {
		t.Fatalf("expected PATCH 200, got %d", patchRec.Code)
	}

	var payload credentials.ProviderConfig
	if err := json.Unmarshal(patchRec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !payload.Configured || payload.Source != "runtime" {
		t.Fatalf("unexpected config: %#v", payload)
	}
	if creds.updated["tmdb"] != "abc1234567890abc" {
		t.Fatalf("expected key to reach credential service, got %q", creds.updated["tmdb"])
	}
}

func TestProviderSettingsUnknownProvider(t *testing.T) {
	fake := &fakeSearchService{}
	creds := &fakeCredentialService{items: map[string]credentials.ProviderConfig{}}
	server := NewServer(fake, WithCredentials(creds))

	req := httptest.NewRequest(http.MethodPatch, "/search/settings/providers",
		strings.NewReader(`{"provider":"nosuch","apiKey":"k"}`))
	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestVideoLookupEndpoint(t *testing.T) {
	fake := &fakeSearchService{
		lookupItem: domain.CatalogItem{
			ID:          "dQw4w9WgXcQ",
			ContentType: domain.ContentTypeVideo,
			Title:       "Test Video",
			Provider:    "youtube",
		},
		lookupDegraded: true,
	}
	server := NewServer(fake)
	req := httptest.NewRequest(http.MethodGet, "/video/lookup?url="+
		"https%3A%2F%2Fwww.youtube.com%2Fwatch%3Fv%3DdQw4w9WgXcQ", nil)
	rec := httptest.NewRecorder()

	server.Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var payload struct {
		Item     domain.CatalogItem `json:"item"`
		Degraded bool               `json:"degraded"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if payload.Item.ID != "dQw4w9WgXcQ" || !payload.Degraded {
		t.Fatalf("unexpected payload: %#v", payload)
	}
}

func TestVideoLookupNotFound(t *testing.T) {
	fake := &fakeSearchService{lookupErr: domain.ErrNotFound}
	server := NewServer(fake)
	req := httptest.NewRequest(http.MethodGet, "/video/lookup?url=https%3A%2F%2Fexample.com", nil)
	rec := httptest.NewRecorder()

	server.Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestVideoLookupRequiresURL(t *testing.T) {
	server := NewServer(&fakeSearchService{})
	req := httptest.NewRequest(http.MethodGet, "/video/lookup", nil)
	rec := httptest.NewRecorder()

	server.Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestDraftToggleAndItems(t *testing.T) {
	server := NewServer(&fakeSearchService{}, WithDrafts(draft.NewManager()))

	body := `{"id":"27205","contentType":"movie","contentId":"27205","title":"Inception","provider":"tmdb"}`
	toggleReq := httptest.NewRequest(http.MethodPost, "/drafts/sess-1/toggle", strings.NewReader(body))
	toggleRec := httptest.NewRecorder()
	server.Handler().ServeHTTP(toggleRec, toggleReq)
	if toggleRec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", toggleRec.Code, toggleRec.Body.String())
	}

	var toggled struct {
		Selected bool `json:"selected"`
		Count    int  `json:"count"`
	}
	if err := json.Unmarshal(toggleRec.Body.Bytes(), &toggled); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !toggled.Selected || toggled.Count != 1 {
		t.Fatalf("unexpected toggle result: %#v", toggled)
	}

	itemsReq := httptest.NewRequest(http.MethodGet, "/drafts/sess-1/items", nil)
	itemsRec := httptest.NewRecorder()
	server.Handler().ServeHTTP(itemsRec, itemsReq)
	if itemsRec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", itemsRec.Code)
	}

	var items struct {
		Items []domain.DraftItem `json:"items"`
		Count int                `json:"count"`
	}
	if err := json.Unmarshal(itemsRec.Body.Bytes(), &items); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if items.Count != 1 || items.Items[0].Title != "Inception" {
		t.Fatalf("unexpected items: %#v", items)
	}

	// A different session must not see this draft.
	otherReq := httptest.NewRequest(http.MethodGet, "/drafts/sess-2/items", nil)
	otherRec := httptest.NewRecorder()
	server.Handler().ServeHTTP(otherRec, otherReq)
	var otherItems struct {
		Count int `json:"count"`
	}
	if err := json.Unmarshal(otherRec.Body.Bytes(), &otherItems); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if otherItems.Count != 0 {
		t.Fatalf("expected isolated session, got %d items", otherItems.Count)
	}
}

func TestDraftUnknownActionIsNotFound(t *testing.T) {
	server := NewServer(&fakeSearchService{}, WithDrafts(draft.NewManager()))
	for _, path := range []string{"/drafts/sess-1/publish", "/drafts/sess-1/items/extra", "/drafts/"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		rec := httptest.NewRecorder()
		server.Handler().ServeHTTP(rec, req)
		if rec.Code != http.StatusNotFound {
			t.Fatalf("%s: expected 404, got %d", path, rec.Code)
		}
	}
}

func TestDraftCommitEmptyDraft(t *testing.T) {
	server := NewServer(&fakeSearchService{},
		WithDrafts(draft.NewManager()),
		WithListRepository(&fakeListRepository{}),
	)
	req := httptest.NewRequest(http.MethodPost, "/drafts/sess-1/commit",
		strings.NewReader(`{"title":"My List"}`))
	rec := httptest.NewRecorder()

	server.Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestDraftCommitSavesAndClears(t *testing.T) {
	repo := &fakeListRepository{}
	manager := draft.NewManager()
	server := NewServer(&fakeSearchService{}, WithDrafts(manager), WithListRepository(repo))

	toggleReq := httptest.NewRequest(http.MethodPost, "/drafts/sess-1/toggle",
		strings.NewReader(`{"id":"27205","contentType":"movie","title":"Inception","provider":"tmdb"}`))
	server.Handler().ServeHTTP(httptest.NewRecorder(), toggleReq)

	commitReq := httptest.NewRequest(http.MethodPost, "/drafts/sess-1/commit",
		strings.NewReader(`{"title":"Favorites","visibility":"public"}`))
	commitRec := httptest.NewRecorder()
	server.Handler().ServeHTTP(commitRec, commitReq)
	if commitRec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", commitRec.Code, commitRec.Body.String())
	}

	var record domain.ListRecord
	if err := json.Unmarshal(commitRec.Body.Bytes(), &record); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if record.Meta.Title != "Favorites" || record.ItemCount != 1 {
		t.Fatalf("unexpected record: %#v", record)
	}
	if len(repo.saved) != 1 || repo.saved[0].Items[0].Position != 1 {
		t.Fatalf("unexpected saved submission: %#v", repo.saved)
	}

	// The committed draft is discarded; a fresh one starts empty.
	itemsReq := httptest.NewRequest(http.MethodGet, "/drafts/sess-1/items", nil)
	itemsRec := httptest.NewRecorder()
	server.Handler().ServeHTTP(itemsRec, itemsReq)
	var items struct {
		Count int `json:"count"`
	}
	if err := json.Unmarshal(itemsRec.Body.Bytes(), &items); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if items.Count != 0 {
		t.Fatalf("expected draft cleared after commit, got %d items", items.Count)
	}
}

func TestDraftCommitPartialWrite(t *testing.T) {
	repo := &fakeListRepository{saveErr: domain.ErrPartialWrite}
	manager := draft.NewManager()
	server := NewServer(&fakeSearchService{}, WithDrafts(manager), WithListRepository(repo))

	toggleReq := httptest.NewRequest(http.MethodPost, "/drafts/sess-1/toggle",
		strings.NewReader(`{"id":"1","title":"Item"}`))
	server.Handler().ServeHTTP(httptest.NewRecorder(), toggleReq)

	commitReq := httptest.NewRequest(http.MethodPost, "/drafts/sess-1/commit",
		strings.NewReader(`{"title":"Broken"}`))
	commitRec := httptest.NewRecorder()
	server.Handler().ServeHTTP(commitRec, commitReq)
	if commitRec.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", commitRec.Code)
	}
}

func TestDraftDiscardEndpoint(t *testing.T) {
	manager := draft.NewManager()
	server := NewServer(&fakeSearchService{}, WithDrafts(manager))

	req := httptest.NewRequest(http.MethodDelete, "/drafts/sess-1", nil)
	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}
}

func TestGetListEndpoint(t *testing.T) {
	repo := &fakeListRepository{
		record: domain.ListRecord{
			Meta:      domain.ListMeta{Title: "Favorites"},
			ItemCount: 2,
			CreatedAt: time.Now().UTC(),
		},
		items: []domain.ListItemRecord{
			{ID: "i1", Position: 1, Title: "Inception"},
			{ID: "i2", Position: 2, Title: "Interstellar"},
		},
	}
	server := NewServer(&fakeSearchService{}, WithListRepository(repo))

	req := httptest.NewRequest(http.MethodGet, "/lists/list-42", nil)
	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var payload struct {
		List  domain.ListRecord       `json:"list"`
		Items []domain.ListItemRecord `json:"items"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if payload.List.ID != "list-42" || len(payload.Items) != 2 {
		t.Fatalf("unexpected payload: %#v", payload)
	}
}

func TestGetListNotFound(t *testing.T) {
	repo := &fakeListRepository{getErr: domain.ErrNotFound}
	server := NewServer(&fakeSearchService{}, WithListRepository(repo))

	req := httptest.NewRequest(http.MethodGet, "/lists/missing", nil)
	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}
