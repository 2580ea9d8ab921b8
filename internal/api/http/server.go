package apihttp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"curately/catalogservice/internal/credentials"
	"curately/catalogservice/internal/domain"
	"curately/catalogservice/internal/draft"
	"curately/catalogservice/internal/metrics"
	"curately/catalogservice/internal/search"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

type SearchService interface {
	Aggregate(ctx context.Context, query string) (domain.ResultBundle, error)
	AggregateForCategory(ctx context.Context, category domain.CategoryKey, query string) (domain.CategoryResult, error)
	Categories() []domain.CategoryMeta
	Providers() []domain.ProviderInfo
	ProviderDiagnostics() []domain.ProviderDiagnostics
	VideoLookup(ctx context.Context, rawURL string) (domain.CatalogItem, bool, error)
}

type ListRepository interface {
	SaveList(ctx context.Context, owner domain.SessionContext, submission domain.ListSubmission) (domain.ListRecord, error)
	GetList(ctx context.Context, id string) (domain.ListRecord, []domain.ListItemRecord, error)
}

type CredentialService interface {
	List() []credentials.ProviderConfig
	Update(ctx context.Context, name, key string) (credentials.ProviderConfig, error)
}

type Server struct {
	search      SearchService
	drafts      *draft.Manager
	lists       ListRepository
	credentials CredentialService
	logger      *slog.Logger
}

const maxQueryLength = 500

type ServerOption func(*Server)

func WithLogger(logger *slog.Logger) ServerOption {
	return func(s *Server) {
		s.logger = logger
	}
}

func WithDrafts(manager *draft.Manager) ServerOption {
	return func(s *Server) {
		s.drafts = manager
	}
}

func WithListRepository(lists ListRepository) ServerOption {
	return func(s *Server) {
		s.lists = lists
	}
}

func WithCredentials(service CredentialService) ServerOption {
	return func(s *Server) {
		s.credentials = service
	}
}

func NewServer(searchService SearchService, options ...ServerOption) *Server {
	server := &Server{
		search: searchService,
		logger: slog.Default(),
	}
	for _, option := range options {
		if option != nil {
			option(server)
		}
	}
	if server.logger == nil {
		server.logger = slog.Default()
	}
	return server
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", s.handleHealth)
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/search/categories", s.handleCategories)
	mux.HandleFunc("/search/category", s.handleCategorySearch)
	mux.HandleFunc("/search/providers", s.handleProviders)
	mux.HandleFunc("/search/providers/health", s.handleProvidersHealth)
	mux.HandleFunc("/search/settings/providers", s.handleProviderSettings)
	mux.HandleFunc("/search/image", s.handleImageProxy)
	mux.HandleFunc("/search", s.handleSearch)
	mux.HandleFunc("/video/lookup", s.handleVideoLookup)
	mux.HandleFunc("/drafts/", s.handleDrafts)
	mux.HandleFunc("/lists/", s.handleGetList)
	traced := otelhttp.NewHandler(loggingMiddleware(s.logger, mux), "catalog-search",
		otelhttp.WithFilter(func(r *http.Request) bool {
			p := r.URL.Path
			return p != "/metrics" && p != "/health"
		}),
	)
	return recoveryMiddleware(s.logger, rateLimitMiddleware(50, 100, metricsMiddleware(traced)))
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"timestamp": time.Now().UTC(),
	})
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/search" {
		http.NotFound(w, r)
		return
	}
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if s.search == nil {
		writeError(w, http.StatusInternalServerError, "internal_error", "search service is not configured")
		return
	}

	query := strings.TrimSpace(r.URL.Query().Get("q"))
	if len(query) > maxQueryLength {
		writeError(w, http.StatusBadRequest, "invalid_request", "query too long (max 500 characters)")
		return
	}

	bundle, err := s.search.Aggregate(r.Context(), query)
	if err != nil {
		s.logger.Warn("search request failed",
			slog.String("query", truncate(query, 80)),
			slog.String("error", err.Error()),
		)
		switch {
		case errors.Is(err, search.ErrNoProviders):
			writeError(w, http.StatusServiceUnavailable, "service_unavailable", err.Error())
		default:
			writeError(w, http.StatusInternalServerError, "internal_error", "search failed")
		}
		return
	}

	degraded := make([]string, 0, len(bundle.Providers))
	for _, status := range bundle.Providers {
		if status.Degraded {
			degraded = append(degraded, status.Name)
		}
	}
	s.logger.Info("search completed",
		slog.String("query", truncate(query, 80)),
		slog.Int("total", bundle.Total),
		slog.Int64("elapsedMs", bundle.ElapsedMS),
		slog.Int("degradedProviders", len(degraded)),
	)
	if len(degraded) > 0 {
		s.logger.Warn("search providers served fallback data",
			slog.String("query", truncate(query, 80)),
			slog.Any("degradedProviders", degraded),
		)
	}

	writeJSON(w, http.StatusOK, bundle)
}

func (s *Server) handleCategorySearch(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/search/category" {
		http.NotFound(w, r)
		return
	}
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if s.search == nil {
		writeError(w, http.StatusInternalServerError, "internal_error", "search service is not configured")
		return
	}

	category := strings.TrimSpace(r.URL.Query().Get("category"))
	if category == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "category is required")
		return
	}
	query := strings.TrimSpace(r.URL.Query().Get("q"))
	if len(query) > maxQueryLength {
		writeError(w, http.StatusBadRequest, "invalid_request", "query too long (max 500 characters)")
		return
	}

	result, err := s.search.AggregateForCategory(r.Context(), domain.NormalizeCategory(category), query)
	if err != nil {
		s.logger.Warn("category search failed",
			slog.String("category", category),
			slog.String("query", truncate(query, 80)),
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "internal_error", "search failed")
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleCategories(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/search/categories" {
		http.NotFound(w, r)
		return
	}
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if s.search == nil {
		writeError(w, http.StatusInternalServerError, "internal_error", "search service is not configured")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"items": s.search.Categories(),
	})
}

func (s *Server) handleProviders(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/search/providers" {
		http.NotFound(w, r)
		return
	}
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if s.search == nil {
		writeError(w, http.StatusInternalServerError, "internal_error", "search service is not configured")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"items": s.search.Providers(),
	})
}

func (s *Server) handleProvidersHealth(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/search/providers/health" {
		http.NotFound(w, r)
		return
	}
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if s.search == nil {
		writeError(w, http.StatusInternalServerError, "internal_error", "search service is not configured")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"checkedAt": time.Now().UTC(),
		"items":     s.search.ProviderDiagnostics(),
	})
}

func (s *Server) handleProviderSettings(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/search/settings/providers" {
		http.NotFound(w, r)
		return
	}
	if s.credentials == nil {
		writeError(w, http.StatusNotImplemented, "not_configured", "credential service is not configured")
		return
	}

	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, map[string]any{
			"items": s.credentials.List(),
		})
	case http.MethodPatch:
		var payload struct {
			Provider string `json:"provider"`
			APIKey   string `json:"apiKey"`
		}
		if err := decodeJSONBody(r, &payload); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
			return
		}
		provider := strings.ToLower(strings.TrimSpace(payload.Provider))
		if provider == "" {
			writeError(w, http.StatusBadRequest, "invalid_request", "provider is required")
			return
		}
		item, err := s.credentials.Update(r.Context(), provider, payload.APIKey)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
			return
		}
		writeJSON(w, http.StatusOK, item)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (s *Server) handleVideoLookup(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/video/lookup" {
		http.NotFound(w, r)
		return
	}
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if s.search == nil {
		writeError(w, http.StatusInternalServerError, "internal_error", "search service is not configured")
		return
	}

	rawURL := strings.TrimSpace(r.URL.Query().Get("url"))
	if rawURL == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "url is required")
		return
	}

	item, degraded, err := s.search.VideoLookup(r.Context(), rawURL)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeError(w, http.StatusNotFound, "not_found", "no video found for url")
			return
		}
		s.logger.Warn("video lookup failed",
			slog.String("url", truncate(rawURL, 120)),
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "internal_error", "video lookup failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"item":     item,
		"degraded": degraded,
	})
}

// handleDrafts dispatches /drafts/{session} and /drafts/{session}/{action}.
func (s *Server) handleDrafts(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/drafts/")
	session, action, _ := strings.Cut(rest, "/")
	if session == "" || strings.Contains(action, "/") {
		http.NotFound(w, r)
		return
	}
	owner := domain.SessionContext{
		SessionID: session,
		UserID:    strings.TrimSpace(r.Header.Get("X-User-Id")),
	}

	switch action {
	case "":
		s.handleDraftDiscard(w, r, owner)
	case "toggle":
		s.handleDraftToggle(w, r, owner)
	case "items":
		s.handleDraftItems(w, r, owner)
	case "commit":
		s.handleDraftCommit(w, r, owner)
	default:
		http.NotFound(w, r)
	}
}

func (s *Server) handleDraftToggle(w http.ResponseWriter, r *http.Request, owner domain.SessionContext) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	current, ok := s.draftFor(w, owner)
	if !ok {
		return
	}

	var item domain.CatalogItem
	if err := decodeJSONBody(r, &item); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	if strings.TrimSpace(item.ID) == "" || strings.TrimSpace(item.Title) == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "item id and title are required")
		return
	}

	selected := current.Toggle(item)
	writeJSON(w, http.StatusOK, map[string]any{
		"selected": selected,
		"count":    current.Len(),
	})
}

func (s *Server) handleDraftItems(w http.ResponseWriter, r *http.Request, owner domain.SessionContext) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	current, ok := s.draftFor(w, owner)
	if !ok {
		return
	}
	items := current.Items()
	writeJSON(w, http.StatusOK, map[string]any{
		"items": items,
		"count": len(items),
	})
}

func (s *Server) handleDraftCommit(w http.ResponseWriter, r *http.Request, owner domain.SessionContext) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if s.lists == nil {
		writeError(w, http.StatusNotImplemented, "not_configured", "list repository is not configured")
		return
	}
	current, ok := s.draftFor(w, owner)
	if !ok {
		return
	}

	var meta domain.ListMeta
	if err := decodeJSONBody(r, &meta); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	submission, err := current.Commit(meta)
	if err != nil {
		metrics.ListCommitsTotal.WithLabelValues("validation").Inc()
		switch {
		case errors.Is(err, domain.ErrEmptyDraft), errors.Is(err, domain.ErrEmptyTitle):
			writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
		default:
			writeError(w, http.StatusInternalServerError, "internal_error", "commit failed")
		}
		return
	}

	record, err := s.lists.SaveList(r.Context(), owner, submission)
	if err != nil {
		s.logger.Error("list save failed",
			slog.String("title", truncate(meta.Title, 80)),
			slog.Int("items", len(submission.Items)),
			slog.String("error", err.Error()),
		)
		if errors.Is(err, domain.ErrPartialWrite) {
			metrics.ListCommitsTotal.WithLabelValues("partial").Inc()
			writeError(w, http.StatusBadGateway, "partial_write", err.Error())
			return
		}
		metrics.ListCommitsTotal.WithLabelValues("error").Inc()
		writeError(w, http.StatusInternalServerError, "internal_error", "list save failed")
		return
	}

	metrics.ListCommitsTotal.WithLabelValues("ok").Inc()
	if s.drafts != nil {
		s.drafts.Discard(owner)
	}
	s.logger.Info("list committed",
		slog.String("listId", record.ID),
		slog.String("title", truncate(record.Meta.Title, 80)),
		slog.Int("items", record.ItemCount),
	)
	writeJSON(w, http.StatusCreated, record)
}

func (s *Server) handleDraftDiscard(w http.ResponseWriter, r *http.Request, owner domain.SessionContext) {
	if r.Method != http.MethodDelete {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if s.drafts == nil {
		writeError(w, http.StatusNotImplemented, "not_configured", "draft manager is not configured")
		return
	}
	s.drafts.Discard(owner)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleGetList(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/lists/")
	if id == "" || strings.Contains(id, "/") {
		http.NotFound(w, r)
		return
	}
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if s.lists == nil {
		writeError(w, http.StatusNotImplemented, "not_configured", "list repository is not configured")
		return
	}

	record, items, err := s.lists.GetList(r.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeError(w, http.StatusNotFound, "not_found", "list not found")
			return
		}
		s.logger.Error("list fetch failed",
			slog.String("listId", id),
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "internal_error", "list fetch failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"list":  record,
		"items": items,
	})
}

// draftFor resolves the caller's draft. It writes the error response itself
// when the draft cannot be resolved.
func (s *Server) draftFor(w http.ResponseWriter, owner domain.SessionContext) (*draft.Draft, bool) {
	if s.drafts == nil {
		writeError(w, http.StatusNotImplemented, "not_configured", "draft manager is not configured")
		return nil, false
	}
	current := s.drafts.Get(owner)
	if current == nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "session id is required")
		return nil, false
	}
	return current, true
}

func decodeJSONBody(r *http.Request, dest any) error {
	if r.Body == nil {
		return nil
	}
	defer r.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("read request body: %w", err)
	}
	if len(bytes.TrimSpace(payload)) == 0 {
		return nil
	}

	decoder := json.NewDecoder(bytes.NewReader(payload))
	if err := decoder.Decode(dest); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return fmt.Errorf("invalid json body: %w", err)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, map[string]any{
		"error": map[string]string{
			"code":    code,
			"message": message,
		},
	})
}
