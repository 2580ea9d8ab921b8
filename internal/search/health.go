package search

import (
	"sort"
	"strings"
	"time"

	"curately/catalogservice/internal/domain"
	"curately/catalogservice/internal/metrics"
)

// providerHealth tracks one adapter's live-vs-fallback history. A fallback is
// not a failure from the caller's point of view, but operators want to see
// which adapters are actually reaching their upstreams.
type providerHealth struct {
	totalRequests int64
	liveResponses int64
	fallbacks     int64
	lastError     string
	lastLiveAt    time.Time
	lastFallback  time.Time
	lastLatency   time.Duration
	lastQuery     string
}

func (s *Service) recordProviderOutcome(providerName, query string, result domain.ProviderResult, err error, latency time.Duration, now time.Time) {
	name := strings.ToLower(strings.TrimSpace(providerName))
	if name == "" {
		return
	}

	s.healthMu.Lock()
	defer s.healthMu.Unlock()

	state := s.health[name]
	if state == nil {
		state = &providerHealth{}
		s.health[name] = state
	}
	state.totalRequests++
	state.lastQuery = strings.TrimSpace(query)
	if latency > 0 {
		state.lastLatency = latency
		metrics.ProviderRequestDuration.WithLabelValues(name).Observe(latency.Seconds())
	}

	switch {
	case err != nil:
		state.fallbacks++
		state.lastFallback = now
		state.lastError = err.Error()
		metrics.ProviderRequestsTotal.WithLabelValues(name, "error").Inc()
		metrics.ProviderLive.WithLabelValues(name).Set(0)
	case result.Degraded:
		state.fallbacks++
		state.lastFallback = now
		state.lastError = string(result.Reason)
		metrics.ProviderRequestsTotal.WithLabelValues(name, "fallback").Inc()
		metrics.ProviderLive.WithLabelValues(name).Set(0)
	default:
		state.liveResponses++
		state.lastLiveAt = now
		state.lastError = ""
		metrics.ProviderRequestsTotal.WithLabelValues(name, "live").Inc()
		metrics.ProviderLive.WithLabelValues(name).Set(1)
	}
}

// ProviderDiagnostics reports per-adapter counters for the operator surface,
// sorted by name.
func (s *Service) ProviderDiagnostics() []domain.ProviderDiagnostics {
	infos := s.Providers()
	if len(infos) == 0 {
		return nil
	}

	s.healthMu.Lock()
	defer s.healthMu.Unlock()

	items := make([]domain.ProviderDiagnostics, 0, len(infos))
	for _, info := range infos {
		name := strings.ToLower(strings.TrimSpace(info.Name))
		item := domain.ProviderDiagnostics{
			Name:  info.Name,
			Label: info.Label,
			Live:  info.Live,
		}
		if state := s.health[name]; state != nil {
			item.TotalRequests = state.totalRequests
			item.LiveResponses = state.liveResponses
			item.Fallbacks = state.fallbacks
			item.LastError = state.lastError
			if !state.lastLiveAt.IsZero() {
				lastLiveAt := state.lastLiveAt
				item.LastLiveAt = &lastLiveAt
			}
			if !state.lastFallback.IsZero() {
				lastFallback := state.lastFallback
				item.LastFallback = &lastFallback
			}
			item.LastLatencyMS = state.lastLatency.Milliseconds()
			item.LastQuery = state.lastQuery
		}
		items = append(items, item)
	}

	sort.Slice(items, func(i, j int) bool {
		return strings.ToLower(items[i].Name) < strings.ToLower(items[j].Name)
	})
	return items
}
