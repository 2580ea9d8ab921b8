package credentials

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"curately/catalogservice/internal/providers/common"
)

var ErrUnknownProvider = errors.New("unknown provider")

// KeyReceiver is implemented by adapters whose API key can be swapped at
// runtime.
type KeyReceiver interface {
	SetAPIKey(key string)
}

// ProviderConfig is the operator-facing view of one provider's credential
// state. The key itself is never exposed, only a masked tail.
type ProviderConfig struct {
	Name       string `json:"name"`
	Configured bool   `json:"configured"`
	Source     string `json:"source"` // "env", "runtime" or "none"
	MaskedKey  string `json:"maskedKey,omitempty"`
}

type entry struct {
	receiver   KeyReceiver
	envKey     string
	runtimeKey string
}

// Service resolves each provider's effective API key: a runtime override
// stored in Redis wins over the env default. Overrides survive restarts via
// the store and are pushed into the live adapters on Update.
type Service struct {
	mu      sync.Mutex
	entries map[string]*entry
	store   Store
}

func NewService(store Store) *Service {
	return &Service{
		entries: make(map[string]*entry),
		store:   store,
	}
}

// Register binds one adapter and its env-sourced default key. Call before
// Restore.
func (s *Service) Register(name string, receiver KeyReceiver, envKey string) {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" || receiver == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[key] = &entry{receiver: receiver, envKey: strings.TrimSpace(envKey)}
}

// Restore loads persisted overrides and applies them to the registered
// adapters. Store errors are swallowed; env defaults already applied at
// construction keep working.
func (s *Service) Restore(ctx context.Context) {
	if s.store == nil {
		return
	}
	loadCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	overrides, err := s.store.Load(loadCtx)
	if err != nil || len(overrides) == 0 {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for name, key := range overrides {
		e := s.entries[strings.ToLower(strings.TrimSpace(name))]
		if e == nil {
			continue
		}
		e.runtimeKey = strings.TrimSpace(key)
		e.receiver.SetAPIKey(e.effectiveKey())
	}
}

// Update sets or clears (empty key) one provider's runtime override, applies
// the effective key to the live adapter and persists the change.
func (s *Service) Update(ctx context.Context, name, key string) (ProviderConfig, error) {
	providerName := strings.ToLower(strings.TrimSpace(name))

	s.mu.Lock()
	e := s.entries[providerName]
	if e == nil {
		s.mu.Unlock()
		return ProviderConfig{}, ErrUnknownProvider
	}
	e.runtimeKey = strings.TrimSpace(key)
	e.receiver.SetAPIKey(e.effectiveKey())
	config := e.config(providerName)
	s.mu.Unlock()

	if s.store != nil {
		if err := s.store.Save(ctx, providerName, e.runtimeKey); err != nil {
			return config, err
		}
	}
	return config, nil
}

// List reports every registered provider's credential state, sorted by name.
func (s *Service) List() []ProviderConfig {
	s.mu.Lock()
	defer s.mu.Unlock()

	items := make([]ProviderConfig, 0, len(s.entries))
	for name, e := range s.entries {
		items = append(items, e.config(name))
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i].Name < items[j].Name
	})
	return items
}

func (e *entry) effectiveKey() string {
	if e.runtimeKey != "" {
		return e.runtimeKey
	}
	return e.envKey
}

func (e *entry) config(name string) ProviderConfig {
	effective := e.effectiveKey()
	config := ProviderConfig{
		Name:       name,
		Configured: common.CredentialConfigured(effective),
		Source:     "none",
	}
	switch {
	case e.runtimeKey != "":
		config.Source = "runtime"
	case e.envKey != "":
		config.Source = "env"
	}
	if config.Configured {
		config.MaskedKey = maskKey(effective)
	}
	return config
}

func maskKey(key string) string {
	if len(key) <= 4 {
		return "****"
	}
	return "****" + key[len(key)-4:]
}
