package draft

import (
	"strings"
	"sync"
	"time"

	"curately/catalogservice/internal/domain"
)

const (
	defaultSessionTTL  = 2 * time.Hour
	defaultMaxSessions = 10000
)

type session struct {
	draft    *Draft
	lastSeen time.Time
}

// Manager owns per-session drafts for the HTTP surface. Sessions are keyed by
// the caller-provided session ID from SessionContext; there is no ambient
// session state. Idle sessions are dropped lazily on access.
type Manager struct {
	mu          sync.Mutex
	sessions    map[string]*session
	ttl         time.Duration
	maxSessions int
	now         func() time.Time
}

func NewManager() *Manager {
	return &Manager{
		sessions:    make(map[string]*session),
		ttl:         defaultSessionTTL,
		maxSessions: defaultMaxSessions,
		now:         time.Now,
	}
}

// Get returns the draft for the session, creating one on first use. An empty
// session ID yields nil.
func (m *Manager) Get(sc domain.SessionContext) *Draft {
	sessionID := strings.TrimSpace(sc.SessionID)
	if sessionID == "" {
		return nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	m.evictLocked(now)

	entry, ok := m.sessions[sessionID]
	if !ok {
		entry = &session{draft: New()}
		m.sessions[sessionID] = entry
	}
	entry.lastSeen = now
	return entry.draft
}

// Discard drops the session's draft, for cancel and post-commit cleanup.
func (m *Manager) Discard(sc domain.SessionContext) {
	sessionID := strings.TrimSpace(sc.SessionID)
	if sessionID == "" {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, sessionID)
}

func (m *Manager) evictLocked(now time.Time) {
	for id, entry := range m.sessions {
		if now.Sub(entry.lastSeen) > m.ttl {
			delete(m.sessions, id)
		}
	}
	if len(m.sessions) < m.maxSessions {
		return
	}
	// Hard cap: drop the stalest session to make room.
	var oldestID string
	var oldest time.Time
	for id, entry := range m.sessions {
		if oldestID == "" || entry.lastSeen.Before(oldest) {
			oldestID = id
			oldest = entry.lastSeen
		}
	}
	if oldestID != "" {
		delete(m.sessions, oldestID)
	}
}
