package httpapi

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"sync"
	"time"

	"golang.org/x/time/rate"
	"pkt.systems/hackterm/internal/logx"
	"pkt.systems/hackterm/schema"
)

// session binds a browser cookie to a core terminal session.
type session struct {
	id        string
	coreID    schema.SessionID
	expiresAt time.Time
	limiter   *rate.Limiter
}

type sessionStore struct {
	mu       sync.Mutex
	ttl      time.Duration
	limit    rate.Limit
	burst    int
	items    map[string]session
	now      func() time.Time
	onExpire func(schema.SessionID)
}

func newSessionStore(ttl time.Duration, limit float64, burst int) *sessionStore {
	return &sessionStore{
		ttl:   ttl,
		limit: rate.Limit(limit),
		burst: burst,
		items: make(map[string]session),
		now:   time.Now,
	}
}

func (s *sessionStore) create(coreID schema.SessionID) (string, session) {
	token := randomToken(32)
	entry := session{
		id:        randomToken(12),
		coreID:    coreID,
		expiresAt: s.now().Add(s.ttl),
		limiter:   rate.NewLimiter(s.limit, s.burst),
	}
	s.mu.Lock()
	s.items[token] = entry
	count := len(s.items)
	s.mu.Unlock()
	logx.WithSession(context.Background(), coreID).With("http_session", entry.id).Info("session created", "expires", entry.expiresAt.Format(time.RFC3339), "sessions", count)
	return token, entry
}

func (s *sessionStore) get(token string) (session, bool) {
	if token == "" {
		return session{}, false
	}
	s.mu.Lock()
	entry, ok := s.items[token]
	if !ok {
		s.mu.Unlock()
		return session{}, false
	}
	if s.now().After(entry.expiresAt) {
		delete(s.items, token)
		s.mu.Unlock()
		s.expired(entry)
		return session{}, false
	}
	s.mu.Unlock()
	return entry, true
}

// rebind points an existing cookie at a new core session.
func (s *sessionStore) rebind(token string, coreID schema.SessionID) (session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.items[token]
	if !ok {
		return session{}, false
	}
	entry.coreID = coreID
	s.items[token] = entry
	return entry, true
}

func (s *sessionStore) delete(token string) {
	s.mu.Lock()
	entry, ok := s.items[token]
	if ok {
		delete(s.items, token)
	}
	s.mu.Unlock()
	if ok {
		logx.WithSession(context.Background(), entry.coreID).With("http_session", entry.id).Info("session deleted")
	}
}

// sweep drops every expired entry and reports how many were removed.
func (s *sessionStore) sweep() int {
	now := s.now()
	var expired []session
	s.mu.Lock()
	for token, entry := range s.items {
		if now.After(entry.expiresAt) {
			delete(s.items, token)
			expired = append(expired, entry)
		}
	}
	s.mu.Unlock()
	for _, entry := range expired {
		s.expired(entry)
	}
	return len(expired)
}

func (s *sessionStore) len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

func (s *sessionStore) expired(entry session) {
	logx.WithSession(context.Background(), entry.coreID).With("http_session", entry.id).Info("session expired")
	if s.onExpire != nil {
		s.onExpire(entry.coreID)
	}
}

func randomToken(size int) string {
	buf := make([]byte, size)
	if _, err := rand.Read(buf); err != nil {
		return ""
	}
	return base64.RawURLEncoding.EncodeToString(buf)
}
