package datamanager

import (
	"sync"
	"time"

	"law-reports-backend/internal/apperr"
	"law-reports-backend/internal/models"
)

type cachedTable struct {
	table      models.Table
	generation uint64
	loadedAt   time.Time
}

// Session is one signed-in user's view of the store. It owns a sheet cache that
// expires after the TTL or as soon as any write goes through the Manager.
type Session struct {
	ID       string
	Identity models.Identity

	ttl   time.Duration
	now   func() time.Time
	mu    sync.Mutex
	cache map[string]cachedTable
}

func NewSession(id string, identity models.Identity, ttl time.Duration) *Session {
	return &Session{
		ID:       id,
		Identity: identity,
		ttl:      ttl,
		now:      time.Now,
		cache:    make(map[string]cachedTable),
	}
}

// Authorize fails with an UnauthorizedError unless the session belongs to a signed-in user.
// A nil session is anonymous.
func (s *Session) Authorize(op string) error {
	if s == nil || !s.Identity.Authenticated {
		return &apperr.UnauthorizedError{Op: op}
	}
	return nil
}

func (s *Session) get(sheet string, generation uint64) (models.Table, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.cache[sheet]
	if !ok || c.generation != generation || (s.ttl > 0 && s.now().Sub(c.loadedAt) > s.ttl) {
		return models.Table{}, false
	}
	return c.table.Clone(), true
}

func (s *Session) put(sheet string, t models.Table, generation uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cache[sheet] = cachedTable{table: t.Clone(), generation: generation, loadedAt: s.now()}
}

// Invalidate drops every cached sheet.
func (s *Session) Invalidate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cache = make(map[string]cachedTable)
}

// Sessions tracks open sessions by id (the auth token id). A session lives until
// it is closed or its token expires; expired ones are dropped on the next Open or Sweep.
type Sessions struct {
	ttl time.Duration
	now func() time.Time
	mu  sync.Mutex
	m   map[string]*openSession
}

type openSession struct {
	sess      *Session
	expiresAt time.Time
}

func NewSessions(ttl time.Duration) *Sessions {
	return &Sessions{ttl: ttl, now: time.Now, m: make(map[string]*openSession)}
}

// Open returns the session for id, creating it on first use. expiresAt is the
// token expiry; the zero time keeps the session until Close.
func (s *Sessions) Open(id string, identity models.Identity, expiresAt time.Time) *Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sweepLocked()
	if o, ok := s.m[id]; ok {
		return o.sess
	}
	sess := NewSession(id, identity, s.ttl)
	s.m[id] = &openSession{sess: sess, expiresAt: expiresAt}
	return sess
}

// Sweep drops every session whose token has expired and returns how many went.
func (s *Sessions) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sweepLocked()
}

func (s *Sessions) sweepLocked() int {
	now := s.now()
	n := 0
	for id, o := range s.m {
		if !o.expiresAt.IsZero() && !now.Before(o.expiresAt) {
			o.sess.Invalidate()
			delete(s.m, id)
			n++
		}
	}
	return n
}

// Close tears the session down and releases its cache.
func (s *Sessions) Close(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if o, ok := s.m[id]; ok {
		o.sess.Invalidate()
		delete(s.m, id)
	}
}

func (s *Sessions) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.m)
}
