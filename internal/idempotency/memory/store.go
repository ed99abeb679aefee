package memory

import (
	"context"
	"sync"
	"time"

	"github.com/dejobratic/dualwrite/internal/orders/ports"
)

type entry struct {
	response ports.StoredResponse
	storedAt time.Time
}

// Store keeps idempotency responses in process memory. A zero TTL keeps
// entries for the life of the process.
type Store struct {
	mu    sync.RWMutex
	items map[string]entry
	ttl   time.Duration
	now   func() time.Time
}

type Option func(*Store)

// WithTTL expires entries ttl after they were saved.
func WithTTL(ttl time.Duration) Option {
	return func(s *Store) { s.ttl = ttl }
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

func NewStore(opts ...Option) *Store {
	s := &Store{
		items: make(map[string]entry),
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) live(e entry) bool {
	return s.ttl <= 0 || s.now().Sub(e.storedAt) < s.ttl
}

// Get returns the stored response for key, or nil when the key was never saved or has expired.
func (s *Store) Get(_ context.Context, key string) (*ports.StoredResponse, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.items[key]
	if !ok || !s.live(e) {
		return nil, nil
	}
	response := e.response
	response.Body = append([]byte(nil), response.Body...)
	return &response, nil
}

// Save records the response for key. The first response saved wins until it expires.
func (s *Store) Save(_ context.Context, key string, response ports.StoredResponse) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e, exists := s.items[key]; exists && s.live(e) {
		return nil
	}
	response.Body = append([]byte(nil), response.Body...)
	s.items[key] = entry{response: response, storedAt: s.now()}
	return nil
}
