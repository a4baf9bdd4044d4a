package testutil

import (
	"context"
	"sync"
	"time"
)

// MemoryStorage implements the flow client storage
type MemoryStorage struct {
	TakeErr   error
	SetErr    error
	DeleteErr error

	Values map[string]string

	mu sync.Mutex
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{Values: make(map[string]string)}
}

func (s *MemoryStorage) Take(_ context.Context, key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.TakeErr != nil {
		return "", false, s.TakeErr
	}
	v, ok := s.Values[key]
	delete(s.Values, key)
	return v, ok, nil
}

func (s *MemoryStorage) Set(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.SetErr != nil {
		return s.SetErr
	}
	s.Values[key] = value
	return nil
}

func (s *MemoryStorage) Delete(_ context.Context, keys ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.DeleteErr != nil {
		return s.DeleteErr
	}
	for _, k := range keys {
		delete(s.Values, k)
	}
	return nil
}

// Has reports whether key is stored
func (s *MemoryStorage) Has(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.Values[key]
	return ok
}

// Revoker implements service.SessionRevoker
type Revoker struct {
	Err     error
	Revoked map[string]time.Duration

	mu sync.Mutex
}

func NewRevoker() *Revoker {
	return &Revoker{Revoked: make(map[string]time.Duration)}
}

func (r *Revoker) Revoke(_ context.Context, sessionID string, ttl time.Duration) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}
	r.Revoked[sessionID] = ttl
	return nil
}

func (r *Revoker) IsRevoked(_ context.Context, sessionID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return false, r.Err
	}
	_, ok := r.Revoked[sessionID]
	return ok, nil
}

// Limiter implements service.Limiter with a fixed budget per key
type Limiter struct {
	Err        error
	RetryAfter time.Duration

	hits map[string]int
	mu   sync.Mutex
}

func (l *Limiter) Allow(_ context.Context, key string, limit int, _ time.Duration) (bool, time.Duration, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.Err != nil {
		return false, 0, l.Err
	}
	if l.hits == nil {
		l.hits = make(map[string]int)
	}
	if l.hits[key] >= limit {
		retry := l.RetryAfter
		if retry == 0 {
			retry = time.Minute
		}
		return false, retry, nil
	}
	l.hits[key]++
	return true, 0, nil
}
