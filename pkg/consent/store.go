// Package consent holds the server-owned consent records. The store is
// authoritative: whatever the client echoes back in session state is
// reconciled against it, never trusted over it.
package consent

import (
	"context"
	"sync"
	"time"
)

// Record is the server-side consent truth for one session.
type Record struct {
	ExplicitAllowed bool      `json:"explicit_allowed"`
	GrantedAt       time.Time `json:"granted_at"`
	Reason          string    `json:"reason"`
}

// Store is the interface the reconciler reads and the router writes.
// Implementations must be safe for concurrent use; writes for the same
// session id must not be lost to a race.
type Store interface {
	// Get returns the record for a session, or nil if none exists.
	Get(ctx context.Context, sessionID string) (*Record, error)
	// Set upserts the record. GrantedAt is refreshed only on a
	// false->true transition.
	Set(ctx context.Context, sessionID string, explicitAllowed bool, reason string) error
}

// MemoryStore keeps consent records in process memory. A zero TTL means
// grants never expire.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]*Record
	ttl     time.Duration
	now     func() time.Time
}

func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		records: make(map[string]*Record),
		ttl:     ttl,
		now:     time.Now,
	}
}

func (s *MemoryStore) Get(_ context.Context, sessionID string) (*Record, error) {
	s.mu.RLock()
	rec, ok := s.records[sessionID]
	if !ok {
		s.mu.RUnlock()
		return nil, nil
	}
	// Copy before releasing the lock; Set mutates records in place.
	out := *rec
	s.mu.RUnlock()

	if s.expired(&out) {
		// Expired grants read as not allowed; the record itself stays
		// for observability.
		out.ExplicitAllowed = false
		out.Reason = "consent expired"
	}
	return &out, nil
}

func (s *MemoryStore) Set(_ context.Context, sessionID string, explicitAllowed bool, reason string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[sessionID]
	if !ok {
		rec = &Record{}
		s.records[sessionID] = rec
	}

	wasAllowed := rec.ExplicitAllowed && !s.expired(rec)
	if explicitAllowed && !wasAllowed {
		rec.GrantedAt = s.now()
	}
	rec.ExplicitAllowed = explicitAllowed
	rec.Reason = reason
	return nil
}

func (s *MemoryStore) expired(rec *Record) bool {
	return s.ttl > 0 && rec.ExplicitAllowed && s.now().Sub(rec.GrantedAt) > s.ttl
}
