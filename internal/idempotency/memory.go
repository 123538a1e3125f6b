package idempotency

import (
	"context"
	"sync"
	"time"
)

// MemoryStore keeps records in process memory. Nothing survives a restart.
type MemoryStore struct {
	mu      sync.Mutex
	ttl     time.Duration
	records map[Key]Record
}

func NewMemoryStore(ttl time.Duration) *MemoryStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &MemoryStore{ttl: ttl, records: make(map[Key]Record)}
}

func (s *MemoryStore) Lookup(_ context.Context, k Key) (Record, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[k]
	return rec, ok, nil
}

func (s *MemoryStore) Save(_ context.Context, k Key, signature string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[k] = Record{Signature: signature, RecordedAt: at}
	return nil
}

func (s *MemoryStore) Sweep(_ context.Context, now time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for k, rec := range s.records {
		if expired(rec, now, s.ttl) {
			delete(s.records, k)
			removed++
		}
	}
	return removed, nil
}

// Len reports the number of live records.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}
