package gate

import (
	"context"
	"sync"
	"time"
)

type entry struct {
	hits        []time.Time
	bannedUntil time.Time
}

// MemoryStore keeps request history in process memory. State is lost on restart.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]*entry
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]*entry)}
}

func (s *MemoryStore) Hit(_ context.Context, key string, now time.Time) (int, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[key]
	if !ok {
		e = &entry{}
		s.entries[key] = e
	}

	e.hits = prune(e.hits, now.Add(-hourWindow))
	e.hits = append(e.hits, now)

	minuteStart := now.Add(-minuteWindow)
	minute := 0
	for i := len(e.hits) - 1; i >= 0 && e.hits[i].After(minuteStart); i-- {
		minute++
	}
	return minute, len(e.hits), nil
}

func (s *MemoryStore) BannedUntil(_ context.Context, key string, now time.Time) (time.Time, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[key]
	if !ok || !e.bannedUntil.After(now) {
		return time.Time{}, false, nil
	}
	return e.bannedUntil, true, nil
}

func (s *MemoryStore) Ban(_ context.Context, key string, now time.Time, d time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[key]
	if !ok {
		e = &entry{}
		s.entries[key] = e
	}
	e.bannedUntil = now.Add(d)
	return nil
}

// Sweep drops identifiers with no recent hits and no active ban.
func (s *MemoryStore) Sweep(now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for key, e := range s.entries {
		e.hits = prune(e.hits, now.Add(-hourWindow))
		if len(e.hits) == 0 && !e.bannedUntil.After(now) {
			delete(s.entries, key)
			removed++
		}
	}
	return removed
}

func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// RunJanitor sweeps every interval until ctx is done.
func (s *MemoryStore) RunJanitor(ctx context.Context, interval time.Duration, now func() time.Time) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.Sweep(now())
		case <-ctx.Done():
			return
		}
	}
}

// prune drops timestamps not after cutoff. hits is sorted ascending.
func prune(hits []time.Time, cutoff time.Time) []time.Time {
	i := 0
	for i < len(hits) && !hits[i].After(cutoff) {
		i++
	}
	if i == 0 {
		return hits
	}
	return append(hits[:0], hits[i:]...)
}
