package history

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// MemoryStore implements Store using an in-memory slice.
// Records are lost on restart; use the SQLite backend when the
// timeline must survive.
type MemoryStore struct {
	records []*Record
	mu      sync.RWMutex
}

// NewMemoryStore creates a new in-memory history store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Append persists a record to memory.
func (s *MemoryStore) Append(ctx context.Context, record *Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.records {
		if existing.ID == record.ID {
			return NewStorageError("memory", "append",
				fmt.Errorf("duplicate record id %q", record.ID))
		}
	}

	// Create a copy to avoid mutation after append
	recordCopy := *record
	s.records = append(s.records, &recordCopy)

	return nil
}

// Query retrieves records matching the filter, newest first.
func (s *MemoryStore) Query(ctx context.Context, query *Query) ([]*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	results := []*Record{}
	for _, record := range s.records {
		if matchesQuery(record, query) {
			recordCopy := *record
			results = append(results, &recordCopy)
		}
	}

	sort.Slice(results, func(i, j int) bool {
		return results[i].RecordedAt.After(results[j].RecordedAt)
	})

	if query == nil {
		return results, nil
	}

	// Apply pagination
	if query.Offset > 0 {
		if query.Offset >= len(results) {
			return []*Record{}, nil
		}
		results = results[query.Offset:]
	}
	if query.Limit > 0 && len(results) > query.Limit {
		results = results[:query.Limit]
	}

	return results, nil
}

// Count returns the number of records matching the filter.
func (s *MemoryStore) Count(ctx context.Context, query *Query) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var count int64
	for _, record := range s.records {
		if matchesQuery(record, query) {
			count++
		}
	}

	return count, nil
}

// Delete removes records matching the filter.
func (s *MemoryStore) Delete(ctx context.Context, query *Query) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	remaining := make([]*Record, 0, len(s.records))
	var deleted int64
	for _, record := range s.records {
		if matchesQuery(record, query) {
			deleted++
			continue
		}
		remaining = append(remaining, record)
	}
	s.records = remaining

	return deleted, nil
}

// Close releases resources held by the store.
func (s *MemoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records = nil
	return nil
}

// Size returns the number of records in the store (for testing).
func (s *MemoryStore) Size() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.records)
}
