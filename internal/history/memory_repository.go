package history

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryRepository is an in-memory implementation of Repository.
// Intended for tests and single-instance deployments without Postgres.
type MemoryRepository struct {
	mu      sync.RWMutex
	records map[string][]*Record
}

// NewMemoryRepository creates a new in-memory history repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		records: make(map[string][]*Record),
	}
}

// Append stores a record.
func (r *MemoryRepository) Append(_ context.Context, record *Record) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored := *record
	if stored.ID == "" {
		stored.ID = uuid.NewString()
	}
	record.ID = stored.ID

	r.records[stored.GridKey] = append(r.records[stored.GridKey], &stored)
	return nil
}

// ListSince returns records for a grid cell recorded at or after since.
func (r *MemoryRepository) ListSince(_ context.Context, gridKey string, since time.Time) ([]*Record, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []*Record
	for _, record := range r.records[gridKey] {
		if !record.RecordedAt.Before(since) {
			copied := *record
			result = append(result, &copied)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].RecordedAt.Before(result[j].RecordedAt)
	})

	return result, nil
}

// DeleteOlderThan removes records recorded before the cutoff.
func (r *MemoryRepository) DeleteOlderThan(_ context.Context, cutoff time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var deleted int64
	for key, records := range r.records {
		kept := records[:0]
		for _, record := range records {
			if record.RecordedAt.Before(cutoff) {
				deleted++
				continue
			}
			kept = append(kept, record)
		}
		if len(kept) == 0 {
			delete(r.records, key)
		} else {
			r.records[key] = kept
		}
	}

	return deleted, nil
}
