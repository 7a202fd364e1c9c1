// Package storage persists calculation records.
package storage

import (
	"context"
	"fmt"
	"sync"

	"github.com/eugenenazirov/load-planner/internal/calculation"
)

// MemoryStorage keeps calculation records in-memory and guards access with a RWMutex.
type MemoryStorage struct {
	mu      sync.RWMutex
	records map[string]calculation.Record
	order   []string
}

// NewMemoryStorage initialises an empty store.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		records: make(map[string]calculation.Record),
	}
}

// Create stores a new record. Ids must be unique.
func (s *MemoryStorage) Create(_ context.Context, rec calculation.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.records[rec.ID]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateID, rec.ID)
	}
	s.records[rec.ID] = cloneRecord(rec)
	s.order = append(s.order, rec.ID)
	return nil
}

// Get returns a defensive copy of the record with the given id.
func (s *MemoryStorage) Get(_ context.Context, id string) (calculation.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.records[id]
	if !ok {
		return calculation.Record{}, notFound(id)
	}
	return cloneRecord(rec), nil
}

// Update replaces an existing record.
func (s *MemoryStorage) Update(_ context.Context, rec calculation.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.records[rec.ID]; !ok {
		return notFound(rec.ID)
	}
	s.records[rec.ID] = cloneRecord(rec)
	return nil
}

// List returns every record in insertion order.
func (s *MemoryStorage) List(context.Context) ([]calculation.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]calculation.Record, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, cloneRecord(s.records[id]))
	}
	return out, nil
}

// FindByLabel returns the records with the given label and status, in insertion order.
func (s *MemoryStorage) FindByLabel(_ context.Context, label string, status calculation.Status) ([]calculation.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []calculation.Record{}
	for _, id := range s.order {
		rec := s.records[id]
		if rec.Label == label && rec.Status == status {
			out = append(out, cloneRecord(rec))
		}
	}
	return out, nil
}

// cloneRecord copies the line slice. Results are never mutated after
// creation, so the pointer is shared.
func cloneRecord(rec calculation.Record) calculation.Record {
	out := rec
	if rec.Lines != nil {
		out.Lines = make([]calculation.LineRequest, len(rec.Lines))
		copy(out.Lines, rec.Lines)
	}
	return out
}

var _ calculation.Store = (*MemoryStorage)(nil)
