package database

import (
	"context"
	"sort"
	"sync"

	"github.com/factchecker/claimradar/internal/models"
)

// MemoryStore keeps verifications in process memory. Used for tests and
// dry runs; contents are lost on exit.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]*models.VerificationRecord
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string]*models.VerificationRecord)}
}

// Insert stores a copy of rec.
func (s *MemoryStore) Insert(ctx context.Context, rec *models.VerificationRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.records[rec.TextHash]; exists {
		return ErrConflict
	}
	s.records[rec.TextHash] = cloneRecord(rec)
	return nil
}

// GetByHash returns a copy of the stored record.
func (s *MemoryStore) GetByHash(ctx context.Context, hash string) (*models.VerificationRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.records[hash]
	if !ok {
		return nil, nil
	}
	return cloneRecord(rec), nil
}

// AllWithKeywords returns copies ordered by creation time.
func (s *MemoryStore) AllWithKeywords(ctx context.Context) ([]*models.VerificationRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	out := make([]*models.VerificationRecord, 0, len(s.records))
	for _, rec := range s.records {
		if len(rec.Keywords) > 0 {
			out = append(out, cloneRecord(rec))
		}
	}
	s.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].TextHash < out[j].TextHash
	})
	return out, nil
}

// Len returns the number of stored records.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

func (s *MemoryStore) Ping(ctx context.Context) error { return nil }
func (s *MemoryStore) Migrate() error                 { return nil }
func (s *MemoryStore) Close() error                   { return nil }

func cloneRecord(rec *models.VerificationRecord) *models.VerificationRecord {
	c := *rec
	c.Keywords = append([]string(nil), rec.Keywords...)
	c.Sources = append([]string(nil), rec.Sources...)
	return &c
}
