package database

import (
	"context"

	"github.com/factchecker/claimradar/internal/models"
)

// UnavailableStore stands in for a store whose backend failed to open.
// Every operation reports ErrUnavailable.
type UnavailableStore struct {
	cause error
}

// NewUnavailableStore creates a store that always fails with ErrUnavailable.
func NewUnavailableStore(cause error) *UnavailableStore {
	return &UnavailableStore{cause: cause}
}

func (s *UnavailableStore) err() error {
	if s.cause == nil {
		return ErrUnavailable
	}
	return unavailable(s.cause)
}

// Insert always fails.
func (s *UnavailableStore) Insert(ctx context.Context, rec *models.VerificationRecord) error {
	return s.err()
}

// GetByHash always fails.
func (s *UnavailableStore) GetByHash(ctx context.Context, hash string) (*models.VerificationRecord, error) {
	return nil, s.err()
}

// AllWithKeywords always fails.
func (s *UnavailableStore) AllWithKeywords(ctx context.Context) ([]*models.VerificationRecord, error) {
	return nil, s.err()
}

// Ping always fails.
func (s *UnavailableStore) Ping(ctx context.Context) error { return s.err() }

// Migrate always fails.
func (s *UnavailableStore) Migrate() error { return s.err() }

// Close is a no-op.
func (s *UnavailableStore) Close() error { return nil }
