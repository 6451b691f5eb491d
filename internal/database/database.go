// Package database provides the verification store with support for multiple backends.
package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/factchecker/claimradar/internal/config"
	"github.com/factchecker/claimradar/internal/models"
	"github.com/rs/zerolog/log"
)

var (
	// ErrConflict is returned when a record with the same text hash exists.
	ErrConflict = errors.New("verification already stored for text hash")

	// ErrUnavailable is returned when persistent storage cannot be reached.
	ErrUnavailable = errors.New("verification store unavailable")
)

// Store defines the interface for verification persistence.
type Store interface {
	// Insert stores a new record. Returns ErrConflict if the hash exists.
	Insert(ctx context.Context, rec *models.VerificationRecord) error

	// GetByHash returns the record for hash, or nil if none exists.
	GetByHash(ctx context.Context, hash string) (*models.VerificationRecord, error)

	// AllWithKeywords returns every record that has at least one keyword.
	AllWithKeywords(ctx context.Context) ([]*models.VerificationRecord, error)

	// Lifecycle
	Ping(ctx context.Context) error
	Migrate() error
	Close() error
}

// Open creates the store selected by cfg. A backend that cannot be opened
// is replaced by an Unavailable store so the caller can keep serving
// requests without a cache; the returned error is informational.
func Open(cfg config.DatabaseConfig) (Store, error) {
	var (
		store Store
		err   error
	)
	switch cfg.Driver {
	case "sqlite":
		store, err = NewSQLiteStore(cfg.Path)
	case "badger":
		store, err = NewBadgerStore(BadgerConfig{Path: cfg.Path, SyncWrites: true})
	case "memory":
		store = NewMemoryStore()
	default:
		err = fmt.Errorf("unsupported database driver: %s", cfg.Driver)
	}
	if err != nil {
		log.Error().Err(err).Str("driver", cfg.Driver).Msg("Verification store unavailable, caching disabled")
		return NewUnavailableStore(err), err
	}
	return store, nil
}

func unavailable(err error) error {
	if err == nil || errors.Is(err, ErrUnavailable) {
		return err
	}
	return fmt.Errorf("%w: %v", ErrUnavailable, err)
}
