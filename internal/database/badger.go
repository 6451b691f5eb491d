package database

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"

	"github.com/dgraph-io/badger/v4"
	"github.com/factchecker/claimradar/internal/models"
	"github.com/rs/zerolog/log"
)

// hashPrefix namespaces verification keys: v:hash:<text_hash> -> JSON record.
var hashPrefix = []byte("v:hash:")

// BadgerConfig holds configuration for the embedded BadgerDB backend.
type BadgerConfig struct {
	// Path is the database directory. Ignored when InMemory is set.
	Path string

	// InMemory keeps everything in RAM. Used by tests.
	InMemory bool

	// SyncWrites fsyncs every commit.
	SyncWrites bool
}

// BadgerStore implements Store on top of BadgerDB. Uniqueness of the text
// hash is enforced inside a read-write transaction; concurrent inserts of
// the same hash surface as a transaction conflict on commit.
type BadgerStore struct {
	db *badger.DB
}

// NewBadgerStore opens a Badger database.
func NewBadgerStore(cfg BadgerConfig) (*BadgerStore, error) {
	if !cfg.InMemory && cfg.Path == "" {
		return nil, errors.New("path is required for persistent database")
	}

	var opts badger.Options
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if err := os.MkdirAll(cfg.Path, 0750); err != nil {
			return nil, fmt.Errorf("create database directory %s: %w", cfg.Path, err)
		}
		opts = badger.DefaultOptions(cfg.Path)
	}
	opts = opts.WithSyncWrites(cfg.SyncWrites).
		WithNumVersionsToKeep(1).
		WithLogger(badgerLogger{})

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger database: %w", err)
	}
	return &BadgerStore{db: db}, nil
}

// Migrate is a no-op; the key layout needs no schema.
func (s *BadgerStore) Migrate() error { return nil }

// Close closes the database.
func (s *BadgerStore) Close() error { return s.db.Close() }

// Ping reports whether the database is still open.
func (s *BadgerStore) Ping(ctx context.Context) error {
	if s.db.IsClosed() {
		return ErrUnavailable
	}
	return nil
}

// Insert stores rec unless its hash is already present.
func (s *BadgerStore) Insert(ctx context.Context, rec *models.VerificationRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode record: %w", err)
	}
	key := hashKey(rec.TextHash)

	err = s.db.Update(func(txn *badger.Txn) error {
		_, err := txn.Get(key)
		switch {
		case err == nil:
			return ErrConflict
		case !errors.Is(err, badger.ErrKeyNotFound):
			return err
		}
		return txn.Set(key, data)
	})
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrConflict), errors.Is(err, badger.ErrConflict):
		// A concurrent transaction committed the same key first.
		return ErrConflict
	default:
		return unavailable(err)
	}
}

// GetByHash returns the record stored under hash.
func (s *BadgerStore) GetByHash(ctx context.Context, hash string) (*models.VerificationRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var rec *models.VerificationRecord
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(hashKey(hash))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			rec, err = decodeRecord(val)
			return err
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, unavailable(err)
	}
	return rec, nil
}

// AllWithKeywords iterates the hash prefix and returns records with keywords.
func (s *BadgerStore) AllWithKeywords(ctx context.Context) ([]*models.VerificationRecord, error) {
	var records []*models.VerificationRecord
	err := s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		for it.Seek(hashPrefix); it.ValidForPrefix(hashPrefix); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			err := it.Item().Value(func(val []byte) error {
				rec, err := decodeRecord(val)
				if err != nil {
					return err
				}
				if len(rec.Keywords) > 0 {
					records = append(records, rec)
				}
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, unavailable(err)
	}
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].CreatedAt.Before(records[j].CreatedAt)
	})
	return records, nil
}

func hashKey(hash string) []byte {
	return append(append([]byte{}, hashPrefix...), hash...)
}

func decodeRecord(val []byte) (*models.VerificationRecord, error) {
	var rec models.VerificationRecord
	if err := json.Unmarshal(val, &rec); err != nil {
		return nil, fmt.Errorf("decode record: %w", err)
	}
	return &rec, nil
}

// badgerLogger routes Badger's internal logging to zerolog.
type badgerLogger struct{}

func (badgerLogger) Errorf(format string, args ...interface{}) {
	log.Error().Str("component", "badger").Msgf(format, args...)
}

func (badgerLogger) Warningf(format string, args ...interface{}) {
	log.Warn().Str("component", "badger").Msgf(format, args...)
}

func (badgerLogger) Infof(format string, args ...interface{}) {
	log.Debug().Str("component", "badger").Msgf(format, args...)
}

func (badgerLogger) Debugf(format string, args ...interface{}) {
	log.Trace().Str("component", "badger").Msgf(format, args...)
}
