// Package database provides SQLite implementation of the Store interface.
package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/factchecker/claimradar/internal/models"
	"github.com/mattn/go-sqlite3"
)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates a new SQLite store.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	// Ensure directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Test connection
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	store := &SQLiteStore{db: db}
	if err := store.Migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return store, nil
}

// Migrate runs database migrations.
func (s *SQLiteStore) Migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS verifications (
			id TEXT PRIMARY KEY,
			input_id TEXT NOT NULL,
			text_hash TEXT NOT NULL,
			keywords TEXT NOT NULL,
			keyword_count INTEGER NOT NULL,
			correctness INTEGER NOT NULL,
			out_of_domain INTEGER NOT NULL,
			misinfo TEXT NOT NULL,
			rightinfo TEXT NOT NULL,
			confidence_score TEXT NOT NULL,
			sources TEXT NOT NULL,
			created_at DATETIME NOT NULL
		)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_verifications_hash ON verifications(text_hash)`,
		`CREATE INDEX IF NOT EXISTS idx_verifications_keywords ON verifications(keyword_count)`,
	}

	for _, m := range migrations {
		if _, err := s.db.Exec(m); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}
	return nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Ping checks the connection.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return unavailable(s.db.PingContext(ctx))
}

// Insert stores a verification record.
func (s *SQLiteStore) Insert(ctx context.Context, rec *models.VerificationRecord) error {
	keywordsJSON, err := json.Marshal(nonNil(rec.Keywords))
	if err != nil {
		return fmt.Errorf("encode keywords: %w", err)
	}
	sourcesJSON, err := json.Marshal(nonNil(rec.Sources))
	if err != nil {
		return fmt.Errorf("encode sources: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO verifications (id, input_id, text_hash, keywords, keyword_count, correctness,
			out_of_domain, misinfo, rightinfo, confidence_score, sources, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.InputID, rec.TextHash, string(keywordsJSON), len(rec.Keywords),
		rec.Correctness, rec.OutOfDomain, rec.Misinfo, rec.Rightinfo,
		string(rec.Confidence), string(sourcesJSON), rec.CreatedAt.UTC(),
	)
	if isUniqueViolation(err) {
		return ErrConflict
	}
	return unavailable(err)
}

const selectVerification = `
	SELECT id, input_id, text_hash, keywords, correctness, out_of_domain, misinfo, rightinfo,
		confidence_score, sources, created_at
	FROM verifications`

// GetByHash retrieves a verification by text hash.
func (s *SQLiteStore) GetByHash(ctx context.Context, hash string) (*models.VerificationRecord, error) {
	row := s.db.QueryRowContext(ctx, selectVerification+` WHERE text_hash = ?`, hash)

	rec, err := scanVerification(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, unavailable(err)
	}
	return rec, nil
}

// AllWithKeywords returns every record that can take part in similarity matching.
func (s *SQLiteStore) AllWithKeywords(ctx context.Context) ([]*models.VerificationRecord, error) {
	rows, err := s.db.QueryContext(ctx, selectVerification+`
		WHERE keyword_count > 0 ORDER BY created_at, text_hash`)
	if err != nil {
		return nil, unavailable(err)
	}
	defer rows.Close()

	var records []*models.VerificationRecord
	for rows.Next() {
		rec, err := scanVerification(rows)
		if err != nil {
			return nil, unavailable(err)
		}
		records = append(records, rec)
	}
	return records, unavailable(rows.Err())
}

type scanner interface {
	Scan(dest ...any) error
}

func scanVerification(row scanner) (*models.VerificationRecord, error) {
	var (
		rec          models.VerificationRecord
		keywordsJSON string
		sourcesJSON  string
		confidence   string
	)
	if err := row.Scan(&rec.ID, &rec.InputID, &rec.TextHash, &keywordsJSON, &rec.Correctness,
		&rec.OutOfDomain, &rec.Misinfo, &rec.Rightinfo, &confidence, &sourcesJSON,
		&rec.CreatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(keywordsJSON), &rec.Keywords); err != nil {
		return nil, fmt.Errorf("decode keywords: %w", err)
	}
	if err := json.Unmarshal([]byte(sourcesJSON), &rec.Sources); err != nil {
		return nil, fmt.Errorf("decode sources: %w", err)
	}
	rec.Confidence = models.Confidence(confidence)
	return &rec, nil
}

func isUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
			sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}
	return false
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
