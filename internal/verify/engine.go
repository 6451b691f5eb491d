// Package verify provides the verification cache and the agent it delegates to.
package verify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/factchecker/claimradar/internal/config"
	"github.com/factchecker/claimradar/internal/database"
	"github.com/factchecker/claimradar/internal/fingerprint"
	"github.com/factchecker/claimradar/internal/keywords"
	"github.com/factchecker/claimradar/internal/models"
	"github.com/factchecker/claimradar/internal/similarity"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// ErrEmptyText is returned for requests without any text to verify.
var ErrEmptyText = errors.New("text to verify is empty")

// CollaboratorError reports that the verification agent failed or timed out.
type CollaboratorError struct {
	Err error
}

func (e *CollaboratorError) Error() string {
	return "verification agent failed: " + e.Err.Error()
}

func (e *CollaboratorError) Unwrap() error { return e.Err }

// Collaborator produces a fresh verdict for text.
type Collaborator interface {
	Verify(ctx context.Context, text string, resources []string) (*models.VerdictPayload, error)
}

// Source names the step that produced a Result.
type Source string

const (
	SourceExact   Source = "exact"
	SourceSimilar Source = "similar"
	SourceFresh   Source = "fresh"
)

// Request is one text to verify.
type Request struct {
	InputID   string
	Text      string
	Resources []string
}

// Result is the verdict for a request and where it came from.
type Result struct {
	Record    *models.VerificationRecord `json:"record"`
	Source    Source                     `json:"source"`
	Score     float64                    `json:"score,omitempty"`
	Persisted bool                       `json:"persisted"`
}

// Engine resolves requests from the store when it can and delegates to the
// collaborator when it cannot: exact hash, then keyword similarity, then a
// fresh verdict that is stored for later requests.
type Engine struct {
	store        database.Store
	collaborator Collaborator
	extractor    *keywords.Extractor
	threshold    float64
	timeout      time.Duration
	responseDir  string
	now          func() time.Time
}

// NewEngine creates an engine over store and collaborator.
func NewEngine(store database.Store, collaborator Collaborator, cfg config.CacheConfig) *Engine {
	threshold := cfg.SimilarityThreshold
	if threshold <= 0 {
		threshold = similarity.DefaultThreshold
	}
	return &Engine{
		store:        store,
		collaborator: collaborator,
		extractor:    keywords.NewExtractor(cfg.MaxKeywords),
		threshold:    threshold,
		timeout:      cfg.AgentTimeout,
		responseDir:  cfg.ResponseDir,
		now:          time.Now,
	}
}

// Verify returns the verdict for req. Store failures only cost the cache;
// collaborator failures are returned as *CollaboratorError.
func (e *Engine) Verify(ctx context.Context, req Request) (*Result, error) {
	if strings.TrimSpace(req.Text) == "" {
		return nil, ErrEmptyText
	}
	hash := fingerprint.Of(req.Text)
	logger := log.With().Str("input_id", req.InputID).Str("hash", hash.String()).Logger()

	// Exact match
	existing, err := e.store.GetByHash(ctx, hash.String())
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		e.storeFailed(err, "get_by_hash")
	}
	if existing != nil {
		logger.Info().Str("id", existing.ID).Msg("Returning cached verification")
		cacheLookups.WithLabelValues(string(SourceExact)).Inc()
		return &Result{Record: existing, Source: SourceExact, Score: 1, Persisted: true}, nil
	}

	// Similar match
	kw := e.extractor.Extract(req.Text)
	if len(kw) > 0 {
		corpus, err := e.store.AllWithKeywords(ctx)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			e.storeFailed(err, "all_with_keywords")
		}
		if matches := similarity.FindSimilar(kw, e.threshold, corpus); len(matches) > 0 {
			best := matches[0]
			logger.Info().
				Str("match_hash", best.Record.TextHash).
				Float64("score", best.Score).
				Msg("Returning similar verification")
			cacheLookups.WithLabelValues(string(SourceSimilar)).Inc()
			return &Result{Record: best.Record, Source: SourceSimilar, Score: best.Score, Persisted: true}, nil
		}
	}

	// Delegate and store
	logger.Info().Int("keywords", len(kw)).Msg("No cached verification, running agent")
	payload, err := e.delegate(ctx, req)
	if err != nil {
		return nil, err
	}
	cacheLookups.WithLabelValues(string(SourceFresh)).Inc()

	record := &models.VerificationRecord{
		ID:          uuid.New().String(),
		InputID:     req.InputID,
		TextHash:    hash.String(),
		Keywords:    kw,
		Correctness: payload.Correctness,
		OutOfDomain: payload.OutOfDomain,
		Misinfo:     payload.Misinfo,
		Rightinfo:   payload.Rightinfo,
		Confidence:  payload.Confidence,
		Sources:     payload.Sources,
		CreatedAt:   e.now().UTC(),
	}
	if record.Sources == nil {
		record.Sources = []string{}
	}

	persisted := false
	switch err := e.store.Insert(ctx, record); {
	case err == nil:
		persisted = true
	case errors.Is(err, database.ErrConflict):
		// A concurrent request stored the same text first.
		storeErrors.WithLabelValues("insert", "conflict").Inc()
		logger.Debug().Msg("Verification already stored by a concurrent request")
	default:
		e.storeFailed(err, "insert")
	}

	if e.responseDir != "" {
		if err := e.archive(req.InputID, payload); err != nil {
			logger.Warn().Err(err).Msg("Failed to archive verification")
		}
	}

	logger.Info().
		Str("id", record.ID).
		Bool("correctness", record.Correctness).
		Bool("out_of_domain", record.OutOfDomain).
		Bool("persisted", persisted).
		Msg("Verification complete")

	return &Result{Record: record, Source: SourceFresh, Persisted: persisted}, nil
}

// Lookup returns the stored verification for hash, or nil. Unlike Verify it
// reports store failures to the caller.
func (e *Engine) Lookup(ctx context.Context, hash string) (*models.VerificationRecord, error) {
	return e.store.GetByHash(ctx, hash)
}

func (e *Engine) delegate(ctx context.Context, req Request) (*models.VerdictPayload, error) {
	callCtx := ctx
	if e.timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	start := time.Now()
	payload, err := e.collaborator.Verify(callCtx, req.Text, req.Resources)
	collaboratorDuration.Observe(time.Since(start).Seconds())

	if err == nil && payload == nil {
		err = errors.New("agent returned no verdict")
	}
	if err == nil {
		err = payload.Confidence.Validate()
	}
	if err != nil {
		if errors.Is(callCtx.Err(), context.DeadlineExceeded) && !errors.Is(err, context.DeadlineExceeded) {
			err = fmt.Errorf("%w: %v", context.DeadlineExceeded, err)
		}
		outcome := "error"
		if errors.Is(err, context.DeadlineExceeded) {
			outcome = "timeout"
		}
		collaboratorCalls.WithLabelValues(outcome).Inc()
		log.Error().Err(err).Str("input_id", req.InputID).Msg("Verification agent failed")
		return nil, &CollaboratorError{Err: err}
	}
	collaboratorCalls.WithLabelValues("ok").Inc()
	return payload, nil
}

func (e *Engine) storeFailed(err error, op string) {
	kind := "error"
	if errors.Is(err, database.ErrUnavailable) {
		kind = "unavailable"
	}
	storeErrors.WithLabelValues(op, kind).Inc()
	log.Warn().Err(err).Str("operation", op).Msg("Verification store failed, continuing without cache")
}

// archive writes <inputID>_verification.json into the response directory.
func (e *Engine) archive(inputID string, payload *models.VerdictPayload) error {
	if inputID == "" || inputID != filepath.Base(inputID) || inputID == "." || inputID == ".." {
		return fmt.Errorf("input id %q cannot name a file", inputID)
	}
	if err := os.MkdirAll(e.responseDir, 0755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(e.responseDir, inputID+"_verification.json"), data, 0644)
}
