package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/factchecker/claimradar/internal/database"
	"github.com/factchecker/claimradar/internal/models"
	"github.com/factchecker/claimradar/internal/summarize"
	"github.com/factchecker/claimradar/internal/verify"
	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"
)

const maxBodyBytes = 4 << 20

// Verifier resolves verification requests.
type Verifier interface {
	Verify(ctx context.Context, req verify.Request) (*verify.Result, error)
	Lookup(ctx context.Context, hash string) (*models.VerificationRecord, error)
}

// Summarizer turns cleaned raw texts into the document to verify.
type Summarizer interface {
	Summarize(ctx context.Context, inputID string, texts []string) (string, error)
}

// Handler contains all HTTP handlers.
type Handler struct {
	engine     Verifier
	summarizer Summarizer
	store      database.Store
	version    string
	validate   *validator.Validate
}

// NewHandler creates a new handler.
func NewHandler(engine Verifier, summarizer Summarizer, store database.Store, version string) *Handler {
	return &Handler{
		engine:     engine,
		summarizer: summarizer,
		store:      store,
		version:    version,
		validate:   validator.New(validator.WithRequiredStructEnabled()),
	}
}

// ProcessTextResponse is returned by the process_text endpoint.
type ProcessTextResponse struct {
	ID      string `json:"id"`
	Success bool   `json:"success"`
	*verify.Result
}

// Index lists the available endpoints.
func (h *Handler) Index(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"name":    "claimradar",
		"version": h.version,
		"endpoints": []string{
			"GET /health",
			"GET /version",
			"GET /metrics",
			"POST /api/v1/process_text",
			"GET /api/v1/verifications/{hash}",
		},
	})
}

// HealthCheck returns the service health status. An unreachable store
// reports as degraded since verification still works without the cache.
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	status, storeStatus := "healthy", "ok"
	if err := h.store.Ping(r.Context()); err != nil {
		status, storeStatus = "degraded", "unavailable"
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":    status,
		"store":     storeStatus,
		"version":   h.version,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// Version returns the build version.
func (h *Handler) Version(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"version": h.version})
}

// ProcessText cleans, summarizes and verifies raw texts.
func (h *Handler) ProcessText(w http.ResponseWriter, r *http.Request) {
	var req models.ProcessTextRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, validationMessage(err))
		return
	}

	logger := log.With().Str("input_id", req.InputID).Str("request_id", getRequestID(r.Context())).Logger()

	text, err := h.summarizer.Summarize(r.Context(), req.InputID, summarize.CleanAll(req.RawTexts))
	if err != nil {
		logger.Error().Err(err).Msg("Summarization failed")
		writeError(w, http.StatusBadGateway, "Summarization failed: "+err.Error())
		return
	}

	result, err := h.engine.Verify(r.Context(), verify.Request{
		InputID:   req.InputID,
		Text:      text,
		Resources: req.Resources,
	})
	if err != nil {
		var cerr *verify.CollaboratorError
		switch {
		case errors.Is(err, verify.ErrEmptyText):
			writeError(w, http.StatusBadRequest, "raw_texts contain no text")
		case errors.As(err, &cerr):
			writeError(w, http.StatusBadGateway, "Verification failed: "+cerr.Err.Error())
		default:
			logger.Error().Err(err).Msg("Verification failed")
			writeError(w, http.StatusInternalServerError, "Verification failed")
		}
		return
	}

	writeJSON(w, http.StatusCreated, ProcessTextResponse{ID: req.InputID, Success: true, Result: result})
}

// GetVerification returns the stored verification for a text hash.
func (h *Handler) GetVerification(w http.ResponseWriter, r *http.Request) {
	hash := strings.ToLower(chi.URLParam(r, "hash"))

	rec, err := h.engine.Lookup(r.Context(), hash)
	if errors.Is(err, database.ErrUnavailable) {
		writeError(w, http.StatusServiceUnavailable, "Verification store unavailable")
		return
	}
	if err != nil {
		log.Error().Err(err).Str("hash", hash).Msg("Failed to get verification")
		writeError(w, http.StatusInternalServerError, "Failed to get verification")
		return
	}
	if rec == nil {
		writeError(w, http.StatusNotFound, "Verification not found")
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return "Invalid request"
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fe.Namespace()+" failed '"+fe.Tag()+"'")
	}
	return "Invalid request: " + strings.Join(msgs, "; ")
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
