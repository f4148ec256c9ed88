package leads

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/wolfman30/lead-extractor/pkg/logging"
)

const (
	maxRequestBodyBytes = 1 << 20
	genericFailureMsg   = "Failed to process request. Please try again."
)

// LeadExtractor is the capability the HTTP handler depends on.
type LeadExtractor interface {
	Extract(ctx context.Context, content string) (Record, error)
}

// Handler handles HTTP requests for lead extraction
type Handler struct {
	extractor LeadExtractor
	logger    *logging.Logger
}

// NewHandler creates a new leads handler
func NewHandler(extractor LeadExtractor, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{
		extractor: extractor,
		logger:    logger,
	}
}

type errorResponse struct {
	Error string `json:"error"`
}

// Extract handles POST /api/extract requests
func (h *Handler) Extract(w http.ResponseWriter, r *http.Request) {
	var req ExtractionRequest

	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("failed to decode extraction request", "error", err)
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "Invalid request body"})
		return
	}

	rec, err := h.extractor.Extract(r.Context(), req.Content)
	if err != nil {
		var verr *ValidationError
		if errors.As(err, &verr) {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: verr.Message})
			return
		}
		h.logger.Error("error extracting lead", "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: genericFailureMsg})
		return
	}

	writeJSON(w, http.StatusOK, rec)
}

// HealthCheck handles GET /api/health; it never touches the provider.
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
