package query

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/iYEiD/ds-midterm/internal/augment"
	"github.com/iYEiD/ds-midterm/internal/retrieval"
)

const defaultTraceLimit = 50

type Answerer interface {
	Answer(ctx context.Context, queryText string, k int) (*augment.Answer, error)
}

type TraceLister interface {
	List(ctx context.Context, limit int) ([]augment.QueryTrace, error)
}

type Handler struct {
	answerer Answerer
	traces   TraceLister
	defaultK int
}

func NewHandler(answerer Answerer, traces TraceLister, defaultK int) *Handler {
	return &Handler{answerer: answerer, traces: traces, defaultK: defaultK}
}

func (h *Handler) Ask(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Query string `json:"query"`
		K     int    `json:"k"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(r.Context(), w, "VALIDATION_ERROR", err.Error(), http.StatusBadRequest)
		return
	}
	if req.Query == "" {
		h.writeError(r.Context(), w, "VALIDATION_ERROR", "query is required", http.StatusBadRequest)
		return
	}
	if req.K == 0 {
		req.K = h.defaultK
	}

	answer, err := h.answerer.Answer(r.Context(), req.Query, req.K)
	if err != nil {
		if errors.Is(err, retrieval.ErrInvalidK) {
			h.writeError(r.Context(), w, "VALIDATION_ERROR", "k must be >= 1", http.StatusBadRequest)
			return
		}
		// Provider failures are user-visible; never answer with fabricated
		// content.
		h.writeError(r.Context(), w, "PROVIDER_ERROR", err.Error(), http.StatusBadGateway)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(answer)
}

func (h *Handler) ListTraces(w http.ResponseWriter, r *http.Request) {
	traces, err := h.traces.List(r.Context(), defaultTraceLimit)
	if err != nil {
		h.writeError(r.Context(), w, "INTERNAL_ERROR", err.Error(), http.StatusInternalServerError)
		return
	}
	if traces == nil {
		traces = []augment.QueryTrace{}
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(traces)
}

func (h *Handler) writeError(ctx context.Context, w http.ResponseWriter, code, msg string, status int) {
	slog.ErrorContext(ctx, "request failed", "code", code, "error", msg)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]string{"code": code, "message": msg},
	})
}
