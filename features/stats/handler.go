package stats

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
)

type TaskCounter interface {
	CountByStatus(ctx context.Context) (map[string]int, error)
}

type RecordCounter interface {
	Count(ctx context.Context) (int, error)
	CountUnembedded(ctx context.Context) (int, error)
}

type DeadLetterCounter interface {
	Count(ctx context.Context) (int, error)
}

type Handler struct {
	tasks       TaskCounter
	records     RecordCounter
	deadLetters DeadLetterCounter
}

func NewHandler(tasks TaskCounter, records RecordCounter, deadLetters DeadLetterCounter) *Handler {
	return &Handler{tasks: tasks, records: records, deadLetters: deadLetters}
}

// GetStats reports pipeline progress counters, mirroring what an operator
// polls while an ingestion job is running.
func (h *Handler) GetStats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	taskCounts, err := h.tasks.CountByStatus(ctx)
	if err != nil {
		h.writeError(ctx, w, err)
		return
	}
	recordCount, err := h.records.Count(ctx)
	if err != nil {
		h.writeError(ctx, w, err)
		return
	}
	unembedded, err := h.records.CountUnembedded(ctx)
	if err != nil {
		h.writeError(ctx, w, err)
		return
	}
	dlCount, err := h.deadLetters.Count(ctx)
	if err != nil {
		h.writeError(ctx, w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"tasks":              taskCounts,
		"records":            recordCount,
		"records_unembedded": unembedded,
		"dead_letters":       dlCount,
	})
}

func (h *Handler) writeError(ctx context.Context, w http.ResponseWriter, err error) {
	slog.ErrorContext(ctx, "stats request failed", "error", err)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusInternalServerError)
	json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]string{"code": "INTERNAL_ERROR", "message": err.Error()},
	})
}
