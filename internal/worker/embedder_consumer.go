package worker

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/iYEiD/ds-midterm/features/record"
	"github.com/iYEiD/ds-midterm/internal/broker"
	"github.com/iYEiD/ds-midterm/internal/middleware"
)

// EmbedderConsumer generates vectors for persisted records. An embedding
// provider failure is logged and acked: the record stays retrievable-later
// via the backfill pass rather than blocking the pipeline.
type EmbedderConsumer struct {
	embedder Embedder
	store    VectorStore
	records  RecordStore

	embedTimeout time.Duration
}

func NewEmbedderConsumer(embedder Embedder, store VectorStore, records RecordStore, embedTimeout time.Duration) *EmbedderConsumer {
	return &EmbedderConsumer{
		embedder:     embedder,
		store:        store,
		records:      records,
		embedTimeout: embedTimeout,
	}
}

func (c *EmbedderConsumer) HandleDelivery(d *broker.Delivery) {
	if len(d.Body) == 0 {
		d.Ack()
		return
	}

	var payload RecordEmbedPayload
	if err := json.Unmarshal(d.Body, &payload); err != nil {
		slog.Error("poison pill: invalid embed task", "error", err)
		d.Ack()
		return
	}
	if payload.RecordID == "" {
		slog.Error("embed task missing record_id, dropping")
		d.Ack()
		return
	}

	ctx := context.Background()
	if payload.CorrelationID != "" {
		ctx = middleware.WithCorrelationID(ctx, payload.CorrelationID)
	}

	rec, err := c.records.Get(ctx, payload.RecordID)
	if err != nil {
		if errors.Is(err, record.ErrNotFound) {
			// The record was deleted after the task was queued; its embedding
			// must not outlive it.
			slog.WarnContext(ctx, "record gone, skipping embed", "record_id", payload.RecordID)
			d.Ack()
			return
		}
		slog.ErrorContext(ctx, "failed to load record", "record_id", payload.RecordID, "error", err)
		d.Nack(5 * time.Second)
		return
	}

	summary := record.Summary(rec)

	embedCtx, cancel := context.WithTimeout(ctx, c.embedTimeout)
	defer cancel()

	vec, err := c.embedder.Embed(embedCtx, summary)
	if err != nil || len(vec) == 0 {
		// Soft failure: record persists without a vector, eligible for backfill.
		slog.ErrorContext(ctx, "embedding failed, leaving record for backfill", "record_id", payload.RecordID, "error", err)
		d.Ack()
		return
	}

	emb := Embedding{
		RecordID:     rec.RecordID,
		Vector:       vec,
		Summary:      summary,
		SourceURL:    rec.SourceURL,
		NormalizedAt: rec.NormalizedAt,
	}
	if err := c.store.UpsertEmbedding(embedCtx, emb); err != nil {
		slog.ErrorContext(ctx, "vector upsert failed", "record_id", payload.RecordID, "error", err)
		d.Nack(5 * time.Second)
		return
	}

	if err := c.records.MarkEmbedded(ctx, rec.RecordID); err != nil {
		slog.WarnContext(ctx, "failed to mark record embedded", "record_id", rec.RecordID, "error", err)
	}

	slog.InfoContext(ctx, "record embedded", "record_id", rec.RecordID, "dims", len(vec))
	d.Ack()
}
