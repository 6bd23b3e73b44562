package worker

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/iYEiD/ds-midterm/internal/config"
)

// Backfill periodically re-queues embedding tasks for records that still have
// no vector, picking up records whose embedding attempt soft-failed.
type Backfill struct {
	records  RecordStore
	pub      Publisher
	interval time.Duration
	batch    int
}

func NewBackfill(records RecordStore, pub Publisher, interval time.Duration, batch int) *Backfill {
	return &Backfill{records: records, pub: pub, interval: interval, batch: batch}
}

// Run blocks until ctx is cancelled.
func (b *Backfill) Run(ctx context.Context) {
	ticker := time.NewTicker(b.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			b.pass(ctx)
		}
	}
}

func (b *Backfill) pass(ctx context.Context) {
	ids, err := b.records.ListUnembedded(ctx, b.batch)
	if err != nil {
		slog.ErrorContext(ctx, "backfill: failed to list unembedded records", "error", err)
		return
	}
	if len(ids) == 0 {
		return
	}

	queued := 0
	for _, id := range ids {
		msg, _ := json.Marshal(RecordEmbedPayload{RecordID: id})
		if err := b.pub.Publish(config.TopicRecordEmbed, msg); err != nil {
			slog.ErrorContext(ctx, "backfill: failed to queue embed task", "record_id", id, "error", err)
			continue
		}
		queued++
	}
	slog.InfoContext(ctx, "backfill pass queued embed tasks", "queued", queued, "pending", len(ids))
}
