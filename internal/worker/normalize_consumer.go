package worker

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/iYEiD/ds-midterm/features/record"
	"github.com/iYEiD/ds-midterm/features/task"
	"github.com/iYEiD/ds-midterm/internal/broker"
	"github.com/iYEiD/ds-midterm/internal/config"
	"github.com/iYEiD/ds-midterm/internal/content"
	"github.com/iYEiD/ds-midterm/internal/middleware"
)

// NormalizeConsumer parses raw content into typed records and queues
// embedding generation. An unrecognized content shape is a soft failure: the
// task completes without a record, since the content itself will not change
// on retry.
type NormalizeConsumer struct {
	raw     RawStore
	records RecordStore
	pub     Publisher
}

func NewNormalizeConsumer(raw RawStore, records RecordStore, pub Publisher) *NormalizeConsumer {
	return &NormalizeConsumer{raw: raw, records: records, pub: pub}
}

func (c *NormalizeConsumer) HandleDelivery(d *broker.Delivery) {
	if len(d.Body) == 0 {
		d.Ack()
		return
	}

	var payload NormalizeTaskPayload
	if err := json.Unmarshal(d.Body, &payload); err != nil {
		slog.Error("poison pill: invalid normalize task", "error", err)
		d.Ack()
		return
	}
	if payload.URL == "" {
		slog.Error("normalize task missing url, dropping", "task_id", payload.TaskID)
		d.Ack()
		return
	}

	ctx := context.Background()
	if payload.CorrelationID != "" {
		ctx = middleware.WithCorrelationID(ctx, payload.CorrelationID)
	}

	rc, err := c.raw.Get(ctx, payload.URL)
	if err != nil {
		if errors.Is(err, task.ErrRawNotFound) {
			slog.ErrorContext(ctx, "no raw content for normalize task, dropping", "task_id", payload.TaskID, "url", payload.URL)
			d.Ack()
			return
		}
		slog.ErrorContext(ctx, "failed to load raw content", "task_id", payload.TaskID, "url", payload.URL, "error", err)
		d.Nack(5 * time.Second)
		return
	}

	shape := content.DetectShape(rc.Body)
	var entities []content.Entity
	switch shape {
	case content.ShapeTable:
		entities = content.ParseTables(rc.Body)
	case content.ShapeText:
		entities = content.ParseFreeText(rc.Body)
	default:
		slog.WarnContext(ctx, "unrecognized content shape, skipping", "task_id", payload.TaskID, "url", payload.URL)
		d.Ack()
		return
	}

	if len(entities) == 0 {
		slog.WarnContext(ctx, "no entities parsed from content", "task_id", payload.TaskID, "url", payload.URL, "shape", shape.String())
		d.Ack()
		return
	}

	upserted := 0
	for _, e := range entities {
		name, fields := content.NormalizeEntity(e)
		if name == "" || len(fields) == 0 {
			continue
		}

		rec := &record.Record{
			RecordID:     record.DeriveID(name),
			SourceURL:    payload.URL,
			Name:         name,
			Fields:       fields,
			CategoryTags: []string{shape.String()},
		}
		if err := c.records.Upsert(ctx, rec); err != nil {
			slog.ErrorContext(ctx, "failed to upsert record", "record_id", rec.RecordID, "url", payload.URL, "error", err)
			d.Nack(5 * time.Second)
			return
		}
		upserted++

		// Embedding is a best-effort follow-up; losing the publish only delays
		// the vector until the backfill pass.
		msg, _ := json.Marshal(RecordEmbedPayload{
			RecordID:      rec.RecordID,
			CorrelationID: payload.CorrelationID,
		})
		if err := c.pub.Publish(config.TopicRecordEmbed, msg); err != nil {
			slog.ErrorContext(ctx, "failed to publish embed task", "record_id", rec.RecordID, "error", err)
		}
	}

	slog.InfoContext(ctx, "normalized content", "task_id", payload.TaskID, "url", payload.URL, "shape", shape.String(), "records", upserted)
	d.Ack()
}
