package worker

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/iYEiD/ds-midterm/features/deadletter"
	"github.com/iYEiD/ds-midterm/features/task"
	"github.com/iYEiD/ds-midterm/internal/broker"
	"github.com/iYEiD/ds-midterm/internal/config"
	"github.com/iYEiD/ds-midterm/internal/middleware"
)

// FetchConsumer claims fetch tasks, retrieves content, and drives the task
// state machine: pending -> in_flight -> done, or retrying with exponential
// backoff until the attempt budget is spent, then dead.
type FetchConsumer struct {
	fetcher     Fetcher
	tasks       TaskStore
	raw         RawStore
	deadLetters DeadLetterSink
	pub         Publisher

	maxAttempts int
	backoffBase time.Duration
	backoffCap  time.Duration
}

func NewFetchConsumer(fetcher Fetcher, tasks TaskStore, raw RawStore, dl DeadLetterSink, pub Publisher, maxAttempts int, backoffBase, backoffCap time.Duration) *FetchConsumer {
	return &FetchConsumer{
		fetcher:     fetcher,
		tasks:       tasks,
		raw:         raw,
		deadLetters: dl,
		pub:         pub,
		maxAttempts: maxAttempts,
		backoffBase: backoffBase,
		backoffCap:  backoffCap,
	}
}

func (c *FetchConsumer) HandleDelivery(d *broker.Delivery) {
	if len(d.Body) == 0 {
		d.Ack()
		return
	}

	var payload task.FetchTaskPayload
	if err := json.Unmarshal(d.Body, &payload); err != nil {
		// Poison pill: invalid JSON will never parse, don't retry.
		slog.Error("poison pill: invalid fetch task", "error", err)
		d.Ack()
		return
	}
	if payload.TaskID == "" || payload.URL == "" {
		slog.Error("fetch task missing required fields, dropping", "task_id", payload.TaskID, "url", payload.URL)
		d.Ack()
		return
	}

	ctx := context.Background()
	if payload.CorrelationID != "" {
		ctx = middleware.WithCorrelationID(ctx, payload.CorrelationID)
	}

	if err := c.tasks.UpdateStatus(ctx, payload.TaskID, task.StatusInFlight); err != nil {
		slog.WarnContext(ctx, "failed to mark task in_flight", "task_id", payload.TaskID, "error", err)
	}

	body, httpStatus, err := c.fetcher.Fetch(ctx, payload.URL)
	if err != nil {
		c.handleFailure(ctx, d, payload, err)
		return
	}

	rc := &task.RawContent{
		TaskID:     payload.TaskID,
		URL:        payload.URL,
		Body:       body,
		HTTPStatus: httpStatus,
	}
	if err := c.raw.Upsert(ctx, rc); err != nil {
		slog.ErrorContext(ctx, "failed to persist raw content", "task_id", payload.TaskID, "url", payload.URL, "error", err)
		c.handleFailure(ctx, d, payload, err)
		return
	}

	if err := c.tasks.UpdateStatus(ctx, payload.TaskID, task.StatusDone); err != nil {
		slog.WarnContext(ctx, "failed to mark task done", "task_id", payload.TaskID, "error", err)
	}

	result, _ := json.Marshal(FetchResultPayload{
		TaskID:        payload.TaskID,
		URL:           payload.URL,
		HTTPStatus:    httpStatus,
		CorrelationID: payload.CorrelationID,
	})
	if err := c.pub.Publish(config.TopicFetchResult, result); err != nil {
		// Raw content is persisted and the upsert is idempotent; redeliver so
		// the result is not lost.
		slog.ErrorContext(ctx, "failed to publish fetch result", "task_id", payload.TaskID, "error", err)
		d.Nack(c.backoffBase)
		return
	}

	slog.InfoContext(ctx, "fetch succeeded", "task_id", payload.TaskID, "url", payload.URL, "http_status", httpStatus, "body_len", len(body))
	d.Ack()
}

func (c *FetchConsumer) handleFailure(ctx context.Context, d *broker.Delivery, payload task.FetchTaskPayload, fetchErr error) {
	attempts, err := c.tasks.RecordFailure(ctx, payload.TaskID, fetchErr.Error())
	if err != nil {
		slog.ErrorContext(ctx, "failed to record fetch failure", "task_id", payload.TaskID, "error", err)
		d.Nack(c.backoffBase)
		return
	}

	if attempts < c.maxAttempts {
		delay := BackoffDelay(attempts, c.backoffBase, c.backoffCap)
		if err := c.tasks.UpdateStatus(ctx, payload.TaskID, task.StatusRetrying); err != nil {
			slog.WarnContext(ctx, "failed to mark task retrying", "task_id", payload.TaskID, "error", err)
		}
		slog.WarnContext(ctx, "fetch failed, retrying",
			"task_id", payload.TaskID, "url", payload.URL,
			"attempt", attempts, "max_attempts", c.maxAttempts,
			"retry_in_ms", delay.Milliseconds(), "error", fetchErr)
		d.Nack(delay)
		return
	}

	if err := c.tasks.UpdateStatus(ctx, payload.TaskID, task.StatusDead); err != nil {
		slog.WarnContext(ctx, "failed to mark task dead", "task_id", payload.TaskID, "error", err)
	}
	if err := c.deadLetters.Save(ctx, payload.TaskID, payload.URL, fetchErr.Error(), attempts); err != nil {
		slog.ErrorContext(ctx, "failed to persist dead letter", "task_id", payload.TaskID, "error", err)
	}

	msg, _ := json.Marshal(deadletter.Message{
		TaskID:       payload.TaskID,
		URL:          payload.URL,
		LastError:    fetchErr.Error(),
		AttemptCount: attempts,
		FailedAt:     time.Now().UTC().Format(time.RFC3339),
	})
	if err := c.pub.Publish(config.TopicDeadLetter, msg); err != nil {
		slog.ErrorContext(ctx, "failed to publish dead letter", "task_id", payload.TaskID, "error", err)
	}

	slog.ErrorContext(ctx, "fetch exhausted retries, dead-lettered",
		"task_id", payload.TaskID, "url", payload.URL, "attempts", attempts, "error", fetchErr)
	d.Ack()
}
