package worker

import (
	"encoding/json"
	"log/slog"
	"time"

	"github.com/iYEiD/ds-midterm/internal/broker"
	"github.com/iYEiD/ds-midterm/internal/config"
)

// ResultRouter derives normalize tasks from fetch results, keeping the two
// channels independent so either pool can be scaled or drained on its own.
type ResultRouter struct {
	pub Publisher
}

func NewResultRouter(pub Publisher) *ResultRouter {
	return &ResultRouter{pub: pub}
}

func (r *ResultRouter) HandleDelivery(d *broker.Delivery) {
	if len(d.Body) == 0 {
		d.Ack()
		return
	}

	var payload FetchResultPayload
	if err := json.Unmarshal(d.Body, &payload); err != nil {
		slog.Error("poison pill: invalid fetch result", "error", err)
		d.Ack()
		return
	}
	if payload.TaskID == "" || payload.URL == "" {
		slog.Error("fetch result missing required fields, dropping", "task_id", payload.TaskID, "url", payload.URL)
		d.Ack()
		return
	}

	msg, _ := json.Marshal(NormalizeTaskPayload{
		TaskID:        payload.TaskID,
		URL:           payload.URL,
		CorrelationID: payload.CorrelationID,
	})
	if err := r.pub.Publish(config.TopicNormalizeTask, msg); err != nil {
		slog.Error("failed to publish normalize task", "task_id", payload.TaskID, "error", err)
		d.Nack(5 * time.Second)
		return
	}
	d.Ack()
}
