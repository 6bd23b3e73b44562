package task

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/google/uuid"

	"github.com/iYEiD/ds-midterm/internal/config"
	"github.com/iYEiD/ds-midterm/internal/middleware"
)

const (
	StatusPending  = "pending"
	StatusInFlight = "in_flight"
	StatusRetrying = "retrying"
	StatusDone     = "done"
	StatusFailed   = "failed"
	StatusDead     = "dead"
)

var (
	ErrDuplicate  = errors.New("task already submitted for url")
	ErrNotFound   = errors.New("task not found")
	ErrInvalidURL = errors.New("invalid url")
)

// Task is a unit of fetch work keyed by its source URL. Tasks are never
// physically deleted; their lifecycle is status transitions only.
type Task struct {
	ID           string    `json:"id"`
	URL          string    `json:"url"`
	Status       string    `json:"status"`
	AttemptCount int       `json:"attempt_count"`
	SubmittedAt  time.Time `json:"submitted_at"`
	LastError    string    `json:"last_error,omitempty"`
}

// FetchTaskPayload is the message published to the fetch.task topic.
type FetchTaskPayload struct {
	TaskID        string `json:"task_id"`
	URL           string `json:"url"`
	CorrelationID string `json:"correlation_id,omitempty"`
}

type Repository interface {
	Create(ctx context.Context, t *Task) error
	Get(ctx context.Context, id string) (*Task, error)
	GetByURL(ctx context.Context, url string) (*Task, error)
	UpdateStatus(ctx context.Context, id, status string) error
	RecordFailure(ctx context.Context, id, lastError string) (int, error)
	CountByStatus(ctx context.Context) (map[string]int, error)
}

type EventPublisher interface {
	Publish(topic string, body []byte) error
}

type Service struct {
	repo Repository
	pub  EventPublisher
}

func NewService(repo Repository, pub EventPublisher) *Service {
	return &Service{repo: repo, pub: pub}
}

// Submit registers a fetch task for the URL and dispatches it. Submission is
// a compare-and-set on the URL: a live task (any status other than failed or
// dead) for the same URL is rejected as a duplicate; a failed or dead prior
// attempt allows a fresh task with a zero attempt count.
func (s *Service) Submit(ctx context.Context, rawURL string) (*Task, error) {
	u, err := url.Parse(rawURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("%w: %q", ErrInvalidURL, rawURL)
	}

	t := &Task{
		ID:     uuid.New().String(),
		URL:    rawURL,
		Status: StatusPending,
	}
	if err := s.repo.Create(ctx, t); err != nil {
		return nil, err
	}

	payload, _ := json.Marshal(FetchTaskPayload{
		TaskID:        t.ID,
		URL:           t.URL,
		CorrelationID: middleware.GetCorrelationID(ctx),
	})
	if err := s.pub.Publish(config.TopicFetchTask, payload); err != nil {
		// The task row exists; the fetch will be picked up by the backlog on
		// re-submission or broker recovery. Surface nothing to the caller.
		slog.ErrorContext(ctx, "failed to publish fetch task", "task_id", t.ID, "url", t.URL, "error", err)
	}

	slog.InfoContext(ctx, "task submitted", "task_id", t.ID, "url", t.URL)
	return t, nil
}

// Status returns the task by id.
func (s *Service) Status(ctx context.Context, id string) (*Task, error) {
	return s.repo.Get(ctx, id)
}
