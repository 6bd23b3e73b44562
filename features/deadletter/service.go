package deadletter

import (
	"context"
	"log/slog"

	"github.com/iYEiD/ds-midterm/features/task"
)

type Resubmitter interface {
	Submit(ctx context.Context, url string) (*task.Task, error)
}

type Service struct {
	repo     Repository
	resubmit Resubmitter
}

func NewService(repo Repository, resubmit Resubmitter) *Service {
	return &Service{repo: repo, resubmit: resubmit}
}

func (s *Service) List(ctx context.Context) ([]DeadLetter, error) {
	return s.repo.List(ctx)
}

func (s *Service) Count(ctx context.Context) (int, error) {
	return s.repo.Count(ctx)
}

// Retry re-submits a dead-lettered URL through the orchestrator. The prior
// task is dead, so submission creates a fresh task with a zero attempt
// count. The registry entry is removed only after the re-submission lands.
func (s *Service) Retry(ctx context.Context, id string) (*task.Task, error) {
	dl, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	t, err := s.resubmit.Submit(ctx, dl.URL)
	if err != nil {
		return nil, err
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		slog.WarnContext(ctx, "re-submitted but failed to delete dead letter", "dead_letter_id", id, "task_id", t.ID, "error", err)
	}

	slog.InfoContext(ctx, "dead letter retried", "dead_letter_id", id, "task_id", t.ID, "url", dl.URL)
	return t, nil
}
