package record

import (
	"context"
	"fmt"
	"log/slog"
)

// VectorIndex is the slice of the vector store the record lifecycle needs.
type VectorIndex interface {
	DeleteByRecordID(ctx context.Context, recordID string) error
}

type Service struct {
	repo    Repository
	vectors VectorIndex
}

func NewService(repo Repository, vectors VectorIndex) *Service {
	return &Service{repo: repo, vectors: vectors}
}

func (s *Service) Get(ctx context.Context, recordID string) (*Record, error) {
	return s.repo.Get(ctx, recordID)
}

// Delete removes a record together with its embedding. The vector goes
// first: an embedding never outlives its record, and the vector delete is
// idempotent so a failed row delete can be retried.
func (s *Service) Delete(ctx context.Context, recordID string) error {
	if err := s.vectors.DeleteByRecordID(ctx, recordID); err != nil {
		return fmt.Errorf("deleting embedding for %s: %w", recordID, err)
	}
	if err := s.repo.Delete(ctx, recordID); err != nil {
		return err
	}
	slog.InfoContext(ctx, "record deleted", "record_id", recordID)
	return nil
}
