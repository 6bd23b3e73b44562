package retrieval

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"time"

	"github.com/iYEiD/ds-midterm/internal/middleware"
)

var ErrInvalidK = errors.New("k must be >= 1")

// IndexHit is a raw nearest-neighbor result from the vector index. Distance
// is the cosine distance reported by the index, in [0, 2].
type IndexHit struct {
	RecordID     string
	Summary      string
	NormalizedAt time.Time
	Distance     float32
}

// Candidate is a ranked retrieval result. Score is a similarity in [0, 1].
type Candidate struct {
	RecordID     string    `json:"record_id"`
	Score        float32   `json:"score"`
	Summary      string    `json:"-"`
	NormalizedAt time.Time `json:"-"`
}

type VectorIndex interface {
	Query(ctx context.Context, vector []float32, k int) ([]IndexHit, error)
}

type Service struct {
	index  VectorIndex
	logger *QueryLogger
}

func NewService(index VectorIndex, logger *QueryLogger) *Service {
	return &Service{index: index, logger: logger}
}

// Retrieve returns up to k candidates ranked by descending similarity, ties
// broken by most recent normalization. An empty index yields an empty result,
// never an error. Pure read; index state is not mutated.
func (s *Service) Retrieve(ctx context.Context, queryVector []float32, k int) ([]Candidate, error) {
	if k < 1 {
		return nil, ErrInvalidK
	}

	start := time.Now()
	hits, err := s.index.Query(ctx, queryVector, k)
	if err != nil {
		return nil, err
	}

	candidates := make([]Candidate, 0, len(hits))
	for _, h := range hits {
		candidates = append(candidates, Candidate{
			RecordID:     h.RecordID,
			Score:        Similarity(h.Distance),
			Summary:      h.Summary,
			NormalizedAt: h.NormalizedAt,
		})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].Score != candidates[j].Score {
			return candidates[i].Score > candidates[j].Score
		}
		return candidates[i].NormalizedAt.After(candidates[j].NormalizedAt)
	})

	if s.logger != nil {
		elapsed := time.Since(start)
		s.logger.Log(QueryLogEntry{
			Timestamp:     time.Now(),
			NumResults:    len(candidates),
			Duration:      elapsed,
			LatencyMs:     elapsed.Milliseconds(),
			CorrelationID: middleware.GetCorrelationID(ctx),
		})
	}

	slog.DebugContext(ctx, "retrieved candidates", "k", k, "count", len(candidates))
	return candidates, nil
}

// Similarity converts a cosine distance in [0, 2] to a similarity in [0, 1].
func Similarity(distance float32) float32 {
	s := 1 - distance/2
	if s < 0 {
		return 0
	}
	if s > 1 {
		return 1
	}
	return s
}
