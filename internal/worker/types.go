package worker

import (
	"context"
	"time"

	"github.com/iYEiD/ds-midterm/features/record"
	"github.com/iYEiD/ds-midterm/features/task"
)

// Embedding is the vector-index write unit: one object per record, keyed by
// the record's deterministic id.
type Embedding struct {
	RecordID     string
	Vector       []float32
	Summary      string
	SourceURL    string
	NormalizedAt time.Time
}

type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

type VectorStore interface {
	UpsertEmbedding(ctx context.Context, emb Embedding) error
	DeleteByRecordID(ctx context.Context, recordID string) error
}

type Fetcher interface {
	Fetch(ctx context.Context, url string) (body []byte, httpStatus int, err error)
}

type TaskStore interface {
	UpdateStatus(ctx context.Context, id, status string) error
	RecordFailure(ctx context.Context, id, lastError string) (int, error)
}

type RawStore interface {
	Upsert(ctx context.Context, rc *task.RawContent) error
	Get(ctx context.Context, url string) (*task.RawContent, error)
}

type RecordStore interface {
	Upsert(ctx context.Context, rec *record.Record) error
	Get(ctx context.Context, recordID string) (*record.Record, error)
	MarkEmbedded(ctx context.Context, recordID string) error
	ListUnembedded(ctx context.Context, limit int) ([]string, error)
}

type DeadLetterSink interface {
	Save(ctx context.Context, taskID, url, lastError string, attemptCount int) error
}

type Publisher interface {
	Publish(topic string, body []byte) error
}
