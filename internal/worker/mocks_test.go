package worker

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/iYEiD/ds-midterm/features/record"
	"github.com/iYEiD/ds-midterm/features/task"
	"github.com/iYEiD/ds-midterm/internal/broker"
)

type MockFetcher struct {
	mock.Mock
}

func (m *MockFetcher) Fetch(ctx context.Context, url string) ([]byte, int, error) {
	args := m.Called(ctx, url)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]byte), args.Int(1), args.Error(2)
}

type MockTaskStore struct {
	mock.Mock
}

func (m *MockTaskStore) UpdateStatus(ctx context.Context, id, status string) error {
	args := m.Called(ctx, id, status)
	return args.Error(0)
}

func (m *MockTaskStore) RecordFailure(ctx context.Context, id, lastError string) (int, error) {
	args := m.Called(ctx, id, lastError)
	return args.Int(0), args.Error(1)
}

type MockRawStore struct {
	mock.Mock
}

func (m *MockRawStore) Upsert(ctx context.Context, rc *task.RawContent) error {
	args := m.Called(ctx, rc)
	return args.Error(0)
}

func (m *MockRawStore) Get(ctx context.Context, url string) (*task.RawContent, error) {
	args := m.Called(ctx, url)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*task.RawContent), args.Error(1)
}

type MockRecordStore struct {
	mock.Mock
}

func (m *MockRecordStore) Upsert(ctx context.Context, rec *record.Record) error {
	args := m.Called(ctx, rec)
	return args.Error(0)
}

func (m *MockRecordStore) Get(ctx context.Context, recordID string) (*record.Record, error) {
	args := m.Called(ctx, recordID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*record.Record), args.Error(1)
}

func (m *MockRecordStore) MarkEmbedded(ctx context.Context, recordID string) error {
	args := m.Called(ctx, recordID)
	return args.Error(0)
}

func (m *MockRecordStore) ListUnembedded(ctx context.Context, limit int) ([]string, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

type MockDeadLetterSink struct {
	mock.Mock
}

func (m *MockDeadLetterSink) Save(ctx context.Context, taskID, url, lastError string, attemptCount int) error {
	args := m.Called(ctx, taskID, url, lastError, attemptCount)
	return args.Error(0)
}

type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Publish(topic string, body []byte) error {
	args := m.Called(topic, body)
	return args.Error(0)
}

type MockEmbedder struct {
	mock.Mock
}

func (m *MockEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	args := m.Called(ctx, text)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]float32), args.Error(1)
}

type MockVectorStore struct {
	mock.Mock
}

func (m *MockVectorStore) UpsertEmbedding(ctx context.Context, emb Embedding) error {
	args := m.Called(ctx, emb)
	return args.Error(0)
}

func (m *MockVectorStore) DeleteByRecordID(ctx context.Context, recordID string) error {
	args := m.Called(ctx, recordID)
	return args.Error(0)
}

// deliveryRecorder captures the terminal signal a handler sends for a message.
type deliveryRecorder struct {
	acked  bool
	nacked bool
	delay  time.Duration
}

func (r *deliveryRecorder) delivery(body []byte, attempts uint16) *broker.Delivery {
	return broker.NewDelivery(body, attempts,
		func() { r.acked = true },
		func(d time.Duration) { r.nacked = true; r.delay = d })
}
