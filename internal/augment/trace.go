package augment

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"
)

// TraceCandidate is one ranked supporting record in a trace.
type TraceCandidate struct {
	RecordID string  `json:"record_id"`
	Score    float32 `json:"score"`
}

// QueryTrace is the write-once audit record of a completed
// retrieval-plus-augmentation cycle.
type QueryTrace struct {
	ID         string           `json:"id"`
	QueryText  string           `json:"query_text"`
	Candidates []TraceCandidate `json:"candidates"`
	AnswerText string           `json:"answer_text"`
	CreatedAt  time.Time        `json:"created_at"`
}

type TraceRepository interface {
	Save(ctx context.Context, trace *QueryTrace) error
	List(ctx context.Context, limit int) ([]QueryTrace, error)
}

type PostgresTraceRepo struct {
	db *sql.DB
}

func NewPostgresTraceRepo(db *sql.DB) *PostgresTraceRepo {
	return &PostgresTraceRepo{db: db}
}

func (r *PostgresTraceRepo) Save(ctx context.Context, trace *QueryTrace) error {
	candidates, err := json.Marshal(trace.Candidates)
	if err != nil {
		return err
	}
	query := `INSERT INTO query_traces (query_text, candidates, answer_text)
		VALUES ($1, $2, $3) RETURNING id, created_at`
	return r.db.QueryRowContext(ctx, query, trace.QueryText, candidates, trace.AnswerText).
		Scan(&trace.ID, &trace.CreatedAt)
}

func (r *PostgresTraceRepo) List(ctx context.Context, limit int) ([]QueryTrace, error) {
	query := `SELECT id, query_text, candidates, answer_text, created_at
		FROM query_traces ORDER BY created_at DESC LIMIT $1`
	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var traces []QueryTrace
	for rows.Next() {
		var t QueryTrace
		var candidates []byte
		if err := rows.Scan(&t.ID, &t.QueryText, &candidates, &t.AnswerText, &t.CreatedAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(candidates, &t.Candidates); err != nil {
			return nil, err
		}
		traces = append(traces, t)
	}
	return traces, rows.Err()
}
