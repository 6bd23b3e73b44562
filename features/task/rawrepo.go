package task

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

var ErrRawNotFound = errors.New("raw content not found")

// RawContent is the raw fetched body, keyed by URL. Re-fetching the same URL
// overwrites in place, which keeps retried work idempotent.
type RawContent struct {
	TaskID     string
	URL        string
	Body       []byte
	HTTPStatus int
	FetchedAt  time.Time
}

type RawRepository interface {
	Upsert(ctx context.Context, rc *RawContent) error
	Get(ctx context.Context, url string) (*RawContent, error)
}

type PostgresRawRepo struct {
	db *sql.DB
}

func NewPostgresRawRepo(db *sql.DB) *PostgresRawRepo {
	return &PostgresRawRepo{db: db}
}

func (r *PostgresRawRepo) Upsert(ctx context.Context, rc *RawContent) error {
	query := `INSERT INTO raw_contents (url, task_id, body, http_status, fetched_at)
		VALUES ($1, $2, $3, $4, NOW())
		ON CONFLICT (url) DO UPDATE SET
			task_id = EXCLUDED.task_id,
			body = EXCLUDED.body,
			http_status = EXCLUDED.http_status,
			fetched_at = NOW()`
	_, err := r.db.ExecContext(ctx, query, rc.URL, rc.TaskID, rc.Body, rc.HTTPStatus)
	return err
}

func (r *PostgresRawRepo) Get(ctx context.Context, url string) (*RawContent, error) {
	rc := &RawContent{}
	query := `SELECT url, task_id, body, http_status, fetched_at FROM raw_contents WHERE url = $1`
	err := r.db.QueryRowContext(ctx, query, url).Scan(&rc.URL, &rc.TaskID, &rc.Body, &rc.HTTPStatus, &rc.FetchedAt)
	if err == sql.ErrNoRows {
		return nil, ErrRawNotFound
	}
	if err != nil {
		return nil, err
	}
	return rc, nil
}
