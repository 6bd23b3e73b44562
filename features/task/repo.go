package task

import (
	"context"
	"database/sql"
)

type PostgresRepo struct {
	db *sql.DB
}

func NewPostgresRepo(db *sql.DB) *PostgresRepo {
	return &PostgresRepo{db: db}
}

// Create inserts the task unless a live task for the same URL exists. The
// partial unique index on url (excluding failed and dead rows) makes the
// insert the atomic compare-and-set; zero rows affected means duplicate.
func (r *PostgresRepo) Create(ctx context.Context, t *Task) error {
	query := `INSERT INTO tasks (id, url, status, attempt_count, submitted_at)
		VALUES ($1, $2, $3, 0, NOW())
		ON CONFLICT (url) WHERE status NOT IN ('failed', 'dead') DO NOTHING`
	res, err := r.db.ExecContext(ctx, query, t.ID, t.URL, t.Status)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrDuplicate
	}
	return nil
}

func (r *PostgresRepo) Get(ctx context.Context, id string) (*Task, error) {
	t := &Task{}
	var lastError sql.NullString
	query := `SELECT id, url, status, attempt_count, submitted_at, last_error FROM tasks WHERE id = $1`
	err := r.db.QueryRowContext(ctx, query, id).Scan(&t.ID, &t.URL, &t.Status, &t.AttemptCount, &t.SubmittedAt, &lastError)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	t.LastError = lastError.String
	return t, nil
}

// GetByURL returns the most recently submitted task for a URL.
func (r *PostgresRepo) GetByURL(ctx context.Context, url string) (*Task, error) {
	t := &Task{}
	var lastError sql.NullString
	query := `SELECT id, url, status, attempt_count, submitted_at, last_error FROM tasks
		WHERE url = $1 ORDER BY submitted_at DESC LIMIT 1`
	err := r.db.QueryRowContext(ctx, query, url).Scan(&t.ID, &t.URL, &t.Status, &t.AttemptCount, &t.SubmittedAt, &lastError)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	t.LastError = lastError.String
	return t, nil
}

func (r *PostgresRepo) UpdateStatus(ctx context.Context, id, status string) error {
	query := `UPDATE tasks SET status = $1 WHERE id = $2`
	_, err := r.db.ExecContext(ctx, query, status, id)
	return err
}

// RecordFailure increments the attempt count, stores the error, and returns
// the new count. Atomic, so concurrent retries cannot lose an attempt.
func (r *PostgresRepo) RecordFailure(ctx context.Context, id, lastError string) (int, error) {
	var attempts int
	query := `UPDATE tasks SET attempt_count = attempt_count + 1, last_error = $1 WHERE id = $2 RETURNING attempt_count`
	err := r.db.QueryRowContext(ctx, query, lastError, id).Scan(&attempts)
	if err == sql.ErrNoRows {
		return 0, ErrNotFound
	}
	return attempts, err
}

func (r *PostgresRepo) CountByStatus(ctx context.Context) (map[string]int, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT status, COUNT(*) FROM tasks GROUP BY status`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, err
		}
		counts[status] = n
	}
	return counts, rows.Err()
}
