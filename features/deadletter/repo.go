package deadletter

import (
	"context"
	"database/sql"
	"errors"
)

var ErrNotFound = errors.New("dead letter not found")

type Repository interface {
	Save(ctx context.Context, dl *DeadLetter) error
	Get(ctx context.Context, id string) (*DeadLetter, error)
	List(ctx context.Context) ([]DeadLetter, error)
	Delete(ctx context.Context, id string) error
	Count(ctx context.Context) (int, error)
}

type PostgresRepo struct {
	db *sql.DB
}

func NewPostgresRepo(db *sql.DB) *PostgresRepo {
	return &PostgresRepo{db: db}
}

func (r *PostgresRepo) Save(ctx context.Context, dl *DeadLetter) error {
	query := `INSERT INTO dead_letters (task_id, url, last_error, attempt_count)
		VALUES ($1, $2, $3, $4) RETURNING id, created_at`
	return r.db.QueryRowContext(ctx, query, dl.TaskID, dl.URL, dl.LastError, dl.AttemptCount).
		Scan(&dl.ID, &dl.CreatedAt)
}

func (r *PostgresRepo) Get(ctx context.Context, id string) (*DeadLetter, error) {
	dl := &DeadLetter{}
	query := `SELECT id, task_id, url, last_error, attempt_count, created_at FROM dead_letters WHERE id = $1`
	err := r.db.QueryRowContext(ctx, query, id).
		Scan(&dl.ID, &dl.TaskID, &dl.URL, &dl.LastError, &dl.AttemptCount, &dl.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return dl, nil
}

func (r *PostgresRepo) List(ctx context.Context) ([]DeadLetter, error) {
	query := `SELECT id, task_id, url, last_error, attempt_count, created_at FROM dead_letters ORDER BY created_at DESC`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var letters []DeadLetter
	for rows.Next() {
		var dl DeadLetter
		if err := rows.Scan(&dl.ID, &dl.TaskID, &dl.URL, &dl.LastError, &dl.AttemptCount, &dl.CreatedAt); err != nil {
			return nil, err
		}
		letters = append(letters, dl)
	}
	return letters, rows.Err()
}

func (r *PostgresRepo) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM dead_letters WHERE id = $1`
	_, err := r.db.ExecContext(ctx, query, id)
	return err
}

func (r *PostgresRepo) Count(ctx context.Context) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM dead_letters`).Scan(&n)
	return n, err
}
