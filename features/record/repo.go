package record

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"github.com/lib/pq"
)

var ErrNotFound = errors.New("record not found")

type Repository interface {
	Upsert(ctx context.Context, rec *Record) error
	Get(ctx context.Context, recordID string) (*Record, error)
	MarkEmbedded(ctx context.Context, recordID string) error
	ListUnembedded(ctx context.Context, limit int) ([]string, error)
	Delete(ctx context.Context, recordID string) error
	Count(ctx context.Context) (int, error)
	CountUnembedded(ctx context.Context) (int, error)
}

type PostgresRepo struct {
	db *sql.DB
}

func NewPostgresRepo(db *sql.DB) *PostgresRepo {
	return &PostgresRepo{db: db}
}

// Upsert writes the record by its deterministic id. A change to the fields
// clears embedded_at so the vector is regenerated.
func (r *PostgresRepo) Upsert(ctx context.Context, rec *Record) error {
	fields, err := json.Marshal(rec.Fields)
	if err != nil {
		return err
	}
	query := `INSERT INTO records (record_id, source_url, name, fields, category_tags, normalized_at)
		VALUES ($1, $2, $3, $4, $5, NOW())
		ON CONFLICT (record_id) DO UPDATE SET
			source_url = EXCLUDED.source_url,
			name = EXCLUDED.name,
			fields = EXCLUDED.fields,
			category_tags = EXCLUDED.category_tags,
			normalized_at = NOW(),
			embedded_at = CASE WHEN records.fields = EXCLUDED.fields THEN records.embedded_at ELSE NULL END`
	_, err = r.db.ExecContext(ctx, query, rec.RecordID, rec.SourceURL, rec.Name, fields, pq.Array(rec.CategoryTags))
	return err
}

func (r *PostgresRepo) Get(ctx context.Context, recordID string) (*Record, error) {
	rec := &Record{}
	var fields []byte
	query := `SELECT record_id, source_url, name, fields, category_tags, normalized_at, embedded_at
		FROM records WHERE record_id = $1`
	err := r.db.QueryRowContext(ctx, query, recordID).Scan(
		&rec.RecordID, &rec.SourceURL, &rec.Name, &fields, pq.Array(&rec.CategoryTags), &rec.NormalizedAt, &rec.EmbeddedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(fields, &rec.Fields); err != nil {
		return nil, err
	}
	return rec, nil
}

func (r *PostgresRepo) MarkEmbedded(ctx context.Context, recordID string) error {
	query := `UPDATE records SET embedded_at = NOW() WHERE record_id = $1`
	_, err := r.db.ExecContext(ctx, query, recordID)
	return err
}

func (r *PostgresRepo) ListUnembedded(ctx context.Context, limit int) ([]string, error) {
	query := `SELECT record_id FROM records WHERE embedded_at IS NULL ORDER BY normalized_at ASC LIMIT $1`
	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (r *PostgresRepo) Delete(ctx context.Context, recordID string) error {
	query := `DELETE FROM records WHERE record_id = $1`
	res, err := r.db.ExecContext(ctx, query, recordID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PostgresRepo) Count(ctx context.Context) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM records`).Scan(&n)
	return n, err
}

func (r *PostgresRepo) CountUnembedded(ctx context.Context) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM records WHERE embedded_at IS NULL`).Scan(&n)
	return n, err
}
