package record_test

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"

	"github.com/iYEiD/ds-midterm/features/record"
)

func TestPostgresRepo_Upsert(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	repo := record.NewPostgresRepo(db)

	rec := &record.Record{
		RecordID:     "rec_abc",
		SourceURL:    "https://example.com/stats",
		Name:         "LeBron James",
		Fields:       map[string]any{"points_per_game": 25.3},
		CategoryTags: []string{"table"},
	}

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO records (record_id, source_url, name, fields, category_tags, normalized_at)")).
		WithArgs(rec.RecordID, rec.SourceURL, rec.Name, []byte(`{"points_per_game":25.3}`), pq.Array(rec.CategoryTags)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err = repo.Upsert(context.Background(), rec)
	assert.NoError(t, err)
}

func TestPostgresRepo_Get(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	repo := record.NewPostgresRepo(db)

	t.Run("Success", func(t *testing.T) {
		rows := sqlmock.NewRows([]string{"record_id", "source_url", "name", "fields", "category_tags", "normalized_at", "embedded_at"}).
			AddRow("rec_abc", "https://example.com", "LeBron James", []byte(`{"assists":8}`), pq.Array([]string{"table"}), time.Now(), nil)

		mock.ExpectQuery(regexp.QuoteMeta("SELECT record_id, source_url, name, fields, category_tags, normalized_at, embedded_at")).
			WithArgs("rec_abc").
			WillReturnRows(rows)

		rec, err := repo.Get(context.Background(), "rec_abc")
		assert.NoError(t, err)
		assert.Equal(t, "LeBron James", rec.Name)
		assert.Equal(t, float64(8), rec.Fields["assists"])
		assert.Nil(t, rec.EmbeddedAt)
	})

	t.Run("NotFound", func(t *testing.T) {
		mock.ExpectQuery(regexp.QuoteMeta("SELECT record_id, source_url, name, fields, category_tags, normalized_at, embedded_at")).
			WithArgs("missing").
			WillReturnRows(sqlmock.NewRows([]string{"record_id", "source_url", "name", "fields", "category_tags", "normalized_at", "embedded_at"}))

		_, err := repo.Get(context.Background(), "missing")
		assert.ErrorIs(t, err, record.ErrNotFound)
	})
}

func TestPostgresRepo_ListUnembedded(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	repo := record.NewPostgresRepo(db)

	rows := sqlmock.NewRows([]string{"record_id"}).AddRow("rec_a").AddRow("rec_b")
	mock.ExpectQuery(regexp.QuoteMeta("SELECT record_id FROM records WHERE embedded_at IS NULL ORDER BY normalized_at ASC LIMIT $1")).
		WithArgs(50).
		WillReturnRows(rows)

	ids, err := repo.ListUnembedded(context.Background(), 50)
	assert.NoError(t, err)
	assert.Equal(t, []string{"rec_a", "rec_b"}, ids)
}

func TestPostgresRepo_MarkEmbedded(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	repo := record.NewPostgresRepo(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE records SET embedded_at = NOW() WHERE record_id = $1")).
		WithArgs("rec_abc").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err = repo.MarkEmbedded(context.Background(), "rec_abc")
	assert.NoError(t, err)
}

func TestPostgresRepo_Delete(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	repo := record.NewPostgresRepo(db)
	query := regexp.QuoteMeta("DELETE FROM records WHERE record_id = $1")

	t.Run("Success", func(t *testing.T) {
		mock.ExpectExec(query).
			WithArgs("rec_abc").
			WillReturnResult(sqlmock.NewResult(0, 1))

		err := repo.Delete(context.Background(), "rec_abc")
		assert.NoError(t, err)
	})

	t.Run("NotFound", func(t *testing.T) {
		mock.ExpectExec(query).
			WithArgs("rec_missing").
			WillReturnResult(sqlmock.NewResult(0, 0))

		err := repo.Delete(context.Background(), "rec_missing")
		assert.ErrorIs(t, err, record.ErrNotFound)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}
