package augment_test

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iYEiD/ds-midterm/internal/augment"
)

func TestPostgresTraceRepo_Save(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := augment.NewPostgresTraceRepo(db)
	created := time.Now()

	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO query_traces (query_text, candidates, answer_text)
			VALUES ($1, $2, $3) RETURNING id, created_at`)).
		WithArgs("who leads in scoring?", []byte(`[{"record_id":"rec_a","score":0.91}]`), "Lebron James leads.").
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow("trace-1", created))

	trace := &augment.QueryTrace{
		QueryText:  "who leads in scoring?",
		Candidates: []augment.TraceCandidate{{RecordID: "rec_a", Score: 0.91}},
		AnswerText: "Lebron James leads.",
	}
	err = repo.Save(context.Background(), trace)
	require.NoError(t, err)
	assert.Equal(t, "trace-1", trace.ID)
	assert.Equal(t, created, trace.CreatedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresTraceRepo_Save_EmptyCandidates(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := augment.NewPostgresTraceRepo(db)

	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO query_traces`)).
		WithArgs("anything?", []byte(`[]`), augment.NoResultsAnswer).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow("trace-2", time.Now()))

	trace := &augment.QueryTrace{
		QueryText:  "anything?",
		Candidates: []augment.TraceCandidate{},
		AnswerText: augment.NoResultsAnswer,
	}
	err = repo.Save(context.Background(), trace)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresTraceRepo_List(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := augment.NewPostgresTraceRepo(db)
	newer := time.Now()
	older := newer.Add(-time.Minute)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT id, query_text, candidates, answer_text, created_at
			FROM query_traces ORDER BY created_at DESC LIMIT $1`)).
		WithArgs(50).
		WillReturnRows(sqlmock.NewRows([]string{"id", "query_text", "candidates", "answer_text", "created_at"}).
			AddRow("trace-2", "second?", []byte(`[]`), "no idea", newer).
			AddRow("trace-1", "first?", []byte(`[{"record_id":"rec_a","score":0.8}]`), "sure", older))

	traces, err := repo.List(context.Background(), 50)
	require.NoError(t, err)
	require.Len(t, traces, 2)
	assert.Equal(t, "trace-2", traces[0].ID)
	require.Len(t, traces[1].Candidates, 1)
	assert.Equal(t, "rec_a", traces[1].Candidates[0].RecordID)
	assert.InDelta(t, 0.8, traces[1].Candidates[0].Score, 0.001)
	assert.NoError(t, mock.ExpectationsWereMet())
}
