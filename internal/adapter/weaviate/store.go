package weaviate

import (
	"context"
	"fmt"
	"time"

	"github.com/weaviate/weaviate-go-client/v5/weaviate"
	"github.com/weaviate/weaviate-go-client/v5/weaviate/filters"
	"github.com/weaviate/weaviate-go-client/v5/weaviate/graphql"

	"github.com/iYEiD/ds-midterm/internal/retrieval"
	"github.com/iYEiD/ds-midterm/internal/vector"
	"github.com/iYEiD/ds-midterm/internal/worker"
)

type Store struct {
	client *weaviate.Client
}

func NewStore(client *weaviate.Client) *Store {
	return &Store{client: client}
}

func (s *Store) EnsureSchema(ctx context.Context) error {
	return vector.EnsureSchema(ctx, vector.SchemaOf(s.client))
}

// UpsertEmbedding replaces the record's object. Delete-then-create keeps the
// index one-to-one with records without depending on object-id semantics.
func (s *Store) UpsertEmbedding(ctx context.Context, emb worker.Embedding) error {
	if err := s.DeleteByRecordID(ctx, emb.RecordID); err != nil {
		return err
	}
	_, err := s.client.Data().Creator().
		WithClassName(vector.ClassName).
		WithProperties(map[string]interface{}{
			"recordId":     emb.RecordID,
			"summary":      emb.Summary,
			"sourceUrl":    emb.SourceURL,
			"normalizedAt": emb.NormalizedAt.Format(time.RFC3339),
		}).
		WithVector(emb.Vector).
		Do(ctx)
	return err
}

func (s *Store) DeleteByRecordID(ctx context.Context, recordID string) error {
	_, err := s.client.Batch().ObjectsBatchDeleter().
		WithClassName(vector.ClassName).
		WithOutput("minimal").
		WithWhere(filters.Where().
			WithPath([]string{"recordId"}).
			WithOperator(filters.Equal).
			WithValueString(recordID)).
		Do(ctx)
	return err
}

// Query runs a nearVector search and returns raw hits with cosine distances.
func (s *Store) Query(ctx context.Context, queryVector []float32, k int) ([]retrieval.IndexHit, error) {
	nearVector := s.client.GraphQL().NearVectorArgBuilder().
		WithVector(queryVector)

	fields := []graphql.Field{
		{Name: "recordId"},
		{Name: "summary"},
		{Name: "normalizedAt"},
		{Name: "_additional", Fields: []graphql.Field{{Name: "distance"}}},
	}

	res, err := s.client.GraphQL().Get().
		WithClassName(vector.ClassName).
		WithNearVector(nearVector).
		WithLimit(k).
		WithFields(fields...).
		Do(ctx)
	if err != nil {
		return nil, err
	}
	if len(res.Errors) > 0 {
		return nil, fmt.Errorf("graphql error: %v", res.Errors)
	}

	var hits []retrieval.IndexHit
	data, ok := res.Data["Get"].(map[string]interface{})
	if !ok {
		return hits, nil
	}
	objects, ok := data[vector.ClassName].([]interface{})
	if !ok {
		return hits, nil
	}

	for _, o := range objects {
		props, ok := o.(map[string]interface{})
		if !ok {
			continue
		}
		var hit retrieval.IndexHit
		if id, ok := props["recordId"].(string); ok {
			hit.RecordID = id
		}
		if summary, ok := props["summary"].(string); ok {
			hit.Summary = summary
		}
		if ts, ok := props["normalizedAt"].(string); ok {
			if t, err := time.Parse(time.RFC3339, ts); err == nil {
				hit.NormalizedAt = t
			}
		}
		if additional, ok := props["_additional"].(map[string]interface{}); ok {
			switch d := additional["distance"].(type) {
			case float64:
				hit.Distance = float32(d)
			case string:
				var f float64
				fmt.Sscanf(d, "%f", &f)
				hit.Distance = float32(f)
			}
		}
		if hit.RecordID != "" {
			hits = append(hits, hit)
		}
	}
	return hits, nil
}

// Count returns the number of indexed embeddings.
func (s *Store) Count(ctx context.Context) (int, error) {
	res, err := s.client.GraphQL().Aggregate().
		WithClassName(vector.ClassName).
		WithFields(graphql.Field{Name: "meta", Fields: []graphql.Field{{Name: "count"}}}).
		Do(ctx)
	if err != nil {
		return 0, err
	}
	if len(res.Errors) > 0 {
		return 0, fmt.Errorf("graphql error: %v", res.Errors)
	}

	data, ok := res.Data["Aggregate"].(map[string]interface{})
	if !ok {
		return 0, nil
	}
	objects, ok := data[vector.ClassName].([]interface{})
	if !ok || len(objects) == 0 {
		return 0, nil
	}
	props, ok := objects[0].(map[string]interface{})
	if !ok {
		return 0, nil
	}
	meta, ok := props["meta"].(map[string]interface{})
	if !ok {
		return 0, nil
	}
	if count, ok := meta["count"].(float64); ok {
		return int(count), nil
	}
	return 0, nil
}
