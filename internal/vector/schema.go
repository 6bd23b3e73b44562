package vector

import (
	"context"

	"github.com/weaviate/weaviate-go-client/v5/weaviate"
	"github.com/weaviate/weaviate/entities/models"
)

// ClassName of the one-object-per-record embedding class.
const ClassName = "RecordEmbedding"

// SchemaClient defines the interface for Weaviate schema operations
type SchemaClient interface {
	ClassExists(ctx context.Context, className string) (bool, error)
	CreateClass(ctx context.Context, class *models.Class) error
	GetClass(ctx context.Context, className string) (*models.Class, error)
	AddProperty(ctx context.Context, className string, property *models.Property) error
}

// ClientSchema adapts the weaviate client's fluent schema API to SchemaClient.
type ClientSchema struct {
	c *weaviate.Client
}

func SchemaOf(c *weaviate.Client) *ClientSchema {
	return &ClientSchema{c: c}
}

func (s *ClientSchema) ClassExists(ctx context.Context, className string) (bool, error) {
	return s.c.Schema().ClassExistenceChecker().WithClassName(className).Do(ctx)
}

func (s *ClientSchema) CreateClass(ctx context.Context, class *models.Class) error {
	return s.c.Schema().ClassCreator().WithClass(class).Do(ctx)
}

func (s *ClientSchema) GetClass(ctx context.Context, className string) (*models.Class, error) {
	return s.c.Schema().ClassGetter().WithClassName(className).Do(ctx)
}

func (s *ClientSchema) AddProperty(ctx context.Context, className string, property *models.Property) error {
	return s.c.Schema().PropertyCreator().WithClassName(className).WithProperty(property).Do(ctx)
}

// EnsureSchema checks if the required class exists and creates it if not,
// adding any missing properties to an existing class.
func EnsureSchema(ctx context.Context, client SchemaClient) error {
	exists, err := client.ClassExists(ctx, ClassName)
	if err != nil {
		return err
	}

	properties := []*models.Property{
		{
			Name:     "recordId",
			DataType: []string{"string"}, // deterministic record key (exact match)
		},
		{
			Name:     "summary",
			DataType: []string{"text"},
		},
		{
			Name:     "sourceUrl",
			DataType: []string{"string"},
		},
		{
			Name:     "normalizedAt",
			DataType: []string{"date"},
		},
	}

	if !exists {
		class := &models.Class{
			Class:       ClassName,
			Description: "Embedding of a normalized record",
			Vectorizer:  "none",
			Properties:  properties,
		}
		return client.CreateClass(ctx, class)
	}

	class, err := client.GetClass(ctx, ClassName)
	if err != nil {
		return err
	}

	existingProps := make(map[string]bool)
	for _, p := range class.Properties {
		existingProps[p.Name] = true
	}

	for _, p := range properties {
		if !existingProps[p.Name] {
			if err := client.AddProperty(ctx, ClassName, p); err != nil {
				return err
			}
		}
	}

	return nil
}
