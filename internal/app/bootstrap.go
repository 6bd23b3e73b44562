package app

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/lib/pq"
	"github.com/nsqio/go-nsq"
	"github.com/weaviate/weaviate-go-client/v5/weaviate"

	"github.com/iYEiD/ds-midterm/internal/adapter/gemini"
	wstore "github.com/iYEiD/ds-midterm/internal/adapter/weaviate"
	"github.com/iYEiD/ds-midterm/internal/broker"
	"github.com/iYEiD/ds-midterm/internal/config"
	"github.com/iYEiD/ds-midterm/internal/vector"
)

// Deps holds every external connection the app needs. Close releases them.
type Deps struct {
	DB        *sql.DB
	VecStore  *wstore.Store
	Broker    *broker.NSQBroker
	Embedder  *gemini.Embedder
	Generator *gemini.Generator
}

func (d *Deps) Close() {
	if d.Embedder != nil {
		d.Embedder.Close()
	}
	if d.Generator != nil {
		d.Generator.Close()
	}
	if d.DB != nil {
		d.DB.Close()
	}
}

// Bootstrap opens and verifies every external dependency: Postgres (with
// migrations), Weaviate (with schema), the NSQ producer, and the Gemini
// clients. Connection attempts retry because the service usually starts
// alongside its backing containers.
func Bootstrap(ctx context.Context, cfg *config.Config) (*Deps, error) {
	deps := &Deps{}

	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		cfg.DBHost, cfg.DBPort, cfg.DBUser, cfg.DBPass, cfg.DBName)

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening db connection: %w", err)
	}
	deps.DB = db

	retryDelay := time.Duration(cfg.BootstrapRetryDelaySeconds) * time.Second
	for i := 0; i < cfg.BootstrapRetryAttempts; i++ {
		if err := db.Ping(); err == nil {
			break
		}
		slog.Warn("failed to ping db, retrying...", "attempt", i+1, "max_attempts", cfg.BootstrapRetryAttempts)
		time.Sleep(retryDelay)
	}
	if err := db.Ping(); err != nil {
		deps.Close()
		return nil, fmt.Errorf("pinging db after retries: %w", err)
	}

	if err := runMigrations(db, cfg.MigrationPath); err != nil {
		deps.Close()
		return nil, err
	}
	slog.Info("migrations applied successfully")

	wClient, err := weaviate.NewClient(weaviate.Config{
		Host:   cfg.WeaviateHost,
		Scheme: cfg.WeaviateScheme,
	})
	if err != nil {
		deps.Close()
		return nil, fmt.Errorf("creating weaviate client: %w", err)
	}

	wAdapter := vector.SchemaOf(wClient)
	for i := 0; i < cfg.BootstrapRetryAttempts; i++ {
		if err := vector.EnsureSchema(ctx, wAdapter); err == nil {
			slog.Info("weaviate schema ensured")
			break
		}
		slog.Warn("failed to ensure weaviate schema, retrying...", "attempt", i+1, "error", err)
		time.Sleep(retryDelay)
	}
	if err := vector.EnsureSchema(ctx, wAdapter); err != nil {
		deps.Close()
		return nil, fmt.Errorf("ensuring weaviate schema after retries: %w", err)
	}
	deps.VecStore = wstore.NewStore(wClient)

	nsqProducer, err := nsq.NewProducer(cfg.NSQDHost, nsq.NewConfig())
	if err != nil {
		deps.Close()
		return nil, fmt.Errorf("creating NSQ producer: %w", err)
	}
	deps.Broker = broker.NewNSQBroker(nsqProducer, cfg.NSQLookupd)

	// NSQ creates topics lazily on publish, but consumers querying lookupd
	// 404 until then. Pre-create every topic through the nsqd http api.
	go createTopics(cfg.NSQDHTTP, config.Topics())

	embedder, err := gemini.NewEmbedder(ctx, cfg.GeminiAPIKey, cfg.GeminiEmbedModel)
	if err != nil {
		deps.Close()
		return nil, fmt.Errorf("creating gemini embedder: %w", err)
	}
	deps.Embedder = embedder

	generator, err := gemini.NewGenerator(ctx, cfg.GeminiAPIKey, cfg.GeminiGenModel)
	if err != nil {
		deps.Close()
		return nil, fmt.Errorf("creating gemini generator: %w", err)
	}
	deps.Generator = generator

	return deps, nil
}

func runMigrations(db *sql.DB, path string) error {
	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("creating migration driver: %w", err)
	}
	m, err := migrate.NewWithDatabaseInstance(path, "postgres", driver)
	if err != nil {
		return fmt.Errorf("creating migration instance: %w", err)
	}
	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("running migrations: %w", err)
	}
	return nil
}

func createTopics(nsqdHTTP string, topics []string) {
	// Wait for nsqd to be ready
	time.Sleep(2 * time.Second)
	for _, topic := range topics {
		createURL := fmt.Sprintf("http://%s/topic/create?topic=%s", nsqdHTTP, url.QueryEscape(topic))
		resp, err := http.Post(createURL, "application/json", nil)
		if err != nil {
			slog.Warn("failed to pre-create topic", "topic", topic, "error", err)
			continue
		}
		resp.Body.Close()
		if resp.StatusCode == http.StatusOK {
			slog.Info("topic pre-created", "topic", topic)
		} else {
			slog.Warn("unexpected status pre-creating topic", "topic", topic, "status", resp.StatusCode)
		}
	}
}
