package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

var ErrMissingRequired = errors.New("missing required configuration")

type Config struct {
	DBHost string `envconfig:"DB_HOST" default:"postgres"`
	DBPort int    `envconfig:"DB_PORT" default:"5432"`
	DBUser string `envconfig:"DB_USER" default:"pipeline"`
	DBPass string `envconfig:"DB_PASS" default:"password"`
	DBName string `envconfig:"DB_NAME" default:"pipeline"`

	WeaviateHost   string `envconfig:"WEAVIATE_HOST" default:"localhost:8080"`
	WeaviateScheme string `envconfig:"WEAVIATE_SCHEME" default:"http"`

	NSQLookupd string `envconfig:"NSQ_LOOKUPD" default:"nsqlookupd:4161"`
	NSQDHost   string `envconfig:"NSQD_HOST" default:"nsqd:4150"`
	NSQDHTTP   string `envconfig:"NSQD_HTTP" default:"nsqd:4151"`

	GeminiAPIKey     string `envconfig:"GEMINI_API_KEY"`
	GeminiEmbedModel string `envconfig:"GEMINI_EMBED_MODEL" default:"gemini-embedding-001"`
	GeminiGenModel   string `envconfig:"GEMINI_GEN_MODEL" default:"gemini-2.0-flash"`

	// Fetch pipeline
	FetchTimeoutSeconds  int   `envconfig:"FETCH_TIMEOUT_SECONDS" default:"30"`
	FetchMaxAttempts     int   `envconfig:"FETCH_MAX_ATTEMPTS" default:"3"`
	FetchBackoffBaseMS   int64 `envconfig:"FETCH_BACKOFF_BASE_MS" default:"5000"`
	FetchBackoffCapMS    int64 `envconfig:"FETCH_BACKOFF_CAP_MS" default:"300000"`
	FetchConcurrency     int   `envconfig:"FETCH_CONCURRENCY" default:"4"`
	NormalizeConcurrency int   `envconfig:"NORMALIZE_CONCURRENCY" default:"4"`
	EmbedConcurrency     int   `envconfig:"EMBED_CONCURRENCY" default:"2"`

	// Retrieval & augmentation
	RetrievalTopK        int   `envconfig:"RETRIEVAL_TOP_K" default:"5"`
	ContextBudgetChars   int   `envconfig:"CONTEXT_BUDGET_CHARS" default:"4000"`
	GenerateRetryDelayMS int64 `envconfig:"GENERATE_RETRY_DELAY_MS" default:"2000"`
	EmbedTimeoutSeconds  int   `envconfig:"EMBED_TIMEOUT_SECONDS" default:"60"`
	BackfillIntervalSecs int   `envconfig:"EMBED_BACKFILL_INTERVAL_SECONDS" default:"300"`
	BackfillBatchSize    int   `envconfig:"EMBED_BACKFILL_BATCH_SIZE" default:"50"`

	// Server
	ServerPort    int    `envconfig:"SERVER_PORT" default:"8081"`
	MigrationPath string `envconfig:"MIGRATION_PATH" default:"file://migrations"`
	QueryLogPath  string `envconfig:"QUERY_LOG_PATH" default:"data/logs/query.log"`

	// Resilience
	BootstrapRetryAttempts     int `envconfig:"BOOTSTRAP_RETRY_ATTEMPTS" default:"10"`
	BootstrapRetryDelaySeconds int `envconfig:"BOOTSTRAP_RETRY_DELAY_SECONDS" default:"2"`
}

func Load() (*Config, error) {
	// Env vars may come from the shell; a missing .env is not an error.
	_ = godotenv.Load(".env")

	cwd, _ := os.Getwd()
	rootEnv := filepath.Join(cwd, "../.env")
	_ = godotenv.Load(rootEnv)

	var cfg Config
	err := envconfig.Process("", &cfg)
	if err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) Validate() error {
	if c.DBHost == "" {
		return fmt.Errorf("%w: DB_HOST", ErrMissingRequired)
	}
	if c.DBUser == "" {
		return fmt.Errorf("%w: DB_USER", ErrMissingRequired)
	}
	if c.DBName == "" {
		return fmt.Errorf("%w: DB_NAME", ErrMissingRequired)
	}
	if c.FetchMaxAttempts < 1 {
		return fmt.Errorf("%w: FETCH_MAX_ATTEMPTS must be >= 1", ErrMissingRequired)
	}
	if c.ContextBudgetChars < 1 {
		return fmt.Errorf("%w: CONTEXT_BUDGET_CHARS must be >= 1", ErrMissingRequired)
	}
	return nil
}

func (c *Config) FetchTimeout() time.Duration {
	return time.Duration(c.FetchTimeoutSeconds) * time.Second
}

func (c *Config) FetchBackoffBase() time.Duration {
	return time.Duration(c.FetchBackoffBaseMS) * time.Millisecond
}

func (c *Config) FetchBackoffCap() time.Duration {
	return time.Duration(c.FetchBackoffCapMS) * time.Millisecond
}

func (c *Config) EmbedTimeout() time.Duration {
	return time.Duration(c.EmbedTimeoutSeconds) * time.Second
}

func (c *Config) GenerateRetryDelay() time.Duration {
	return time.Duration(c.GenerateRetryDelayMS) * time.Millisecond
}

func (c *Config) BackfillInterval() time.Duration {
	return time.Duration(c.BackfillIntervalSecs) * time.Second
}
