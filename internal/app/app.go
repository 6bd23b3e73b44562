package app

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/iYEiD/ds-midterm/features/deadletter"
	"github.com/iYEiD/ds-midterm/features/query"
	"github.com/iYEiD/ds-midterm/features/record"
	"github.com/iYEiD/ds-midterm/features/stats"
	"github.com/iYEiD/ds-midterm/features/task"
	"github.com/iYEiD/ds-midterm/internal/adapter/httpfetch"
	"github.com/iYEiD/ds-midterm/internal/augment"
	"github.com/iYEiD/ds-midterm/internal/broker"
	"github.com/iYEiD/ds-midterm/internal/config"
	"github.com/iYEiD/ds-midterm/internal/middleware"
	"github.com/iYEiD/ds-midterm/internal/retrieval"
	"github.com/iYEiD/ds-midterm/internal/worker"
)

// VectorStore is the full vector-index surface the app depends on.
type VectorStore interface {
	worker.VectorStore
	retrieval.VectorIndex
	EnsureSchema(ctx context.Context) error
}

type App struct {
	Handler     http.Handler
	TaskService *task.Service

	cfg    *config.Config
	broker broker.Broker

	fetchConsumer     *worker.FetchConsumer
	resultRouter      *worker.ResultRouter
	normalizeConsumer *worker.NormalizeConsumer
	embedderConsumer  *worker.EmbedderConsumer
	backfill          *worker.Backfill
}

func New(
	cfg *config.Config,
	db *sql.DB,
	vecStore VectorStore,
	b broker.Broker,
	embedder worker.Embedder,
	generator augment.Generator,
) (*App, error) {
	// Feature: Task (store + orchestrator)
	taskRepo := task.NewPostgresRepo(db)
	rawRepo := task.NewPostgresRawRepo(db)
	taskService := task.NewService(taskRepo, b)
	taskHandler := task.NewHandler(taskService)

	// Feature: Record
	recordRepo := record.NewPostgresRepo(db)
	recordService := record.NewService(recordRepo, vecStore)
	recordHandler := record.NewHandler(recordService)

	// Feature: Dead letters
	dlRepo := deadletter.NewPostgresRepo(db)
	dlService := deadletter.NewService(dlRepo, taskService)
	dlHandler := deadletter.NewHandler(dlService)

	// Feature: Stats
	statsHandler := stats.NewHandler(taskRepo, recordRepo, dlRepo)

	// Retrieval & augmentation
	queryLogger, err := retrieval.NewFileQueryLogger(cfg.QueryLogPath)
	if err != nil {
		slog.Warn("failed to create query logger, falling back to stdout", "error", err)
		queryLogger = retrieval.NewQueryLogger(os.Stdout)
	}
	retrievalService := retrieval.NewService(vecStore, queryLogger)

	traceRepo := augment.NewPostgresTraceRepo(db)
	augmentService := augment.NewService(embedder, retrievalService, generator, traceRepo,
		cfg.ContextBudgetChars, cfg.GenerateRetryDelay())
	queryHandler := query.NewHandler(augmentService, traceRepo, cfg.RetrievalTopK)

	// Middleware: CORS
	enableCORS := func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", "*")
			w.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS, PUT, DELETE")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

			if r.Method == "OPTIONS" {
				w.WriteHeader(http.StatusOK)
				return
			}
			next(w, r)
		}
	}

	// Routes
	mux := http.NewServeMux()

	mux.Handle("POST /tasks", middleware.CorrelationID(enableCORS(taskHandler.Submit)))
	mux.Handle("GET /tasks/{id}", middleware.CorrelationID(enableCORS(taskHandler.Get)))

	mux.Handle("GET /records/{id}", middleware.CorrelationID(enableCORS(recordHandler.Get)))
	mux.Handle("DELETE /records/{id}", middleware.CorrelationID(enableCORS(recordHandler.Delete)))

	mux.Handle("POST /ask", middleware.CorrelationID(enableCORS(queryHandler.Ask)))
	mux.Handle("GET /traces", middleware.CorrelationID(enableCORS(queryHandler.ListTraces)))

	mux.Handle("GET /deadletters", middleware.CorrelationID(enableCORS(dlHandler.List)))
	mux.Handle("GET /deadletters/count", middleware.CorrelationID(enableCORS(dlHandler.Count)))
	mux.Handle("POST /deadletters/{id}/retry", middleware.CorrelationID(enableCORS(dlHandler.Retry)))

	mux.Handle("GET /stats", middleware.CorrelationID(enableCORS(statsHandler.GetStats)))

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	})

	// Workers
	fetcher := httpfetch.NewClient(cfg.FetchTimeout())
	fetchConsumer := worker.NewFetchConsumer(fetcher, taskRepo, rawRepo,
		&deadLetterSinkAdapter{repo: dlRepo}, b,
		cfg.FetchMaxAttempts, cfg.FetchBackoffBase(), cfg.FetchBackoffCap())
	resultRouter := worker.NewResultRouter(b)
	normalizeConsumer := worker.NewNormalizeConsumer(rawRepo, recordRepo, b)
	embedderConsumer := worker.NewEmbedderConsumer(embedder, vecStore, recordRepo,
		cfg.EmbedTimeout())
	backfill := worker.NewBackfill(recordRepo, b, cfg.BackfillInterval(), cfg.BackfillBatchSize)

	return &App{
		Handler:           mux,
		TaskService:       taskService,
		cfg:               cfg,
		broker:            b,
		fetchConsumer:     fetchConsumer,
		resultRouter:      resultRouter,
		normalizeConsumer: normalizeConsumer,
		embedderConsumer:  embedderConsumer,
		backfill:          backfill,
	}, nil
}

// StartWorkers attaches every consumer group to its topic and starts the
// embedding backfill loop.
func (a *App) StartWorkers(ctx context.Context) error {
	if err := a.broker.Subscribe(config.TopicFetchTask, config.ChannelFetchWorkers,
		a.cfg.FetchConcurrency, a.fetchConsumer.HandleDelivery); err != nil {
		return fmt.Errorf("subscribing fetch workers: %w", err)
	}
	if err := a.broker.Subscribe(config.TopicFetchResult, config.ChannelResultRouter,
		1, a.resultRouter.HandleDelivery); err != nil {
		return fmt.Errorf("subscribing result router: %w", err)
	}
	if err := a.broker.Subscribe(config.TopicNormalizeTask, config.ChannelNormalizeWorkers,
		a.cfg.NormalizeConcurrency, a.normalizeConsumer.HandleDelivery); err != nil {
		return fmt.Errorf("subscribing normalize workers: %w", err)
	}
	if err := a.broker.Subscribe(config.TopicRecordEmbed, config.ChannelEmbedWorkers,
		a.cfg.EmbedConcurrency, a.embedderConsumer.HandleDelivery); err != nil {
		return fmt.Errorf("subscribing embed workers: %w", err)
	}

	go a.backfill.Run(ctx)
	return nil
}

func (a *App) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", a.cfg.ServerPort),
		Handler: a.Handler,
	}

	go func() {
		<-ctx.Done()
		slog.Info("shutting down server...")
		if err := srv.Shutdown(context.Background()); err != nil {
			slog.Error("server shutdown failed", "error", err)
		}
		a.broker.Stop()
	}()

	slog.Info("server starting", "port", a.cfg.ServerPort)
	if err := srv.ListenAndServe(); err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Adapter for the fetch consumer's dead-letter sink.
type deadLetterSinkAdapter struct {
	repo deadletter.Repository
}

func (a *deadLetterSinkAdapter) Save(ctx context.Context, taskID, url, lastError string, attemptCount int) error {
	return a.repo.Save(ctx, &deadletter.DeadLetter{
		TaskID:       taskID,
		URL:          url,
		LastError:    lastError,
		AttemptCount: attemptCount,
	})
}
