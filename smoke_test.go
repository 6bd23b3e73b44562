package main

import (
	"context"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/iYEiD/ds-midterm/internal/adapter/weaviate"
	"github.com/iYEiD/ds-midterm/internal/app"
	"github.com/iYEiD/ds-midterm/internal/broker"
	"github.com/iYEiD/ds-midterm/internal/config"
	"github.com/iYEiD/ds-midterm/internal/testutils"
)

type fixedEmbedder struct{}

func (fixedEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	return []float32{0.1, 0.2, 0.3}, nil
}

type echoGenerator struct{}

func (echoGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	return "ok", nil
}

func TestSmoke_Startup(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping smoke test in short mode")
	}

	// 1. Start Infrastructure
	suite := testutils.NewIntegrationSuite(t)
	suite.Setup()
	defer suite.Teardown()

	cfg := &config.Config{
		FetchTimeoutSeconds:  5,
		FetchMaxAttempts:     3,
		FetchBackoffBaseMS:   100,
		FetchBackoffCapMS:    1000,
		FetchConcurrency:     1,
		NormalizeConcurrency: 1,
		EmbedConcurrency:     1,
		RetrievalTopK:        5,
		ContextBudgetChars:   4000,
		GenerateRetryDelayMS: 10,
		EmbedTimeoutSeconds:  5,
		BackfillIntervalSecs: 300,
		BackfillBatchSize:    10,
		ServerPort:           18099,
		QueryLogPath:         t.TempDir() + "/query.log",
	}

	vecStore := weaviate.NewStore(suite.Weaviate)
	require.NoError(t, vecStore.EnsureSchema(context.Background()))

	// 2. Build App against the Infrastructure
	a, err := app.New(cfg, suite.DB, vecStore, broker.NewMemoryBroker(), fixedEmbedder{}, echoGenerator{})
	require.NoError(t, err)

	// 3. Run App in Background
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.NoError(t, a.StartWorkers(ctx))
	go func() {
		if err := a.Run(ctx); err != nil {
			t.Logf("app run exited: %v", err)
		}
	}()

	// 4. Wait for Health Check
	require.Eventually(t, func() bool {
		resp, err := http.Get(fmt.Sprintf("http://localhost:%d/health", cfg.ServerPort))
		if err != nil {
			return false
		}
		defer resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 10*time.Second, 500*time.Millisecond)
}
