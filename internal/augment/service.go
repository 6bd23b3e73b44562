package augment

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/iYEiD/ds-midterm/internal/retrieval"
)

// NoResultsAnswer is returned when the index yields no candidates; the
// generative model is not consulted so nothing can be fabricated.
const NoResultsAnswer = "I couldn't find relevant records to answer your question. The index may not have been populated yet."

const promptTemplate = `You are an expert data analyst. Based on the following records, answer the user's question accurately.

Relevant records:

%s

User question: %s

Instructions:
- Answer only from the records provided; include specific numbers when relevant
- Be concise but informative
- If the records don't fully answer the question, say so

Answer:`

type Source struct {
	RecordID string  `json:"record_id"`
	Score    float32 `json:"score"`
}

type Answer struct {
	Text    string   `json:"answer"`
	Sources []Source `json:"sources"`
}

type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

type Retriever interface {
	Retrieve(ctx context.Context, queryVector []float32, k int) ([]retrieval.Candidate, error)
}

type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

type Service struct {
	embedder   Embedder
	retriever  Retriever
	generator  Generator
	traces     TraceRepository
	budget     int
	retryDelay time.Duration
}

func NewService(embedder Embedder, retriever Retriever, generator Generator, traces TraceRepository, budget int, retryDelay time.Duration) *Service {
	return &Service{
		embedder:   embedder,
		retriever:  retriever,
		generator:  generator,
		traces:     traces,
		budget:     budget,
		retryDelay: retryDelay,
	}
}

// Answer runs the synchronous retrieval-plus-generation path. Provider
// failures surface to the caller: embedding errors immediately, generation
// errors after a single backoff retry. The caller's context bounds the whole
// round trip.
func (s *Service) Answer(ctx context.Context, queryText string, k int) (*Answer, error) {
	vec, err := s.embedder.Embed(ctx, queryText)
	if err != nil {
		return nil, fmt.Errorf("embedding query: %w", err)
	}

	candidates, err := s.retriever.Retrieve(ctx, vec, k)
	if err != nil {
		return nil, fmt.Errorf("retrieving candidates: %w", err)
	}

	if len(candidates) == 0 {
		answer := &Answer{Text: NoResultsAnswer, Sources: []Source{}}
		s.saveTrace(ctx, queryText, nil, answer.Text)
		return answer, nil
	}

	contextText, included := BuildContext(candidates, s.budget)
	if len(included) == 0 {
		// No summary fit the budget: the prompt would carry no records, so
		// this is the no-grounding path, same as zero candidates.
		answer := &Answer{Text: NoResultsAnswer, Sources: []Source{}}
		s.saveTrace(ctx, queryText, nil, answer.Text)
		return answer, nil
	}
	prompt := fmt.Sprintf(promptTemplate, contextText, queryText)

	text, err := s.generateWithRetry(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("generating answer: %w", err)
	}

	sources := make([]Source, 0, len(included))
	for _, c := range included {
		sources = append(sources, Source{RecordID: c.RecordID, Score: c.Score})
	}

	s.saveTrace(ctx, queryText, sources, text)

	return &Answer{Text: text, Sources: sources}, nil
}

// generateWithRetry invokes the generative model, retrying exactly once with
// backoff on provider error. The second failure is the caller's.
func (s *Service) generateWithRetry(ctx context.Context, prompt string) (string, error) {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = s.retryDelay
	policy := backoff.WithContext(backoff.WithMaxRetries(bo, 1), ctx)

	var text string
	err := backoff.Retry(func() error {
		var genErr error
		text, genErr = s.generator.Generate(ctx, prompt)
		if genErr != nil {
			slog.WarnContext(ctx, "generation attempt failed", "error", genErr)
		}
		return genErr
	}, policy)
	return text, err
}

func (s *Service) saveTrace(ctx context.Context, queryText string, sources []Source, answerText string) {
	candidates := make([]TraceCandidate, 0, len(sources))
	for _, src := range sources {
		candidates = append(candidates, TraceCandidate{RecordID: src.RecordID, Score: src.Score})
	}
	trace := &QueryTrace{
		QueryText:  queryText,
		Candidates: candidates,
		AnswerText: answerText,
	}
	if err := s.traces.Save(ctx, trace); err != nil {
		// The answer is already computed; losing the audit row is logged, not
		// surfaced.
		slog.ErrorContext(ctx, "failed to save query trace", "error", err)
	}
}
