package executor

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Adithya-Monish-Kumar-K/Distributed-Text-Evaluation-Platform/internal/rouge"
	"github.com/Adithya-Monish-Kumar-K/Distributed-Text-Evaluation-Platform/internal/scorer/leaderboard"
	"github.com/Adithya-Monish-Kumar-K/Distributed-Text-Evaluation-Platform/internal/scorer/parser"
	apperrors "github.com/Adithya-Monish-Kumar-K/Distributed-Text-Evaluation-Platform/pkg/errors"
	"golang.org/x/sync/errgroup"
)

// ScoreResult is the outcome of scoring one candidate against its references.
type ScoreResult struct {
	Metric    string  `json:"metric"`
	Precision float64 `json:"precision"`
	Recall    float64 `json:"recall"`
	F1        float64 `json:"f1"`
}

// Pair is one candidate/reference pairing within a batch.
type Pair struct {
	ID         string   `json:"id"`
	Candidate  string   `json:"candidate"`
	References []string `json:"references"`
}

// BatchResult holds per-pair scores in input order plus the top-K
// leaderboard ranked by F1.
type BatchResult struct {
	Metric  string              `json:"metric"`
	Results []leaderboard.Entry `json:"results"`
	TopK    []leaderboard.Entry `json:"top_k"`
}

// Executor computes ROUGE scores for ad-hoc requests. Batch requests fan out
// across a bounded worker group.
type Executor struct {
	maxBatchSize       int
	maxConcurrentPairs int
	defaultTopK        int
	logger             *slog.Logger
}

func New(maxBatchSize, maxConcurrentPairs, defaultTopK int) *Executor {
	if maxConcurrentPairs < 1 {
		maxConcurrentPairs = 1
	}
	if defaultTopK < 0 {
		defaultTopK = 0
	}
	return &Executor{
		maxBatchSize:       maxBatchSize,
		maxConcurrentPairs: maxConcurrentPairs,
		defaultTopK:        defaultTopK,
		logger:             slog.Default().With("component", "score-executor"),
	}
}

// Execute scores a single candidate against its references for the given
// metric spec.
func (e *Executor) Execute(ctx context.Context, spec parser.MetricSpec, candidate string, references []string) (*ScoreResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	score, err := rouge.RougeN(candidate, references, spec.N, spec.Aggregation)
	if err != nil {
		return nil, fmt.Errorf("computing %s: %w", spec.Canonical(), err)
	}
	return &ScoreResult{
		Metric:    spec.Canonical(),
		Precision: score.Precision,
		Recall:    score.Recall,
		F1:        score.F1,
	}, nil
}

// ExecuteBatch scores every pair with the same metric spec, preserving input
// order in Results. topK selects the leaderboard size; zero falls back to
// the configured default and a negative value disables the leaderboard.
func (e *Executor) ExecuteBatch(ctx context.Context, spec parser.MetricSpec, pairs []Pair, topK int) (*BatchResult, error) {
	if topK == 0 {
		topK = e.defaultTopK
	}
	if len(pairs) == 0 {
		return nil, apperrors.New(apperrors.ErrInvalidArgument, 400, "batch contains no pairs")
	}
	if e.maxBatchSize > 0 && len(pairs) > e.maxBatchSize {
		return nil, apperrors.Newf(apperrors.ErrInvalidArgument, 400,
			"batch size %d exceeds maximum %d", len(pairs), e.maxBatchSize)
	}

	entries := make([]leaderboard.Entry, len(pairs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.maxConcurrentPairs)
	for i, pair := range pairs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			score, err := rouge.RougeN(pair.Candidate, pair.References, spec.N, spec.Aggregation)
			if err != nil {
				return fmt.Errorf("scoring pair %q: %w", pair.ID, err)
			}
			entries[i] = leaderboard.Entry{
				ID:        pair.ID,
				Precision: score.Precision,
				Recall:    score.Recall,
				F1:        score.F1,
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	result := &BatchResult{
		Metric:  spec.Canonical(),
		Results: entries,
	}
	if topK > 0 {
		result.TopK = leaderboard.Top(entries, topK)
	}
	e.logger.Info("batch scored",
		"metric", spec.Canonical(),
		"pairs", len(pairs),
		"top_k", topK,
	)
	return result, nil
}
