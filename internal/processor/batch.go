// Package processor runs the batch jobs: worker-pool sentiment scoring,
// rate-limited result writes, bot analysis and model training.
package processor

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jonesrussell/north-cloud/comment-analyzer/internal/analyzer"
	"github.com/jonesrussell/north-cloud/comment-analyzer/internal/domain"
	"github.com/jonesrussell/north-cloud/comment-analyzer/internal/logger"
	"github.com/jonesrussell/north-cloud/comment-analyzer/internal/telemetry"
)

// DefaultConcurrency is the worker count used when none is configured.
const DefaultConcurrency = 10

// SentimentSelector hands out the sentiment analyzer for a batch.
type SentimentSelector interface {
	SelectSentiment() (analyzer.SentimentAnalyzer, error)
}

// BatchProcessor scores comments in parallel using a worker pool
type BatchProcessor struct {
	selector    SentimentSelector
	concurrency int
	telemetry   *telemetry.Provider
	logger      logger.Logger
	now         func() time.Time
}

// ProcessResult holds the result of scoring a single comment
type ProcessResult struct {
	Comment domain.Comment
	Record  domain.SentimentRecord
	Error   error
}

type job struct {
	index   int
	comment domain.Comment
}

// NewBatchProcessor creates a new batch processor
func NewBatchProcessor(
	selector SentimentSelector,
	concurrency int,
	tp *telemetry.Provider,
	log logger.Logger,
) *BatchProcessor {
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}
	if log == nil {
		log = logger.NewNop()
	}

	return &BatchProcessor{
		selector:    selector,
		concurrency: concurrency,
		telemetry:   tp,
		logger:      log,
		now:         time.Now,
	}
}

// Concurrency returns the worker count.
func (b *BatchProcessor) Concurrency() int { return b.concurrency }

// Process scores comments with one analyzer selection. Results are returned
// in input order; a failed comment carries its error instead of a record.
// Cancelling ctx stops the workers and returns ctx.Err().
func (b *BatchProcessor) Process(ctx context.Context, comments []domain.Comment) ([]ProcessResult, error) {
	if len(comments) == 0 {
		return []ProcessResult{}, nil
	}

	sa, err := b.selector.SelectSentiment()
	if err != nil {
		return nil, fmt.Errorf("select sentiment analyzer: %w", err)
	}

	workers := min(b.concurrency, len(comments))
	b.logger.Info("Starting batch processing",
		logger.Int("batch_size", len(comments)),
		logger.Int("concurrency", workers),
		logger.String("analyzer", sa.Name()),
	)
	b.telemetry.RecordBatchSize(len(comments))
	b.telemetry.SetActiveWorkers(workers)
	defer b.telemetry.SetActiveWorkers(0)

	startTime := time.Now()
	scoredAt := b.now().UTC()
	version := sa.ModelVersion()

	jobs := make(chan job, len(comments))
	results := make([]ProcessResult, len(comments))

	var wg sync.WaitGroup
	for i := range workers {
		wg.Add(1)
		go b.worker(ctx, i, sa, version, scoredAt, jobs, results, &wg)
	}

	for i, c := range comments {
		jobs <- job{index: i, comment: c}
	}
	close(jobs)

	wg.Wait()

	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, ctxErr
	}

	errorCount := 0
	for i := range results {
		if results[i].Error != nil {
			errorCount++
		}
	}

	duration := time.Since(startTime)
	b.logger.Info("Batch processing complete",
		logger.Int("total", len(comments)),
		logger.Int("success", len(comments)-errorCount),
		logger.Int("errors", errorCount),
		logger.Int64("duration_ms", duration.Milliseconds()),
	)

	return results, nil
}

// worker scores comments from the jobs channel. Each index is written by
// exactly one worker.
func (b *BatchProcessor) worker(
	ctx context.Context,
	id int,
	sa analyzer.SentimentAnalyzer,
	version string,
	scoredAt time.Time,
	jobs <-chan job,
	results []ProcessResult,
	wg *sync.WaitGroup,
) {
	defer wg.Done()

	b.logger.Debug("Worker started", logger.Int("worker_id", id))

	for j := range jobs {
		select {
		case <-ctx.Done():
			b.logger.Warn("Worker stopping due to context cancellation", logger.Int("worker_id", id))
			return
		default:
		}

		results[j.index] = b.processItem(ctx, sa, version, scoredAt, j.comment)
	}

	b.logger.Debug("Worker finished", logger.Int("worker_id", id))
}

func (b *BatchProcessor) processItem(
	ctx context.Context,
	sa analyzer.SentimentAnalyzer,
	version string,
	scoredAt time.Time,
	c domain.Comment,
) ProcessResult {
	result := ProcessResult{Comment: c}

	start := time.Now()
	p, err := sa.Predict(ctx, c.CommentText)
	if err != nil {
		result.Error = fmt.Errorf("predict comment %s: %w", c.CommentID, err)
		b.logger.Error("Failed to score comment",
			logger.String("comment_id", c.CommentID),
			logger.Error(err),
		)
		return result
	}
	b.telemetry.RecordPrediction(sa.Name(), p.Label().String(), time.Since(start))

	result.Record = domain.NewSentimentRecord(c.CommentID, p, sa.Name(), version, scoredAt)
	return result
}
