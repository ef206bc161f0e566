package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/jonesrussell/north-cloud/comment-analyzer/internal/domain"
)

// DefaultInsertBatchSize bounds the rows per multi-row INSERT.
const DefaultInsertBatchSize = 500

// AnalysisRepository writes bot analysis and sentiment results.
type AnalysisRepository struct {
	db        *sqlx.DB
	batchSize int
}

// NewAnalysisRepository creates a new analysis repository. A batchSize of
// zero or less uses DefaultInsertBatchSize.
func NewAnalysisRepository(db *sqlx.DB, batchSize int) *AnalysisRepository {
	if batchSize <= 0 {
		batchSize = DefaultInsertBatchSize
	}
	return &AnalysisRepository{db: db, batchSize: batchSize}
}

const insertBotAnalysis = `
	INSERT INTO comment_bot_analysis (
		comment_id, video_id, author_name, comment_text, bot_score, bot_risk_level,
		duplicate_count_local, duplicate_count_global, burst_score,
		author_repetition_score, engagement_score, emoji_count, is_whitelisted,
		run_id, analyzed_at
	)
	VALUES (
		:comment_id, :video_id, :author_name, :comment_text, :bot_score, :bot_risk_level,
		:duplicate_count_local, :duplicate_count_global, :burst_score,
		:author_repetition_score, :engagement_score, :emoji_count, :is_whitelisted,
		:run_id, :analyzed_at
	)`

// StoreBotAnalysis replaces the stored bot analysis with records, stamped
// with runID and analyzedAt, in one transaction.
func (r *AnalysisRepository) StoreBotAnalysis(
	ctx context.Context,
	records []domain.BotSuspicionRecord,
	runID string,
	analyzedAt time.Time,
) error {
	rows := make([]domain.BotSuspicionRecord, len(records))
	for i, rec := range records {
		rec.RunID = runID
		rec.AnalyzedAt = analyzedAt.UTC()
		rows[i] = rec
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin bot analysis transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err = tx.ExecContext(ctx, `DELETE FROM comment_bot_analysis`); err != nil {
		return fmt.Errorf("failed to clear bot analysis: %w", err)
	}

	for start := 0; start < len(rows); start += r.batchSize {
		end := min(start+r.batchSize, len(rows))
		if _, err = tx.NamedExecContext(ctx, insertBotAnalysis, rows[start:end]); err != nil {
			return fmt.Errorf("failed to insert bot analysis batch at %d: %w", start, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit bot analysis: %w", err)
	}

	return nil
}

const upsertSentiment = `
	INSERT INTO comment_sentiment (
		comment_id, sentiment_score, confidence, prob_positive, prob_neutral,
		prob_negative, analyzer, model_version, scored_at
	)
	VALUES (
		:comment_id, :sentiment_score, :confidence, :prob_positive, :prob_neutral,
		:prob_negative, :analyzer, :model_version, :scored_at
	)
	ON CONFLICT (comment_id) DO UPDATE SET
		sentiment_score = EXCLUDED.sentiment_score,
		confidence = EXCLUDED.confidence,
		prob_positive = EXCLUDED.prob_positive,
		prob_neutral = EXCLUDED.prob_neutral,
		prob_negative = EXCLUDED.prob_negative,
		analyzer = EXCLUDED.analyzer,
		model_version = EXCLUDED.model_version,
		scored_at = EXCLUDED.scored_at`

// UpsertSentiment inserts or replaces sentiment rows keyed by comment id.
// It returns the number of rows affected.
func (r *AnalysisRepository) UpsertSentiment(ctx context.Context, rows []domain.SentimentRecord) (int64, error) {
	var total int64
	for start := 0; start < len(rows); start += r.batchSize {
		end := min(start+r.batchSize, len(rows))
		res, err := r.db.NamedExecContext(ctx, upsertSentiment, rows[start:end])
		if err != nil {
			return total, fmt.Errorf("failed to upsert sentiment batch at %d: %w", start, err)
		}
		if n, affectedErr := res.RowsAffected(); affectedErr == nil {
			total += n
		}
	}
	return total, nil
}
