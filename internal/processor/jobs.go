package processor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jonesrussell/north-cloud/comment-analyzer/internal/analyzer"
	"github.com/jonesrussell/north-cloud/comment-analyzer/internal/domain"
	"github.com/jonesrussell/north-cloud/comment-analyzer/internal/logger"
)

// Job errors.
var (
	// ErrNoComments is returned when a job finds nothing to process.
	ErrNoComments = errors.New("no comments found")
	// ErrNoStore is returned when a job must persist results but has no
	// database behind it.
	ErrNoStore = errors.New("no database configured")
)

// Table names reported to telemetry.
const (
	botAnalysisTable = "comment_bot_analysis"
	sentimentTable   = "comment_sentiment"
	modelsTable      = "ml_models"
)

// CommentSource loads comments to process.
type CommentSource interface {
	LoadRecentComments(ctx context.Context, since time.Time) ([]domain.Comment, error)
	LoadCommentTexts(ctx context.Context, limit int) ([]string, error)
	LoadCommentsPage(ctx context.Context, limit, offset int) ([]domain.Comment, error)
	LoadCommentsByID(ctx context.Context, ids []string) ([]domain.Comment, error)
}

// ResultStore persists job output.
type ResultStore interface {
	StoreBotAnalysis(ctx context.Context, records []domain.BotSuspicionRecord, runID string, analyzedAt time.Time) error
	UpsertSentiment(ctx context.Context, rows []domain.SentimentRecord) (int64, error)
}

// ModelStore records trained models.
type ModelStore interface {
	Create(ctx context.Context, m *domain.MLModel) error
}

// BotAnalysisResult is the outcome of one bot analysis run.
type BotAnalysisResult struct {
	RunID      string                      `json:"run_id"`
	AnalyzedAt time.Time                   `json:"analyzed_at"`
	Records    []domain.BotSuspicionRecord `json:"records"`
	Stored     bool                        `json:"stored"`
}

// BotAnalysisJob loads recent comments, scores them and optionally replaces
// the stored analysis.
type BotAnalysisJob struct {
	comments CommentSource
	store    ResultStore
	service  *analyzer.Service
	logger   logger.Logger
	now      func() time.Time
}

// NewBotAnalysisJob creates a bot analysis job. comments and store may be
// nil when the caller supplies comments and does not persist results.
func NewBotAnalysisJob(comments CommentSource, store ResultStore, svc *analyzer.Service, log logger.Logger) *BotAnalysisJob {
	if log == nil {
		log = logger.NewNop()
	}
	return &BotAnalysisJob{comments: comments, store: store, service: svc, logger: log, now: time.Now}
}

// RunRecent analyzes comments published in the last days days.
func (j *BotAnalysisJob) RunRecent(ctx context.Context, days int, store bool) (BotAnalysisResult, error) {
	if j.comments == nil {
		return BotAnalysisResult{}, fmt.Errorf("load recent comments: %w", ErrNoStore)
	}

	since := j.now().UTC().AddDate(0, 0, -days)
	comments, err := j.comments.LoadRecentComments(ctx, since)
	if err != nil {
		return BotAnalysisResult{}, fmt.Errorf("load recent comments: %w", err)
	}
	if len(comments) == 0 {
		return BotAnalysisResult{}, fmt.Errorf("%w in the last %d days", ErrNoComments, days)
	}

	j.logger.Info("Loaded comments for bot analysis",
		logger.Int("comments", len(comments)),
		logger.Int("days", days),
	)
	return j.Run(ctx, comments, store)
}

// Run analyzes comments and, when store is set, replaces the stored analysis.
func (j *BotAnalysisJob) Run(ctx context.Context, comments []domain.Comment, store bool) (BotAnalysisResult, error) {
	records, err := j.service.AnalyzeBots(ctx, comments)
	if err != nil {
		return BotAnalysisResult{}, err
	}

	result := BotAnalysisResult{
		RunID:      uuid.NewString(),
		AnalyzedAt: j.now().UTC(),
		Records:    records,
	}
	if !store {
		return result, nil
	}
	if j.store == nil {
		return result, fmt.Errorf("store bot analysis: %w", ErrNoStore)
	}

	if storeErr := j.store.StoreBotAnalysis(ctx, records, result.RunID, result.AnalyzedAt); storeErr != nil {
		return result, fmt.Errorf("store bot analysis: %w", storeErr)
	}
	j.service.Telemetry().RecordRowsWritten(botAnalysisTable, len(records))
	j.logger.Info("Stored bot analysis",
		logger.String("run_id", result.RunID),
		logger.Int("records", len(records)),
	)

	result.Stored = true
	for i := range result.Records {
		result.Records[i].RunID = result.RunID
		result.Records[i].AnalyzedAt = result.AnalyzedAt
	}
	return result, nil
}

// TrainingJobConfig holds training job settings.
type TrainingJobConfig struct {
	ModelName     string
	ModelPath     string
	TrainingLimit int
}

// TrainingJob trains the sentiment model, saves the artifact and records the
// run in the model registry.
type TrainingJob struct {
	comments CommentSource
	models   ModelStore
	service  *analyzer.Service
	cfg      TrainingJobConfig
	logger   logger.Logger
}

// NewTrainingJob creates a training job. comments and models may be nil.
func NewTrainingJob(
	comments CommentSource,
	models ModelStore,
	svc *analyzer.Service,
	cfg TrainingJobConfig,
	log logger.Logger,
) *TrainingJob {
	if log == nil {
		log = logger.NewNop()
	}
	return &TrainingJob{comments: comments, models: models, service: svc, cfg: cfg, logger: log}
}

// Run trains on texts, or on comment texts from the database when texts is
// empty. The model is saved when a model path is configured.
func (j *TrainingJob) Run(ctx context.Context, texts []string) (domain.TrainingReport, error) {
	if len(texts) == 0 {
		if j.comments == nil {
			return domain.TrainingReport{}, fmt.Errorf("load training texts: %w", ErrNoStore)
		}
		loaded, err := j.comments.LoadCommentTexts(ctx, j.cfg.TrainingLimit)
		if err != nil {
			return domain.TrainingReport{}, fmt.Errorf("load training texts: %w", err)
		}
		if len(loaded) == 0 {
			return domain.TrainingReport{}, ErrNoComments
		}
		texts = loaded
	}

	j.logger.Info("Training sentiment model", logger.Int("texts", len(texts)))
	report, err := j.service.Train(ctx, texts)
	if err != nil {
		return domain.TrainingReport{}, fmt.Errorf("train: %w", err)
	}

	if j.cfg.ModelPath != "" {
		if saveErr := j.service.Sentiment().Save(j.cfg.ModelPath); saveErr != nil {
			return report, fmt.Errorf("save model: %w", saveErr)
		}
		j.logger.Info("Saved sentiment model",
			logger.String("path", j.cfg.ModelPath),
			logger.String("run_id", report.RunID),
		)
	}

	if j.models != nil {
		if recordErr := j.record(ctx, report); recordErr != nil {
			return report, recordErr
		}
	}

	return report, nil
}

func (j *TrainingJob) record(ctx context.Context, report domain.TrainingReport) error {
	dist, err := json.Marshal(report.LabelDistribution)
	if err != nil {
		return fmt.Errorf("encode label distribution: %w", err)
	}

	m := &domain.MLModel{
		ModelName:         j.cfg.ModelName,
		ModelVersion:      report.RunID,
		MacroF1:           report.MacroF1,
		TrainingSize:      report.TrainingSize,
		LabelDistribution: dist,
		Calibrated:        report.Calibrated,
		ModelPath:         j.cfg.ModelPath,
		TrainedAt:         report.TrainedAt,
	}
	if createErr := j.models.Create(ctx, m); createErr != nil {
		return fmt.Errorf("record model: %w", createErr)
	}
	j.service.Telemetry().RecordRowsWritten(modelsTable, 1)
	return nil
}

// ScoringSummary counts the outcome of a scoring run.
type ScoringSummary struct {
	Scored  int   `json:"scored"`
	Failed  int   `json:"failed"`
	Written int64 `json:"written"`
}

// SentimentScoringJob pages through stored comments, scores each page on the
// worker pool and writes the predictions under a rate limit.
type SentimentScoringJob struct {
	comments  CommentSource
	store     ResultStore
	processor *BatchProcessor
	limiter   *RateLimiter
	pageSize  int
	service   *analyzer.Service
	logger    logger.Logger
}

// NewSentimentScoringJob creates a scoring job writing pages of pageSize.
func NewSentimentScoringJob(
	comments CommentSource,
	store ResultStore,
	processor *BatchProcessor,
	limiter *RateLimiter,
	pageSize int,
	svc *analyzer.Service,
	log logger.Logger,
) *SentimentScoringJob {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	if log == nil {
		log = logger.NewNop()
	}
	return &SentimentScoringJob{
		comments:  comments,
		store:     store,
		processor: processor,
		limiter:   limiter,
		pageSize:  pageSize,
		service:   svc,
		logger:    log,
	}
}

// DefaultPageSize is the scoring page size used when none is configured.
const DefaultPageSize = 500

// Run scores every stored comment.
func (j *SentimentScoringJob) Run(ctx context.Context) (ScoringSummary, error) {
	var summary ScoringSummary
	for offset := 0; ; offset += j.pageSize {
		page, err := j.comments.LoadCommentsPage(ctx, j.pageSize, offset)
		if err != nil {
			return summary, fmt.Errorf("load comments page: %w", err)
		}
		if len(page) == 0 {
			break
		}

		if scoreErr := j.scorePage(ctx, page, &summary); scoreErr != nil {
			return summary, scoreErr
		}
		if len(page) < j.pageSize {
			break
		}
	}

	if summary.Scored == 0 && summary.Failed == 0 {
		return summary, ErrNoComments
	}
	j.logger.Info("Sentiment scoring complete",
		logger.Int("scored", summary.Scored),
		logger.Int("failed", summary.Failed),
		logger.Int64("written", summary.Written),
	)
	return summary, nil
}

// RunIDs scores the comments with the given ids.
func (j *SentimentScoringJob) RunIDs(ctx context.Context, ids []string) (ScoringSummary, error) {
	var summary ScoringSummary
	comments, err := j.comments.LoadCommentsByID(ctx, ids)
	if err != nil {
		return summary, fmt.Errorf("load comments: %w", err)
	}
	if len(comments) == 0 {
		return summary, ErrNoComments
	}

	for start := 0; start < len(comments); start += j.pageSize {
		end := min(start+j.pageSize, len(comments))
		if scoreErr := j.scorePage(ctx, comments[start:end], &summary); scoreErr != nil {
			return summary, scoreErr
		}
	}
	return summary, nil
}

func (j *SentimentScoringJob) scorePage(ctx context.Context, page []domain.Comment, summary *ScoringSummary) error {
	results, err := j.processor.Process(ctx, page)
	if err != nil {
		return fmt.Errorf("score comments: %w", err)
	}

	rows := make([]domain.SentimentRecord, 0, len(results))
	for _, r := range results {
		if r.Error != nil {
			summary.Failed++
			continue
		}
		rows = append(rows, r.Record)
	}
	summary.Scored += len(rows)
	if len(rows) == 0 {
		return nil
	}

	if waitErr := j.limiter.Wait(ctx); waitErr != nil {
		return fmt.Errorf("wait for write slot: %w", waitErr)
	}
	n, err := j.store.UpsertSentiment(ctx, rows)
	summary.Written += n
	if err != nil {
		return fmt.Errorf("write sentiment: %w", err)
	}
	j.service.Telemetry().RecordRowsWritten(sentimentTable, len(rows))
	return nil
}
