package analyzer

import (
	"context"
	"time"

	"github.com/jonesrussell/north-cloud/comment-analyzer/internal/botdetect"
	"github.com/jonesrussell/north-cloud/comment-analyzer/internal/domain"
	"github.com/jonesrussell/north-cloud/comment-analyzer/internal/logger"
	"github.com/jonesrussell/north-cloud/comment-analyzer/internal/sentiment"
	"github.com/jonesrussell/north-cloud/comment-analyzer/internal/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// Scored is a prediction with the analyzer that produced it.
type Scored struct {
	domain.Prediction
	Analyzer     string `json:"analyzer"`
	ModelVersion string `json:"model_version"`
}

// Service is the entry point the API, jobs and CLI share: it owns the
// sentiment analyzer, both strategy registries and telemetry.
type Service struct {
	sentiment *sentiment.Analyzer
	predictor *Registry[SentimentAnalyzer]
	bots      *Registry[BotAnalyzer]
	prefer    string
	telemetry *telemetry.Provider
	logger    logger.Logger
}

// NewService registers the weak-supervision and rule-based sentiment
// analyzers and, when detector is not nil, the heuristic bot scorer. prefer
// names the sentiment analyzer to use while it is available.
func NewService(
	sa *sentiment.Analyzer,
	detector *botdetect.Detector,
	prefer string,
	tp *telemetry.Provider,
	log logger.Logger,
) *Service {
	if log == nil {
		log = logger.NewNop()
	}
	s := &Service{
		sentiment: sa,
		predictor: NewRegistry[SentimentAnalyzer](NewWeakSupervision(sa), NewRuleBased(sa.Registry())),
		bots:      NewRegistry[BotAnalyzer](),
		prefer:    prefer,
		telemetry: tp,
		logger:    log,
	}
	if detector != nil {
		s.bots.Register(NewHeuristicBots(detector))
	}
	return s
}

// Sentiment returns the underlying sentiment analyzer.
func (s *Service) Sentiment() *sentiment.Analyzer { return s.sentiment }

// Telemetry returns the telemetry provider, which may be nil.
func (s *Service) Telemetry() *telemetry.Provider { return s.telemetry }

// SentimentAnalyzers lists the registered sentiment analyzers.
func (s *Service) SentimentAnalyzers() []Info { return s.predictor.List() }

// SelectSentiment returns the preferred sentiment analyzer, or the best
// available one.
func (s *Service) SelectSentiment() (SentimentAnalyzer, error) {
	return s.predictor.Select(s.prefer)
}

// Label resolves weak labels for texts.
func (s *Service) Label(texts []string) []domain.WeakLabel {
	out := s.sentiment.LabelBatch(texts)
	for _, wl := range out {
		label := ""
		if wl.FinalLabel != nil {
			label = wl.FinalLabel.String()
		}
		s.telemetry.RecordWeakLabel(label)
	}
	return out
}

// Predict scores one text with the selected analyzer.
func (s *Service) Predict(ctx context.Context, text string) (Scored, error) {
	a, err := s.SelectSentiment()
	if err != nil {
		return Scored{}, err
	}
	return s.predictWith(ctx, a, text)
}

// PredictBatch scores texts in order with one analyzer selection.
func (s *Service) PredictBatch(ctx context.Context, texts []string) ([]Scored, error) {
	a, err := s.SelectSentiment()
	if err != nil {
		return nil, err
	}

	ctx, span := s.telemetry.StartSpan(ctx, "sentiment.predict_batch",
		attribute.String("analyzer", a.Name()),
		attribute.Int("texts", len(texts)),
	)
	defer span.End()

	out := make([]Scored, len(texts))
	for i, text := range texts {
		scored, predictErr := s.predictWith(ctx, a, text)
		if predictErr != nil {
			span.RecordError(predictErr)
			span.SetStatus(codes.Error, predictErr.Error())
			return nil, predictErr
		}
		out[i] = scored
	}
	return out, nil
}

func (s *Service) predictWith(ctx context.Context, a SentimentAnalyzer, text string) (Scored, error) {
	start := time.Now()
	p, err := a.Predict(ctx, text)
	if err != nil {
		return Scored{}, err
	}
	s.telemetry.RecordPrediction(a.Name(), p.Label().String(), time.Since(start))
	return Scored{Prediction: p, Analyzer: a.Name(), ModelVersion: a.ModelVersion()}, nil
}

// Train fits a new sentiment model on texts.
func (s *Service) Train(ctx context.Context, texts []string) (domain.TrainingReport, error) {
	_, span := s.telemetry.StartSpan(ctx, "sentiment.train", attribute.Int("texts", len(texts)))
	defer span.End()

	start := time.Now()
	report, err := s.sentiment.Train(texts)
	s.telemetry.RecordTraining(err == nil, time.Since(start), report.MacroF1, report.TrainingSize)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return domain.TrainingReport{}, err
	}
	span.SetAttributes(
		attribute.String("run_id", report.RunID),
		attribute.Float64("macro_f1", report.MacroF1),
		attribute.Bool("calibrated", report.Calibrated),
	)
	return report, nil
}

// AnalyzeBots scores comments with the best available bot analyzer.
func (s *Service) AnalyzeBots(ctx context.Context, comments []domain.Comment) ([]domain.BotSuspicionRecord, error) {
	a, err := s.bots.Select("")
	if err != nil {
		return nil, err
	}

	ctx, span := s.telemetry.StartSpan(ctx, "bots.analyze",
		attribute.String("analyzer", a.Name()),
		attribute.Int("comments", len(comments)),
	)
	defer span.End()

	start := time.Now()
	records, err := a.Analyze(ctx, comments)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	levels := make(map[string]int, 3)
	for _, r := range records {
		levels[string(r.BotRiskLevel)]++
	}
	s.telemetry.RecordBotAnalysis(time.Since(start), levels)
	s.logger.Info("Bot analysis complete",
		logger.Int("comments", len(records)),
		logger.Int("high_risk", levels[string(domain.RiskHigh)]),
		logger.Int("medium_risk", levels[string(domain.RiskMedium)]),
		logger.Duration("duration", time.Since(start)),
	)
	return records, nil
}
