package sentiment

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jonesrussell/north-cloud/comment-analyzer/internal/domain"
	"github.com/jonesrussell/north-cloud/comment-analyzer/internal/logger"
	"github.com/jonesrussell/north-cloud/comment-analyzer/internal/tfidf"
)

// Trainer defaults.
const (
	DefaultMaxFeatures = 5000
	DefaultSeed        = 42
	defaultNgramMax    = 3
)

// TrainerConfig controls corpus filtering, vectorization and fitting.
type TrainerConfig struct {
	MinConfidence float64
	MinExamples   int
	MaxFeatures   int
	MaxIterations int
	Seed          int64
}

// DefaultTrainerConfig returns the reference training settings.
func DefaultTrainerConfig() TrainerConfig {
	return TrainerConfig{
		MinConfidence: DefaultMinConfidence,
		MinExamples:   DefaultMinExamples,
		MaxFeatures:   DefaultMaxFeatures,
		MaxIterations: defaultMaxIterations,
		Seed:          DefaultSeed,
	}
}

func (c TrainerConfig) vectorizerConfig() tfidf.Config {
	return tfidf.Config{
		Analyzer:    tfidf.AnalyzerWord,
		NgramMin:    1,
		NgramMax:    defaultNgramMax,
		MaxFeatures: c.MaxFeatures,
		StopWords:   true,
	}
}

func (c TrainerConfig) logRegConfig() LogRegConfig {
	return LogRegConfig{MaxIterations: c.MaxIterations, Balanced: true}
}

// Trainer fits a TrainedModel on a silver-labeled corpus.
type Trainer struct {
	cfg    TrainerConfig
	logger logger.Logger
	now    func() time.Time
}

// NewTrainer returns a Trainer. A nil log discards output.
func NewTrainer(cfg TrainerConfig, log logger.Logger) *Trainer {
	if log == nil {
		log = logger.NewNop()
	}
	return &Trainer{cfg: cfg, logger: log, now: time.Now}
}

// Fit checks the corpus size, then fits the vectorizer, the class-balanced
// classifier and, when every class has at least three examples, the isotonic
// calibration ensemble. functions is stored with the model for provenance.
func (t *Trainer) Fit(corpus []domain.SilverLabeledExample, functions []domain.LabelingFunction) (*TrainedModel, error) {
	if err := CheckCorpusSize(corpus, t.cfg.MinExamples); err != nil {
		return nil, err
	}

	texts := make([]string, len(corpus))
	labels := make([]domain.SentimentLabel, len(corpus))
	for i, ex := range corpus {
		texts[i] = ex.Text
		labels[i] = ex.Label
	}

	vectorizer, rows, err := tfidf.FitTransform(t.cfg.vectorizerConfig(), texts)
	if err != nil {
		return nil, fmt.Errorf("fit vectorizer: %w", err)
	}

	lrCfg := t.cfg.logRegConfig()
	clf, err := FitLogisticRegression(lrCfg, rows, labels, vectorizer.Features())
	if err != nil {
		return nil, fmt.Errorf("fit classifier: %w", err)
	}

	dist := LabelDistribution(corpus)
	minCount := len(corpus)
	for _, n := range dist {
		minCount = min(minCount, n)
	}

	model := &TrainedModel{
		Vectorizer: vectorizer,
		Classifier: clf,
		Functions:  append([]domain.LabelingFunction(nil), functions...),
	}

	k := calibrationFolds(minCount)
	if k == 0 {
		t.logger.Warn("Not enough samples per class for calibration, probabilities are uncalibrated",
			logger.Int("min_class_count", minCount),
		)
	} else {
		folds, calErr := fitCalibration(lrCfg, rows, labels, vectorizer.Features(), k, t.cfg.Seed)
		if calErr != nil {
			return nil, fmt.Errorf("fit calibration: %w", calErr)
		}
		model.Folds = folds
	}

	predicted := make([]domain.SentimentLabel, len(rows))
	for i, row := range rows {
		predicted[i] = model.predictionFrom(model.probaRow(row)).Label()
	}
	_, macroF1 := f1Scores(labels, predicted)

	model.Report = domain.TrainingReport{
		RunID:             uuid.NewString(),
		MacroF1:           macroF1,
		TrainingSize:      len(corpus),
		LabelDistribution: dist,
		Calibrated:        model.Calibrated(),
		CalibrationFolds:  k,
		Iterations:        clf.Iterations,
		TrainedAt:         t.now().UTC(),
	}

	t.logger.Info("Training complete",
		logger.String("run_id", model.Report.RunID),
		logger.Float64("macro_f1", macroF1),
		logger.Int("training_size", len(corpus)),
		logger.Int("features", vectorizer.Features()),
		logger.Bool("calibrated", model.Calibrated()),
		logger.Int("iterations", clf.Iterations),
	)
	return model, nil
}
