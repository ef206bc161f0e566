// Package sentiment implements weak-supervision sentiment labeling for fan
// comments: labeling functions and intensity boosters produce silver labels,
// which train a calibrated n-gram classifier.
package sentiment

import (
	"sync"

	"github.com/jonesrussell/north-cloud/comment-analyzer/internal/domain"
	"github.com/jonesrussell/north-cloud/comment-analyzer/internal/logger"
)

// Analyzer ties the labeler, trainer and current model together. Labeling
// is always available; prediction needs a trained or loaded model. It is
// safe for concurrent use.
type Analyzer struct {
	labeler *Labeler
	trainer *Trainer
	cfg     TrainerConfig
	logger  logger.Logger

	mu    sync.RWMutex
	model *TrainedModel
}

// NewAnalyzer returns an Analyzer over registry. A nil log discards output.
func NewAnalyzer(registry *Registry, cfg TrainerConfig, log logger.Logger) *Analyzer {
	if log == nil {
		log = logger.NewNop()
	}
	return &Analyzer{
		labeler: NewLabeler(registry),
		trainer: NewTrainer(cfg, log),
		cfg:     cfg,
		logger:  log,
	}
}

// Registry returns the labeling functions the analyzer applies.
func (a *Analyzer) Registry() *Registry {
	return a.labeler.Registry()
}

// Functions lists the labeling functions in registry order.
func (a *Analyzer) Functions() []domain.LabelingFunction {
	return a.labeler.Registry().Functions()
}

// Label resolves one text.
func (a *Analyzer) Label(text string) domain.WeakLabel {
	return a.labeler.Label(text)
}

// LabelBatch resolves texts one to one, in order.
func (a *Analyzer) LabelBatch(texts []string) []domain.WeakLabel {
	return a.labeler.Apply(texts)
}

// Train labels texts, builds the silver corpus and fits a new model, which
// replaces the current one only on success.
func (a *Analyzer) Train(texts []string) (domain.TrainingReport, error) {
	weak := a.labeler.Apply(texts)
	corpus := BuildCorpus(weak, a.cfg.MinConfidence)

	a.logger.Info("Silver labels generated",
		logger.Int("texts", len(texts)),
		logger.Int("labeled", len(corpus)),
	)

	model, err := a.trainer.Fit(corpus, a.Functions())
	if err != nil {
		return domain.TrainingReport{}, err
	}

	a.mu.Lock()
	a.model = model
	a.mu.Unlock()
	return model.Report, nil
}

// Model returns the current model, or nil.
func (a *Analyzer) Model() *TrainedModel {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.model
}

// SetModel replaces the current model.
func (a *Analyzer) SetModel(m *TrainedModel) {
	a.mu.Lock()
	a.model = m
	a.mu.Unlock()
}

// Trained reports whether a model is available.
func (a *Analyzer) Trained() bool {
	return a.Model() != nil
}

// Predict scores text with the current model.
func (a *Analyzer) Predict(text string) (domain.Prediction, error) {
	m := a.Model()
	if m == nil {
		return domain.Prediction{}, ErrModelNotTrained
	}
	return m.Predict(text)
}

// PredictBatch scores texts in order against one model snapshot.
func (a *Analyzer) PredictBatch(texts []string) ([]domain.Prediction, error) {
	m := a.Model()
	if m == nil {
		return nil, ErrModelNotTrained
	}
	out := make([]domain.Prediction, len(texts))
	for i, text := range texts {
		p, err := m.Predict(text)
		if err != nil {
			return nil, err
		}
		out[i] = p
	}
	return out, nil
}

// Evaluate scores the current model against examples.
func (a *Analyzer) Evaluate(examples []domain.EvaluationExample) (domain.EvaluationResult, error) {
	return Evaluate(a.Model(), examples)
}

// Save writes the current model to path.
func (a *Analyzer) Save(path string) error {
	m := a.Model()
	if m == nil {
		return ErrModelNotTrained
	}
	if err := SaveModel(path, m); err != nil {
		return err
	}
	a.logger.Info("Model saved", logger.String("path", path), logger.String("run_id", m.Report.RunID))
	return nil
}

// Load replaces the current model with the one stored at path.
func (a *Analyzer) Load(path string) error {
	m, err := LoadModel(path)
	if err != nil {
		return err
	}
	a.SetModel(m)
	a.logger.Info("Model loaded",
		logger.String("path", path),
		logger.String("run_id", m.Report.RunID),
		logger.Int("labeling_functions", len(m.Functions)),
	)
	return nil
}
