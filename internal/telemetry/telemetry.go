// Package telemetry exports Prometheus metrics and an OpenTelemetry tracer
// for comment-analyzer.
package telemetry

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const serviceName = "comment-analyzer"

// Metrics holds every comment-analyzer Prometheus collector.
type Metrics struct {
	// Sentiment
	WeakLabels         *prometheus.CounterVec
	Predictions        *prometheus.CounterVec
	PredictionDuration prometheus.Histogram
	TrainingRuns       *prometheus.CounterVec
	TrainingDuration   prometheus.Histogram
	TrainingMacroF1    prometheus.Gauge
	TrainingSize       prometheus.Gauge

	// Bot detection
	CommentsScored      *prometheus.CounterVec
	BotAnalysisDuration prometheus.Histogram

	// Processing
	BatchSize     prometheus.Histogram
	ActiveWorkers prometheus.Gauge
	RowsWritten   *prometheus.CounterVec
}

// Provider bundles the tracer and metrics. A nil *Provider is valid and records nothing.
type Provider struct {
	Tracer  trace.Tracer
	Metrics *Metrics
}

// promauto registers on the default registry, which rejects duplicates.
var (
	metricsOnce   sync.Once
	sharedMetrics *Metrics
)

// NewProvider returns a Provider backed by the process-wide collectors.
func NewProvider() *Provider {
	metricsOnce.Do(func() {
		sharedMetrics = initMetrics()
	})

	return &Provider{
		Tracer:  otel.Tracer(serviceName),
		Metrics: sharedMetrics,
	}
}

// Handler serves /metrics.
func (p *Provider) Handler() http.Handler {
	return promhttp.Handler()
}

func initMetrics() *Metrics {
	m := &Metrics{}
	initSentimentMetrics(m)
	initBotMetrics(m)
	initProcessingMetrics(m)
	return m
}

func initSentimentMetrics(m *Metrics) {
	m.WeakLabels = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "comment_analyzer_weak_labels_total",
		Help: "Weak labels resolved, by final label (none when unresolved)",
	}, []string{"label"})

	m.Predictions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "comment_analyzer_predictions_total",
		Help: "Sentiment predictions served, by analyzer and predicted label",
	}, []string{"analyzer", "label"})

	m.PredictionDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "comment_analyzer_prediction_duration_seconds",
		Help:    "Time to vectorize and score a single text",
		Buckets: []float64{0.00005, 0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05},
	})

	m.TrainingRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "comment_analyzer_training_runs_total",
		Help: "Training runs, by outcome",
	}, []string{"status"})

	m.TrainingDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "comment_analyzer_training_duration_seconds",
		Help:    "Wall time of a training run including calibration",
		Buckets: []float64{0.1, 0.5, 1, 5, 10, 30, 60, 300},
	})

	m.TrainingMacroF1 = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "comment_analyzer_training_macro_f1",
		Help: "Training-set macro F1 of the most recent model",
	})

	m.TrainingSize = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "comment_analyzer_training_size",
		Help: "Silver-labeled examples used by the most recent model",
	})
}

func initBotMetrics(m *Metrics) {
	m.CommentsScored = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "comment_analyzer_bot_comments_scored_total",
		Help: "Comments scored for bot suspicion, by risk level",
	}, []string{"risk_level"})

	m.BotAnalysisDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "comment_analyzer_bot_analysis_duration_seconds",
		Help:    "Time to score one batch of comments",
		Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30},
	})
}

func initProcessingMetrics(m *Metrics) {
	m.BatchSize = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "comment_analyzer_batch_size",
		Help:    "Comments per processed batch",
		Buckets: []float64{1, 10, 50, 100, 500, 1000, 5000},
	})

	m.ActiveWorkers = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "comment_analyzer_active_workers",
		Help: "Currently active worker goroutines",
	})

	m.RowsWritten = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "comment_analyzer_rows_written_total",
		Help: "Rows written to the database, by table",
	}, []string{"table"})
}

// RecordWeakLabel counts a resolved weak label.
func (p *Provider) RecordWeakLabel(label string) {
	if p == nil {
		return
	}
	if label == "" {
		label = "none"
	}
	p.Metrics.WeakLabels.WithLabelValues(label).Inc()
}

// RecordPrediction records one served prediction.
func (p *Provider) RecordPrediction(analyzer, label string, duration time.Duration) {
	if p == nil {
		return
	}
	p.Metrics.Predictions.WithLabelValues(analyzer, label).Inc()
	p.Metrics.PredictionDuration.Observe(duration.Seconds())
}

// RecordTraining records a finished training run. macroF1 and size are only
// applied on success.
func (p *Provider) RecordTraining(success bool, duration time.Duration, macroF1 float64, size int) {
	if p == nil {
		return
	}
	status := "failed"
	if success {
		status = "succeeded"
		p.Metrics.TrainingMacroF1.Set(macroF1)
		p.Metrics.TrainingSize.Set(float64(size))
	}
	p.Metrics.TrainingRuns.WithLabelValues(status).Inc()
	p.Metrics.TrainingDuration.Observe(duration.Seconds())
}

// RecordBotAnalysis records one scored batch with its per-band counts.
func (p *Provider) RecordBotAnalysis(duration time.Duration, levels map[string]int) {
	if p == nil {
		return
	}
	p.Metrics.BotAnalysisDuration.Observe(duration.Seconds())
	for level, n := range levels {
		p.Metrics.CommentsScored.WithLabelValues(level).Add(float64(n))
	}
}

// RecordBatchSize records the size of a processed batch.
func (p *Provider) RecordBatchSize(size int) {
	if p == nil {
		return
	}
	p.Metrics.BatchSize.Observe(float64(size))
}

// SetActiveWorkers sets the active worker gauge.
func (p *Provider) SetActiveWorkers(count int) {
	if p == nil {
		return
	}
	p.Metrics.ActiveWorkers.Set(float64(count))
}

// RecordRowsWritten counts rows written to table.
func (p *Provider) RecordRowsWritten(table string, n int) {
	if p == nil {
		return
	}
	p.Metrics.RowsWritten.WithLabelValues(table).Add(float64(n))
}

// StartSpan starts a span; the caller ends it. A nil Provider falls back to
// the global tracer so callers never need a nil check.
//
//nolint:spancheck // Caller is responsible for ending the span
func (p *Provider) StartSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	tracer := otel.Tracer(serviceName)
	if p != nil && p.Tracer != nil {
		tracer = p.Tracer
	}
	return tracer.Start(ctx, name, trace.WithAttributes(attrs...))
}
