package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"io/fs"

	"github.com/jmoiron/sqlx"

	"github.com/jonesrussell/north-cloud/comment-analyzer/internal/analyzer"
	"github.com/jonesrussell/north-cloud/comment-analyzer/internal/botdetect"
	"github.com/jonesrussell/north-cloud/comment-analyzer/internal/config"
	"github.com/jonesrussell/north-cloud/comment-analyzer/internal/database"
	"github.com/jonesrussell/north-cloud/comment-analyzer/internal/logger"
	"github.com/jonesrussell/north-cloud/comment-analyzer/internal/processor"
	"github.com/jonesrussell/north-cloud/comment-analyzer/internal/sentiment"
	"github.com/jonesrussell/north-cloud/comment-analyzer/internal/telemetry"
)

// Options controls what New sets up.
type Options struct {
	// ConfigPath overrides CONFIG_PATH and config.yml.
	ConfigPath string
	// Database connects to the configured database unless it is disabled.
	Database bool
	// Debug forces debug logging.
	Debug bool
}

// App holds the wired components of comment-analyzer.
type App struct {
	Config    *config.Config
	Logger    logger.Logger
	Telemetry *telemetry.Provider
	Service   *analyzer.Service

	// DB and the repositories are nil when no database is in use.
	DB       *sqlx.DB
	Comments *database.CommentRepository
	Results  *database.AnalysisRepository
	Models   *database.ModelRepository
}

// New loads configuration and builds the application.
func New(ctx context.Context, opts Options) (*App, error) {
	cfg, err := LoadConfig(opts.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if opts.Debug {
		cfg.Service.Debug = true
		cfg.Logging.Level = "debug"
	}

	log, err := CreateLogger(cfg)
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}

	app := &App{Config: cfg, Logger: log, Telemetry: telemetry.NewProvider()}

	svc, err := app.buildService()
	if err != nil {
		_ = log.Sync()
		return nil, err
	}
	app.Service = svc

	if opts.Database {
		if dbErr := app.setupDatabase(ctx); dbErr != nil {
			_ = log.Sync()
			return nil, fmt.Errorf("database: %w", dbErr)
		}
	}

	return app, nil
}

// Close releases the database connection and flushes the logger.
func (a *App) Close() {
	if a.DB != nil {
		if closeErr := a.DB.Close(); closeErr != nil {
			a.Logger.Error("Failed to close database", logger.Error(closeErr))
		}
	}
	_ = a.Logger.Sync()
}

func (a *App) buildService() (*analyzer.Service, error) {
	sc := a.Config.Sentiment
	sa := sentiment.NewAnalyzer(sentiment.NewDefaultRegistry(), TrainerConfig(sc), a.Logger)
	if err := loadModel(sa, sc.ModelPath, a.Logger); err != nil {
		return nil, err
	}

	detector, err := botdetect.NewDetector(DetectorConfig(a.Config.BotDetection), a.Logger)
	if err != nil {
		return nil, fmt.Errorf("bot detector: %w", err)
	}

	return analyzer.NewService(sa, detector, sc.PreferAnalyzer, a.Telemetry, a.Logger), nil
}

// loadModel loads the saved model when one exists. A missing file leaves the
// analyzer untrained, which falls back to rule-based predictions.
func loadModel(sa *sentiment.Analyzer, path string, log logger.Logger) error {
	if path == "" {
		return nil
	}
	err := sa.Load(path)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, fs.ErrNotExist):
		log.Info("No saved sentiment model; using rule-based predictions", logger.String("path", path))
		return nil
	case errors.Is(err, sentiment.ErrArtifactVersion):
		log.Warn("Ignoring incompatible sentiment model", logger.String("path", path), logger.Error(err))
		return nil
	default:
		return fmt.Errorf("load sentiment model: %w", err)
	}
}

func (a *App) setupDatabase(ctx context.Context) error {
	db, err := database.Connect(ctx, a.Config.Database)
	if errors.Is(err, database.ErrDisabled) {
		a.Logger.Info("Database disabled")
		return nil
	}
	if err != nil {
		return err
	}
	if schemaErr := database.EnsureSchema(ctx, db); schemaErr != nil {
		_ = db.Close()
		return schemaErr
	}

	a.DB = db
	a.Comments = database.NewCommentRepository(db)
	a.Results = database.NewAnalysisRepository(db, a.Config.Processing.WriteBatch)
	a.Models = database.NewModelRepository(db)
	a.Logger.Info("Database connection established", logger.String("driver", a.Config.Database.Driver))
	return nil
}

// Ping checks the database connection. It is nil when no database is in use.
func (a *App) Ping() func() error {
	if a.DB == nil {
		return nil
	}
	return a.DB.Ping
}

// The accessors below keep nil repositories out of the job interfaces.

func (a *App) commentSource() processor.CommentSource {
	if a.Comments == nil {
		return nil
	}
	return a.Comments
}

func (a *App) resultStore() processor.ResultStore {
	if a.Results == nil {
		return nil
	}
	return a.Results
}

func (a *App) modelStore() processor.ModelStore {
	if a.Models == nil {
		return nil
	}
	return a.Models
}

// BotAnalysisJob returns a bot analysis job backed by the database when one
// is in use.
func (a *App) BotAnalysisJob() *processor.BotAnalysisJob {
	return processor.NewBotAnalysisJob(a.commentSource(), a.resultStore(), a.Service, a.Logger)
}

// TrainingJob returns a training job that saves to the configured model path.
func (a *App) TrainingJob() *processor.TrainingJob {
	sc := a.Config.Sentiment
	return processor.NewTrainingJob(a.commentSource(), a.modelStore(), a.Service, processor.TrainingJobConfig{
		ModelName:     sc.ModelName,
		ModelPath:     sc.ModelPath,
		TrainingLimit: sc.TrainingLimit,
	}, a.Logger)
}

// SentimentScoringJob returns a job that scores stored comments. It needs a
// database.
func (a *App) SentimentScoringJob() (*processor.SentimentScoringJob, error) {
	if a.Comments == nil || a.Results == nil {
		return nil, processor.ErrNoStore
	}
	pc := a.Config.Processing
	bp := processor.NewBatchProcessor(a.Service, a.Config.Service.Concurrency, a.Telemetry, a.Logger)
	limiter := processor.NewRateLimiter(pc.WriteRPS, pc.WriteRPS, a.Logger)
	return processor.NewSentimentScoringJob(a.Comments, a.Results, bp, limiter, pc.WriteBatch, a.Service, a.Logger), nil
}
