// Package config loads comment-analyzer configuration from YAML with
// environment overrides.
package config

import (
	"fmt"
	"time"
)

const (
	defaultServiceName    = "comment-analyzer"
	defaultServiceVersion = "1.0.0"
	defaultServicePort    = 8074
	defaultConcurrency    = 10
	defaultDBDriver       = "postgres"
	defaultDBHost         = "localhost"
	defaultDBPort         = 5432
	defaultDBUser         = "postgres"
	defaultDBName         = "youtube_analytics"
	defaultDBSSLMode      = "disable"
	defaultSQLitePath     = "comment-analyzer.db"
	defaultLogLevel       = "info"
	defaultLogFormat      = "json"
	defaultModelPath      = "models/weak_supervision_sentiment.gob"
	defaultModelName      = "weak_supervision_sentiment"
	defaultMinConfidence  = 0.3
	defaultMinExamples    = 100
	defaultMaxFeatures    = 5000
	defaultMaxIterations  = 1000
	defaultSeed           = 42
	defaultTrainingLimit  = 50000
	defaultNearDupe       = 0.90
	defaultMinDupeCluster = 3
	defaultBurstWindow    = 30 * time.Second
	defaultEmojiMaxWeight = 0.15
	defaultNgramMin       = 3
	defaultNgramMax       = 5
	defaultMaxGroupSize   = 5000
	defaultGlobalGrouping = "prefix_bucket"
	defaultWriteRPS       = 20
	defaultWriteBatchSize = 500
	defaultLookbackDays   = 30
)

// Config is the root configuration.
type Config struct {
	Service      ServiceConfig      `yaml:"service"`
	Database     DatabaseConfig     `yaml:"database"`
	Logging      LoggingConfig      `yaml:"logging"`
	Sentiment    SentimentConfig    `yaml:"sentiment"`
	BotDetection BotDetectionConfig `yaml:"bot_detection"`
	Processing   ProcessingConfig   `yaml:"processing"`
}

// ServiceConfig holds service-level settings.
type ServiceConfig struct {
	Name        string `yaml:"name"`
	Version     string `yaml:"version"`
	Port        int    `env:"COMMENT_ANALYZER_PORT"        yaml:"port"`
	Debug       bool   `env:"APP_DEBUG"                    yaml:"debug"`
	Concurrency int    `env:"COMMENT_ANALYZER_CONCURRENCY" yaml:"concurrency"`
}

// DatabaseConfig selects and configures the SQL backend. Driver is
// "postgres" or "sqlite3"; Path is only used by sqlite3.
type DatabaseConfig struct {
	Driver   string `env:"DB_DRIVER"         yaml:"driver"`
	Host     string `env:"POSTGRES_HOST"     yaml:"host"`
	Port     int    `env:"POSTGRES_PORT"     yaml:"port"`
	User     string `env:"POSTGRES_USER"     yaml:"user"`
	Password string `env:"POSTGRES_PASSWORD" yaml:"password"` //nolint:gosec // connection config
	Database string `env:"POSTGRES_DB"       yaml:"database"`
	SSLMode  string `env:"POSTGRES_SSLMODE"  yaml:"sslmode"`
	Path     string `env:"SQLITE_PATH"       yaml:"path"`
	Disabled bool   `env:"DB_DISABLED"       yaml:"disabled"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `env:"LOG_LEVEL"  yaml:"level"`
	Format string `env:"LOG_FORMAT" yaml:"format"`
}

// SentimentConfig holds trainer and model settings.
type SentimentConfig struct {
	ModelPath      string  `env:"SENTIMENT_MODEL_PATH" yaml:"model_path"`
	ModelName      string  `yaml:"model_name"`
	MinConfidence  float64 `yaml:"min_confidence"`
	MinExamples    int     `yaml:"min_examples"`
	MaxFeatures    int     `yaml:"max_features"`
	MaxIterations  int     `yaml:"max_iterations"`
	Seed           int64   `yaml:"seed"`
	TrainingLimit  int     `yaml:"training_limit"`
	PreferAnalyzer string  `env:"SENTIMENT_ANALYZER"   yaml:"prefer_analyzer"`
}

// BotDetectionConfig mirrors botdetect.Config in YAML form.
type BotDetectionConfig struct {
	WhitelistPhrases  []string      `yaml:"whitelist_phrases"`
	NearDupeThreshold float64       `yaml:"near_dupe_threshold"`
	MinDupeCluster    int           `yaml:"min_dupe_cluster"`
	BurstWindow       time.Duration `yaml:"burst_window"`
	EmojiMaxWeight    *float64      `yaml:"emoji_max_weight"`
	Weights           WeightsConfig `yaml:"weights"`
	NgramMin          int           `yaml:"ngram_min"`
	NgramMax          int           `yaml:"ngram_max"`
	MaxGroupSize      int           `yaml:"max_group_size"`
	GlobalGrouping    string        `env:"BOT_GLOBAL_GROUPING" yaml:"global_grouping"`
}

// WeightsConfig holds the bot score component weights. Nil means default.
type WeightsConfig struct {
	DupeLocal     *float64 `yaml:"dupe_local"`
	DupeGlobal    *float64 `yaml:"dupe_global"`
	Burstiness    *float64 `yaml:"burstiness"`
	AuthorRepeat  *float64 `yaml:"author_repetition"`
	LowEngagement *float64 `yaml:"low_engagement"`
}

// ProcessingConfig holds batch job settings.
type ProcessingConfig struct {
	WriteRPS     int `yaml:"write_rps"`
	WriteBatch   int `yaml:"write_batch_size"`
	LookbackDays int `env:"BOT_LOOKBACK_DAYS" yaml:"lookback_days"`
}

// Load reads the config file at path. A missing file yields defaults.
func Load(path string) (*Config, error) {
	cfg, err := LoadWithDefaults[Config](path, setDefaults)
	if err != nil {
		return nil, err
	}
	if validateErr := cfg.Validate(); validateErr != nil {
		return nil, validateErr
	}
	return cfg, nil
}

// Validate checks settings that cannot be defaulted.
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case "postgres", "sqlite3":
	default:
		return &ValidationError{Field: "database.driver", Message: fmt.Sprintf("unsupported driver %q", c.Database.Driver)}
	}
	if c.Sentiment.MinConfidence < 0 || c.Sentiment.MinConfidence >= 1 {
		return &ValidationError{Field: "sentiment.min_confidence", Message: "must be in [0, 1)"}
	}
	if c.Service.Concurrency < 1 {
		return &ValidationError{Field: "service.concurrency", Message: "must be positive"}
	}
	return nil
}

// ValidationError reports an invalid configuration field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("config validation failed for %s: %s", e.Field, e.Message)
}

func setDefaults(cfg *Config) {
	setServiceDefaults(&cfg.Service)
	setDatabaseDefaults(&cfg.Database)
	setLoggingDefaults(&cfg.Logging)
	setSentimentDefaults(&cfg.Sentiment)
	setBotDetectionDefaults(&cfg.BotDetection)
	setProcessingDefaults(&cfg.Processing)
}

func setServiceDefaults(s *ServiceConfig) {
	if s.Name == "" {
		s.Name = defaultServiceName
	}
	if s.Version == "" {
		s.Version = defaultServiceVersion
	}
	if s.Port == 0 {
		s.Port = defaultServicePort
	}
	if s.Concurrency == 0 {
		s.Concurrency = defaultConcurrency
	}
}

func setDatabaseDefaults(d *DatabaseConfig) {
	if d.Driver == "" {
		d.Driver = defaultDBDriver
	}
	if d.Host == "" {
		d.Host = defaultDBHost
	}
	if d.Port == 0 {
		d.Port = defaultDBPort
	}
	if d.User == "" {
		d.User = defaultDBUser
	}
	if d.Database == "" {
		d.Database = defaultDBName
	}
	if d.SSLMode == "" {
		d.SSLMode = defaultDBSSLMode
	}
	if d.Path == "" {
		d.Path = defaultSQLitePath
	}
}

func setLoggingDefaults(l *LoggingConfig) {
	if l.Level == "" {
		l.Level = defaultLogLevel
	}
	if l.Format == "" {
		l.Format = defaultLogFormat
	}
}

func setSentimentDefaults(s *SentimentConfig) {
	if s.ModelPath == "" {
		s.ModelPath = defaultModelPath
	}
	if s.ModelName == "" {
		s.ModelName = defaultModelName
	}
	if s.MinConfidence == 0 {
		s.MinConfidence = defaultMinConfidence
	}
	if s.MinExamples == 0 {
		s.MinExamples = defaultMinExamples
	}
	if s.MaxFeatures == 0 {
		s.MaxFeatures = defaultMaxFeatures
	}
	if s.MaxIterations == 0 {
		s.MaxIterations = defaultMaxIterations
	}
	if s.Seed == 0 {
		s.Seed = defaultSeed
	}
	if s.TrainingLimit == 0 {
		s.TrainingLimit = defaultTrainingLimit
	}
}

func setBotDetectionDefaults(b *BotDetectionConfig) {
	if b.NearDupeThreshold == 0 {
		b.NearDupeThreshold = defaultNearDupe
	}
	if b.MinDupeCluster == 0 {
		b.MinDupeCluster = defaultMinDupeCluster
	}
	if b.BurstWindow == 0 {
		b.BurstWindow = defaultBurstWindow
	}
	if b.EmojiMaxWeight == nil {
		w := defaultEmojiMaxWeight
		b.EmojiMaxWeight = &w
	}
	if b.NgramMin == 0 {
		b.NgramMin = defaultNgramMin
	}
	if b.NgramMax == 0 {
		b.NgramMax = defaultNgramMax
	}
	if b.MaxGroupSize == 0 {
		b.MaxGroupSize = defaultMaxGroupSize
	}
	if b.GlobalGrouping == "" {
		b.GlobalGrouping = defaultGlobalGrouping
	}
}

func setProcessingDefaults(p *ProcessingConfig) {
	if p.WriteRPS == 0 {
		p.WriteRPS = defaultWriteRPS
	}
	if p.WriteBatch == 0 {
		p.WriteBatch = defaultWriteBatchSize
	}
	if p.LookbackDays == 0 {
		p.LookbackDays = defaultLookbackDays
	}
}
