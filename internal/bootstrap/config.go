// Package bootstrap wires configuration, logging, storage and the analyzers
// into the application the CLI and HTTP server share.
package bootstrap

import (
	"fmt"

	"github.com/jonesrussell/north-cloud/comment-analyzer/internal/botdetect"
	"github.com/jonesrussell/north-cloud/comment-analyzer/internal/config"
	"github.com/jonesrussell/north-cloud/comment-analyzer/internal/logger"
	"github.com/jonesrussell/north-cloud/comment-analyzer/internal/sentiment"
)

const defaultConfigPath = "config.yml"

// LoadConfig loads and validates the service configuration. An empty path
// falls back to CONFIG_PATH and then config.yml.
func LoadConfig(path string) (*config.Config, error) {
	if path == "" {
		path = config.GetConfigPath(defaultConfigPath)
	}

	cfg, loadErr := config.Load(path)
	if loadErr != nil {
		return nil, fmt.Errorf("load config: %w", loadErr)
	}

	return cfg, nil
}

// CreateLogger creates a structured logger for the service.
func CreateLogger(cfg *config.Config) (logger.Logger, error) {
	log, logErr := logger.New(logger.Config{
		Level:       cfg.Logging.Level,
		Format:      cfg.Logging.Format,
		Development: cfg.Service.Debug,
	})
	if logErr != nil {
		return nil, fmt.Errorf("create logger: %w", logErr)
	}

	return log.With(logger.String("service", cfg.Service.Name)), nil
}

// TrainerConfig converts the sentiment section into trainer settings.
func TrainerConfig(cfg config.SentimentConfig) sentiment.TrainerConfig {
	tc := sentiment.DefaultTrainerConfig()
	if cfg.MinConfidence > 0 {
		tc.MinConfidence = cfg.MinConfidence
	}
	if cfg.MinExamples > 0 {
		tc.MinExamples = cfg.MinExamples
	}
	if cfg.MaxFeatures > 0 {
		tc.MaxFeatures = cfg.MaxFeatures
	}
	if cfg.MaxIterations > 0 {
		tc.MaxIterations = cfg.MaxIterations
	}
	if cfg.Seed != 0 {
		tc.Seed = cfg.Seed
	}
	return tc
}

// DetectorConfig converts the bot_detection section into scorer settings.
// Unset weights and an empty whitelist keep their defaults.
func DetectorConfig(cfg config.BotDetectionConfig) botdetect.Config {
	dc := botdetect.DefaultConfig()
	if len(cfg.WhitelistPhrases) > 0 {
		dc.WhitelistPhrases = append([]string(nil), cfg.WhitelistPhrases...)
	}
	if cfg.NearDupeThreshold != 0 {
		dc.NearDupeThreshold = cfg.NearDupeThreshold
	}
	if cfg.MinDupeCluster != 0 {
		dc.MinDupeCluster = cfg.MinDupeCluster
	}
	if cfg.BurstWindow != 0 {
		dc.BurstWindow = cfg.BurstWindow
	}
	if cfg.EmojiMaxWeight != nil {
		dc.EmojiMaxWeight = *cfg.EmojiMaxWeight
	}
	if cfg.NgramMin != 0 {
		dc.NgramMin = cfg.NgramMin
	}
	if cfg.NgramMax != 0 {
		dc.NgramMax = cfg.NgramMax
	}
	if cfg.MaxGroupSize != 0 {
		dc.MaxGroupSize = cfg.MaxGroupSize
	}
	if cfg.GlobalGrouping != "" {
		dc.GlobalGrouping = botdetect.GroupingStrategy(cfg.GlobalGrouping)
	}

	w := cfg.Weights
	setWeight(&dc.Weights.DupeLocal, w.DupeLocal)
	setWeight(&dc.Weights.DupeGlobal, w.DupeGlobal)
	setWeight(&dc.Weights.Burstiness, w.Burstiness)
	setWeight(&dc.Weights.AuthorRepetition, w.AuthorRepeat)
	setWeight(&dc.Weights.LowEngagement, w.LowEngagement)
	return dc
}

func setWeight(dst, src *float64) {
	if src != nil {
		*dst = *src
	}
}
