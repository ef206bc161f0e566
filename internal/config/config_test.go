package config_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jonesrussell/north-cloud/comment-analyzer/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := config.Load(filepath.Join(t.TempDir(), "absent.yml"))
	require.NoError(t, err)

	assert.Equal(t, "comment-analyzer", cfg.Service.Name)
	assert.Equal(t, 8074, cfg.Service.Port)
	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.InDelta(t, 0.3, cfg.Sentiment.MinConfidence, 1e-9)
	assert.Equal(t, 100, cfg.Sentiment.MinExamples)
	assert.Equal(t, int64(42), cfg.Sentiment.Seed)
	assert.InDelta(t, 0.90, cfg.BotDetection.NearDupeThreshold, 1e-9)
	assert.Equal(t, 30*time.Second, cfg.BotDetection.BurstWindow)
	require.NotNil(t, cfg.BotDetection.EmojiMaxWeight)
	assert.InDelta(t, 0.15, *cfg.BotDetection.EmojiMaxWeight, 1e-9)
	assert.Equal(t, "prefix_bucket", cfg.BotDetection.GlobalGrouping)
}

func TestLoad_YAMLAndEnvOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yml")
	content := `
service:
  port: 9000
database:
  driver: sqlite3
  path: /tmp/comments.db
sentiment:
  model_path: /models/custom.gob
bot_detection:
  near_dupe_threshold: 0.85
  emoji_max_weight: 0
  weights:
    dupe_local: 0.5
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	t.Setenv("COMMENT_ANALYZER_PORT", "9100")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9100, cfg.Service.Port, "env wins over yaml")
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "sqlite3", cfg.Database.Driver)
	assert.Equal(t, "/tmp/comments.db", cfg.Database.Path)
	assert.Equal(t, "/models/custom.gob", cfg.Sentiment.ModelPath)
	assert.InDelta(t, 0.85, cfg.BotDetection.NearDupeThreshold, 1e-9)
	require.NotNil(t, cfg.BotDetection.EmojiMaxWeight)
	assert.Zero(t, *cfg.BotDetection.EmojiMaxWeight, "explicit zero is kept")
	require.NotNil(t, cfg.BotDetection.Weights.DupeLocal)
	assert.InDelta(t, 0.5, *cfg.BotDetection.Weights.DupeLocal, 1e-9)
	assert.Nil(t, cfg.BotDetection.Weights.DupeGlobal)
}

func TestLoad_InvalidDriver(t *testing.T) {
	t.Setenv("DB_DRIVER", "mysql")

	_, err := config.Load(filepath.Join(t.TempDir(), "absent.yml"))

	var validationErr *config.ValidationError
	require.True(t, errors.As(err, &validationErr))
	assert.Equal(t, "database.driver", validationErr.Field)
}

func TestGetConfigPath(t *testing.T) {
	assert.Equal(t, "config.yml", config.GetConfigPath("config.yml"))

	t.Setenv("CONFIG_PATH", "/etc/comment-analyzer.yml")
	assert.Equal(t, "/etc/comment-analyzer.yml", config.GetConfigPath("config.yml"))
}
