package bootstrap_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonesrussell/north-cloud/comment-analyzer/internal/bootstrap"
	"github.com/jonesrussell/north-cloud/comment-analyzer/internal/botdetect"
	"github.com/jonesrussell/north-cloud/comment-analyzer/internal/config"
	"github.com/jonesrussell/north-cloud/comment-analyzer/internal/processor"
	"github.com/jonesrussell/north-cloud/comment-analyzer/internal/sentiment"
	"github.com/jonesrussell/north-cloud/comment-analyzer/internal/server"
)

func ptr(v float64) *float64 { return &v }

func TestDetectorConfig(t *testing.T) {
	t.Parallel()

	t.Run("empty section keeps defaults", func(t *testing.T) {
		t.Parallel()
		got := bootstrap.DetectorConfig(config.BotDetectionConfig{})
		if diff := cmp.Diff(botdetect.DefaultConfig(), got); diff != "" {
			t.Errorf("DetectorConfig() mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("overrides", func(t *testing.T) {
		t.Parallel()
		got := bootstrap.DetectorConfig(config.BotDetectionConfig{
			WhitelistPhrases:  []string{"hard"},
			NearDupeThreshold: 0.8,
			BurstWindow:       time.Minute,
			EmojiMaxWeight:    ptr(0),
			GlobalGrouping:    "minhash",
			Weights:           config.WeightsConfig{DupeGlobal: ptr(0), Burstiness: ptr(0.3)},
		})

		assert.Equal(t, []string{"hard"}, got.WhitelistPhrases)
		assert.InDelta(t, 0.8, got.NearDupeThreshold, 1e-9)
		assert.Equal(t, time.Minute, got.BurstWindow)
		assert.Zero(t, got.EmojiMaxWeight)
		assert.Equal(t, botdetect.GroupingMinHash, got.GlobalGrouping)
		assert.Zero(t, got.Weights.DupeGlobal)
		assert.InDelta(t, 0.3, got.Weights.Burstiness, 1e-9)
		assert.InDelta(t, botdetect.DefaultWeights().DupeLocal, got.Weights.DupeLocal, 1e-9)
		require.NoError(t, got.Validate())
	})
}

func TestTrainerConfig(t *testing.T) {
	t.Parallel()

	got := bootstrap.TrainerConfig(config.SentimentConfig{MinExamples: 20, Seed: 7})
	want := sentiment.DefaultTrainerConfig()
	want.MinExamples = 20
	want.Seed = 7
	assert.Equal(t, want, got)
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestNew_WithoutDatabase(t *testing.T) {
	modelPath := filepath.Join(t.TempDir(), "missing.gob")
	path := writeConfig(t, `
service:
  port: 0
database:
  disabled: true
logging:
  level: error
sentiment:
  model_path: `+modelPath+`
`)

	app, err := bootstrap.New(context.Background(), bootstrap.Options{ConfigPath: path, Database: true})
	require.NoError(t, err)
	defer app.Close()

	assert.Nil(t, app.DB)
	assert.Nil(t, app.Ping())
	assert.False(t, app.Service.Sentiment().Trained())

	_, err = app.SentimentScoringJob()
	require.ErrorIs(t, err, processor.ErrNoStore)

	_, err = app.BotAnalysisJob().RunRecent(context.Background(), 7, false)
	require.ErrorIs(t, err, processor.ErrNoStore)

	router := app.SetupHTTPServer().Router()
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", http.NoBody))
	require.Equal(t, http.StatusOK, w.Code)

	var health server.HealthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &health))
	assert.Equal(t, server.HealthStatusDegraded, health.Status)
	assert.NotContains(t, health.Checks, "database")
}

func TestNew_InvalidConfig(t *testing.T) {
	path := writeConfig(t, `
database:
  driver: mysql
`)

	_, err := bootstrap.New(context.Background(), bootstrap.Options{ConfigPath: path})
	var validation *config.ValidationError
	require.ErrorAs(t, err, &validation)
	assert.Equal(t, "database.driver", validation.Field)
}
