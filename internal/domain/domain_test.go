package domain_test

import (
	"encoding/json"
	"testing"

	"github.com/jonesrussell/north-cloud/comment-analyzer/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRiskLevelFor(t *testing.T) {
	t.Parallel()

	tests := []struct {
		score float64
		want  domain.RiskLevel
	}{
		{0, domain.RiskLow},
		{29.99, domain.RiskLow},
		{30, domain.RiskMedium},
		{69.99, domain.RiskMedium},
		{70, domain.RiskHigh},
		{100, domain.RiskHigh},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, domain.RiskLevelFor(tt.score), "score %.2f", tt.score)
	}
}

func TestSentimentLabel_JSON(t *testing.T) {
	t.Parallel()

	report := domain.TrainingReport{
		LabelDistribution: map[domain.SentimentLabel]int{domain.Positive: 3, domain.Negative: 1},
	}
	data, err := json.Marshal(report)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"positive":3`)
	assert.Contains(t, string(data), `"negative":1`)

	var vote domain.LabelVote
	require.NoError(t, json.Unmarshal([]byte(`{"function_name":"aave_0","label":"neutral","confidence":0.8}`), &vote))
	assert.Equal(t, domain.Neutral, vote.Label)

	assert.Error(t, json.Unmarshal([]byte(`{"label":"angry"}`), &vote))
}

func TestPrediction_Label(t *testing.T) {
	t.Parallel()

	assert.Equal(t, domain.Negative, domain.Prediction{SentimentScore: -1}.Label())
	assert.Equal(t, domain.Positive, domain.Prediction{SentimentScore: 1}.Label())
}
