package domain

import "time"

// Comment is a YouTube comment as read from the database or supplied by a caller.
type Comment struct {
	CommentID    string    `db:"comment_id"    json:"comment_id"`
	VideoID      string    `db:"video_id"      json:"video_id"`
	CommentText  string    `db:"comment_text"  json:"comment_text"`
	AuthorName   string    `db:"author_name"   json:"author_name"`
	LikeCount    int64     `db:"like_count"    json:"like_count"`
	PublishedAt  time.Time `db:"published_at"  json:"published_at"`
	VideoTitle   *string   `db:"video_title"   json:"video_title,omitempty"`
	ChannelTitle *string   `db:"channel_title" json:"channel_title,omitempty"`
}

// RiskLevel bands a bot score.
type RiskLevel string

const (
	RiskLow    RiskLevel = "Low"
	RiskMedium RiskLevel = "Medium"
	RiskHigh   RiskLevel = "High"
)

// Risk band lower bounds on the 0-100 scale.
const (
	MediumRiskThreshold = 30.0
	HighRiskThreshold   = 70.0
)

// RiskLevelFor maps a 0-100 score onto its band: [0,30) Low, [30,70) Medium, [70,100] High.
func RiskLevelFor(score float64) RiskLevel {
	switch {
	case score >= HighRiskThreshold:
		return RiskHigh
	case score >= MediumRiskThreshold:
		return RiskMedium
	default:
		return RiskLow
	}
}

// BotSuspicionRecord is the per-comment output of bot scoring, with every
// component feature kept for audit.
type BotSuspicionRecord struct {
	CommentID             string    `db:"comment_id"              json:"comment_id"`
	VideoID               string    `db:"video_id"                json:"video_id"`
	AuthorName            string    `db:"author_name"             json:"author_name"`
	CommentText           string    `db:"comment_text"            json:"comment_text"`
	BotScore              float64   `db:"bot_score"               json:"bot_score"`
	BotRiskLevel          RiskLevel `db:"bot_risk_level"          json:"bot_risk_level"`
	DuplicateCountLocal   int       `db:"duplicate_count_local"   json:"duplicate_count_local"`
	DuplicateCountGlobal  int       `db:"duplicate_count_global"  json:"duplicate_count_global"`
	BurstScore            float64   `db:"burst_score"             json:"burst_score"`
	AuthorRepetitionScore float64   `db:"author_repetition_score" json:"author_repetition_score"`
	EngagementScore       float64   `db:"engagement_score"        json:"engagement_score"`
	EmojiCount            int       `db:"emoji_count"             json:"emoji_count"`
	IsWhitelisted         bool      `db:"is_whitelisted"          json:"is_whitelisted"`
	RunID                 string    `db:"run_id"                  json:"run_id,omitempty"`
	AnalyzedAt            time.Time `db:"analyzed_at"             json:"analyzed_at,omitzero"`
}

// SentimentRecord is a stored prediction for one comment.
type SentimentRecord struct {
	CommentID      string    `db:"comment_id"      json:"comment_id"`
	SentimentScore float64   `db:"sentiment_score" json:"sentiment_score"`
	Confidence     float64   `db:"confidence"      json:"confidence"`
	ProbPositive   float64   `db:"prob_positive"   json:"prob_positive"`
	ProbNeutral    float64   `db:"prob_neutral"    json:"prob_neutral"`
	ProbNegative   float64   `db:"prob_negative"   json:"prob_negative"`
	Analyzer       string    `db:"analyzer"        json:"analyzer"`
	ModelVersion   string    `db:"model_version"   json:"model_version"`
	ScoredAt       time.Time `db:"scored_at"       json:"scored_at"`
}

// NewSentimentRecord flattens a prediction for storage.
func NewSentimentRecord(commentID string, p Prediction, analyzer, modelVersion string, scoredAt time.Time) SentimentRecord {
	return SentimentRecord{
		CommentID:      commentID,
		SentimentScore: p.SentimentScore,
		Confidence:     p.Confidence,
		ProbPositive:   p.Probabilities.Positive,
		ProbNeutral:    p.Probabilities.Neutral,
		ProbNegative:   p.Probabilities.Negative,
		Analyzer:       analyzer,
		ModelVersion:   modelVersion,
		ScoredAt:       scoredAt,
	}
}
