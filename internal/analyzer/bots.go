package analyzer

import (
	"context"

	"github.com/jonesrussell/north-cloud/comment-analyzer/internal/botdetect"
	"github.com/jonesrussell/north-cloud/comment-analyzer/internal/domain"
)

// HeuristicBotsName names the similarity and timing heuristics scorer.
const (
	HeuristicBotsName     = "heuristic"
	heuristicBotsPriority = 100
)

// BotAnalyzer scores a batch of comments for bot suspicion.
type BotAnalyzer interface {
	Capability
	Analyze(ctx context.Context, comments []domain.Comment) ([]domain.BotSuspicionRecord, error)
}

// HeuristicBots wraps a botdetect.Detector.
type HeuristicBots struct {
	detector *botdetect.Detector
}

// NewHeuristicBots wraps d.
func NewHeuristicBots(d *botdetect.Detector) *HeuristicBots {
	return &HeuristicBots{detector: d}
}

func (h *HeuristicBots) Name() string    { return HeuristicBotsName }
func (h *HeuristicBots) Priority() int   { return heuristicBotsPriority }
func (h *HeuristicBots) Available() bool { return h.detector != nil }

// Analyze scores comments.
func (h *HeuristicBots) Analyze(ctx context.Context, comments []domain.Comment) ([]domain.BotSuspicionRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return h.detector.Analyze(comments)
}
