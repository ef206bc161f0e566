package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jonesrussell/north-cloud/comment-analyzer/internal/analyzer"
	"github.com/jonesrussell/north-cloud/comment-analyzer/internal/botdetect"
	"github.com/jonesrussell/north-cloud/comment-analyzer/internal/domain"
	"github.com/jonesrussell/north-cloud/comment-analyzer/internal/logger"
	"github.com/jonesrussell/north-cloud/comment-analyzer/internal/processor"
	"github.com/jonesrussell/north-cloud/comment-analyzer/internal/sentiment"
)

// MaxBatchTexts caps texts per label or batch predict request.
const MaxBatchTexts = 500

// Error codes returned in ErrorResponse.Code.
const (
	CodeInvalidRequest = "INVALID_REQUEST"
	CodeNotReady       = "NOT_READY"
	CodeNotFound       = "NOT_FOUND"
	CodeScaleLimit     = "SCALE_LIMIT"
	CodeInternal       = "INTERNAL_ERROR"
)

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// TextsRequest carries texts to label or score. It must hold between one and
// MaxBatchTexts texts; individual texts may be empty.
type TextsRequest struct {
	Texts []string `json:"texts" binding:"required"`
}

func (r *TextsRequest) validate() error {
	if len(r.Texts) == 0 || len(r.Texts) > MaxBatchTexts {
		return fmt.Errorf("texts must hold between 1 and %d entries, got %d", MaxBatchTexts, len(r.Texts))
	}
	return nil
}

// TextRequest carries one text to score. The field must be present but may
// be the empty string.
type TextRequest struct {
	Text *string `json:"text" binding:"required"`
}

// LabelResponse is the body of POST /sentiment/label.
type LabelResponse struct {
	Labels []domain.WeakLabel `json:"labels"`
	Total  int                `json:"total"`
}

// BatchPredictResponse is the body of POST /sentiment/predict/batch.
type BatchPredictResponse struct {
	Predictions []analyzer.Scored `json:"predictions"`
	Total       int               `json:"total"`
}

// FunctionsResponse is the body of GET /sentiment/functions.
type FunctionsResponse struct {
	Functions []domain.LabelingFunction `json:"functions"`
	Total     int                       `json:"total"`
}

// AnalyzersResponse is the body of GET /sentiment/analyzers.
type AnalyzersResponse struct {
	Analyzers []analyzer.Info `json:"analyzers"`
}

// BotComment is one comment in a bot analysis request. PublishedAt must be
// an RFC 3339 timestamp with a UTC offset.
type BotComment struct {
	CommentID    string `json:"comment_id"`
	VideoID      string `json:"video_id"`
	CommentText  string `json:"comment_text"`
	AuthorName   string `json:"author_name"`
	LikeCount    int64  `json:"like_count"`
	PublishedAt  string `json:"published_at"`
	VideoTitle   string `json:"video_title,omitempty"`
	ChannelTitle string `json:"channel_title,omitempty"`
}

// BotAnalyzeRequest is the body of POST /bots/analyze.
type BotAnalyzeRequest struct {
	Comments []BotComment `json:"comments" binding:"required"`
	Store    bool         `json:"store"`
}

// BotAnalyzeResponse is the body of a successful bot analysis.
type BotAnalyzeResponse struct {
	RunID   string                      `json:"run_id"`
	Stored  bool                        `json:"stored"`
	Records []domain.BotSuspicionRecord `json:"records"`
	Total   int                         `json:"total"`
	Levels  map[domain.RiskLevel]int    `json:"levels"`
}

// statusFor maps service errors onto HTTP statuses.
func statusFor(err error) (int, string) {
	var (
		scaleErr   *botdetect.ScaleLimitError
		columnsErr *botdetect.MissingColumnsError
		tsErr      *botdetect.InvalidTimestampError
		configErr  *botdetect.ConfigError
	)
	switch {
	case errors.As(err, &scaleErr):
		return http.StatusUnprocessableEntity, CodeScaleLimit
	case errors.Is(err, sentiment.ErrModelNotTrained),
		errors.Is(err, analyzer.ErrNoImplementation),
		errors.Is(err, processor.ErrNoStore):
		return http.StatusServiceUnavailable, CodeNotReady
	case errors.Is(err, botdetect.ErrEmptyInput),
		errors.As(err, &columnsErr),
		errors.As(err, &tsErr),
		errors.As(err, &configErr):
		return http.StatusBadRequest, CodeInvalidRequest
	default:
		return http.StatusInternalServerError, CodeInternal
	}
}

func (h *Handler) respondError(c *gin.Context, err error) {
	status, code := statusFor(err)
	_ = c.Error(err)

	log := logger.FromContext(c.Request.Context())
	if status >= http.StatusInternalServerError {
		log.Error("Request failed", logger.String("path", c.FullPath()), logger.Error(err))
	} else {
		log.Debug("Request rejected", logger.String("path", c.FullPath()), logger.Error(err))
	}

	c.JSON(status, ErrorResponse{Error: err.Error(), Code: code})
}

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error(), Code: CodeInvalidRequest})
}
