// Package api serves the comment-analyzer HTTP endpoints under /api/v1.
package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/jonesrussell/north-cloud/comment-analyzer/internal/analyzer"
	"github.com/jonesrussell/north-cloud/comment-analyzer/internal/botdetect"
	"github.com/jonesrussell/north-cloud/comment-analyzer/internal/domain"
	"github.com/jonesrussell/north-cloud/comment-analyzer/internal/logger"
	"github.com/jonesrussell/north-cloud/comment-analyzer/internal/processor"
)

// Handler handles HTTP requests for the comment-analyzer API
type Handler struct {
	service *analyzer.Service
	bots    *processor.BotAnalysisJob
	ping    func() error
	logger  logger.Logger
}

// NewHandler creates a new API handler. ping reports database readiness and
// may be nil when no database is configured.
func NewHandler(svc *analyzer.Service, bots *processor.BotAnalysisJob, ping func() error, log logger.Logger) *Handler {
	if log == nil {
		log = logger.NewNop()
	}
	return &Handler{service: svc, bots: bots, ping: ping, logger: log}
}

// ReadyCheck handles GET /ready
func (h *Handler) ReadyCheck(c *gin.Context) {
	if _, err := h.service.SelectSentiment(); err != nil {
		h.respondError(c, err)
		return
	}
	if h.ping != nil {
		if err := h.ping(); err != nil {
			c.JSON(http.StatusServiceUnavailable, ErrorResponse{Error: "database not reachable", Code: CodeNotReady})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "ready", "model_loaded": h.service.Sentiment().Trained()})
}

// Label handles POST /api/v1/sentiment/label
func (h *Handler) Label(c *gin.Context) {
	var req TextsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if err := req.validate(); err != nil {
		badRequest(c, err)
		return
	}

	labels := h.service.Label(req.Texts)
	c.JSON(http.StatusOK, LabelResponse{Labels: labels, Total: len(labels)})
}

// Predict handles POST /api/v1/sentiment/predict
func (h *Handler) Predict(c *gin.Context) {
	var req TextRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	scored, err := h.service.Predict(c.Request.Context(), *req.Text)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, scored)
}

// PredictBatch handles POST /api/v1/sentiment/predict/batch
func (h *Handler) PredictBatch(c *gin.Context) {
	var req TextsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if err := req.validate(); err != nil {
		badRequest(c, err)
		return
	}

	scored, err := h.service.PredictBatch(c.Request.Context(), req.Texts)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, BatchPredictResponse{Predictions: scored, Total: len(scored)})
}

// Functions handles GET /api/v1/sentiment/functions
func (h *Handler) Functions(c *gin.Context) {
	fns := h.service.Sentiment().Functions()
	c.JSON(http.StatusOK, FunctionsResponse{Functions: fns, Total: len(fns)})
}

// Analyzers handles GET /api/v1/sentiment/analyzers
func (h *Handler) Analyzers(c *gin.Context) {
	c.JSON(http.StatusOK, AnalyzersResponse{Analyzers: h.service.SentimentAnalyzers()})
}

// Model handles GET /api/v1/sentiment/model
func (h *Handler) Model(c *gin.Context) {
	m := h.service.Sentiment().Model()
	if m == nil {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "no trained model loaded", Code: CodeNotFound})
		return
	}
	c.JSON(http.StatusOK, m.Report)
}

// AnalyzeBots handles POST /api/v1/bots/analyze
func (h *Handler) AnalyzeBots(c *gin.Context) {
	var req BotAnalyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	comments, err := botdetect.ParseTable(tableFromRequest(req.Comments))
	if err != nil {
		h.respondError(c, err)
		return
	}

	result, err := h.bots.Run(c.Request.Context(), comments, req.Store)
	if err != nil {
		h.respondError(c, err)
		return
	}

	levels := map[domain.RiskLevel]int{domain.RiskLow: 0, domain.RiskMedium: 0, domain.RiskHigh: 0}
	for _, r := range result.Records {
		levels[r.BotRiskLevel]++
	}
	c.JSON(http.StatusOK, BotAnalyzeResponse{
		RunID:   result.RunID,
		Stored:  result.Stored,
		Records: result.Records,
		Total:   len(result.Records),
		Levels:  levels,
	})
}

// tableFromRequest lays request comments out as a table so they share the
// column and timestamp validation of file input.
func tableFromRequest(comments []BotComment) ([]string, [][]string) {
	header := []string{
		botdetect.ColCommentID, botdetect.ColVideoID, botdetect.ColCommentText, botdetect.ColAuthorName,
		botdetect.ColLikeCount, botdetect.ColPublishedAt, botdetect.ColVideoTitle, botdetect.ColChannelTitle,
	}
	rows := make([][]string, len(comments))
	for i, bc := range comments {
		rows[i] = []string{
			bc.CommentID, bc.VideoID, bc.CommentText, bc.AuthorName,
			strconv.FormatInt(bc.LikeCount, 10), bc.PublishedAt, bc.VideoTitle, bc.ChannelTitle,
		}
	}
	return header, rows
}
