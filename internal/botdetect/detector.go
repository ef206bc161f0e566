// Package botdetect scores YouTube comments for automated or coordinated
// posting. Scores are relative to the analyzed batch: 0 is the least and 100
// the most suspicious comment in it.
package botdetect

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/jonesrussell/north-cloud/comment-analyzer/internal/domain"
	"github.com/jonesrussell/north-cloud/comment-analyzer/internal/logger"
	"github.com/jonesrussell/north-cloud/comment-analyzer/internal/textnorm"
)

// Scoring constants.
const (
	// dupeSpan is the count above MinDupeCluster at which a duplicate component saturates.
	dupeSpan = 7.0
	// whitelistDampening scales duplicate components of whitelisted comments.
	whitelistDampening = 0.15
	// emojiPerUnit emoji count for a full emoji bonus unit.
	emojiPerUnit = 5.0
	// emojiDeduction scales the emoji bonus subtracted from the raw score.
	emojiDeduction = 0.15
	scoreScale     = 100.0
)

// Detector is a configured bot-suspicion scorer. It is safe for concurrent use.
type Detector struct {
	cfg       Config
	whitelist *Whitelist
	sim       similarity
	logger    logger.Logger
}

// NewDetector validates cfg and builds the whitelist matcher. A nil log
// discards output.
func NewDetector(cfg Config, log logger.Logger) (*Detector, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if log == nil {
		log = logger.NewNop()
	}
	return &Detector{
		cfg:       cfg,
		whitelist: NewWhitelist(cfg.WhitelistPhrases),
		sim:       newSimilarity(cfg),
		logger:    log,
	}, nil
}

// Config returns the detector settings.
func (d *Detector) Config() Config { return d.cfg }

// prepared holds the per-comment derived text features.
type prepared struct {
	normalized  []string
	noEmoji     []string
	emojiCount  []int
	whitelisted []bool
}

// Analyze scores every comment and returns one record per comment, sorted by
// bot score descending with ties kept in input order.
func (d *Detector) Analyze(comments []domain.Comment) ([]domain.BotSuspicionRecord, error) {
	if len(comments) == 0 {
		return nil, ErrEmptyInput
	}

	var bad invalidTimestamps
	for _, c := range comments {
		if c.PublishedAt.IsZero() {
			bad.add(c.CommentID)
		}
	}
	if err := bad.err(); err != nil {
		return nil, err
	}

	p := d.prepare(comments)

	local, err := d.localCounts(comments, p.noEmoji)
	if err != nil {
		return nil, err
	}
	global, err := d.globalCounts(p.noEmoji)
	if err != nil {
		return nil, err
	}
	for i := range comments {
		local[i] = dropSingletons(local[i])
		global[i] = dropSingletons(global[i])
	}

	videos := make([]string, len(comments))
	authors := make([]string, len(comments))
	times := make([]time.Time, len(comments))
	for i, c := range comments {
		videos[i], authors[i], times[i] = c.VideoID, c.AuthorName, c.PublishedAt
	}
	burst := burstScores(videos, p.noEmoji, times, d.cfg.BurstWindow)
	repetition := authorRepetition(authors, p.noEmoji)

	records := make([]domain.BotSuspicionRecord, len(comments))
	raw := make([]float64, len(comments))
	for i, c := range comments {
		records[i] = domain.BotSuspicionRecord{
			CommentID:             c.CommentID,
			VideoID:               c.VideoID,
			AuthorName:            c.AuthorName,
			CommentText:           c.CommentText,
			DuplicateCountLocal:   local[i],
			DuplicateCountGlobal:  global[i],
			BurstScore:            burst[i],
			AuthorRepetitionScore: repetition[i],
			EngagementScore:       engagement(c.LikeCount),
			EmojiCount:            p.emojiCount[i],
			IsWhitelisted:         p.whitelisted[i],
		}
		raw[i] = d.rawScore(records[i])
	}

	normalizeScores(records, raw)
	sort.SliceStable(records, func(a, b int) bool { return records[a].BotScore > records[b].BotScore })

	d.logger.Debug("Bot analysis complete",
		logger.Int("comments", len(records)),
		logger.String("grouping", string(d.cfg.GlobalGrouping)),
	)
	return records, nil
}

func (d *Detector) prepare(comments []domain.Comment) prepared {
	n := len(comments)
	p := prepared{
		normalized:  make([]string, n),
		noEmoji:     make([]string, n),
		emojiCount:  make([]int, n),
		whitelisted: make([]bool, n),
	}
	for i, c := range comments {
		norm := textnorm.Normalize(c.CommentText)
		stripped := textnorm.StripEmoji(norm)
		p.normalized[i] = norm
		p.noEmoji[i] = stripped
		p.emojiCount[i] = textnorm.CountEmoji(norm)
		p.whitelisted[i] = d.whitelist.Contains(norm) || d.whitelist.Contains(stripped)
	}
	return p
}

// localCounts counts near-duplicates within each video.
func (d *Detector) localCounts(comments []domain.Comment, texts []string) ([]int, error) {
	order := make(map[string]int)
	var groups [][]int
	for i, c := range comments {
		g, ok := order[c.VideoID]
		if !ok {
			g = len(groups)
			order[c.VideoID] = g
			groups = append(groups, nil)
		}
		groups[g] = append(groups[g], i)
	}
	return d.countGroups(groups, texts, false)
}

// globalCounts counts near-duplicates across videos within each grouping
// bucket.
func (d *Detector) globalCounts(texts []string) ([]int, error) {
	var groups [][]int
	switch d.cfg.GlobalGrouping {
	case GroupingMinHash:
		groups = groupByMinHash(texts, d.cfg.NgramMin)
	default:
		groups = groupByPrefix(texts)
	}
	return d.countGroups(groups, texts, true)
}

func (d *Detector) countGroups(groups [][]int, texts []string, guarded bool) ([]int, error) {
	out := make([]int, len(texts))
	for _, members := range groups {
		if guarded && d.cfg.MaxGroupSize > 0 && len(members) > d.cfg.MaxGroupSize {
			return nil, &ScaleLimitError{GroupSize: len(members), Limit: d.cfg.MaxGroupSize, Grouping: d.cfg.GlobalGrouping}
		}
		groupTexts := make([]string, len(members))
		for j, i := range members {
			groupTexts[j] = texts[i]
		}
		counts, err := d.sim.counts(groupTexts)
		if err != nil {
			return nil, fmt.Errorf("near-duplicate counts: %w", err)
		}
		for j, i := range members {
			out[i] = counts[j]
		}
	}
	return out, nil
}

// dropSingletons zeroes counts below 2.
func dropSingletons(n int) int {
	if n < 2 {
		return 0
	}
	return n
}

func (d *Detector) duplicateComponent(count int, whitelisted bool) float64 {
	v := clamp01((float64(count) - float64(d.cfg.MinDupeCluster)) / dupeSpan)
	if whitelisted {
		v *= whitelistDampening
	}
	return v
}

func (d *Detector) rawScore(r domain.BotSuspicionRecord) float64 {
	w := d.cfg.Weights
	emojiBonus := math.Min(float64(r.EmojiCount)/emojiPerUnit, d.cfg.EmojiMaxWeight)
	return w.DupeLocal*d.duplicateComponent(r.DuplicateCountLocal, r.IsWhitelisted) +
		w.DupeGlobal*d.duplicateComponent(r.DuplicateCountGlobal, r.IsWhitelisted) +
		w.Burstiness*clamp01(r.BurstScore) +
		w.AuthorRepetition*clamp01(r.AuthorRepetitionScore) +
		w.LowEngagement*clamp01(r.EngagementScore) -
		emojiDeduction*emojiBonus
}

// normalizeScores min-max scales raw onto 0-100, rounded to two decimals, and
// assigns risk bands. A batch with no spread scores 0 throughout.
func normalizeScores(records []domain.BotSuspicionRecord, raw []float64) {
	lo, hi := raw[0], raw[0]
	for _, v := range raw[1:] {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	for i := range records {
		var score float64
		if hi > lo {
			score = math.RoundToEven((raw[i]-lo)/(hi-lo)*scoreScale*100) / 100
		}
		records[i].BotScore = score
		records[i].BotRiskLevel = domain.RiskLevelFor(score)
	}
}
