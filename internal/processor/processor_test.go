package processor_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonesrussell/north-cloud/comment-analyzer/internal/analyzer"
	"github.com/jonesrussell/north-cloud/comment-analyzer/internal/botdetect"
	"github.com/jonesrussell/north-cloud/comment-analyzer/internal/domain"
	"github.com/jonesrussell/north-cloud/comment-analyzer/internal/processor"
	"github.com/jonesrussell/north-cloud/comment-analyzer/internal/sentiment"
)

// lengthAnalyzer labels by text length and sleeps longer for earlier texts so
// completion order differs from input order.
type lengthAnalyzer struct {
	failOn string
}

func (lengthAnalyzer) Name() string         { return "length" }
func (lengthAnalyzer) Priority() int        { return 1 }
func (lengthAnalyzer) Available() bool      { return true }
func (lengthAnalyzer) ModelVersion() string { return "v-test" }

func (a lengthAnalyzer) Predict(_ context.Context, text string) (domain.Prediction, error) {
	if text == a.failOn {
		return domain.Prediction{}, errors.New("boom")
	}
	time.Sleep(time.Duration(10-min(len(text), 10)) * time.Millisecond)
	score := float64(len(text) % 3)
	return domain.Prediction{SentimentScore: score - 1, Confidence: 1}, nil
}

type staticSelector struct {
	sa  analyzer.SentimentAnalyzer
	err error
}

func (s staticSelector) SelectSentiment() (analyzer.SentimentAnalyzer, error) { return s.sa, s.err }

func numberedComments(n int) []domain.Comment {
	out := make([]domain.Comment, n)
	for i := range out {
		out[i] = domain.Comment{CommentID: fmt.Sprintf("c%03d", i), CommentText: strings.Repeat("x", i%12)}
	}
	return out
}

func TestBatchProcessor_PreservesOrder(t *testing.T) {
	t.Parallel()

	bp := processor.NewBatchProcessor(staticSelector{sa: lengthAnalyzer{}}, 4, nil, nil)
	comments := numberedComments(40)

	results, err := bp.Process(context.Background(), comments)
	require.NoError(t, err)
	require.Len(t, results, len(comments))

	for i, r := range results {
		require.NoError(t, r.Error)
		assert.Equal(t, comments[i].CommentID, r.Comment.CommentID)
		assert.Equal(t, comments[i].CommentID, r.Record.CommentID)
		assert.InDelta(t, float64(i%12%3)-1, r.Record.SentimentScore, 0)
		assert.Equal(t, "length", r.Record.Analyzer)
		assert.Equal(t, "v-test", r.Record.ModelVersion)
	}
}

func TestBatchProcessor_ItemErrors(t *testing.T) {
	t.Parallel()

	bp := processor.NewBatchProcessor(staticSelector{sa: lengthAnalyzer{failOn: "xx"}}, 2, nil, nil)

	results, err := bp.Process(context.Background(), numberedComments(5))
	require.NoError(t, err)
	assert.Error(t, results[2].Error)
	assert.Contains(t, results[2].Error.Error(), "c002")
	assert.NoError(t, results[3].Error)
}

func TestBatchProcessor_EmptyAndErrors(t *testing.T) {
	t.Parallel()

	bp := processor.NewBatchProcessor(staticSelector{err: analyzer.ErrNoImplementation}, 0, nil, nil)
	assert.Equal(t, processor.DefaultConcurrency, bp.Concurrency())

	results, err := bp.Process(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, results)

	_, err = bp.Process(context.Background(), numberedComments(1))
	require.ErrorIs(t, err, analyzer.ErrNoImplementation)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = processor.NewBatchProcessor(staticSelector{sa: lengthAnalyzer{}}, 2, nil, nil).
		Process(ctx, numberedComments(10))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRateLimiter(t *testing.T) {
	t.Parallel()

	rl := processor.NewRateLimiter(1, 2, nil)
	assert.True(t, rl.Allow())
	assert.True(t, rl.Allow())
	assert.False(t, rl.Allow())

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	require.Error(t, rl.Wait(ctx))

	rl.SetLimit(1000)
	rl.SetBurst(1000)
	require.NoError(t, rl.Wait(context.Background()))
}

type fakeSource struct {
	comments []domain.Comment
	texts    []string
	since    time.Time
	pages    [][2]int
}

func (f *fakeSource) LoadRecentComments(_ context.Context, since time.Time) ([]domain.Comment, error) {
	f.since = since
	return f.comments, nil
}

func (f *fakeSource) LoadCommentTexts(_ context.Context, limit int) ([]string, error) {
	if limit > 0 && limit < len(f.texts) {
		return f.texts[:limit], nil
	}
	return f.texts, nil
}

func (f *fakeSource) LoadCommentsPage(_ context.Context, limit, offset int) ([]domain.Comment, error) {
	f.pages = append(f.pages, [2]int{limit, offset})
	if offset >= len(f.comments) {
		return nil, nil
	}
	return f.comments[offset:min(offset+limit, len(f.comments))], nil
}

func (f *fakeSource) LoadCommentsByID(_ context.Context, ids []string) ([]domain.Comment, error) {
	want := make(map[string]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}
	var out []domain.Comment
	for _, c := range f.comments {
		if want[c.CommentID] {
			out = append(out, c)
		}
	}
	return out, nil
}

type fakeStore struct {
	mu        sync.Mutex
	bots      []domain.BotSuspicionRecord
	runID     string
	sentiment []domain.SentimentRecord
	writes    int
	models    []*domain.MLModel
}

func (f *fakeStore) StoreBotAnalysis(_ context.Context, records []domain.BotSuspicionRecord, runID string, _ time.Time) error {
	f.bots, f.runID = records, runID
	return nil
}

func (f *fakeStore) UpsertSentiment(_ context.Context, rows []domain.SentimentRecord) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.writes++
	f.sentiment = append(f.sentiment, rows...)
	return int64(len(rows)), nil
}

func (f *fakeStore) Create(_ context.Context, m *domain.MLModel) error {
	f.models = append(f.models, m)
	return nil
}

func newService(t *testing.T) *analyzer.Service {
	t.Helper()

	detector, err := botdetect.NewDetector(botdetect.DefaultConfig(), nil)
	require.NoError(t, err)
	sa := sentiment.NewAnalyzer(sentiment.NewDefaultRegistry(), sentiment.DefaultTrainerConfig(), nil)
	return analyzer.NewService(sa, detector, "", nil, nil)
}

func TestBotAnalysisJob_NoComments(t *testing.T) {
	t.Parallel()

	job := processor.NewBotAnalysisJob(&fakeSource{}, nil, newService(t), nil)

	_, err := job.RunRecent(context.Background(), 7, false)
	require.ErrorIs(t, err, processor.ErrNoComments)
	assert.EqualError(t, err, "no comments found in the last 7 days")
}

func TestBotAnalysisJob_StoresRun(t *testing.T) {
	t.Parallel()

	now := time.Now().UTC()
	src := &fakeSource{comments: []domain.Comment{
		{CommentID: "a", VideoID: "v", CommentText: "buy followers now", AuthorName: "x", PublishedAt: now},
		{CommentID: "b", VideoID: "v", CommentText: "buy followers now", AuthorName: "x", PublishedAt: now},
		{CommentID: "c", VideoID: "v", CommentText: "real talk this track", AuthorName: "y", LikeCount: 9, PublishedAt: now},
	}}
	store := &fakeStore{}
	job := processor.NewBotAnalysisJob(src, store, newService(t), nil)

	result, err := job.RunRecent(context.Background(), 30, true)
	require.NoError(t, err)

	assert.True(t, result.Stored)
	assert.NotEmpty(t, result.RunID)
	assert.Equal(t, result.RunID, store.runID)
	assert.Len(t, store.bots, 3)
	assert.WithinDuration(t, now.AddDate(0, 0, -30), src.since, time.Minute)
	for _, r := range result.Records {
		assert.Equal(t, result.RunID, r.RunID)
	}
}

func TestBotAnalysisJob_StoreWithoutStore(t *testing.T) {
	t.Parallel()

	job := processor.NewBotAnalysisJob(nil, nil, newService(t), nil)
	comments := []domain.Comment{{CommentID: "a", VideoID: "v", CommentText: "hi", PublishedAt: time.Now()}}

	result, err := job.Run(context.Background(), comments, false)
	require.NoError(t, err)
	assert.False(t, result.Stored)

	_, err = job.Run(context.Background(), comments, true)
	assert.Error(t, err)

	_, err = job.RunRecent(context.Background(), 1, false)
	assert.Error(t, err)
}

var fanComments = []string{
	"my nigga snapped 🔥🔥🔥", "drop the album already!!", "visuals when?!!",
	"these lyrics!", "this slaps", "goes hard", "sick beat", "bro this crazy",
	"she ate that", "absolute banger", "on my playlist", "this is fire 🔥",
	"who produced this?", "what's the sample?", "lyrics?", "when does this come out",
	"this is trash", "mid", "overrated", "who approved this?", "hate this",
	"boring", "generic", "fell off", "went double wood", "terrible",
}

func TestTrainingJob_FromSourceSavesAndRecords(t *testing.T) {
	t.Parallel()

	var texts []string
	for range 10 {
		texts = append(texts, fanComments...)
	}
	store := &fakeStore{}
	svc := newService(t)
	path := filepath.Join(t.TempDir(), "model.gob")

	job := processor.NewTrainingJob(&fakeSource{texts: texts}, store, svc, processor.TrainingJobConfig{
		ModelName: "weak_supervision_sentiment",
		ModelPath: path,
	}, nil)

	report, err := job.Run(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, 250, report.TrainingSize)

	require.Len(t, store.models, 1)
	m := store.models[0]
	assert.Equal(t, report.RunID, m.ModelVersion)
	assert.Equal(t, path, m.ModelPath)

	var dist map[string]int
	require.NoError(t, json.Unmarshal(m.LabelDistribution, &dist))
	assert.Equal(t, map[string]int{"positive": 120, "neutral": 30, "negative": 100}, dist)

	reloaded := sentiment.NewAnalyzer(sentiment.NewDefaultRegistry(), sentiment.DefaultTrainerConfig(), nil)
	require.NoError(t, reloaded.Load(path))
	assert.Equal(t, report.RunID, reloaded.Model().Report.RunID)
}

func TestTrainingJob_Errors(t *testing.T) {
	t.Parallel()

	svc := newService(t)

	_, err := processor.NewTrainingJob(nil, nil, svc, processor.TrainingJobConfig{}, nil).Run(context.Background(), nil)
	require.Error(t, err)

	_, err = processor.NewTrainingJob(&fakeSource{}, nil, svc, processor.TrainingJobConfig{}, nil).Run(context.Background(), nil)
	require.ErrorIs(t, err, processor.ErrNoComments)

	_, err = processor.NewTrainingJob(nil, nil, svc, processor.TrainingJobConfig{}, nil).
		Run(context.Background(), []string{"mid", "this slaps"})
	assert.ErrorIs(t, err, sentiment.ErrInsufficientLabeledData)
}

func TestSentimentScoringJob_PagesAndWrites(t *testing.T) {
	t.Parallel()

	src := &fakeSource{comments: numberedComments(7)}
	store := &fakeStore{}
	bp := processor.NewBatchProcessor(staticSelector{sa: lengthAnalyzer{failOn: "xxxx"}}, 3, nil, nil)
	job := processor.NewSentimentScoringJob(src, store, bp, processor.NewRateLimiter(1000, 1000, nil), 3, newService(t), nil)

	summary, err := job.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, processor.ScoringSummary{Scored: 6, Failed: 1, Written: 6}, summary)
	assert.Equal(t, [][2]int{{3, 0}, {3, 3}, {3, 6}}, src.pages)
	assert.Equal(t, 3, store.writes)
	require.Len(t, store.sentiment, 6)
	assert.Equal(t, "c000", store.sentiment[0].CommentID)
}

func TestSentimentScoringJob_RunIDs(t *testing.T) {
	t.Parallel()

	src := &fakeSource{comments: numberedComments(5)}
	store := &fakeStore{}
	bp := processor.NewBatchProcessor(staticSelector{sa: lengthAnalyzer{}}, 2, nil, nil)
	job := processor.NewSentimentScoringJob(src, store, bp, processor.NewRateLimiter(1000, 1000, nil), 0, newService(t), nil)

	summary, err := job.RunIDs(context.Background(), []string{"c001", "c004"})
	require.NoError(t, err)
	assert.Equal(t, 2, summary.Scored)

	_, err = job.RunIDs(context.Background(), []string{"nope"})
	require.ErrorIs(t, err, processor.ErrNoComments)

	_, err = processor.NewSentimentScoringJob(&fakeSource{}, store, bp, processor.NewRateLimiter(0, 0, nil), 0, newService(t), nil).
		Run(context.Background())
	assert.ErrorIs(t, err, processor.ErrNoComments)
}
