package database_test

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonesrussell/north-cloud/comment-analyzer/internal/config"
	"github.com/jonesrussell/north-cloud/comment-analyzer/internal/database"
	"github.com/jonesrussell/north-cloud/comment-analyzer/internal/domain"
)

var commentColumns = []string{
	"comment_id", "video_id", "comment_text", "author_name",
	"like_count", "published_at", "video_title", "channel_title",
}

func newMockDB(t *testing.T, driver string) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()

	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { mockDB.Close() })

	return sqlx.NewDb(mockDB, driver), mock
}

func expectationsMet(t *testing.T, mock sqlmock.Sqlmock) {
	t.Helper()

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestCommentRepository_LoadRecentComments(t *testing.T) {
	t.Parallel()

	db, mock := newMockDB(t, database.DriverPostgres)
	repo := database.NewCommentRepository(db)
	since := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)
	published := since.Add(48 * time.Hour)

	mock.ExpectQuery(`SELECT .+ FROM youtube_comments c\s+JOIN youtube_videos v .+ WHERE c.published_at >= \$1 .+ ORDER BY c.published_at DESC`).
		WithArgs(since).
		WillReturnRows(sqlmock.NewRows(commentColumns).
			AddRow("c1", "v1", "this slaps", "fan", int64(3), published, "Track", "Artist").
			AddRow("c2", "v1", "mid", "critic", int64(0), published, nil, nil))

	comments, err := repo.LoadRecentComments(context.Background(), since)
	require.NoError(t, err)
	require.Len(t, comments, 2)

	assert.Equal(t, "c1", comments[0].CommentID)
	assert.Equal(t, int64(3), comments[0].LikeCount)
	require.NotNil(t, comments[0].VideoTitle)
	assert.Equal(t, "Track", *comments[0].VideoTitle)
	assert.Nil(t, comments[1].ChannelTitle)

	expectationsMet(t, mock)
}

func TestCommentRepository_LoadRecentCommentsError(t *testing.T) {
	t.Parallel()

	db, mock := newMockDB(t, database.DriverPostgres)
	repo := database.NewCommentRepository(db)

	mock.ExpectQuery("SELECT .+ FROM youtube_comments").WillReturnError(sql.ErrConnDone)

	_, err := repo.LoadRecentComments(context.Background(), time.Now())
	require.Error(t, err)
	assert.ErrorIs(t, err, sql.ErrConnDone)

	expectationsMet(t, mock)
}

func TestCommentRepository_LoadCommentTexts(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		limit   int
		pattern string
		args    []any
	}{
		{name: "limited", limit: 2, pattern: `SELECT comment_text FROM youtube_comments .+ LIMIT \$1`, args: []any{2}},
		{name: "unlimited", limit: 0, pattern: `SELECT comment_text FROM youtube_comments .+ ORDER BY published_at DESC$`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			db, mock := newMockDB(t, database.DriverPostgres)
			repo := database.NewCommentRepository(db)

			expect := mock.ExpectQuery(tt.pattern)
			if tt.args != nil {
				expect = expect.WithArgs(tt.args...)
			}
			expect.WillReturnRows(sqlmock.NewRows([]string{"comment_text"}).AddRow("a").AddRow("b"))

			texts, err := repo.LoadCommentTexts(context.Background(), tt.limit)
			require.NoError(t, err)
			assert.Equal(t, []string{"a", "b"}, texts)

			expectationsMet(t, mock)
		})
	}
}

func TestCommentRepository_LoadCommentsPage(t *testing.T) {
	t.Parallel()

	db, mock := newMockDB(t, database.DriverSQLite)
	repo := database.NewCommentRepository(db)

	mock.ExpectQuery(`ORDER BY c.comment_id\s+LIMIT \? OFFSET \?`).
		WithArgs(100, 200).
		WillReturnRows(sqlmock.NewRows(commentColumns))

	comments, err := repo.LoadCommentsPage(context.Background(), 100, 200)
	require.NoError(t, err)
	assert.Empty(t, comments)

	expectationsMet(t, mock)
}

func TestCommentRepository_LoadCommentsByID(t *testing.T) {
	t.Parallel()

	now := time.Now().UTC()

	t.Run("postgres array", func(t *testing.T) {
		t.Parallel()

		db, mock := newMockDB(t, database.DriverPostgres)
		repo := database.NewCommentRepository(db)

		mock.ExpectQuery(`WHERE c.comment_id = ANY\(\$1\)`).
			WillReturnRows(sqlmock.NewRows(commentColumns).AddRow("a", "v", "t", "x", int64(0), now, nil, nil))

		comments, err := repo.LoadCommentsByID(context.Background(), []string{"a", "b"})
		require.NoError(t, err)
		require.Len(t, comments, 1)

		expectationsMet(t, mock)
	})

	t.Run("sqlite in list", func(t *testing.T) {
		t.Parallel()

		db, mock := newMockDB(t, database.DriverSQLite)
		repo := database.NewCommentRepository(db)

		mock.ExpectQuery(`WHERE c.comment_id IN \(\?, \?\)`).
			WithArgs("a", "b").
			WillReturnRows(sqlmock.NewRows(commentColumns))

		_, err := repo.LoadCommentsByID(context.Background(), []string{"a", "b"})
		require.NoError(t, err)

		expectationsMet(t, mock)
	})

	t.Run("no ids", func(t *testing.T) {
		t.Parallel()

		db, mock := newMockDB(t, database.DriverPostgres)
		comments, err := database.NewCommentRepository(db).LoadCommentsByID(context.Background(), nil)
		require.NoError(t, err)
		assert.Nil(t, comments)

		expectationsMet(t, mock)
	})
}

func botRecords(n int) []domain.BotSuspicionRecord {
	out := make([]domain.BotSuspicionRecord, n)
	for i := range out {
		out[i] = domain.BotSuspicionRecord{
			CommentID:    string(rune('a' + i)),
			VideoID:      "v",
			BotScore:     float64(i * 10),
			BotRiskLevel: domain.RiskLow,
		}
	}
	return out
}

func TestAnalysisRepository_StoreBotAnalysis(t *testing.T) {
	t.Parallel()

	db, mock := newMockDB(t, database.DriverPostgres)
	repo := database.NewAnalysisRepository(db, 2)
	analyzedAt := time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM comment_bot_analysis").WillReturnResult(sqlmock.NewResult(0, 7))
	mock.ExpectExec("INSERT INTO comment_bot_analysis").WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec("INSERT INTO comment_bot_analysis").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	records := botRecords(3)
	err := repo.StoreBotAnalysis(context.Background(), records, "run-1", analyzedAt)
	require.NoError(t, err)

	// caller's records are not stamped
	assert.Empty(t, records[0].RunID)

	expectationsMet(t, mock)
}

func TestAnalysisRepository_StoreBotAnalysisRollsBack(t *testing.T) {
	t.Parallel()

	db, mock := newMockDB(t, database.DriverPostgres)
	repo := database.NewAnalysisRepository(db, 0)
	insertErr := errors.New("disk full")

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM comment_bot_analysis").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("INSERT INTO comment_bot_analysis").WillReturnError(insertErr)
	mock.ExpectRollback()

	err := repo.StoreBotAnalysis(context.Background(), botRecords(2), "run-1", time.Now())
	require.ErrorIs(t, err, insertErr)
	assert.Contains(t, err.Error(), "batch at 0")

	expectationsMet(t, mock)
}

func TestAnalysisRepository_StoreBotAnalysisKeepsRepeatedIDs(t *testing.T) {
	t.Parallel()

	db, err := sqlx.Open(database.DriverSQLite, ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	ctx := context.Background()
	require.NoError(t, database.EnsureSchema(ctx, db))

	repo := database.NewAnalysisRepository(db, 0)
	records := botRecords(3)
	records[1].CommentID = records[0].CommentID
	require.NoError(t, repo.StoreBotAnalysis(ctx, records, "run-1", time.Now()))

	var count int
	require.NoError(t, db.GetContext(ctx, &count,
		`SELECT COUNT(*) FROM comment_bot_analysis WHERE comment_id = ?`, records[0].CommentID))
	assert.Equal(t, 2, count)

	// a second run replaces the first
	require.NoError(t, repo.StoreBotAnalysis(ctx, records[:1], "run-2", time.Now()))
	require.NoError(t, db.GetContext(ctx, &count, `SELECT COUNT(*) FROM comment_bot_analysis`))
	assert.Equal(t, 1, count)
}

func TestAnalysisRepository_UpsertSentiment(t *testing.T) {
	t.Parallel()

	db, mock := newMockDB(t, database.DriverPostgres)
	repo := database.NewAnalysisRepository(db, 2)
	now := time.Now().UTC()

	rows := []domain.SentimentRecord{
		{CommentID: "a", SentimentScore: 1, Confidence: 0.9, ScoredAt: now},
		{CommentID: "b", SentimentScore: -1, Confidence: 0.8, ScoredAt: now},
		{CommentID: "c", SentimentScore: 0, Confidence: 0.5, ScoredAt: now},
	}

	mock.ExpectExec(`INSERT INTO comment_sentiment .+ ON CONFLICT \(comment_id\) DO UPDATE`).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec(`INSERT INTO comment_sentiment .+ ON CONFLICT \(comment_id\) DO UPDATE`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	n, err := repo.UpsertSentiment(context.Background(), rows)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)

	expectationsMet(t, mock)
}

func TestModelRepository_Create(t *testing.T) {
	t.Parallel()

	db, mock := newMockDB(t, database.DriverPostgres)
	repo := database.NewModelRepository(db)

	m := &domain.MLModel{
		ModelName:         "weak_supervision_sentiment",
		ModelVersion:      "run-1",
		MacroF1:           0.91,
		TrainingSize:      250,
		LabelDistribution: []byte(`{"positive":120}`),
		Calibrated:        true,
		ModelPath:         "models/m.gob",
		TrainedAt:         time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC),
	}

	mock.ExpectExec(`INSERT INTO ml_models .+ VALUES \(\$1, \$2, \$3, \$4, \$5, \$6, \$7, \$8, \$9, \$10\)`).
		WithArgs(
			sqlmock.AnyArg(), "weak_supervision_sentiment", "run-1", 0.91, 250,
			`{"positive":120}`, true, "models/m.gob", sqlmock.AnyArg(), sqlmock.AnyArg(),
		).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Create(context.Background(), m))
	assert.NotEmpty(t, m.ID)
	assert.False(t, m.CreatedAt.IsZero())

	expectationsMet(t, mock)
}

func TestModelRepository_Latest(t *testing.T) {
	t.Parallel()

	columns := []string{
		"id", "model_name", "model_version", "macro_f1", "training_size",
		"label_distribution", "calibrated", "model_path", "trained_at", "created_at",
	}
	now := time.Now().UTC()

	t.Run("found", func(t *testing.T) {
		t.Parallel()

		db, mock := newMockDB(t, database.DriverPostgres)
		mock.ExpectQuery(`FROM ml_models\s+WHERE model_name = \$1\s+ORDER BY trained_at DESC\s+LIMIT 1`).
			WithArgs("m").
			WillReturnRows(sqlmock.NewRows(columns).
				AddRow("id-1", "m", "run-1", 0.9, 250, []byte(`{}`), true, "p", now, now))

		got, err := database.NewModelRepository(db).Latest(context.Background(), "m")
		require.NoError(t, err)
		assert.Equal(t, "run-1", got.ModelVersion)
		assert.True(t, got.Calibrated)

		expectationsMet(t, mock)
	})

	t.Run("missing", func(t *testing.T) {
		t.Parallel()

		db, mock := newMockDB(t, database.DriverPostgres)
		mock.ExpectQuery("FROM ml_models").WithArgs("m").WillReturnError(sql.ErrNoRows)

		_, err := database.NewModelRepository(db).Latest(context.Background(), "m")
		assert.ErrorIs(t, err, database.ErrModelNotFound)

		expectationsMet(t, mock)
	})
}

func TestDSN(t *testing.T) {
	t.Parallel()

	pg, err := database.DSN(config.DatabaseConfig{
		Driver: "postgres", Host: "db", Port: 5432, User: "u", Password: "p", Database: "yt", SSLMode: "disable",
	})
	require.NoError(t, err)
	assert.Equal(t, "host=db port=5432 user=u password=p dbname=yt sslmode=disable", pg)

	lite, err := database.DSN(config.DatabaseConfig{Driver: "sqlite3", Path: "local.db"})
	require.NoError(t, err)
	assert.Contains(t, lite, "file:local.db")

	_, err = database.DSN(config.DatabaseConfig{Driver: "mysql"})
	assert.Error(t, err)

	_, err = database.Connect(context.Background(), config.DatabaseConfig{Disabled: true})
	assert.ErrorIs(t, err, database.ErrDisabled)
}

func TestEnsureSchema(t *testing.T) {
	t.Parallel()

	db, mock := newMockDB(t, database.DriverSQLite)
	for range 5 {
		mock.ExpectExec("CREATE (TABLE|INDEX) IF NOT EXISTS").WillReturnResult(sqlmock.NewResult(0, 0))
	}

	require.NoError(t, database.EnsureSchema(context.Background(), db))
	expectationsMet(t, mock)
}
