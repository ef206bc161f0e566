package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/jonesrussell/north-cloud/comment-analyzer/internal/domain"
)

const commentColumns = `
	c.comment_id,
	c.video_id,
	c.comment_text,
	COALESCE(c.author_name, '') AS author_name,
	COALESCE(c.like_count, 0) AS like_count,
	c.published_at,
	v.title AS video_title,
	v.channel_title`

// CommentRepository reads YouTube comments.
type CommentRepository struct {
	db *sqlx.DB
}

// NewCommentRepository creates a new comment repository.
func NewCommentRepository(db *sqlx.DB) *CommentRepository {
	return &CommentRepository{db: db}
}

// LoadRecentComments returns comments published at or after since, joined
// with their video, newest first. Comments without text are skipped.
func (r *CommentRepository) LoadRecentComments(ctx context.Context, since time.Time) ([]domain.Comment, error) {
	query := r.db.Rebind(`
		SELECT` + commentColumns + `
		FROM youtube_comments c
		JOIN youtube_videos v ON c.video_id = v.video_id
		WHERE c.published_at >= ?
		AND c.comment_text IS NOT NULL
		AND c.comment_text <> ''
		ORDER BY c.published_at DESC
	`)

	var comments []domain.Comment
	if err := r.db.SelectContext(ctx, &comments, query, since.UTC()); err != nil {
		return nil, fmt.Errorf("failed to load recent comments: %w", err)
	}

	return comments, nil
}

// LoadCommentTexts returns up to limit non-empty comment texts, newest first.
// A limit of zero or less returns every text.
func (r *CommentRepository) LoadCommentTexts(ctx context.Context, limit int) ([]string, error) {
	query := `
		SELECT comment_text
		FROM youtube_comments
		WHERE comment_text IS NOT NULL
		AND comment_text <> ''
		ORDER BY published_at DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	var texts []string
	if err := r.db.SelectContext(ctx, &texts, r.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("failed to load comment texts: %w", err)
	}

	return texts, nil
}

// LoadCommentsPage returns one page of comments ordered by comment_id.
func (r *CommentRepository) LoadCommentsPage(ctx context.Context, limit, offset int) ([]domain.Comment, error) {
	query := r.db.Rebind(`
		SELECT` + commentColumns + `
		FROM youtube_comments c
		JOIN youtube_videos v ON c.video_id = v.video_id
		WHERE c.comment_text IS NOT NULL
		AND c.comment_text <> ''
		ORDER BY c.comment_id
		LIMIT ? OFFSET ?
	`)

	var comments []domain.Comment
	if err := r.db.SelectContext(ctx, &comments, query, limit, offset); err != nil {
		return nil, fmt.Errorf("failed to load comments page: %w", err)
	}

	return comments, nil
}

// LoadCommentsByID returns the comments with the given ids. PostgreSQL
// receives the ids as one array parameter; other drivers get an expanded IN
// list.
func (r *CommentRepository) LoadCommentsByID(ctx context.Context, ids []string) ([]domain.Comment, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	base := `
		SELECT` + commentColumns + `
		FROM youtube_comments c
		JOIN youtube_videos v ON c.video_id = v.video_id
		WHERE c.comment_id `

	var (
		query string
		args  []any
	)
	if r.db.DriverName() == DriverPostgres {
		query = base + `= ANY($1) ORDER BY c.comment_id`
		args = []any{pq.Array(ids)}
	} else {
		inQuery, inArgs, err := sqlx.In(base+`IN (?) ORDER BY c.comment_id`, ids)
		if err != nil {
			return nil, fmt.Errorf("failed to build comment id query: %w", err)
		}
		query, args = r.db.Rebind(inQuery), inArgs
	}

	var comments []domain.Comment
	if err := r.db.SelectContext(ctx, &comments, query, args...); err != nil {
		return nil, fmt.Errorf("failed to load comments by id: %w", err)
	}

	return comments, nil
}
