package botdetect

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/jonesrussell/north-cloud/comment-analyzer/internal/domain"
)

// Column names of tabular comment input.
const (
	ColCommentID    = "comment_id"
	ColVideoID      = "video_id"
	ColCommentText  = "comment_text"
	ColAuthorName   = "author_name"
	ColLikeCount    = "like_count"
	ColPublishedAt  = "published_at"
	ColVideoTitle   = "video_title"
	ColChannelTitle = "channel_title"
)

// RequiredColumns lists the columns ParseTable needs.
var RequiredColumns = []string{ColCommentID, ColVideoID, ColCommentText, ColAuthorName, ColLikeCount, ColPublishedAt}

// spaceSeparatedLayout is ISO 8601 with a space between date and time, as
// written by pandas and most SQL clients.
const spaceSeparatedLayout = "2006-01-02 15:04:05.999999999Z07:00"

// ParseTimestamp parses an RFC 3339 timestamp, or the same form with a space
// instead of the T. A timestamp without a UTC offset is rejected.
func ParseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		var spaceErr error
		if t, spaceErr = time.Parse(spaceSeparatedLayout, s); spaceErr != nil {
			return time.Time{}, err
		}
	}
	return t.UTC(), nil
}

// ParseTable converts a header and string rows into comments. Columns are
// matched by name; extra columns are ignored. Timestamp problems are
// collected and reported together.
func ParseTable(header []string, rows [][]string) ([]domain.Comment, error) {
	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[strings.TrimSpace(name)] = i
	}

	var missing []string
	for _, name := range RequiredColumns {
		if _, ok := cols[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return nil, &MissingColumnsError{Columns: missing}
	}
	if len(rows) == 0 {
		return nil, ErrEmptyInput
	}

	cell := func(row []string, name string) (string, bool) {
		i, ok := cols[name]
		if !ok || i >= len(row) {
			return "", false
		}
		return row[i], true
	}

	var bad invalidTimestamps
	comments := make([]domain.Comment, 0, len(rows))
	for n, row := range rows {
		var c domain.Comment
		c.CommentID, _ = cell(row, ColCommentID)
		c.VideoID, _ = cell(row, ColVideoID)
		c.CommentText, _ = cell(row, ColCommentText)
		c.AuthorName, _ = cell(row, ColAuthorName)

		likes, err := parseLikes(cellValue(cell(row, ColLikeCount)))
		if err != nil {
			return nil, fmt.Errorf("row %d (%s): %w", n+1, c.CommentID, err)
		}
		c.LikeCount = likes

		ts, err := ParseTimestamp(cellValue(cell(row, ColPublishedAt)))
		if err != nil {
			bad.add(c.CommentID)
		}
		c.PublishedAt = ts

		if v, ok := cell(row, ColVideoTitle); ok && v != "" {
			c.VideoTitle = &v
		}
		if v, ok := cell(row, ColChannelTitle); ok && v != "" {
			c.ChannelTitle = &v
		}
		comments = append(comments, c)
	}
	if err := bad.err(); err != nil {
		return nil, err
	}
	return comments, nil
}

// ReadCSV parses comments from CSV with a header row.
func ReadCSV(r io.Reader) ([]domain.Comment, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, &MissingColumnsError{Columns: sortedRequired()}
	}
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv rows: %w", err)
	}
	return ParseTable(header, rows)
}

func sortedRequired() []string {
	out := append([]string(nil), RequiredColumns...)
	sort.Strings(out)
	return out
}

func cellValue(v string, _ bool) string { return v }

// parseLikes accepts integers and integral floats; empty means 0.
func parseLikes(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("invalid like_count %q", s)
	}
	return int64(f), nil
}
