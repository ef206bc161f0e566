package botdetect

import (
	"errors"
	"fmt"
	"strings"
)

// maxReportedIDs caps the comment ids listed in an InvalidTimestampError.
const maxReportedIDs = 5

// ErrEmptyInput is returned when there are no comments to analyze.
var ErrEmptyInput = errors.New("no comments to analyze")

// MissingColumnsError lists required columns absent from tabular input.
type MissingColumnsError struct {
	Columns []string
}

func (e *MissingColumnsError) Error() string {
	return "missing required columns: " + strings.Join(e.Columns, ", ")
}

// InvalidTimestampError reports comments whose published_at is missing,
// unparsable or lacks a UTC offset. IDs holds at most five comment ids.
type InvalidTimestampError struct {
	IDs   []string
	Count int
}

func (e *InvalidTimestampError) Error() string {
	return fmt.Sprintf("invalid timestamps in %d comments: %s", e.Count, strings.Join(e.IDs, ", "))
}

// ScaleLimitError is returned when a global similarity group is too large
// for pairwise comparison.
type ScaleLimitError struct {
	GroupSize int
	Limit     int
	Grouping  GroupingStrategy
}

func (e *ScaleLimitError) Error() string {
	return fmt.Sprintf(
		"similarity group of %d comments exceeds limit %d (grouping %s): use minhash LSH grouping or shard the input",
		e.GroupSize, e.Limit, e.Grouping,
	)
}

type invalidTimestamps struct {
	ids   []string
	count int
}

func (t *invalidTimestamps) add(id string) {
	t.count++
	if len(t.ids) < maxReportedIDs {
		t.ids = append(t.ids, id)
	}
}

func (t *invalidTimestamps) err() error {
	if t.count == 0 {
		return nil
	}
	return &InvalidTimestampError{IDs: t.ids, Count: t.count}
}
