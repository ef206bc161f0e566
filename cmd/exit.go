package cmd

import (
	"errors"

	"github.com/jonesrussell/north-cloud/comment-analyzer/internal/analyzer"
	"github.com/jonesrussell/north-cloud/comment-analyzer/internal/botdetect"
	"github.com/jonesrussell/north-cloud/comment-analyzer/internal/config"
	"github.com/jonesrussell/north-cloud/comment-analyzer/internal/processor"
	"github.com/jonesrussell/north-cloud/comment-analyzer/internal/sentiment"
)

// Process exit codes.
const (
	ExitOK               = 0
	ExitFailure          = 1
	ExitInvalidInput     = 2
	ExitInsufficientData = 3
	ExitNotReady         = 4
	ExitScaleLimit       = 5
)

// ExitCode maps a command error onto a process exit code.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}

	var (
		scaleErr      *botdetect.ScaleLimitError
		columnsErr    *botdetect.MissingColumnsError
		tsErr         *botdetect.InvalidTimestampError
		configErr     *botdetect.ConfigError
		registryErr   *sentiment.RegistryError
		validationErr *config.ValidationError
	)
	switch {
	case errors.As(err, &scaleErr):
		return ExitScaleLimit
	case errors.Is(err, sentiment.ErrInsufficientLabeledData),
		errors.Is(err, processor.ErrNoComments):
		return ExitInsufficientData
	case errors.Is(err, sentiment.ErrModelNotTrained),
		errors.Is(err, analyzer.ErrNoImplementation),
		errors.Is(err, processor.ErrNoStore):
		return ExitNotReady
	case errors.Is(err, botdetect.ErrEmptyInput),
		errors.As(err, &columnsErr),
		errors.As(err, &tsErr),
		errors.As(err, &configErr),
		errors.As(err, &registryErr),
		errors.As(err, &validationErr):
		return ExitInvalidInput
	default:
		return ExitFailure
	}
}
