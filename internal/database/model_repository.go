package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/jonesrussell/north-cloud/comment-analyzer/internal/domain"
)

// ErrModelNotFound is returned when no model row matches.
var ErrModelNotFound = errors.New("model not found")

// ModelRepository handles the trained-model registry.
type ModelRepository struct {
	db *sqlx.DB
}

// NewModelRepository creates a new model repository.
func NewModelRepository(db *sqlx.DB) *ModelRepository {
	return &ModelRepository{db: db}
}

// Create inserts a model row, assigning its id and created_at when unset.
func (r *ModelRepository) Create(ctx context.Context, m *domain.MLModel) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now().UTC()
	}

	query := r.db.Rebind(`
		INSERT INTO ml_models (
			id, model_name, model_version, macro_f1, training_size,
			label_distribution, calibrated, model_path, trained_at, created_at
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)

	_, err := r.db.ExecContext(ctx, query,
		m.ID,
		m.ModelName,
		m.ModelVersion,
		m.MacroF1,
		m.TrainingSize,
		string(m.LabelDistribution),
		m.Calibrated,
		m.ModelPath,
		m.TrainedAt.UTC(),
		m.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create model: %w", err)
	}

	return nil
}

// Latest returns the most recently trained model named modelName.
func (r *ModelRepository) Latest(ctx context.Context, modelName string) (*domain.MLModel, error) {
	query := r.db.Rebind(`
		SELECT id, model_name, model_version, macro_f1, training_size,
		       label_distribution, calibrated, model_path, trained_at, created_at
		FROM ml_models
		WHERE model_name = ?
		ORDER BY trained_at DESC
		LIMIT 1
	`)

	var m domain.MLModel
	if err := r.db.GetContext(ctx, &m, query, modelName); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", ErrModelNotFound, modelName)
		}
		return nil, fmt.Errorf("failed to get latest model: %w", err)
	}

	return &m, nil
}
