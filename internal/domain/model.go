package domain

import "time"

// MLModel is a row of the trained-model registry.
type MLModel struct {
	ID                string    `db:"id"                 json:"id"`
	ModelName         string    `db:"model_name"         json:"model_name"`
	ModelVersion      string    `db:"model_version"      json:"model_version"`
	MacroF1           float64   `db:"macro_f1"           json:"macro_f1"`
	TrainingSize      int       `db:"training_size"      json:"training_size"`
	LabelDistribution []byte    `db:"label_distribution" json:"label_distribution"`
	Calibrated        bool      `db:"calibrated"         json:"calibrated"`
	ModelPath         string    `db:"model_path"         json:"model_path"`
	TrainedAt         time.Time `db:"trained_at"         json:"trained_at"`
	CreatedAt         time.Time `db:"created_at"         json:"created_at"`
}
