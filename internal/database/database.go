// Package database provides database connectivity and the comment-analyzer
// repositories.
package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"           // PostgreSQL driver
	_ "github.com/mattn/go-sqlite3" // SQLite driver

	"github.com/jonesrussell/north-cloud/comment-analyzer/internal/config"
)

const (
	// DefaultMaxOpenConns is the default maximum number of open connections
	DefaultMaxOpenConns = 25
	// DefaultMaxIdleConns is the default maximum number of idle connections
	DefaultMaxIdleConns = 5
	// DefaultConnMaxLifetime is the default maximum connection lifetime
	DefaultConnMaxLifetime = 5 * time.Minute
	// DefaultPingTimeout is the default timeout for ping operations
	DefaultPingTimeout = 5 * time.Second
)

// Driver names accepted in database.driver.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite3"
)

// ErrDisabled is returned by Connect when the database is turned off in config.
var ErrDisabled = errors.New("database disabled")

// DSN builds the driver-specific data source name.
func DSN(cfg config.DatabaseConfig) (string, error) {
	switch cfg.Driver {
	case DriverPostgres:
		return fmt.Sprintf(
			"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
			cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.Database, cfg.SSLMode,
		), nil
	case DriverSQLite:
		return fmt.Sprintf("file:%s?_foreign_keys=on&_busy_timeout=5000", cfg.Path), nil
	default:
		return "", fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}

// Connect opens and pings a connection pool for cfg.
func Connect(ctx context.Context, cfg config.DatabaseConfig) (*sqlx.DB, error) {
	if cfg.Disabled {
		return nil, ErrDisabled
	}

	dsn, err := DSN(cfg)
	if err != nil {
		return nil, err
	}

	db, err := sqlx.Open(cfg.Driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if cfg.Driver == DriverSQLite {
		// SQLite serializes writers; one connection avoids SQLITE_BUSY.
		db.SetMaxOpenConns(1)
	} else {
		db.SetMaxOpenConns(DefaultMaxOpenConns)
		db.SetMaxIdleConns(DefaultMaxIdleConns)
		db.SetConnMaxLifetime(DefaultConnMaxLifetime)
	}

	pingCtx, cancel := context.WithTimeout(ctx, DefaultPingTimeout)
	defer cancel()

	if pingErr := db.PingContext(pingCtx); pingErr != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", pingErr)
	}

	return db, nil
}

// EnsureSchema creates the tables this service writes to when they are
// missing. The source comment and video tables are owned by the ingester.
func EnsureSchema(ctx context.Context, db *sqlx.DB) error {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to ensure schema: %w", err)
		}
	}
	return nil
}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS comment_bot_analysis (
		comment_id              TEXT NOT NULL,
		video_id                TEXT NOT NULL,
		author_name             TEXT NOT NULL DEFAULT '',
		comment_text            TEXT NOT NULL DEFAULT '',
		bot_score               DOUBLE PRECISION NOT NULL,
		bot_risk_level          TEXT NOT NULL,
		duplicate_count_local   INTEGER NOT NULL DEFAULT 0,
		duplicate_count_global  INTEGER NOT NULL DEFAULT 0,
		burst_score             DOUBLE PRECISION NOT NULL DEFAULT 0,
		author_repetition_score DOUBLE PRECISION NOT NULL DEFAULT 0,
		engagement_score        DOUBLE PRECISION NOT NULL DEFAULT 0,
		emoji_count             INTEGER NOT NULL DEFAULT 0,
		is_whitelisted          BOOLEAN NOT NULL DEFAULT FALSE,
		run_id                  TEXT NOT NULL,
		analyzed_at             TIMESTAMP NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_comment_bot_analysis_comment_id ON comment_bot_analysis (comment_id)`,
	`CREATE TABLE IF NOT EXISTS comment_sentiment (
		comment_id      TEXT PRIMARY KEY,
		sentiment_score DOUBLE PRECISION NOT NULL,
		confidence      DOUBLE PRECISION NOT NULL,
		prob_positive   DOUBLE PRECISION NOT NULL,
		prob_neutral    DOUBLE PRECISION NOT NULL,
		prob_negative   DOUBLE PRECISION NOT NULL,
		analyzer        TEXT NOT NULL DEFAULT '',
		model_version   TEXT NOT NULL DEFAULT '',
		scored_at       TIMESTAMP NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS ml_models (
		id                 TEXT PRIMARY KEY,
		model_name         TEXT NOT NULL,
		model_version      TEXT NOT NULL,
		macro_f1           DOUBLE PRECISION NOT NULL,
		training_size      INTEGER NOT NULL,
		label_distribution TEXT NOT NULL,
		calibrated         BOOLEAN NOT NULL,
		model_path         TEXT NOT NULL,
		trained_at         TIMESTAMP NOT NULL,
		created_at         TIMESTAMP NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_ml_models_name_trained ON ml_models (model_name, trained_at)`,
}
