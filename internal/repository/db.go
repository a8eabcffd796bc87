package repository

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"

	"github.com/lpreports/fundxtract/internal/common"
)

// Open connects to Postgres when a DSN is configured and falls back to
// embedded SQLite otherwise, mirroring the deployment story: hosted
// Postgres in production, a local file for development. Both paths
// come back as the same *sql.DB; all queries use $1 placeholders,
// which both drivers accept.
func Open(ctx context.Context, cfg common.DatabaseConfig, logger *slog.Logger) (*sql.DB, error) {
	if cfg.DSN != "" {
		return openPostgres(ctx, cfg, logger)
	}
	logger.Warn("DATABASE_URL not configured, using embedded sqlite", "path", cfg.SQLitePath)
	db, err := sql.Open("sqlite", cfg.SQLitePath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// modernc sqlite is single-writer; one connection avoids
	// SQLITE_BUSY under concurrent jobs.
	db.SetMaxOpenConns(1)
	return db, nil
}

func openPostgres(ctx context.Context, cfg common.DatabaseConfig, logger *slog.Logger) (*sql.DB, error) {
	logger.Info("connecting to database")
	pc, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse dsn: %w", err)
	}
	pc.MaxConns = cfg.MaxConns
	pc.MaxConnLifetime = cfg.MaxConnLifetime
	pc.MaxConnIdleTime = cfg.MaxConnIdleTime
	pc.ConnConfig.RuntimeParams["application_name"] = "fundxtract"
	if cfg.StatementTimeout > 0 {
		pc.ConnConfig.RuntimeParams["statement_timeout"] = cfg.StatementTimeout.String()
	}

	ctx, cancel := context.WithTimeout(ctx, cfg.DialTimeout)
	defer cancel()
	pool, err := pgxpool.NewWithConfig(ctx, pc)
	if err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}
	logger.Info("successfully connected to database")
	return stdlib.OpenDBFromPool(pool), nil
}

// Init creates the four tables if they do not exist. Column types are
// chosen to be valid on both Postgres and SQLite; timestamps travel as
// RFC 3339 text, UUIDs as text.
func Init(ctx context.Context, db *sql.DB, logger *slog.Logger) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS uploaded_files (
			id TEXT PRIMARY KEY,
			filename TEXT NOT NULL,
			original_filename TEXT NOT NULL,
			file_path TEXT NOT NULL,
			file_size BIGINT NOT NULL,
			mime_type TEXT NOT NULL,
			uploaded_at TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS jobs (
			job_id TEXT PRIMARY KEY,
			file_id TEXT NOT NULL,
			status TEXT NOT NULL,
			current_step TEXT NOT NULL,
			progress INTEGER NOT NULL,
			created_at TEXT NOT NULL,
			started_at TEXT,
			completed_at TEXT,
			error_message TEXT NOT NULL DEFAULT '',
			retry_count INTEGER NOT NULL DEFAULT 0
		)`,
		`CREATE TABLE IF NOT EXISTS extraction_results (
			id TEXT PRIMARY KEY,
			file_id TEXT NOT NULL,
			output_filename TEXT NOT NULL,
			output_path TEXT NOT NULL,
			extracted_data TEXT,
			processing_seconds DOUBLE PRECISION NOT NULL,
			characters_extracted BIGINT NOT NULL,
			sheets_generated INTEGER NOT NULL,
			model_used TEXT NOT NULL,
			extracted_at TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS extraction_logs (
			id TEXT PRIMARY KEY,
			file_id TEXT NOT NULL,
			level TEXT NOT NULL,
			message TEXT NOT NULL,
			step TEXT NOT NULL,
			duration_ms BIGINT NOT NULL DEFAULT 0,
			created_at TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_jobs_file ON jobs (file_id)`,
		`CREATE INDEX IF NOT EXISTS idx_results_file ON extraction_results (file_id)`,
		`CREATE INDEX IF NOT EXISTS idx_logs_file ON extraction_logs (file_id)`,
	}
	for _, stmt := range stmts {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("init schema: %w", err)
		}
	}
	logger.Info("database schema verified", "tables", 4)
	return nil
}

// HealthCheck pings the database with a bounded context.
func HealthCheck(ctx context.Context, db *sql.DB) error {
	return db.PingContext(ctx)
}
