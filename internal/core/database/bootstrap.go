package db

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"time"

	"github.com/markdave123-py/Mosaic/internal/logger"
)

//go:embed scripts/initdb.sql
var bootstrapFS embed.FS

// schemaVersion is the version row scripts/initdb.sql inserts into mosaic_meta.
const schemaVersion = 2

// EnsureBootstrapped applies scripts/initdb.sql unless mosaic_meta already
// records schemaVersion. The script is idempotent, so a partially applied
// schema is simply re-run.
func EnsureBootstrapped(ctx context.Context, db *sql.DB) error {
	ctxBoot, cancel := context.WithTimeout(ctx, 3*time.Minute)
	defer cancel()

	current, err := bootstrappedVersion(ctxBoot, db)
	if err != nil {
		return err
	}
	if current >= schemaVersion {
		logger.Debug("pgvector schema already bootstrapped", "version", current)
		return nil
	}
	return runBootstrap(ctxBoot, db)
}

// bootstrappedVersion returns 0 when the meta table does not exist yet.
func bootstrappedVersion(ctx context.Context, db *sql.DB) (int, error) {
	var table sql.NullString
	if err := db.QueryRowContext(ctx, `SELECT to_regclass('mosaic_meta')::text`).Scan(&table); err != nil {
		return 0, fmt.Errorf("meta table check failed: %w", err)
	}
	if !table.Valid {
		return 0, nil
	}

	var version int
	if err := db.QueryRowContext(ctx, `SELECT COALESCE(MAX(version), 0) FROM mosaic_meta`).Scan(&version); err != nil {
		return 0, fmt.Errorf("meta version check failed: %w", err)
	}
	return version, nil
}

func runBootstrap(ctx context.Context, db *sql.DB) error {
	script, err := bootstrapFS.ReadFile("scripts/initdb.sql")
	if err != nil {
		return fmt.Errorf("read initdb.sql: %w", err)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin bootstrap: %w", err)
	}
	if _, err := tx.ExecContext(ctx, string(script)); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("exec bootstrap: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit bootstrap: %w", err)
	}
	logger.Info("pgvector schema bootstrapped", "version", schemaVersion)
	return nil
}
