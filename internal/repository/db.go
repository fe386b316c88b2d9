package repository

import (
	"context"
	"database/sql"
	"log/slog"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS templates (
	id                TEXT PRIMARY KEY,
	name              TEXT NOT NULL,
	fields_json       TEXT NOT NULL,
	selectors_json    TEXT NOT NULL DEFAULT '[]',
	extraction_method TEXT NOT NULL,
	status            TEXT NOT NULL,
	version           INTEGER NOT NULL,
	created_at        TIMESTAMP NOT NULL,
	updated_at        TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_templates_name ON templates(name);
`

// Open opens (or creates) the sqlite template store and applies the schema.
// Pass ":memory:" for an ephemeral store.
func Open(ctx context.Context, path string, logger *slog.Logger) (*sql.DB, error) {
	if logger == nil {
		logger = slog.Default()
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		logger.Error("repository.open.failed", "path", path, "error", err)
		return nil, err
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		logger.Error("repository.migrate.failed", "path", path, "error", err)
		_ = db.Close()
		return nil, err
	}
	logger.Info("repository.open.ok", "path", path)
	return db, nil
}
