package sql

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

var schema = []string{ //nolint:gochecknoglobals // static schema
	`CREATE TABLE IF NOT EXISTS app_state (
		chat_id    INTEGER NOT NULL,
		key        TEXT    NOT NULL,
		value      TEXT    NOT NULL,
		updated_at INTEGER NOT NULL,
		PRIMARY KEY (chat_id, key)
	)`,
	`CREATE TABLE IF NOT EXISTS auth_confirmations (
		chat_id    INTEGER NOT NULL,
		token      TEXT    NOT NULL,
		confirmed  BOOLEAN NOT NULL DEFAULT FALSE,
		expires_at INTEGER NOT NULL,
		PRIMARY KEY (chat_id, token)
	)`,
	`CREATE INDEX IF NOT EXISTS auth_confirmations_expires_at_idx ON auth_confirmations (expires_at)`,
}

// Open opens a SQLite database and makes sure the schema exists.
func Open(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// sqlite allows a single writer
	db.SetMaxOpenConns(1)

	if err = Migrate(ctx, db); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

func Migrate(ctx context.Context, db *sql.DB) error {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate schema: %w", err)
		}
	}
	return nil
}
