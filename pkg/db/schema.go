package db

import "fmt"

// InitializeSchema creates the database tables if they don't exist.
func InitializeSchema(conn *Connection) error {
	schema := `
	CREATE TABLE IF NOT EXISTS run_history (
		id TEXT PRIMARY KEY,
		command TEXT NOT NULL,
		processor_key TEXT NOT NULL,
		started_at TIMESTAMP NOT NULL,
		finished_at TIMESTAMP NOT NULL,
		outcome TEXT NOT NULL,
		candidates INTEGER NOT NULL DEFAULT 0,
		processed INTEGER NOT NULL DEFAULT 0,
		skipped INTEGER NOT NULL DEFAULT 0,
		error_message TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_run_history_command
		ON run_history(command, started_at);
	`

	if _, err := conn.Exec(schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	return nil
}
