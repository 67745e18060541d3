package db

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Outcome represents how a run finished.
type Outcome string

const (
	OutcomeSuccess Outcome = "success"
	OutcomeFailure Outcome = "failure"
)

// RunRecord represents one recorded command run.
type RunRecord struct {
	ID           string
	Command      string
	ProcessorKey string
	StartedAt    time.Time
	FinishedAt   time.Time
	Outcome      Outcome
	Candidates   int
	Processed    int
	Skipped      int
	ErrorMessage sql.NullString
}

// RunHistory manages run history operations.
type RunHistory struct {
	conn *Connection
}

// NewRunHistory creates a new RunHistory instance.
func NewRunHistory(conn *Connection) *RunHistory {
	return &RunHistory{conn: conn}
}

// RecordRun records a completed command run.
// A fresh UUID is assigned when the record's ID is empty.
func (h *RunHistory) RecordRun(record RunRecord) (string, error) {
	if record.ID == "" {
		record.ID = uuid.NewString()
	}

	query := `
		INSERT INTO run_history (id, command, processor_key, started_at, finished_at, outcome, candidates, processed, skipped, error_message)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := h.conn.Exec(query,
		record.ID,
		record.Command,
		record.ProcessorKey,
		record.StartedAt.UTC(),
		record.FinishedAt.UTC(),
		string(record.Outcome),
		record.Candidates,
		record.Processed,
		record.Skipped,
		record.ErrorMessage,
	)

	if err != nil {
		return "", fmt.Errorf("failed to record run: %w", err)
	}

	return record.ID, nil
}

// RecentRuns retrieves the most recent runs, newest first.
// When command is non-empty only runs of that command are returned.
func (h *RunHistory) RecentRuns(command string, limit int) ([]RunRecord, error) {
	query := `
		SELECT id, command, processor_key, started_at, finished_at, outcome, candidates, processed, skipped, error_message
		FROM run_history
	`
	args := []interface{}{}
	if command != "" {
		query += ` WHERE command = ?`
		args = append(args, command)
	}
	query += ` ORDER BY started_at DESC LIMIT ?`
	args = append(args, limit)

	rows, err := h.conn.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to get recent runs: %w", err)
	}
	defer rows.Close()

	var records []RunRecord
	for rows.Next() {
		var record RunRecord
		var outcome string

		if err := rows.Scan(
			&record.ID,
			&record.Command,
			&record.ProcessorKey,
			&record.StartedAt,
			&record.FinishedAt,
			&outcome,
			&record.Candidates,
			&record.Processed,
			&record.Skipped,
			&record.ErrorMessage,
		); err != nil {
			return nil, fmt.Errorf("failed to scan run record: %w", err)
		}

		record.Outcome = Outcome(outcome)
		records = append(records, record)
	}

	return records, nil
}

// Stats represents aggregate run statistics.
type Stats struct {
	TotalRuns      int
	SuccessfulRuns int
	FailedRuns     int
	TotalProcessed int
	TotalSkipped   int
	LastRun        sql.NullString
}

// GetStats retrieves aggregate statistics across all recorded runs.
func (h *RunHistory) GetStats() (*Stats, error) {
	var stats Stats

	err := h.conn.QueryRow(`SELECT COUNT(*) FROM run_history`).Scan(&stats.TotalRuns)
	if err != nil {
		return nil, fmt.Errorf("failed to get run count: %w", err)
	}

	err = h.conn.QueryRow(`SELECT COUNT(*) FROM run_history WHERE outcome = 'success'`).Scan(&stats.SuccessfulRuns)
	if err != nil {
		return nil, fmt.Errorf("failed to get success count: %w", err)
	}

	err = h.conn.QueryRow(`SELECT COUNT(*) FROM run_history WHERE outcome = 'failure'`).Scan(&stats.FailedRuns)
	if err != nil {
		return nil, fmt.Errorf("failed to get failure count: %w", err)
	}

	err = h.conn.QueryRow(`SELECT COALESCE(SUM(processed), 0), COALESCE(SUM(skipped), 0) FROM run_history`).Scan(&stats.TotalProcessed, &stats.TotalSkipped)
	if err != nil {
		return nil, fmt.Errorf("failed to get processed totals: %w", err)
	}

	err = h.conn.QueryRow(`SELECT MAX(started_at) FROM run_history`).Scan(&stats.LastRun)
	if err != nil && err != sql.ErrNoRows {
		return nil, fmt.Errorf("failed to get last run time: %w", err)
	}

	return &stats, nil
}
