// Package pathutil provides centralized path management for the ledger tree
// and the tool's own state files (incremental-run cache, run-history
// database).
package pathutil

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
)

var yearMonthPattern = regexp.MustCompile(`^\d{4}-\d{2}$`)

// Resolver manages paths for journals, the cache document, and the
// run-history database.
type Resolver struct {
	ledgerRoot   string
	cachePath    string
	databasePath string
}

// Config represents the configuration for Resolver.
type Config struct {
	// LedgerRoot is the directory containing the YYYY-MM journal folders.
	LedgerRoot string
	// CachePath is the incremental-run cache document. Empty means the
	// default under {LedgerRoot}/.cache.
	CachePath string
	// DatabasePath is the SQLite run-history database. Empty means the
	// default under {LedgerRoot}/.cache.
	DatabasePath string
	// ToolName feeds the default state-file names, so renaming the tool
	// naturally invalidates old caches. Empty defaults to "ledger-tools".
	ToolName string
}

// New creates a Resolver with the given configuration.
// If CachePath is empty, it defaults to {LedgerRoot}/.cache/.{ToolName}.cache.json
// If DatabasePath is empty, it defaults to {LedgerRoot}/.cache/{ToolName}.runs.db
func New(config Config) *Resolver {
	tool := config.ToolName
	if tool == "" {
		tool = "ledger-tools"
	}

	cachePath := config.CachePath
	if cachePath == "" {
		cachePath = filepath.Join(config.LedgerRoot, ".cache", fmt.Sprintf(".%s.cache.json", tool))
	}

	databasePath := config.DatabasePath
	if databasePath == "" {
		databasePath = filepath.Join(config.LedgerRoot, ".cache", fmt.Sprintf("%s.runs.db", tool))
	}

	return &Resolver{
		ledgerRoot:   config.LedgerRoot,
		cachePath:    cachePath,
		databasePath: databasePath,
	}
}

// LedgerRoot returns the ledger root directory.
func (r *Resolver) LedgerRoot() string {
	return r.ledgerRoot
}

// CachePath returns the cache document path.
func (r *Resolver) CachePath() string {
	return r.cachePath
}

// DatabasePath returns the run-history database path.
func (r *Resolver) DatabasePath() string {
	return r.databasePath
}

// MonthDir returns the directory for a month. yearMonth must be in YYYY-MM
// format.
// Example: ~/ledger/2024-01
func (r *Resolver) MonthDir(yearMonth string) (string, error) {
	if !yearMonthPattern.MatchString(yearMonth) {
		return "", fmt.Errorf("invalid year-month format: %s. Expected YYYY-MM", yearMonth)
	}
	return filepath.Join(r.ledgerRoot, yearMonth), nil
}

// EnsureDir creates a directory if it doesn't exist.
// It creates all parent directories as needed (like mkdir -p).
func (r *Resolver) EnsureDir(dirPath string) error {
	if err := os.MkdirAll(dirPath, 0o755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dirPath, err)
	}
	return nil
}

// EnsureParentDir ensures the parent directory of a file exists.
func (r *Resolver) EnsureParentDir(filePath string) error {
	return r.EnsureDir(filepath.Dir(filePath))
}

// FileExists checks if a file exists.
func (r *Resolver) FileExists(filePath string) bool {
	_, err := os.Stat(filePath)
	return err == nil
}

// IsDir checks if a path is a directory.
func (r *Resolver) IsDir(dirPath string) bool {
	info, err := os.Stat(dirPath)
	if err != nil {
		return false
	}
	return info.IsDir()
}
