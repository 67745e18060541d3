// Package config provides configuration management for the ledger tools.
// It loads configuration from environment variables and .env files.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/shunichi-ikebuchi/ledger-tools/pkg/transform"
)

// Config represents the application configuration.
type Config struct {
	Ledger  LedgerConfig
	Hledger HledgerConfig
	Debug   bool
}

// LedgerConfig locates the journal tree and the tool's own state files.
type LedgerConfig struct {
	// Root is the directory containing the YYYY-MM journal folders.
	Root string
	// CachePath overrides the incremental-run cache file location.
	CachePath string
	// DBPath overrides the run-history database location.
	DBPath string
	// Preludes are shared files (beyond the tool binary itself) whose
	// content participates in the processor identity, so editing them
	// invalidates cached results.
	Preludes []string
	// DepreciationProfile is an optional YAML file naming the accounts and
	// timezone used by the depreciate command.
	DepreciationProfile string
}

// HledgerConfig configures the external hledger invocation.
type HledgerConfig struct {
	Bin    string
	Strict bool
}

// Load loads configuration from environment variables. It automatically
// loads a .env file from the current directory if available; a custom .env
// path can be supplied instead.
func Load(envPath ...string) (*Config, error) {
	if len(envPath) > 0 && envPath[0] != "" {
		if err := godotenv.Load(envPath[0]); err != nil {
			return nil, fmt.Errorf("failed to load .env file: %w", err)
		}
	} else {
		// Try to load .env from the current directory (ignore error if not found)
		_ = godotenv.Load()
	}

	strict, err := parseBoolEnv("HLEDGER_STRICT", true)
	if err != nil {
		return nil, err
	}

	config := &Config{
		Ledger: LedgerConfig{
			Root:                getEnvOrDefault("LEDGER_ROOT", "."),
			CachePath:           os.Getenv("LEDGER_CACHE_PATH"),
			DBPath:              os.Getenv("LEDGER_DB_PATH"),
			Preludes:            splitList(os.Getenv("LEDGER_PRELUDES")),
			DepreciationProfile: os.Getenv("LEDGER_DEPRECIATION_PROFILE"),
		},
		Hledger: HledgerConfig{
			Bin:    getEnvOrDefault("HLEDGER_BIN", "hledger"),
			Strict: strict,
		},
		Debug: os.Getenv("DEBUG") == "true",
	}

	return config, nil
}

// Validate checks that the named configuration keys are set.
func (c *Config) Validate(required ...string) error {
	var missing []string

	for _, key := range required {
		var value string
		switch key {
		case "ledger.root":
			value = c.Ledger.Root
		case "ledger.cachePath":
			value = c.Ledger.CachePath
		case "ledger.dbPath":
			value = c.Ledger.DBPath
		case "hledger.bin":
			value = c.Hledger.Bin
		}
		if value == "" {
			missing = append(missing, key)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("missing required configuration: %v\nPlease check your .env file or environment variables", missing)
	}

	return nil
}

// LoadDepreciationProfile reads a YAML depreciation profile. A missing file
// (or empty path) yields the defaults; fields left empty in the file are
// filled from the defaults.
func LoadDepreciationProfile(path string) (transform.DepreciationProfile, error) {
	profile := transform.DefaultDepreciationProfile()
	if path == "" {
		return profile, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return profile, nil
		}
		return profile, fmt.Errorf("failed to read depreciation profile: %w", err)
	}

	var loaded transform.DepreciationProfile
	if err := yaml.Unmarshal(data, &loaded); err != nil {
		return profile, fmt.Errorf("failed to parse depreciation profile: %w", err)
	}

	if loaded.ExpenseAccount != "" {
		profile.ExpenseAccount = loaded.ExpenseAccount
	}
	if loaded.AccumulatedAccount != "" {
		profile.AccumulatedAccount = loaded.AccumulatedAccount
	}
	if loaded.Timezone != "" {
		profile.Timezone = loaded.Timezone
	}
	return profile, nil
}

// getEnvOrDefault returns the value of the environment variable or a default value if not set.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// parseBoolEnv parses a boolean from an environment variable.
// Returns defaultValue if the environment variable is not set.
func parseBoolEnv(key string, defaultValue bool) (bool, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	switch strings.ToLower(value) {
	case "true", "1", "yes":
		return true, nil
	case "false", "0", "no":
		return false, nil
	}
	return false, fmt.Errorf("invalid boolean value for %s: %s", key, value)
}

// splitList splits a comma-separated environment value into trimmed,
// non-empty entries.
func splitList(value string) []string {
	if value == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
