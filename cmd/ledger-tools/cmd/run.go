package cmd

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/shunichi-ikebuchi/ledger-tools/pkg/cache"
	"github.com/shunichi-ikebuchi/ledger-tools/pkg/config"
	"github.com/shunichi-ikebuchi/ledger-tools/pkg/db"
	"github.com/shunichi-ikebuchi/ledger-tools/pkg/hledger"
	"github.com/shunichi-ikebuchi/ledger-tools/pkg/pathutil"
)

// runEnv bundles the shared machinery every journal-processing subcommand
// needs: configuration, path resolution, the incremental-run cache store, the
// processor identity of this invocation, and the run-history database.
type runEnv struct {
	cfg      *config.Config
	paths    *pathutil.Resolver
	store    *cache.Store
	identity cache.Identity
	key      string

	conn    *db.Connection
	history *db.RunHistory
}

// newRunEnv loads configuration and wires the environment for the named
// subcommand. The processor identity hashes the running executable plus any
// configured prelude files; an unreadable executable is fatal here, before
// any cache interaction.
func newRunEnv(name string) *runEnv {
	cfg, err := config.Load(getConfigFile())
	exitOnError(err, "failed to load configuration")
	exitOnError(cfg.Validate("ledger.root", "hledger.bin"), "invalid configuration")

	exe, err := os.Executable()
	exitOnError(err, "failed to locate executable")

	tool := strings.TrimSuffix(filepath.Base(exe), filepath.Ext(exe))
	paths := pathutil.New(pathutil.Config{
		LedgerRoot:   cfg.Ledger.Root,
		CachePath:    cfg.Ledger.CachePath,
		DatabasePath: cfg.Ledger.DBPath,
		ToolName:     tool,
	})

	identity := cache.Identity{
		Name:     name,
		Source:   exe,
		Preludes: cfg.Ledger.Preludes,
	}
	key, err := identity.Key()
	exitOnError(err, "failed to compute processor identity")

	env := &runEnv{
		cfg:      cfg,
		paths:    paths,
		store:    cache.NewStore(paths.CachePath(), slog.Default()),
		identity: identity,
		key:      key,
	}

	// The run history is best-effort: a broken database must not block the
	// journal work itself.
	conn, err := db.Open(paths.DatabasePath())
	if err != nil {
		slog.Warn("run history unavailable", "path", paths.DatabasePath(), "error", err)
	} else {
		env.conn = conn
		env.history = db.NewRunHistory(conn)
	}

	return env
}

// Close releases the run environment's resources.
func (e *runEnv) Close() {
	if e.conn != nil {
		e.conn.Close()
	}
}

// newRunner builds the hledger runner from the environment's configuration.
func (e *runEnv) newRunner() (*hledger.Runner, error) {
	return hledger.NewRunner(e.cfg.Hledger.Bin, e.cfg.Hledger.Strict, slog.Default())
}

// recordRun appends this invocation to the run history. Failures are logged,
// never fatal.
func (e *runEnv) recordRun(command string, started time.Time, candidates, processed, skipped int, runErr error) {
	if e.history == nil {
		return
	}

	record := db.RunRecord{
		Command:      command,
		ProcessorKey: e.key,
		StartedAt:    started,
		FinishedAt:   time.Now(),
		Outcome:      db.OutcomeSuccess,
		Candidates:   candidates,
		Processed:    processed,
		Skipped:      skipped,
	}
	if runErr != nil {
		record.Outcome = db.OutcomeFailure
		record.ErrorMessage = sql.NullString{String: runErr.Error(), Valid: true}
	}

	if _, err := e.history.RecordRun(record); err != nil {
		slog.Warn("failed to record run history", "command", command, "error", err)
	}
}

// forEachJournal runs fn over every journal with bounded concurrency. Unlike
// a plain errgroup the iteration never fails fast: every journal is
// attempted and all failures are joined into the returned error.
func forEachJournal(ctx context.Context, journals []string, fn func(context.Context, string) error) error {
	var (
		mu   sync.Mutex
		errs []error
	)

	var g errgroup.Group
	g.SetLimit(runtime.NumCPU())

	for _, j := range journals {
		j := j
		g.Go(func() error {
			if err := fn(ctx, j); err != nil {
				mu.Lock()
				errs = append(errs, fmt.Errorf("%s: %w", j, err))
				mu.Unlock()
			}
			return nil
		})
	}

	g.Wait()
	return errors.Join(errs...)
}
