// Package hledger invokes the external hledger tool, which owns all parsing
// and validation of the journal format. Invocations are bounded to the
// available CPU parallelism so a large batch cannot fork-bomb the machine.
package hledger

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"runtime"
	"strings"

	"golang.org/x/sync/semaphore"
)

// DefaultBinary is the executable looked up on PATH when no override is
// configured.
const DefaultBinary = "hledger"

// Result carries the output of one hledger invocation. Stdout and Stderr are
// CRLF-normalized.
type Result struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// ExitError reports a non-zero hledger exit, keeping the full command line
// and both output streams for diagnostics.
type ExitError struct {
	Args     []string
	ExitCode int
	Stdout   string
	Stderr   string
}

func (e *ExitError) Error() string {
	msg := fmt.Sprintf("hledger %s exited with status %d", strings.Join(e.Args, " "), e.ExitCode)
	if s := strings.TrimSpace(e.Stderr); s != "" {
		msg += ": " + s
	}
	return msg
}

// Runner executes hledger against single journal files.
type Runner struct {
	bin    string
	strict bool
	sem    *semaphore.Weighted
	logger *slog.Logger
}

// NewRunner resolves the hledger executable and returns a Runner. An empty
// bin falls back to DefaultBinary; a binary that cannot be found is an error
// up front, before any journal is touched. strict adds --strict to every
// invocation.
func NewRunner(bin string, strict bool, logger *slog.Logger) (*Runner, error) {
	if bin == "" {
		bin = DefaultBinary
	}
	prog, err := exec.LookPath(bin)
	if err != nil {
		return nil, fmt.Errorf("hledger executable not found: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{
		bin:    prog,
		strict: strict,
		sem:    semaphore.NewWeighted(int64(runtime.NumCPU())),
		logger: logger,
	}, nil
}

// Run executes `hledger --file <journal> [--strict] <args...>` and returns
// its output. A non-zero exit is reported as an *ExitError.
func (r *Runner) Run(ctx context.Context, journal string, args ...string) (Result, error) {
	if err := r.sem.Acquire(ctx, 1); err != nil {
		return Result{}, err
	}
	defer r.sem.Release(1)

	cli := []string{"--file", journal}
	if r.strict {
		cli = append(cli, "--strict")
	}
	cli = append(cli, args...)

	r.logger.Debug("running hledger", "args", cli)

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, r.bin, cli...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	res := Result{
		Stdout: normalizeNewlines(stdout.String()),
		Stderr: normalizeNewlines(stderr.String()),
	}
	if cmd.ProcessState != nil {
		res.ExitCode = cmd.ProcessState.ExitCode()
	}

	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return res, &ExitError{
				Args:     cli,
				ExitCode: res.ExitCode,
				Stdout:   res.Stdout,
				Stderr:   res.Stderr,
			}
		}
		return res, fmt.Errorf("failed to run hledger: %w", err)
	}
	return res, nil
}

func normalizeNewlines(s string) string {
	return strings.ReplaceAll(s, "\r\n", "\n")
}
