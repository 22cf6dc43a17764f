package automation

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/google/shlex"
	"github.com/sethvargo/go-retry"

	"github.com/focusmcp/focusmcp/engine/core"
	"github.com/focusmcp/focusmcp/pkg/logger"
)

// transientMarkers are stderr fragments osascript prints when OmniFocus is
// launching, busy or did not answer an Apple event in time.
var transientMarkers = []string{
	"(-600)",
	"(-609)",
	"(-1712)",
	"isn't running",
	"is not running",
	"connection is invalid",
	"AppleEvent timed out",
}

// ScriptRunner feeds scripts on stdin to the configured interpreter.
type ScriptRunner struct {
	cfg  *Config
	argv []string
}

func NewScriptRunner(opts ...Option) (*ScriptRunner, error) {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	argv, err := parseCommand(cfg.Command)
	if err != nil {
		return nil, err
	}
	return &ScriptRunner{cfg: cfg, argv: argv}, nil
}

func parseCommand(command string) ([]string, error) {
	argv, err := shlex.Split(strings.TrimSpace(command))
	if err != nil {
		return nil, &ProcessError{Operation: OpCommand, Err: fmt.Errorf("invalid command %q: %w", command, err)}
	}
	if len(argv) == 0 {
		return nil, &ProcessError{Operation: OpCommand, Err: errors.New("command must not be empty")}
	}
	return argv, nil
}

// Run executes script, retrying transient interpreter failures with exponential backoff.
func (r *ScriptRunner) Run(ctx context.Context, script string) (*Output, error) {
	log := logger.FromContext(ctx)
	base := r.cfg.RetryBase
	if base <= 0 {
		base = time.Millisecond
	}
	backoff := retry.WithMaxRetries(r.cfg.MaxRetries, retry.NewExponential(base))
	var out *Output
	attempts := 0
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempts++
		res, err := r.runOnce(ctx, script)
		if err == nil {
			out = res
			return nil
		}
		var perr *ProcessError
		if errors.As(err, &perr) && perr.Transient {
			log.Warn("Transient automation failure, retrying",
				"attempt", attempts,
				"request_id", core.RequestID(ctx),
				"error", err,
			)
			recordRetry(ctx)
			return retry.RetryableError(err)
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	out.Attempts = attempts
	return out, nil
}

func (r *ScriptRunner) runOnce(ctx context.Context, script string) (*Output, error) {
	cmdCtx, cancel := createCommandContext(ctx, r.cfg.Timeout)
	defer cancel()
	cmd := exec.CommandContext(cmdCtx, r.argv[0], r.argv[1:]...)
	cmd.Stdin = strings.NewReader(script)
	cmd.WaitDelay = r.cfg.WaitDelay
	stdout := newLimitedBuffer(r.cfg.MaxOutputBytes)
	stderr := newLimitedBuffer(r.cfg.MaxOutputBytes)
	cmd.Stdout = stdout
	cmd.Stderr = stderr
	start := time.Now()
	err := cmd.Run()
	duration := time.Since(start)
	if err != nil {
		perr := classifyRunError(cmdCtx, ctx, err, stderr.String(), r.cfg.Timeout)
		recordError(ctx, perr.Operation)
		recordScript(ctx, duration, "error")
		logger.FromContext(ctx).Debug("Automation script failed",
			"operation", perr.Operation,
			"exit_code", perr.ExitCode,
			"duration_ms", duration.Milliseconds(),
		)
		return nil, perr
	}
	recordScript(ctx, duration, "success")
	logger.FromContext(ctx).Debug("Executed automation script",
		"request_id", core.RequestID(ctx),
		"duration_ms", duration.Milliseconds(),
		"stdout_truncated", stdout.Truncated(),
	)
	return &Output{
		Stdout:    stdout.String(),
		Stderr:    stderr.String(),
		Duration:  duration,
		Truncated: stdout.Truncated(),
	}, nil
}

func createCommandContext(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, timeout)
}

func classifyRunError(cmdCtx, parent context.Context, err error, stderr string, timeout time.Duration) *ProcessError {
	if parent.Err() != nil {
		return &ProcessError{Operation: OpTimeout, Err: parent.Err(), Stderr: stderr}
	}
	if errors.Is(cmdCtx.Err(), context.DeadlineExceeded) {
		return &ProcessError{
			Operation: OpTimeout,
			Err:       fmt.Errorf("script exceeded %s: %w", timeout, context.DeadlineExceeded),
			Stderr:    stderr,
		}
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return &ProcessError{
			Operation: OpExit,
			ExitCode:  exitErr.ExitCode(),
			Stderr:    stderr,
			Transient: isTransient(stderr),
			Err:       fmt.Errorf("exit status %d", exitErr.ExitCode()),
		}
	}
	return &ProcessError{Operation: OpStart, Err: err, Stderr: stderr}
}

func isTransient(stderr string) bool {
	for _, marker := range transientMarkers {
		if strings.Contains(stderr, marker) {
			return true
		}
	}
	return false
}
