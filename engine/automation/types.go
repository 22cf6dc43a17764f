package automation

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/tidwall/gjson"
)

// Executor runs one generated automation script and returns what it printed.
type Executor interface {
	Run(ctx context.Context, script string) (*Output, error)
}

type Output struct {
	Stdout    string
	Stderr    string
	Duration  time.Duration
	Attempts  int
	Truncated bool
}

// Result parses stdout as a single JSON document.
func (o *Output) Result() (gjson.Result, error) {
	raw := strings.TrimSpace(o.Stdout)
	if raw == "" {
		return gjson.Result{}, &ProcessError{Operation: OpParse, Err: fmt.Errorf("script produced no output")}
	}
	if o.Truncated {
		return gjson.Result{}, &ProcessError{Operation: OpParse, Err: fmt.Errorf("script output exceeded the configured limit")}
	}
	if !gjson.Valid(raw) {
		return gjson.Result{}, &ProcessError{
			Operation: OpParse,
			Err:       fmt.Errorf("script output is not valid JSON: %s", preview(raw, 120)),
		}
	}
	return gjson.Parse(raw), nil
}

const (
	OpStart   = "start"
	OpExit    = "exit"
	OpTimeout = "timeout"
	OpParse   = "parse"
	OpCommand = "command"
)

// ProcessError describes a failure of the interpreter process itself.
type ProcessError struct {
	Operation string
	ExitCode  int
	Stderr    string
	Transient bool
	Err       error
}

func (e *ProcessError) Error() string {
	msg := fmt.Sprintf("automation %s failed: %v", e.Operation, e.Err)
	if e.Stderr != "" {
		msg += ": " + preview(e.Stderr, 300)
	}
	return msg
}

func (e *ProcessError) Unwrap() error {
	return e.Err
}

// ScriptError is a failure reported by the script in its JSON result.
type ScriptError struct {
	Message string
}

func (e *ScriptError) Error() string {
	return e.Message
}

func preview(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
