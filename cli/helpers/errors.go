package helpers

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/focusmcp/focusmcp/engine/core"
)

const (
	CodeConfig        = "CONFIG_ERROR"
	CodeInput         = "INPUT_ERROR"
	CodeBatchFailed   = "BATCH_FAILED"
	CodeUnavailable   = "OMNIFOCUS_UNAVAILABLE"
	CodeVersionTooOld = "UNSUPPORTED_VERSION"
)

// CliError is an error reported to the terminal with a stable code
type CliError struct {
	Code      string         `json:"code"`
	Message   string         `json:"message"`
	Details   string         `json:"details,omitempty"`
	Context   map[string]any `json:"context,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}

func (e *CliError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func NewCliError(code, message string, details ...string) *CliError {
	err := &CliError{
		Code:      code,
		Message:   message,
		Timestamp: time.Now(),
		Context:   make(map[string]any),
	}
	if len(details) > 0 {
		err.Details = details[0]
	}
	return err
}

func (e *CliError) WithContext(key string, value any) *CliError {
	if e.Context == nil {
		e.Context = make(map[string]any)
	}
	e.Context[key] = value
	return e
}

// IsTimeoutError reports context deadlines and automation timeouts.
func IsTimeoutError(err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, context.DeadlineExceeded) || core.CodeOf(err) == core.CodeTimeout
}

// ExitCode maps an error to the process exit status.
func ExitCode(err error) int {
	var cliErr *CliError
	switch {
	case err == nil:
		return 0
	case errors.As(err, &cliErr) && cliErr.Code == CodeInput:
		return 2
	case IsTimeoutError(err):
		return 3
	default:
		return 1
	}
}
