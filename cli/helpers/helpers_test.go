package helpers

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/focusmcp/focusmcp/engine/core"
)

func TestNewCliError(t *testing.T) {
	t.Run("Should create error with code and message", func(t *testing.T) {
		err := NewCliError("TEST_ERROR", "Test message")
		assert.Equal(t, "TEST_ERROR", err.Code)
		assert.Empty(t, err.Details)
		assert.NotNil(t, err.Context)
		assert.Equal(t, "TEST_ERROR: Test message", err.Error())
	})

	t.Run("Should include details in the message", func(t *testing.T) {
		err := NewCliError("TEST_ERROR", "Test message", "Details")
		assert.Equal(t, "TEST_ERROR: Test message (Details)", err.Error())
	})

	t.Run("Should add context", func(t *testing.T) {
		err := NewCliError("TEST_ERROR", "Test message").WithContext("file", "plan.yaml")
		assert.Equal(t, "plan.yaml", err.Context["file"])
	})
}

func TestExitCode(t *testing.T) {
	t.Run("Should map errors to exit codes", func(t *testing.T) {
		assert.Equal(t, 0, ExitCode(nil))
		assert.Equal(t, 1, ExitCode(errors.New("boom")))
		assert.Equal(t, 1, ExitCode(NewCliError(CodeBatchFailed, "no item was created")))
		assert.Equal(t, 2, ExitCode(fmt.Errorf("wrapped: %w", NewCliError(CodeInput, "bad file"))))
		assert.Equal(t, 3, ExitCode(context.DeadlineExceeded))
		assert.Equal(t, 3, ExitCode(core.DeadlineExceeded(errors.New("script timed out"), nil)))
	})
}

func TestOutputWriter(t *testing.T) {
	t.Run("Should write compact JSON to a non-terminal", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, NewOutputWriter(&buf).WriteData(map[string]any{"success": true}))
		assert.Equal(t, "{\"success\":true}\n", buf.String())
	})

	t.Run("Should indent when forced", func(t *testing.T) {
		var buf bytes.Buffer
		out := NewOutputWriter(&buf).WithPretty(true)
		require.NoError(t, out.WriteData(map[string]any{"results": []int{1, 2}, "success": true}))
		assert.True(t, strings.HasPrefix(buf.String(), "{\n  "))
		assert.NotContains(t, buf.String(), "\x1b[")
	})

	t.Run("Should keep cycle arrows readable", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, NewOutputWriter(&buf).WriteData(map[string]any{"error": "Cycle detected: A -> B -> A"}))
		assert.Equal(t, "{\"error\":\"Cycle detected: A -> B -> A\"}\n", buf.String())
	})
}

func TestShouldUseColor(t *testing.T) {
	t.Run("Should disable color for buffers and NO_COLOR", func(t *testing.T) {
		assert.False(t, ShouldUseColor(&bytes.Buffer{}))
		t.Setenv("NO_COLOR", "1")
		assert.False(t, ShouldUseColor(&bytes.Buffer{}))
	})
}
