package automation

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// The test interpreter is /bin/sh, so scripts here are shell code read from stdin.
func newTestRunner(t *testing.T, opts ...Option) *ScriptRunner {
	t.Helper()
	runner, err := NewScriptRunner(append([]Option{WithTestConfig()}, opts...)...)
	require.NoError(t, err)
	return runner
}

func TestNewScriptRunner(t *testing.T) {
	t.Run("Should split the command with shell quoting rules", func(t *testing.T) {
		runner, err := NewScriptRunner(WithCommand(`osascript -l "JavaScript"`))
		require.NoError(t, err)
		assert.Equal(t, []string{"osascript", "-l", "JavaScript"}, runner.argv)
	})

	t.Run("Should reject an empty command", func(t *testing.T) {
		_, err := NewScriptRunner(WithCommand("   "))
		var perr *ProcessError
		require.ErrorAs(t, err, &perr)
		assert.Equal(t, OpCommand, perr.Operation)
	})
}

func TestScriptRunner_Run(t *testing.T) {
	t.Run("Should return stdout and parse it as JSON", func(t *testing.T) {
		runner := newTestRunner(t)
		out, err := runner.Run(t.Context(), `echo '{"success":true,"id":"abc"}'`)
		require.NoError(t, err)
		assert.Equal(t, 1, out.Attempts)
		res, err := out.Result()
		require.NoError(t, err)
		assert.True(t, res.Get("success").Bool())
		assert.Equal(t, "abc", res.Get("id").String())
	})

	t.Run("Should fail with an exit error carrying stderr", func(t *testing.T) {
		runner := newTestRunner(t)
		_, err := runner.Run(t.Context(), "echo 'execution error: Error: syntax' >&2; exit 3")
		var perr *ProcessError
		require.ErrorAs(t, err, &perr)
		assert.Equal(t, OpExit, perr.Operation)
		assert.Equal(t, 3, perr.ExitCode)
		assert.False(t, perr.Transient)
		assert.Contains(t, err.Error(), "syntax")
	})

	t.Run("Should retry transient failures until the script succeeds", func(t *testing.T) {
		marker := filepath.Join(t.TempDir(), "launched")
		script := fmt.Sprintf(`if [ -f %q ]; then echo '{"ok":true}'; else touch %q; `+
			`echo "OmniFocus got an error: Application isn't running. (-600)" >&2; exit 1; fi`, marker, marker)
		runner := newTestRunner(t)
		out, err := runner.Run(t.Context(), script)
		require.NoError(t, err)
		assert.Equal(t, 2, out.Attempts)
		assert.Contains(t, out.Stdout, `"ok":true`)
	})

	t.Run("Should give up after the configured retries", func(t *testing.T) {
		runner := newTestRunner(t, WithRetries(1, time.Millisecond))
		_, err := runner.Run(t.Context(), `echo "AppleEvent timed out. (-1712)" >&2; exit 1`)
		var perr *ProcessError
		require.ErrorAs(t, err, &perr)
		assert.True(t, perr.Transient)
	})

	t.Run("Should time out long running scripts", func(t *testing.T) {
		runner := newTestRunner(t, WithTimeout(100*time.Millisecond))
		start := time.Now()
		_, err := runner.Run(t.Context(), "sleep 5")
		var perr *ProcessError
		require.ErrorAs(t, err, &perr)
		assert.Equal(t, OpTimeout, perr.Operation)
		assert.ErrorIs(t, err, context.DeadlineExceeded)
		assert.Less(t, time.Since(start), 4*time.Second)
	})

	t.Run("Should stop when the caller context is canceled", func(t *testing.T) {
		runner := newTestRunner(t)
		ctx, cancel := context.WithCancel(t.Context())
		cancel()
		_, err := runner.Run(ctx, "echo '{}'")
		require.Error(t, err)
		assert.True(t, errors.Is(err, context.Canceled))
	})

	t.Run("Should flag truncated output as unparsable", func(t *testing.T) {
		runner := newTestRunner(t, WithMaxOutputBytes(16))
		out, err := runner.Run(t.Context(), `echo '{"name":"`+strings.Repeat("x", 64)+`"}'`)
		require.NoError(t, err)
		assert.True(t, out.Truncated)
		_, err = out.Result()
		var perr *ProcessError
		require.ErrorAs(t, err, &perr)
		assert.Equal(t, OpParse, perr.Operation)
	})
}

func TestOutput_Result(t *testing.T) {
	t.Run("Should reject empty and invalid output", func(t *testing.T) {
		_, err := (&Output{Stdout: "  \n"}).Result()
		require.Error(t, err)
		_, err = (&Output{Stdout: "not json"}).Result()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "not valid JSON")
	})
}

func TestLimitedBuffer(t *testing.T) {
	t.Run("Should keep writes within the limit and report truncation", func(t *testing.T) {
		buf := newLimitedBuffer(5)
		n, err := buf.Write([]byte("hello world"))
		require.NoError(t, err)
		assert.Equal(t, 11, n)
		assert.Equal(t, "hello", buf.String())
		assert.True(t, buf.Truncated())
	})

	t.Run("Should not limit when the limit is zero", func(t *testing.T) {
		buf := newLimitedBuffer(0)
		_, _ = buf.Write([]byte("abc"))
		assert.Equal(t, "abc", buf.String())
		assert.False(t, buf.Truncated())
	})
}
