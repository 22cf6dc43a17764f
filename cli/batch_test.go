package cli

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"github.com/focusmcp/focusmcp/cli/helpers"
	"github.com/focusmcp/focusmcp/engine/automation"
	"github.com/focusmcp/focusmcp/engine/batch"
	"github.com/focusmcp/focusmcp/pkg/config"
)

// scriptExecutor answers every script with the same JSON document.
type scriptExecutor struct {
	mu     sync.Mutex
	runs   int
	stdout string
	err    error
}

func (e *scriptExecutor) Run(_ context.Context, _ string) (*automation.Output, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.runs++
	if e.err != nil {
		return nil, e.err
	}
	return &automation.Output{Stdout: e.stdout}, nil
}

func testApp(t *testing.T, exec automation.Executor) *app {
	t.Helper()
	a, err := newAppWithExecutor(t.Context(), config.Default(), exec)
	require.NoError(t, err)
	return a
}

func TestDecodeSpecs(t *testing.T) {
	t.Run("Should decode a JSON list", func(t *testing.T) {
		specs, err := decodeSpecs([]byte(`[
			{"kind":"project","name":"Launch","tempId":"p"},
			{"kind":"task","name":"Write","parentTempId":"p","orderHint":2}
		]`), ".json")
		require.NoError(t, err)
		require.Len(t, specs, 2)
		assert.Equal(t, "project", specs[0].Kind)
		assert.Equal(t, "p", specs[1].ParentTempID)
		assert.Equal(t, 2, specs[1].OrderHint)
	})

	t.Run("Should decode a YAML list", func(t *testing.T) {
		specs, err := decodeSpecs([]byte(
			"- kind: project\n  name: Launch\n  tempId: p\n"+
				"- kind: task\n  name: Write\n  parentTempId: p\n  tags: [home, errands]\n"), ".yaml")
		require.NoError(t, err)
		require.Len(t, specs, 2)
		assert.Equal(t, []string{"home", "errands"}, specs[1].Tags)
	})

	t.Run("Should decode the items object form", func(t *testing.T) {
		specs, err := decodeSpecs([]byte("items:\n  - kind: task\n    name: Alone\n"), ".yml")
		require.NoError(t, err)
		require.Len(t, specs, 1)
		assert.Equal(t, "Alone", specs[0].Name)

		specs, err = decodeSpecs([]byte(`{"items":[{"kind":"task","name":"Alone"}]}`), ".json")
		require.NoError(t, err)
		require.Len(t, specs, 1)
	})

	t.Run("Should reject empty files and files without items", func(t *testing.T) {
		_, err := decodeSpecs([]byte("  \n"), ".json")
		assert.ErrorContains(t, err, "empty")
		_, err = decodeSpecs([]byte(`{"other":1}`), ".json")
		assert.ErrorContains(t, err, "no items")
	})

	t.Run("Should report malformed JSON", func(t *testing.T) {
		_, err := decodeSpecs([]byte(`[{"kind":`), ".json")
		assert.ErrorContains(t, err, "failed to parse items")
	})
}

func TestReadSpecs(t *testing.T) {
	t.Run("Should read from a file and from stdin", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "plan.json")
		require.NoError(t, os.WriteFile(path, []byte(`[{"kind":"task","name":"From file"}]`), 0o600))
		specs, err := readSpecs(path, nil)
		require.NoError(t, err)
		assert.Equal(t, "From file", specs[0].Name)

		specs, err = readSpecs("-", strings.NewReader("- kind: task\n  name: From stdin\n"))
		require.NoError(t, err)
		assert.Equal(t, "From stdin", specs[0].Name)
	})
}

func TestExecuteBatch(t *testing.T) {
	t.Run("Should create items through the OmniFocus service and print the result", func(t *testing.T) {
		exec := &scriptExecutor{stdout: `{"success":true,"id":"of-1","name":"x"}`}
		a := testApp(t, exec)
		specs, err := decodeSpecs([]byte(
			"- kind: project\n  name: Launch\n  tempId: p\n"+
				"- kind: task\n  name: Write\n  parentTempId: p\n"), ".yaml")
		require.NoError(t, err)
		var out bytes.Buffer
		err = executeBatch(t.Context(), a.batch, specs, helpers.NewOutputWriter(&out))
		require.NoError(t, err)
		assert.Equal(t, 2, exec.runs)
		body := out.String()
		assert.True(t, gjson.Get(body, "success").Bool())
		assert.Equal(t, "of-1", gjson.Get(body, "results.1.id").String())
	})

	t.Run("Should fail with a batch error when nothing was created", func(t *testing.T) {
		a := testApp(t, &scriptExecutor{err: errors.New("osascript exploded")})
		specs := []batch.ItemSpec{{Kind: "task", Name: "Doomed"}}
		var out bytes.Buffer
		err := executeBatch(t.Context(), a.batch, specs, helpers.NewOutputWriter(&out))
		var cliErr *helpers.CliError
		require.ErrorAs(t, err, &cliErr)
		assert.Equal(t, helpers.CodeBatchFailed, cliErr.Code)
		assert.False(t, gjson.Get(out.String(), "success").Bool())
		assert.Contains(t, gjson.Get(out.String(), "results.0.error").String(), "osascript exploded")
	})
}
