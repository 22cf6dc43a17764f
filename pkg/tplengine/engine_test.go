package tplengine

import (
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTemplateEngine_Render(t *testing.T) {
	t.Run("Should render registered templates with sprig functions", func(t *testing.T) {
		e := NewEngine()
		require.NoError(t, e.AddTemplate("greet", `{{ .name | upper }}{{ default "!" .suffix }}`))
		out, err := e.Render("greet", map[string]any{"name": "inbox", "suffix": ""})
		require.NoError(t, err)
		assert.Equal(t, "INBOX!", out)
	})

	t.Run("Should fail on missing keys", func(t *testing.T) {
		e := NewEngine()
		require.NoError(t, e.AddTemplate("t", `{{ .absent }}`))
		_, err := e.Render("t", map[string]any{})
		require.Error(t, err)
	})

	t.Run("Should fail for unknown templates", func(t *testing.T) {
		_, err := NewEngine().Render("nope", nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "not found")
	})

	t.Run("Should merge global values under call data", func(t *testing.T) {
		e := NewEngine()
		e.AddGlobalValue("app", "OmniFocus")
		e.AddGlobalValue("name", "global")
		out, err := e.RenderString(`{{ .app }}/{{ .name }}`, map[string]any{"name": "local"})
		require.NoError(t, err)
		assert.Equal(t, "OmniFocus/local", out)
	})
}

func TestTemplateEngine_RenderString(t *testing.T) {
	t.Run("Should return plain strings untouched", func(t *testing.T) {
		out, err := NewEngine().RenderString("no templates here", nil)
		require.NoError(t, err)
		assert.Equal(t, "no templates here", out)
	})
}

func TestTemplateEngine_AddFS(t *testing.T) {
	t.Run("Should register templates by base name", func(t *testing.T) {
		fsys := fstest.MapFS{
			"scripts/create_task.js.tmpl": {Data: []byte(`const p = {{ jsValue .params }};`)},
			"scripts/prelude.js":          {Data: []byte(`ignored`)},
		}
		e := NewEngine()
		require.NoError(t, e.AddFS(fsys, "scripts/*.tmpl"))
		assert.True(t, e.HasTemplate("create_task"))
		assert.False(t, e.HasTemplate("prelude"))
		out, err := e.Render("create_task", map[string]any{"params": map[string]any{"name": `He said "hi"`}})
		require.NoError(t, err)
		assert.Equal(t, `const p = {"name":"He said \"hi\""};`, out)
	})

	t.Run("Should fail when nothing matches", func(t *testing.T) {
		require.Error(t, NewEngine().AddFS(fstest.MapFS{}, "*.tmpl"))
	})
}

func TestJSValue(t *testing.T) {
	t.Run("Should escape line separators", func(t *testing.T) {
		out, err := jsValue("a\u2028b")
		require.NoError(t, err)
		assert.Equal(t, `"a\u2028b"`, out)
	})
}
